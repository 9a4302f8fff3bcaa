package models

import (
	"errors"
)

var (
	ErrInvalidTokenRequest = errors.New("token request must carry exactly one of write or readArchiveId")
	ErrNoStorageServers    = errors.New("blob access info has no storage servers")
)

// BlobServerURL is one candidate storage server.
type BlobServerURL struct {
	URL string `json:"url"`
}

// BlobAccessInfo is a short-lived, scope-limited storage token together with
// the servers it is valid for. Servers[0] is the preferred server.
type BlobAccessInfo struct {
	StorageAccessToken string          `json:"storageAccessToken"`
	Servers            []BlobServerURL `json:"servers"`
}

// Validate checks the invariant that at least one server is present.
func (b BlobAccessInfo) Validate() error {
	if len(b.Servers) == 0 || b.Servers[0].URL == "" {
		return ErrNoStorageServers
	}
	return nil
}

// PreferredServer returns the first candidate server.
func (b BlobAccessInfo) PreferredServer() string {
	return b.Servers[0].URL
}

// TypeInfo identifies the entity type a blob belongs to.
type TypeInfo struct {
	Application string `json:"application"`
	TypeID      string `json:"typeId"`
}

// BlobWriteData is the write variant of a token request.
type BlobWriteData struct {
	ArchiveOwnerGroup string   `json:"archiveOwnerGroup"`
	Type              TypeInfo `json:"type"`
}

// BlobAccessTokenData is the token request. Exactly one of Write and
// ReadArchiveID is set; the other is omitted from the JSON body.
type BlobAccessTokenData struct {
	Write         *BlobWriteData `json:"write,omitempty"`
	ReadArchiveID *string        `json:"readArchiveId,omitempty"`
}

// NewWriteTokenRequest builds a write-scoped request for ownerGroup.
func NewWriteTokenRequest(ownerGroup string, typeInfo TypeInfo) BlobAccessTokenData {
	return BlobAccessTokenData{Write: &BlobWriteData{ArchiveOwnerGroup: ownerGroup, Type: typeInfo}}
}

// NewReadTokenRequest builds a read-scoped request for archiveID.
func NewReadTokenRequest(archiveID string) BlobAccessTokenData {
	return BlobAccessTokenData{ReadArchiveID: &archiveID}
}

func (d BlobAccessTokenData) IsWrite() bool { return d.Write != nil }

func (d BlobAccessTokenData) Validate() error {
	if (d.Write == nil) == (d.ReadArchiveID == nil) {
		return ErrInvalidTokenRequest
	}
	return nil
}

// BlobAccessTokenReturn is the token service response.
type BlobAccessTokenReturn struct {
	BlobAccessInfo BlobAccessInfo `json:"blobAccessInfo"`
}

// BlobLocator identifies one immutable blob inside an archive.
// On the wire it is the BlobDataGet request body.
type BlobLocator struct {
	ArchiveID string `json:"archiveId"`
	BlobID    string `json:"blobId"`
}
