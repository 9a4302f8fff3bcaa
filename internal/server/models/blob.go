package models

import "github.com/google/uuid"

var archiveNamespace = uuid.MustParse("0c7d3a52-8e4b-4f61-a0d9-3b2f6e1c5a87")

// ArchiveFor returns the archive that holds the blobs of ownerGroup.
func ArchiveFor(ownerGroup string) string {
	return uuid.NewSHA1(archiveNamespace, []byte(ownerGroup)).String()
}

// BlobKey is the object key of a blob's ciphertext.
func BlobKey(archiveID, blobID string) string {
	return "blobs/" + archiveID + "/" + blobID
}

type TypeInfo struct {
	Application string `json:"application"`
	TypeID      string `json:"typeId"`
}

type BlobWriteData struct {
	ArchiveOwnerGroup string   `json:"archiveOwnerGroup"`
	Type              TypeInfo `json:"type"`
}

// BlobAccessTokenData requests a write token (Write) or a read token
// (ReadArchiveID). Exactly one is set.
type BlobAccessTokenData struct {
	Write         *BlobWriteData `json:"write,omitempty"`
	ReadArchiveID *string        `json:"readArchiveId,omitempty"`
}

func (d BlobAccessTokenData) Valid() bool {
	return (d.Write == nil) != (d.ReadArchiveID == nil)
}

type BlobServerURL struct {
	URL string `json:"url"`
}

type BlobAccessInfo struct {
	StorageAccessToken string          `json:"storageAccessToken"`
	Servers            []BlobServerURL `json:"servers"`
}

type BlobAccessTokenReturn struct {
	BlobAccessInfo BlobAccessInfo `json:"blobAccessInfo"`
}

// BlobLocator is the body of a blob read.
type BlobLocator struct {
	ArchiveID string `json:"archiveId"`
	BlobID    string `json:"blobId"`
}

// BlobReference is returned verbatim to the uploader.
type BlobReference struct {
	ArchiveID string `json:"archiveId"`
	BlobID    string `json:"blobId"`
	BlobHash  string `json:"blobHash"`
}
