package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// BlobReference is the decoded form of the reference token returned by the
// storage service after an upload. Callers treat the token as opaque except
// when recording where a blob lives.
type BlobReference struct {
	ArchiveID string `json:"archiveId"`
	BlobID    string `json:"blobId"`
	BlobHash  string `json:"blobHash"`
}

// ParseBlobReference decodes a reference token.
func ParseBlobReference(token []byte) (BlobReference, error) {
	var ref BlobReference
	if err := json.Unmarshal(token, &ref); err != nil {
		return BlobReference{}, fmt.Errorf("invalid blob reference token: %w", err)
	}
	if ref.ArchiveID == "" || ref.BlobID == "" {
		return BlobReference{}, fmt.Errorf("invalid blob reference token: missing archive or blob id")
	}
	return ref, nil
}

func (r BlobReference) Locator() BlobLocator {
	return BlobLocator{ArchiveID: r.ArchiveID, BlobID: r.BlobID}
}

// BlobRecord is a locally recorded upload.
type BlobRecord struct {
	BlobID          string
	ArchiveID       string
	Name            string
	Size            int64
	Fingerprint     string
	OwnerGroup      string
	OwnerEncSessKey []byte
	CreatedAt       time.Time
}

// FileDataArchive marks records of files uploaded through the file data
// service. Their BlobID is the file data id.
const FileDataArchive = "filedata"

func (r *BlobRecord) IsFileData() bool {
	return r.ArchiveID == FileDataArchive
}
