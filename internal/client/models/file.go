package models

import (
	"github.com/dmitrijs2005/vaultblob/internal/client/entity"
)

// IDTuple addresses an element of a list entity.
type IDTuple struct {
	ListID    string `json:"listId"`
	ElementID string `json:"elementId"`
}

// File is an attachment entity. Its name and mime type are stored
// encrypted under the file's session key.
type File struct {
	ID              IDTuple `json:"_id"`
	Name            string  `json:"name"`
	MimeType        string  `json:"mimeType,omitempty"`
	Size            int64   `json:"size"`
	OwnerGroupID    string  `json:"_ownerGroup"`
	OwnerEncSessKey []byte  `json:"_ownerEncSessionKey"`
}

func (f *File) TypeModel() entity.TypeModel { return FileTypeModel }
func (f *File) OwnerGroup() string          { return f.OwnerGroupID }
func (f *File) OwnerEncSessionKey() []byte  { return f.OwnerEncSessKey }

var _ entity.Instance = (*File)(nil)

// FileReference points at bytes held outside process memory by the native
// file bridge.
type FileReference struct {
	Name     string
	MimeType string
	Location string
	Size     int64
}

// DataFile holds decrypted attachment bytes in memory.
type DataFile struct {
	Name     string
	MimeType string
	Data     []byte
	Size     int64
	ID       *IDTuple
}

// ConvertToDataFile wraps decrypted bytes of file.
func ConvertToDataFile(file *File, data []byte) DataFile {
	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = MediaTypeBinary
	}
	id := file.ID
	return DataFile{
		Name:     file.Name,
		MimeType: mimeType,
		Data:     data,
		Size:     int64(len(data)),
		ID:       &id,
	}
}

// FileDataDataGet requests the content of a file.
type FileDataDataGet struct {
	File   IDTuple `json:"file"`
	Base64 bool    `json:"base64"`
}

// FileDataDataPost registers a pending legacy upload.
type FileDataDataPost struct {
	Size  string `json:"size"`
	Group string `json:"group"`
}

// FileDataReturnPost carries the id of the registered file data.
type FileDataReturnPost struct {
	FileData string `json:"fileData"`
}
