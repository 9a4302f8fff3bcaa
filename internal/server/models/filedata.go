package models

// Upload states of a file data record.
const (
	UploadPending   = "pending"
	UploadCompleted = "completed"
)

// FileData describes a legacy file data record. The ciphertext is stored
// under DataKey(ID) once uploaded.
type FileData struct {
	ID     string `json:"id"`
	Group  string `json:"group"`
	UserID string `json:"userId"`
	Size   int64  `json:"size"`
	// UploadStatus is UploadPending until the data arrives.
	UploadStatus string `json:"uploadStatus"`
}

func FileDataKey(id string) string     { return "filedata/" + id + "/meta" }
func FileDataDataKey(id string) string { return "filedata/" + id + "/data" }

type FileDataDataPost struct {
	Size  string `json:"size"`
	Group string `json:"group"`
}

type FileDataReturnPost struct {
	FileData string `json:"fileData"`
}

type IDTuple struct {
	ListID    string `json:"listId"`
	ElementID string `json:"elementId"`
}

// FileDataDataGet selects file data by the file's element id.
type FileDataDataGet struct {
	File   IDTuple `json:"file"`
	Base64 bool    `json:"base64"`
}
