// Package native defines the file bridge used by app and desktop clients to
// move attachment bytes outside process memory, plus the message transports
// that connect the client with the process hosting the bridge.
//
// A client talks to the bridge through a FileBridge. LocalBridge implements
// it directly on the filesystem; RemoteBridge forwards every call over a
// Dispatcher to a Host serving a LocalBridge in another process.
package native

import (
	"context"
)

// Commands understood by a Host.
const (
	CommandInit           = "init"
	CommandDownload       = "download"
	CommandUpload         = "upload"
	CommandAESEncryptFile = "aesEncryptFile"
	CommandAESDecryptFile = "aesDecryptFile"
	CommandDeleteFile     = "deleteFile"
	CommandClearFileData  = "clearFileData"
)

// DownloadTaskResponse describes the outcome of a bridge download. The
// response body is materialized at EncryptedFileURI only on status 200.
type DownloadTaskResponse struct {
	StatusCode       int    `json:"statusCode"`
	EncryptedFileURI string `json:"encryptedFileUri,omitempty"`
	ErrorID          string `json:"errorId,omitempty"`
	Precondition     string `json:"precondition,omitempty"`
	SuspensionTime   string `json:"suspensionTime,omitempty"`
}

type UploadTaskResponse struct {
	StatusCode     int    `json:"statusCode"`
	ErrorID        string `json:"errorId,omitempty"`
	Precondition   string `json:"precondition,omitempty"`
	SuspensionTime string `json:"suspensionTime,omitempty"`
}

type EncryptedFileInfo struct {
	URI       string `json:"uri"`
	UnencSize int64  `json:"unencSize"`
}

// FileBridge performs file transfers and file crypto out of process.
// Non-2xx HTTP statuses are reported in the task responses, not as errors.
type FileBridge interface {
	Download(ctx context.Context, url, filename string, headers map[string]string) (DownloadTaskResponse, error)
	Upload(ctx context.Context, fileURI, url, method string, headers map[string]string) (UploadTaskResponse, error)
	// AESDecryptFile decrypts the file at uri and returns the URI of the
	// plaintext copy.
	AESDecryptFile(ctx context.Context, key []byte, uri string) (string, error)
	AESEncryptFile(ctx context.Context, key []byte, uri string, iv []byte) (EncryptedFileInfo, error)
	DeleteFile(ctx context.Context, uri string) error
	ClearFileData(ctx context.Context) error
}
