package native

import (
	"context"
	"encoding/json"
	"fmt"
)

// RemoteBridge forwards FileBridge calls to a Host.
type RemoteBridge struct {
	d *Dispatcher
}

func NewRemoteBridge(d *Dispatcher) *RemoteBridge {
	return &RemoteBridge{d: d}
}

func call[T any](ctx context.Context, d *Dispatcher, command string, args ...any) (T, error) {
	var out T
	raw, err := d.PostRequest(ctx, command, args...)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s response: %w", command, err)
	}
	return out, nil
}

func (b *RemoteBridge) Download(ctx context.Context, url, filename string, headers map[string]string) (DownloadTaskResponse, error) {
	return call[DownloadTaskResponse](ctx, b.d, CommandDownload, url, filename, headers)
}

func (b *RemoteBridge) Upload(ctx context.Context, fileURI, url, method string, headers map[string]string) (UploadTaskResponse, error) {
	return call[UploadTaskResponse](ctx, b.d, CommandUpload, fileURI, url, method, headers)
}

func (b *RemoteBridge) AESDecryptFile(ctx context.Context, key []byte, uri string) (string, error) {
	return call[string](ctx, b.d, CommandAESDecryptFile, key, uri)
}

func (b *RemoteBridge) AESEncryptFile(ctx context.Context, key []byte, uri string, iv []byte) (EncryptedFileInfo, error) {
	return call[EncryptedFileInfo](ctx, b.d, CommandAESEncryptFile, key, uri, iv)
}

func (b *RemoteBridge) DeleteFile(ctx context.Context, uri string) error {
	_, err := b.d.PostRequest(ctx, CommandDeleteFile, uri)
	return err
}

func (b *RemoteBridge) ClearFileData(ctx context.Context) error {
	_, err := b.d.PostRequest(ctx, CommandClearFileData)
	return err
}

var _ FileBridge = (*RemoteBridge)(nil)
