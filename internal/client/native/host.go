package native

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/vaultblob/internal/logging"
)

// NewHost serves the bridge commands over t using bridge.
func NewHost(t Transport, bridge FileBridge, log logging.Logger) *Dispatcher {
	return NewDispatcher(t, HostCommands(bridge, log), log)
}

// HostCommands returns the handler table of a bridge host.
func HostCommands(bridge FileBridge, log logging.Logger) map[string]Handler {
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	return map[string]Handler{
		CommandInit: func(ctx context.Context, args []json.RawMessage) (any, error) {
			log.Info(ctx, "native bridge client connected")
			return nil, nil
		},
		CommandDownload: func(ctx context.Context, args []json.RawMessage) (any, error) {
			var (
				url, filename string
				headers       map[string]string
			)
			if err := decodeArgs(args, &url, &filename, &headers); err != nil {
				return nil, err
			}
			return bridge.Download(ctx, url, filename, headers)
		},
		CommandUpload: func(ctx context.Context, args []json.RawMessage) (any, error) {
			var (
				fileURI, url, method string
				headers              map[string]string
			)
			if err := decodeArgs(args, &fileURI, &url, &method, &headers); err != nil {
				return nil, err
			}
			return bridge.Upload(ctx, fileURI, url, method, headers)
		},
		CommandAESDecryptFile: func(ctx context.Context, args []json.RawMessage) (any, error) {
			var (
				key []byte
				uri string
			)
			if err := decodeArgs(args, &key, &uri); err != nil {
				return nil, err
			}
			return bridge.AESDecryptFile(ctx, key, uri)
		},
		CommandAESEncryptFile: func(ctx context.Context, args []json.RawMessage) (any, error) {
			var (
				key, iv []byte
				uri     string
			)
			if err := decodeArgs(args, &key, &uri, &iv); err != nil {
				return nil, err
			}
			return bridge.AESEncryptFile(ctx, key, uri, iv)
		},
		CommandDeleteFile: func(ctx context.Context, args []json.RawMessage) (any, error) {
			var uri string
			if err := decodeArgs(args, &uri); err != nil {
				return nil, err
			}
			return nil, bridge.DeleteFile(ctx, uri)
		},
		CommandClearFileData: func(ctx context.Context, args []json.RawMessage) (any, error) {
			return nil, bridge.ClearFileData(ctx)
		},
	}
}

func decodeArgs(args []json.RawMessage, out ...any) error {
	if len(args) != len(out) {
		return fmt.Errorf("expected %d arguments, got %d", len(out), len(args))
	}
	for i, raw := range args {
		if err := json.Unmarshal(raw, out[i]); err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return nil
}
