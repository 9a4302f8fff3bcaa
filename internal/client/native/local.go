package native

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/cryptox"
	"github.com/dmitrijs2005/vaultblob/internal/filex"
	"github.com/dmitrijs2005/vaultblob/internal/logging"
	"github.com/dmitrijs2005/vaultblob/internal/netx"
)

// ErrOutsideBridgeDir is returned when a command names a file the bridge
// did not create.
var ErrOutsideBridgeDir = errors.New("file is outside the bridge directory")

// LocalBridge keeps its files below a private working directory:
// "encrypted" for downloads and encrypted uploads, "decrypted" for
// plaintext copies. Upload, AESDecryptFile and DeleteFile only accept
// files below that directory.
type LocalBridge struct {
	dir        string
	httpClient *http.Client
	log        logging.Logger
}

func NewLocalBridge(dir string, httpClient *http.Client, log logging.Logger) (*LocalBridge, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for _, sub := range []string{"encrypted", "decrypted"} {
		if _, err := filex.EnsureDir(filepath.Join(dir, sub)); err != nil {
			return nil, err
		}
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	return &LocalBridge{dir: dir, httpClient: httpClient, log: log}, nil
}

func (b *LocalBridge) encryptedDir() string { return filepath.Join(b.dir, "encrypted") }
func (b *LocalBridge) decryptedDir() string { return filepath.Join(b.dir, "decrypted") }

// owned resolves uri and checks that it lies below the bridge directory.
func (b *LocalBridge) owned(uri string) (string, error) {
	abs, err := filepath.Abs(uri)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(b.dir, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideBridgeDir, uri)
	}
	return abs, nil
}

func (b *LocalBridge) Download(ctx context.Context, url, filename string, headers map[string]string) (DownloadTaskResponse, error) {
	resp, err := netx.Send(ctx, b.httpClient, http.MethodGet, url, headers, nil)
	if err != nil {
		return DownloadTaskResponse{}, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	result := DownloadTaskResponse{
		StatusCode:     resp.StatusCode,
		ErrorID:        resp.Header.Get(common.ErrorIDHeaderName),
		Precondition:   resp.Header.Get(common.PreconditionHeaderName),
		SuspensionTime: netx.SuspensionTimeFromHeader(resp.Header),
	}
	if resp.StatusCode != http.StatusOK {
		return result, nil
	}

	path := filex.TempPath(b.encryptedDir(), filename)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return DownloadTaskResponse{}, err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = filex.RemoveIfExists(path)
		return DownloadTaskResponse{}, fmt.Errorf("%w: writing %s: %v", common.ErrNetwork, filename, err)
	}

	b.log.Debug(ctx, "bridge download finished", "file", path, "size", n)
	result.EncryptedFileURI = path
	return result, nil
}

func (b *LocalBridge) Upload(ctx context.Context, fileURI, url, method string, headers map[string]string) (UploadTaskResponse, error) {
	path, err := b.owned(fileURI)
	if err != nil {
		return UploadTaskResponse{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return UploadTaskResponse{}, err
	}
	defer f.Close()

	resp, err := netx.Send(ctx, b.httpClient, method, url, headers, f)
	if err != nil {
		return UploadTaskResponse{}, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return UploadTaskResponse{
		StatusCode:     resp.StatusCode,
		ErrorID:        resp.Header.Get(common.ErrorIDHeaderName),
		Precondition:   resp.Header.Get(common.PreconditionHeaderName),
		SuspensionTime: netx.SuspensionTimeFromHeader(resp.Header),
	}, nil
}

// plainName strips the unique prefix added by filex.TempPath.
func plainName(uri string) string {
	base := filepath.Base(uri)
	if len(base) > 37 && base[36] == '-' {
		base = base[37:]
	}
	return strings.TrimSuffix(base, ".enc")
}

func (b *LocalBridge) AESDecryptFile(ctx context.Context, key []byte, uri string) (string, error) {
	src, err := b.owned(uri)
	if err != nil {
		return "", err
	}
	dst := filex.TempPath(b.decryptedDir(), plainName(src))
	if err := cryptox.DecryptFile(key, src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (b *LocalBridge) AESEncryptFile(ctx context.Context, key []byte, uri string, iv []byte) (EncryptedFileInfo, error) {
	dst := filex.TempPath(b.encryptedDir(), filepath.Base(uri)+".enc")
	info, err := cryptox.EncryptFile(key, uri, dst, iv)
	if err != nil {
		return EncryptedFileInfo{}, err
	}
	return EncryptedFileInfo{URI: info.Path, UnencSize: info.UnencSize}, nil
}

func (b *LocalBridge) DeleteFile(ctx context.Context, uri string) error {
	path, err := b.owned(uri)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// ClearFileData removes every file the bridge has created.
func (b *LocalBridge) ClearFileData(ctx context.Context) error {
	return errors.Join(filex.ClearDir(b.encryptedDir()), filex.ClearDir(b.decryptedDir()))
}

var _ FileBridge = (*LocalBridge)(nil)
