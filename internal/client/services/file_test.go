package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/client/auth"
	"github.com/dmitrijs2005/vaultblob/internal/client/client"
	"github.com/dmitrijs2005/vaultblob/internal/client/entity"
	"github.com/dmitrijs2005/vaultblob/internal/client/models"
	"github.com/dmitrijs2005/vaultblob/internal/client/native"
	"github.com/dmitrijs2005/vaultblob/internal/client/sessionkey"
	"github.com/dmitrijs2005/vaultblob/internal/client/suspension"
	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/cryptox"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct{}

func (fakeAuth) CreateAuthHeaders() map[string]string {
	return map[string]string{common.AccessTokenHeaderName: "user-token"}
}

func (fakeAuth) GroupID(t auth.GroupType) (string, error) {
	if t == auth.GroupTypeMail {
		return "mail-group", nil
	}
	return "", common.ErrAccessDenied
}

type tokenCall struct {
	write      bool
	ownerGroup string
	model      entity.TypeModel
	archiveID  string
}

type fakeBroker struct {
	mu    sync.Mutex
	info  models.BlobAccessInfo
	err   error
	calls []tokenCall
}

func (b *fakeBroker) AcquireUploadToken(ctx context.Context, ownerGroupID string, model entity.TypeModel) (models.BlobAccessInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, tokenCall{write: true, ownerGroup: ownerGroupID, model: model})
	return b.info, b.err
}

func (b *fakeBroker) AcquireDownloadToken(ctx context.Context, archiveID string) (models.BlobAccessInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, tokenCall{archiveID: archiveID})
	return b.info, b.err
}

type failingKeys struct{}

func (failingKeys) Resolve(ctx context.Context, instance entity.Instance) ([]byte, error) {
	return nil, errors.New("keyring locked")
}

// fakeBridge scripts bridge responses and records calls.
type fakeBridge struct {
	mu sync.Mutex

	downloads     []native.DownloadTaskResponse
	downloadCalls int
	downloadURLs  []string

	uploadResp  native.UploadTaskResponse
	uploads     []native.UploadTaskResponse
	uploadURLs  []string
	uploadFiles []string

	encInfo   native.EncryptedFileInfo
	encURIs   []string
	encCalls  int
	encIV     []byte
	decrypted string
	decErr    error

	deleted   []string
	deleteErr error
	cleared   bool
}

func (b *fakeBridge) Download(ctx context.Context, url, filename string, headers map[string]string) (native.DownloadTaskResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.downloadURLs = append(b.downloadURLs, url)
	i := b.downloadCalls
	b.downloadCalls++
	if i >= len(b.downloads) {
		i = len(b.downloads) - 1
	}
	return b.downloads[i], nil
}

func (b *fakeBridge) Upload(ctx context.Context, fileURI, url, method string, headers map[string]string) (native.UploadTaskResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploadURLs = append(b.uploadURLs, url)
	b.uploadFiles = append(b.uploadFiles, fileURI)
	if len(b.uploads) == 0 {
		return b.uploadResp, nil
	}
	i := min(len(b.uploadURLs)-1, len(b.uploads)-1)
	return b.uploads[i], nil
}

func (b *fakeBridge) AESDecryptFile(ctx context.Context, key []byte, uri string) (string, error) {
	return b.decrypted, b.decErr
}

func (b *fakeBridge) AESEncryptFile(ctx context.Context, key []byte, uri string, iv []byte) (native.EncryptedFileInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.encIV = iv
	info := b.encInfo
	if b.encCalls < len(b.encURIs) {
		info.URI = b.encURIs[b.encCalls]
	}
	b.encCalls++
	return info, nil
}

func (b *fakeBridge) DeleteFile(ctx context.Context, uri string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, uri)
	return b.deleteErr
}

func (b *fakeBridge) ClearFileData(ctx context.Context) error {
	b.cleared = true
	return nil
}

func (b *fakeBridge) uploadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.uploadURLs)
}

func (b *fakeBridge) deletedFiles() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

func (b *fakeBridge) downloadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.downloadCalls
}

const ownerGroup = "owner-group"

// newFile returns a file whose session key is wrapped under groupKey.
func newFile(t *testing.T, groupKey []byte) (*models.File, []byte) {
	t.Helper()
	sessionKey, ownerEncKey, err := sessionkey.NewOwnerEncSessionKey(context.Background(), sessionkey.StaticKeyring{ownerGroup: groupKey}, ownerGroup)
	require.NoError(t, err)
	return &models.File{
		ID:              models.IDTuple{ListID: "L1", ElementID: "E1"},
		Name:            "report.pdf",
		Size:            42,
		OwnerGroupID:    ownerGroup,
		OwnerEncSessKey: ownerEncKey,
	}, sessionKey
}

type fixture struct {
	svc    *FileService
	broker *fakeBroker
	bridge *fakeBridge
	clock  *suspension.ManualClock
	ctrl   *suspension.Controller
}

func newFixture(t *testing.T, origin string, mode Mode, groupKey []byte) *fixture {
	t.Helper()
	clock := suspension.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ctrl := suspension.NewController(suspension.WithClock(clock))
	rest := client.NewRestClient(origin, nil, ctrl, nil)
	broker := &fakeBroker{}
	bridge := &fakeBridge{}
	svc := NewFileService(FileServiceConfig{
		Rest:       rest,
		Executor:   client.NewServiceExecutor(rest, fakeAuth{}),
		Tokens:     broker,
		Keys:       sessionkey.NewResolver(sessionkey.StaticKeyring{ownerGroup: groupKey}),
		Auth:       fakeAuth{},
		Suspension: ctrl,
		Mode:       mode,
		Bridge:     bridge,
	})
	return &fixture{svc: svc, broker: broker, bridge: bridge, clock: clock, ctrl: ctrl}
}

func TestUploadBlob_HelloReturnsReference(t *testing.T) {
	groupKey := cryptox.GenerateKey()
	file, sessionKey := newFile(t, groupKey)

	var hitsB atomic.Int32
	serverB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitsB.Add(1)
	}))
	defer serverB.Close()

	var gotBody []byte
	var gotReq *http.Request
	serverA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte("ref-123"))
	}))
	defer serverA.Close()

	f := newFixture(t, "http://origin.invalid", ModeBrowser, groupKey)
	f.broker.info = models.BlobAccessInfo{
		StorageAccessToken: "T",
		Servers:            []models.BlobServerURL{{URL: serverA.URL}, {URL: serverB.URL}},
	}

	ref, err := f.svc.UploadBlob(context.Background(), file, []byte("hello"), "G")
	require.NoError(t, err)
	assert.Equal(t, []byte("ref-123"), ref)

	require.Len(t, f.broker.calls, 1)
	assert.True(t, f.broker.calls[0].write)
	assert.Equal(t, "G", f.broker.calls[0].ownerGroup)
	assert.Equal(t, models.FileTypeModel, f.broker.calls[0].model)

	require.NotNil(t, gotReq)
	assert.Equal(t, http.MethodPut, gotReq.Method)
	assert.Equal(t, common.BlobServicePath, gotReq.URL.Path)
	assert.Equal(t, cryptox.Fingerprint(gotBody), gotReq.URL.Query().Get("blobHash"))
	assert.Equal(t, "T", gotReq.Header.Get(common.StorageAccessTokenHeaderName))
	assert.Equal(t, models.BlobService.RequestModel.Version, gotReq.Header.Get(common.ModelVersionHeaderName))
	assert.Equal(t, "user-token", gotReq.Header.Get(common.AccessTokenHeaderName))

	plain, err := cryptox.DecryptBytes(sessionKey, gotBody)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(plain))
	assert.NotContains(t, string(gotBody), "hello")

	assert.Zero(t, hitsB.Load())
}

func TestUploadBlob_SessionKeyUnavailable(t *testing.T) {
	f := newFixture(t, "http://origin.invalid", ModeBrowser, cryptox.GenerateKey())
	f.svc.keys = failingKeys{}

	file, _ := newFile(t, cryptox.GenerateKey())
	_, err := f.svc.UploadBlob(context.Background(), file, []byte("x"), "G")
	require.ErrorIs(t, err, common.ErrSessionKeyUnavailable)
	assert.Empty(t, f.broker.calls)
}

func TestUploadBlob_TokenErrorPropagates(t *testing.T) {
	groupKey := cryptox.GenerateKey()
	file, _ := newFile(t, groupKey)

	f := newFixture(t, "http://origin.invalid", ModeBrowser, groupKey)
	f.broker.err = common.ErrAccessDenied

	_, err := f.svc.UploadBlob(context.Background(), file, []byte("x"), "G")
	require.ErrorIs(t, err, common.ErrAccessDenied)
}

func TestUploadBlob_FingerprintChangesWithCiphertext(t *testing.T) {
	groupKey := cryptox.GenerateKey()
	file, _ := newFile(t, groupKey)

	var hashes []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, cryptox.Fingerprint(body), r.URL.Query().Get("blobHash"))
		hashes = append(hashes, r.URL.Query().Get("blobHash"))
	}))
	defer server.Close()

	f := newFixture(t, "http://origin.invalid", ModeBrowser, groupKey)
	f.broker.info = models.BlobAccessInfo{StorageAccessToken: "T", Servers: []models.BlobServerURL{{URL: server.URL}}}

	for range 2 {
		_, err := f.svc.UploadBlob(context.Background(), file, []byte("same plaintext"), "G")
		require.NoError(t, err)
	}
	require.Len(t, hashes, 2)
	assert.NotEqual(t, hashes[0], hashes[1], "random nonces give distinct ciphertexts")
}

func TestDownloadBlob_A1B1(t *testing.T) {
	key := cryptox.GenerateKey()
	ciphertext, err := cryptox.EncryptBytes(key, []byte("attachment bytes"))
	require.NoError(t, err)

	var gotLocator models.BlobLocator
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, common.BlobServicePath, r.URL.Path)
		assert.Equal(t, "T", r.Header.Get(common.StorageAccessTokenHeaderName))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotLocator))
		_, _ = w.Write(ciphertext)
	}))
	defer server.Close()

	f := newFixture(t, "http://origin.invalid", ModeBrowser, cryptox.GenerateKey())
	f.broker.info = models.BlobAccessInfo{StorageAccessToken: "T", Servers: []models.BlobServerURL{{URL: server.URL}}}

	plain, err := f.svc.DownloadBlob(context.Background(), models.BlobLocator{ArchiveID: "A1", BlobID: "B1"}, key)
	require.NoError(t, err)
	assert.Equal(t, "attachment bytes", string(plain))

	require.Len(t, f.broker.calls, 1)
	assert.False(t, f.broker.calls[0].write)
	assert.Equal(t, "A1", f.broker.calls[0].archiveID)
	if diff := cmp.Diff(models.BlobLocator{ArchiveID: "A1", BlobID: "B1"}, gotLocator); diff != "" {
		t.Errorf("locator mismatch (-want +got):\n%s", diff)
	}
}

func TestDownloadBlob_UsesPreferredServerOnly(t *testing.T) {
	key := cryptox.GenerateKey()
	ciphertext, err := cryptox.EncryptBytes(key, []byte("from A"))
	require.NoError(t, err)

	var hitsA, hitsB atomic.Int32
	serverA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitsA.Add(1)
		_, _ = w.Write(ciphertext)
	}))
	defer serverA.Close()
	serverB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitsB.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer serverB.Close()

	f := newFixture(t, "http://origin.invalid", ModeBrowser, cryptox.GenerateKey())
	f.broker.info = models.BlobAccessInfo{
		StorageAccessToken: "T",
		Servers:            []models.BlobServerURL{{URL: serverA.URL}, {URL: serverB.URL}},
	}

	plain, err := f.svc.DownloadBlob(context.Background(), models.BlobLocator{ArchiveID: "A1", BlobID: "B1"}, key)
	require.NoError(t, err)
	assert.Equal(t, "from A", string(plain))
	assert.Equal(t, int32(1), hitsA.Load())
	assert.Zero(t, hitsB.Load(), "only the first server is contacted")
}

func TestDownloadBlob_WrongKey(t *testing.T) {
	ciphertext, err := cryptox.EncryptBytes(cryptox.GenerateKey(), []byte("secret"))
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(ciphertext)
	}))
	defer server.Close()

	f := newFixture(t, "http://origin.invalid", ModeBrowser, cryptox.GenerateKey())
	f.broker.info = models.BlobAccessInfo{StorageAccessToken: "T", Servers: []models.BlobServerURL{{URL: server.URL}}}

	_, err = f.svc.DownloadBlob(context.Background(), models.BlobLocator{ArchiveID: "A1", BlobID: "B1"}, cryptox.GenerateKey())
	require.ErrorIs(t, err, common.ErrDecryption)
}

func TestDownloadBlob_ServerErrorMapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := newFixture(t, "http://origin.invalid", ModeBrowser, cryptox.GenerateKey())
	f.broker.info = models.BlobAccessInfo{StorageAccessToken: "T", Servers: []models.BlobServerURL{{URL: server.URL}}}

	_, err := f.svc.DownloadBlob(context.Background(), models.BlobLocator{ArchiveID: "A1", BlobID: "B1"}, cryptox.GenerateKey())
	require.ErrorIs(t, err, common.ErrAccessDenied)
	var restErr *client.RestError
	require.ErrorAs(t, err, &restErr)
	assert.Equal(t, http.StatusForbidden, restErr.StatusCode)
}

func TestDownloadFileContent_Browser(t *testing.T) {
	groupKey := cryptox.GenerateKey()
	file, sessionKey := newFile(t, groupKey)
	ciphertext, err := cryptox.EncryptBytes(sessionKey, []byte("pdf bytes"))
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, common.FileDataServicePath, r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "file")
		_, _ = w.Write(ciphertext)
	}))
	defer server.Close()

	f := newFixture(t, server.URL, ModeBrowser, groupKey)
	got, err := f.svc.DownloadFileContent(context.Background(), file)
	require.NoError(t, err)

	want := models.DataFile{
		Name:     "report.pdf",
		MimeType: common.MediaTypeBinary,
		Data:     []byte("pdf bytes"),
		Size:     9,
		ID:       &models.IDTuple{ListID: "L1", ElementID: "E1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("data file mismatch (-want +got):\n%s", diff)
	}
}

func TestUploadFileData_Browser(t *testing.T) {
	sessionKey := cryptox.GenerateKey()

	var registered models.FileDataDataPost
	var stored []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&registered))
			_ = json.NewEncoder(w).Encode(models.FileDataReturnPost{FileData: "fd-1"})
		case http.MethodPut:
			assert.Equal(t, "fd-1", r.URL.Query().Get("fileDataId"))
			stored, _ = io.ReadAll(r.Body)
		}
	}))
	defer server.Close()

	f := newFixture(t, server.URL, ModeBrowser, cryptox.GenerateKey())
	id, err := f.svc.UploadFileData(context.Background(), models.DataFile{Name: "a.txt", Data: []byte("abc")}, sessionKey)
	require.NoError(t, err)
	assert.Equal(t, "fd-1", id)
	assert.Equal(t, "mail-group", registered.Group)
	assert.Equal(t, "3", registered.Size, "plaintext length, as on the native path")
	assert.Len(t, stored, 31, "12 nonce + 3 plaintext + 16 tag")

	plain, err := cryptox.DecryptBytes(sessionKey, stored)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(plain))
}

func TestNativeOperations_RequireNativeMode(t *testing.T) {
	f := newFixture(t, "http://origin.invalid", ModeBrowser, cryptox.GenerateKey())
	file, _ := newFile(t, cryptox.GenerateKey())
	ctx := context.Background()

	_, err := f.svc.DownloadFileContentNative(ctx, file)
	assert.ErrorIs(t, err, common.ErrNativeUnavailable)
	_, err = f.svc.UploadFileDataNative(ctx, models.FileReference{Location: "/tmp/x"}, cryptox.GenerateKey())
	assert.ErrorIs(t, err, common.ErrNativeUnavailable)
	assert.ErrorIs(t, f.svc.ClearFileData(ctx), common.ErrNativeUnavailable)
	assert.Zero(t, f.bridge.downloadCount())
}

func TestDownloadFileContentNative_Success(t *testing.T) {
	groupKey := cryptox.GenerateKey()
	file, _ := newFile(t, groupKey)

	f := newFixture(t, "https://origin.example", ModeDesktop, groupKey)
	f.bridge.downloads = []native.DownloadTaskResponse{{StatusCode: 200, EncryptedFileURI: "enc-uri"}}
	f.bridge.decrypted = "plain-uri"

	ref, err := f.svc.DownloadFileContentNative(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, models.FileReference{
		Name:     "report.pdf",
		MimeType: common.MediaTypeBinary,
		Location: "plain-uri",
		Size:     42,
	}, ref)
	assert.Equal(t, []string{"enc-uri"}, f.bridge.deleted)

	require.Len(t, f.bridge.downloadURLs, 1)
	u, err := url.Parse(f.bridge.downloadURLs[0])
	require.NoError(t, err)
	assert.Equal(t, "origin.example", u.Host)
	assert.Equal(t, common.FileDataServicePath, u.Path)
	assert.Contains(t, u.Query().Get("_body"), `"elementId":"E1"`)
}

func TestDownloadFileContentNative_CleanupIsBestEffort(t *testing.T) {
	groupKey := cryptox.GenerateKey()
	file, _ := newFile(t, groupKey)

	f := newFixture(t, "https://origin.example", ModeApp, groupKey)
	f.bridge.downloads = []native.DownloadTaskResponse{{StatusCode: 200, EncryptedFileURI: "enc-uri"}}
	f.bridge.decrypted = "plain-uri"
	f.bridge.deleteErr = errors.New("file is busy")

	ref, err := f.svc.DownloadFileContentNative(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, "plain-uri", ref.Location)
	assert.Equal(t, []string{"enc-uri"}, f.bridge.deleted)
}

func TestDownloadFileContentNative_DecryptFailureStillDeletes(t *testing.T) {
	groupKey := cryptox.GenerateKey()
	file, _ := newFile(t, groupKey)

	f := newFixture(t, "https://origin.example", ModeApp, groupKey)
	f.bridge.downloads = []native.DownloadTaskResponse{{StatusCode: 200, EncryptedFileURI: "enc-uri"}}
	f.bridge.decErr = common.ErrDecryption

	_, err := f.svc.DownloadFileContentNative(context.Background(), file)
	require.ErrorIs(t, err, common.ErrDecryption)
	assert.Equal(t, []string{"enc-uri"}, f.bridge.deleted)
}

func TestDownloadFileContentNative_ErrorStatus(t *testing.T) {
	groupKey := cryptox.GenerateKey()
	file, _ := newFile(t, groupKey)

	f := newFixture(t, "https://origin.example", ModeApp, groupKey)
	f.bridge.downloads = []native.DownloadTaskResponse{{StatusCode: 404, ErrorID: "e-1"}}

	_, err := f.svc.DownloadFileContentNative(context.Background(), file)
	require.ErrorIs(t, err, common.ErrorNotFound)
	var restErr *client.RestError
	require.ErrorAs(t, err, &restErr)
	assert.Equal(t, "e-1", restErr.ErrorID)
	assert.Empty(t, f.bridge.deleted)
}

func TestDownloadFileContentNative_DefersUntilSuspensionEnds(t *testing.T) {
	groupKey := cryptox.GenerateKey()
	file, _ := newFile(t, groupKey)

	f := newFixture(t, "https://origin.example", ModeDesktop, groupKey)
	f.bridge.downloads = []native.DownloadTaskResponse{
		{StatusCode: 429, SuspensionTime: "30"},
		{StatusCode: 200, EncryptedFileURI: "enc-uri"},
	}
	f.bridge.decrypted = "plain-uri"

	type result struct {
		ref models.FileReference
		err error
	}
	done := make(chan result, 1)
	go func() {
		ref, err := f.svc.DownloadFileContentNative(context.Background(), file)
		done <- result{ref, err}
	}()

	require.Eventually(t, func() bool { return f.clock.PendingTimers() >= 1 }, time.Second, time.Millisecond)
	assert.True(t, f.ctrl.IsSuspended())
	assert.Never(t, func() bool { return f.bridge.downloadCount() > 1 }, 50*time.Millisecond, 5*time.Millisecond)

	f.clock.Advance(30 * time.Second)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, "plain-uri", r.ref.Location)
	case <-time.After(time.Second):
		t.Fatal("download was not replayed")
	}
	assert.Equal(t, 2, f.bridge.downloadCount())
}

func TestUploadFileDataNative(t *testing.T) {
	var registered models.FileDataDataPost
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, common.FileDataServicePath, r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&registered))
		_ = json.NewEncoder(w).Encode(models.FileDataReturnPost{FileData: "fd-9"})
	}))
	defer server.Close()

	f := newFixture(t, server.URL, ModeDesktop, cryptox.GenerateKey())
	f.bridge.encInfo = native.EncryptedFileInfo{URI: "enc-uri", UnencSize: 1234}
	f.bridge.uploadResp = native.UploadTaskResponse{StatusCode: 200}

	id, err := f.svc.UploadFileDataNative(context.Background(), models.FileReference{Name: "a.bin", Location: "/home/u/a.bin"}, cryptox.GenerateKey())
	require.NoError(t, err)
	assert.Equal(t, "fd-9", id)

	assert.Equal(t, models.FileDataDataPost{Size: "1234", Group: "mail-group"}, registered)
	assert.Len(t, f.bridge.encIV, cryptox.NonceSize)
	require.Len(t, f.bridge.uploadURLs, 1)
	assert.Contains(t, f.bridge.uploadURLs[0], "fileDataId=fd-9")
	assert.Equal(t, []string{"enc-uri"}, f.bridge.deleted, "caller's file is never deleted")
}

func TestUploadFileDataNative_RetriesAfterSuspension(t *testing.T) {
	var registrations atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := registrations.Add(1)
		_ = json.NewEncoder(w).Encode(models.FileDataReturnPost{FileData: fmt.Sprintf("fd-%d", n)})
	}))
	defer server.Close()

	f := newFixture(t, server.URL, ModeDesktop, cryptox.GenerateKey())
	f.bridge.encInfo = native.EncryptedFileInfo{UnencSize: 7}
	f.bridge.encURIs = []string{"enc-1", "enc-2"}
	f.bridge.uploads = []native.UploadTaskResponse{
		{StatusCode: http.StatusTooManyRequests, SuspensionTime: "30"},
		{StatusCode: http.StatusOK},
	}

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		id, err := f.svc.UploadFileDataNative(context.Background(), models.FileReference{Name: "a.bin", Location: "/home/u/a.bin"}, cryptox.GenerateKey())
		done <- result{id, err}
	}()

	require.Eventually(t, func() bool { return f.clock.PendingTimers() >= 1 }, time.Second, time.Millisecond)
	assert.True(t, f.ctrl.IsSuspended())
	assert.Never(t, func() bool { return f.bridge.uploadCount() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, []string{"enc-1"}, f.bridge.deletedFiles(), "first attempt cleaned up before waiting")

	f.clock.Advance(30 * time.Second)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, "fd-2", r.id)
	case <-time.After(time.Second):
		t.Fatal("upload was not replayed")
	}
	assert.Equal(t, 2, f.bridge.uploadCount())
	assert.Equal(t, []string{"enc-1", "enc-2"}, f.bridge.uploadFiles)
	assert.Equal(t, []string{"enc-1", "enc-2"}, f.bridge.deletedFiles())
}

func TestUploadFileDataNative_RegisterFailureStillDeletes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	f := newFixture(t, server.URL, ModeApp, cryptox.GenerateKey())
	f.bridge.encInfo = native.EncryptedFileInfo{URI: "enc-uri", UnencSize: 10}

	_, err := f.svc.UploadFileDataNative(context.Background(), models.FileReference{Location: "/x"}, cryptox.GenerateKey())
	require.ErrorIs(t, err, common.ErrAccessDenied)
	assert.Equal(t, []string{"enc-uri"}, f.bridge.deleted)
	assert.Empty(t, f.bridge.uploadURLs)
}

func TestClearFileData_Delegates(t *testing.T) {
	f := newFixture(t, "http://origin.invalid", ModeDesktop, cryptox.GenerateKey())
	require.NoError(t, f.svc.ClearFileData(context.Background()))
	assert.True(t, f.bridge.cleared)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("desktop")
	require.NoError(t, err)
	assert.True(t, m.IsNative())

	m, err = ParseMode("browser")
	require.NoError(t, err)
	assert.False(t, m.IsNative())

	_, err = ParseMode("tv")
	assert.Error(t, err)
}
