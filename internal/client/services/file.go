package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/vaultblob/internal/client/auth"
	"github.com/dmitrijs2005/vaultblob/internal/client/client"
	"github.com/dmitrijs2005/vaultblob/internal/client/entity"
	"github.com/dmitrijs2005/vaultblob/internal/client/models"
	"github.com/dmitrijs2005/vaultblob/internal/client/native"
	"github.com/dmitrijs2005/vaultblob/internal/client/suspension"
	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/cryptox"
	"github.com/dmitrijs2005/vaultblob/internal/logging"
	"github.com/dmitrijs2005/vaultblob/internal/netx"
)

// Mode is the environment the client runs in.
type Mode string

const (
	ModeBrowser Mode = "browser"
	ModeApp     Mode = "app"
	ModeDesktop Mode = "desktop"
)

func (m Mode) IsNative() bool {
	return m == ModeApp || m == ModeDesktop
}

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeBrowser, ModeApp, ModeDesktop:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

type SessionKeyResolver interface {
	Resolve(ctx context.Context, instance entity.Instance) ([]byte, error)
}

type TokenBroker interface {
	AcquireUploadToken(ctx context.Context, ownerGroupID string, model entity.TypeModel) (models.BlobAccessInfo, error)
	AcquireDownloadToken(ctx context.Context, archiveID string) (models.BlobAccessInfo, error)
}

// AuthProvider is the session as seen by the engine.
type AuthProvider interface {
	CreateAuthHeaders() map[string]string
	GroupID(t auth.GroupType) (string, error)
}

type FileServiceConfig struct {
	Rest       *client.RestClient
	Executor   *client.ServiceExecutor
	Tokens     TokenBroker
	Keys       SessionKeyResolver
	Auth       AuthProvider
	Suspension *suspension.Controller
	Logger     logging.Logger

	Mode Mode
	// Bridge is required in app and desktop mode.
	Bridge native.FileBridge
}

type FileService struct {
	rest       *client.RestClient
	exec       *client.ServiceExecutor
	tokens     TokenBroker
	keys       SessionKeyResolver
	auth       AuthProvider
	suspension *suspension.Controller
	bridge     native.FileBridge
	mode       Mode
	mapper     *entity.Mapper
	log        logging.Logger
}

func NewFileService(cfg FileServiceConfig) *FileService {
	log := cfg.Logger
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	mode := cfg.Mode
	if mode == "" {
		mode = ModeBrowser
	}
	return &FileService{
		rest:       cfg.Rest,
		exec:       cfg.Executor,
		tokens:     cfg.Tokens,
		keys:       cfg.Keys,
		auth:       cfg.Auth,
		suspension: cfg.Suspension,
		bridge:     cfg.Bridge,
		mode:       mode,
		mapper:     entity.NewMapper(),
		log:        log.With("component", "file-service"),
	}
}

func (s *FileService) resolveKey(ctx context.Context, instance entity.Instance) ([]byte, error) {
	key, err := s.keys.Resolve(ctx, instance)
	if err != nil {
		if errors.Is(err, common.ErrSessionKeyUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrSessionKeyUnavailable, err)
	}
	return key, nil
}

func (s *FileService) serviceHeaders(service entity.Service) map[string]string {
	headers := make(map[string]string)
	for k, v := range s.auth.CreateAuthHeaders() {
		headers[k] = v
	}
	headers[common.ModelVersionHeaderName] = service.RequestModel.Version
	return headers
}

func (s *FileService) blobHeaders(info models.BlobAccessInfo) map[string]string {
	headers := s.serviceHeaders(models.BlobService)
	headers[common.StorageAccessTokenHeaderName] = info.StorageAccessToken
	return headers
}

// UploadBlob encrypts plaintext under the session key of instance and
// stores it in an archive of ownerGroupID. The returned blob reference
// token is passed through unchanged.
func (s *FileService) UploadBlob(ctx context.Context, instance entity.Instance, plaintext []byte, ownerGroupID string) ([]byte, error) {
	key, err := s.resolveKey(ctx, instance)
	if err != nil {
		return nil, err
	}

	ciphertext, err := cryptox.EncryptBytes(key, plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt blob: %w", err)
	}
	fingerprint := cryptox.Fingerprint(ciphertext)

	info, err := s.tokens.AcquireUploadToken(ctx, ownerGroupID, instance.TypeModel())
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "uploading blob", "owner_group", ownerGroupID, "size", len(ciphertext), "server", info.PreferredServer())

	return s.rest.Request(ctx, common.BlobServicePath, http.MethodPut, client.RequestOptions{
		BaseURL:      info.PreferredServer(),
		QueryParams:  map[string]string{"blobHash": fingerprint},
		Headers:      s.blobHeaders(info),
		Body:         ciphertext,
		ResponseType: common.MediaTypeBinary,
	})
}

// DownloadBlob fetches the blob at locator and decrypts it under key.
func (s *FileService) DownloadBlob(ctx context.Context, locator models.BlobLocator, key []byte) ([]byte, error) {
	info, err := s.tokens.AcquireDownloadToken(ctx, locator.ArchiveID)
	if err != nil {
		return nil, err
	}

	literal, err := s.mapper.EncryptAndMapToLiteral(models.BlobDataGetTypeModel, locator, nil)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(literal)
	if err != nil {
		return nil, err
	}

	headers := s.blobHeaders(info)
	headers["Content-Type"] = common.MediaTypeJSON

	ciphertext, err := s.rest.Request(ctx, common.BlobServicePath, http.MethodGet, client.RequestOptions{
		BaseURL:      info.PreferredServer(),
		Headers:      headers,
		Body:         body,
		ResponseType: common.MediaTypeBinary,
	})
	if err != nil {
		return nil, err
	}

	plaintext, err := cryptox.DecryptBytes(key, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("blob %s/%s: %w", locator.ArchiveID, locator.BlobID, err)
	}
	return plaintext, nil
}

func (s *FileService) fileDataGetBody(file *models.File, key []byte) ([]byte, error) {
	req := models.FileDataDataGet{File: file.ID, Base64: false}
	literal, err := s.mapper.EncryptAndMapToLiteral(models.FileDataDataGetTypeModel, req, key)
	if err != nil {
		return nil, err
	}
	return json.Marshal(literal)
}

// DownloadFileContent downloads and decrypts a file into memory.
func (s *FileService) DownloadFileContent(ctx context.Context, file *models.File) (models.DataFile, error) {
	key, err := s.resolveKey(ctx, file)
	if err != nil {
		return models.DataFile{}, err
	}
	body, err := s.fileDataGetBody(file, key)
	if err != nil {
		return models.DataFile{}, err
	}

	headers := s.serviceHeaders(models.FileDataService)
	headers["Content-Type"] = common.MediaTypeJSON

	ciphertext, err := s.rest.Request(ctx, common.FileDataServicePath, http.MethodGet, client.RequestOptions{
		Headers:      headers,
		Body:         body,
		ResponseType: common.MediaTypeBinary,
	})
	if err != nil {
		return models.DataFile{}, err
	}

	plaintext, err := cryptox.DecryptBytes(key, ciphertext)
	if err != nil {
		return models.DataFile{}, fmt.Errorf("file %s: %w", file.Name, err)
	}
	return models.ConvertToDataFile(file, plaintext), nil
}

// registerFileData reserves a legacy upload slot for a file of size
// plaintext bytes.
func (s *FileService) registerFileData(ctx context.Context, size int64) (string, error) {
	group, err := s.auth.GroupID(auth.GroupTypeMail)
	if err != nil {
		return "", err
	}

	var ret models.FileDataReturnPost
	req := models.FileDataDataPost{Size: strconv.FormatInt(size, 10), Group: group}
	if err := s.exec.Post(ctx, models.FileDataService, req, &ret); err != nil {
		return "", err
	}
	if ret.FileData == "" {
		return "", fmt.Errorf("file data service returned no id")
	}
	return ret.FileData, nil
}

// UploadFileData encrypts an in-memory file under sessionKey and uploads it
// through the legacy file data service. It returns the file data id.
func (s *FileService) UploadFileData(ctx context.Context, dataFile models.DataFile, sessionKey []byte) (string, error) {
	ciphertext, err := cryptox.EncryptBytes(sessionKey, dataFile.Data)
	if err != nil {
		return "", fmt.Errorf("encrypt file data: %w", err)
	}

	fileDataID, err := s.registerFileData(ctx, int64(len(dataFile.Data)))
	if err != nil {
		return "", err
	}

	_, err = s.rest.Request(ctx, common.FileDataServicePath, http.MethodPut, client.RequestOptions{
		QueryParams: map[string]string{"fileDataId": fileDataID},
		Headers:     s.serviceHeaders(models.FileDataService),
		Body:        ciphertext,
	})
	if err != nil {
		return "", err
	}
	return fileDataID, nil
}

func (s *FileService) requireNative() error {
	if !s.mode.IsNative() || s.bridge == nil {
		return fmt.Errorf("%w in %s mode", common.ErrNativeUnavailable, s.mode)
	}
	return nil
}

// deleteTemp removes a file created by the bridge. Failures are logged.
func (s *FileService) deleteTemp(ctx context.Context, uri string) {
	if uri == "" {
		return
	}
	if err := s.bridge.DeleteFile(ctx, uri); err != nil {
		s.log.Warn(ctx, "failed to delete temporary file", "uri", uri, "error", err)
	}
}

// bridgeStatusError turns a non-success bridge status into the error of a
// single attempt: a suspension signal or a rest error.
func bridgeStatusError(status int, what, errorID, precondition, suspensionTime string) error {
	if netx.IsSuspensionResponse(status, suspensionTime) {
		d, _ := netx.ParseSuspensionTime(suspensionTime)
		return &suspension.Signal{StatusCode: status, Duration: d}
	}
	return client.HandleRestError(status, what, errorID, precondition)
}

// DownloadFileContentNative lets the native bridge download file and
// decrypt it on disk. The returned reference points at the plaintext copy.
func (s *FileService) DownloadFileContentNative(ctx context.Context, file *models.File) (models.FileReference, error) {
	if err := s.requireNative(); err != nil {
		return models.FileReference{}, err
	}
	return suspension.Do(ctx, s.suspension, func(ctx context.Context) (models.FileReference, error) {
		return s.downloadNative(ctx, file)
	})
}

func (s *FileService) downloadNative(ctx context.Context, file *models.File) (models.FileReference, error) {
	key, err := s.resolveKey(ctx, file)
	if err != nil {
		return models.FileReference{}, err
	}
	body, err := s.fileDataGetBody(file, key)
	if err != nil {
		return models.FileReference{}, err
	}

	url, err := netx.AddParamsToURL(netx.JoinURL(s.rest.Origin(), common.FileDataServicePath), map[string]string{"_body": string(body)})
	if err != nil {
		return models.FileReference{}, err
	}

	resp, err := s.bridge.Download(ctx, url, file.Name, s.serviceHeaders(models.FileDataService))
	if err != nil {
		return models.FileReference{}, err
	}

	if resp.StatusCode != http.StatusOK || resp.EncryptedFileURI == "" {
		return models.FileReference{}, bridgeStatusError(resp.StatusCode, "download "+file.Name, resp.ErrorID, resp.Precondition, resp.SuspensionTime)
	}
	defer s.deleteTemp(ctx, resp.EncryptedFileURI)

	location, err := s.bridge.AESDecryptFile(ctx, key, resp.EncryptedFileURI)
	if err != nil {
		return models.FileReference{}, err
	}

	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = common.MediaTypeBinary
	}
	return models.FileReference{
		Name:     file.Name,
		MimeType: mimeType,
		Location: location,
		Size:     file.Size,
	}, nil
}

// UploadFileDataNative encrypts the file at fileRef.Location on disk and
// uploads it through the native bridge. The caller's file is left in place.
func (s *FileService) UploadFileDataNative(ctx context.Context, fileRef models.FileReference, sessionKey []byte) (string, error) {
	if err := s.requireNative(); err != nil {
		return "", err
	}
	return suspension.Do(ctx, s.suspension, func(ctx context.Context) (string, error) {
		return s.uploadNative(ctx, fileRef, sessionKey)
	})
}

func (s *FileService) uploadNative(ctx context.Context, fileRef models.FileReference, sessionKey []byte) (string, error) {
	enc, err := s.bridge.AESEncryptFile(ctx, sessionKey, fileRef.Location, cryptox.GenerateNonce())
	if err != nil {
		return "", err
	}
	defer s.deleteTemp(ctx, enc.URI)

	fileDataID, err := s.registerFileData(ctx, enc.UnencSize)
	if err != nil {
		return "", err
	}

	url, err := netx.AddParamsToURL(netx.JoinURL(s.rest.Origin(), common.FileDataServicePath), map[string]string{"fileDataId": fileDataID})
	if err != nil {
		return "", err
	}

	resp, err := s.bridge.Upload(ctx, enc.URI, url, http.MethodPut, s.serviceHeaders(models.FileDataService))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", bridgeStatusError(resp.StatusCode, "upload "+fileRef.Name, resp.ErrorID, resp.Precondition, resp.SuspensionTime)
	}
	return fileDataID, nil
}

// ClearFileData removes every temporary file held by the native bridge.
func (s *FileService) ClearFileData(ctx context.Context) error {
	if err := s.requireNative(); err != nil {
		return err
	}
	return s.bridge.ClearFileData(ctx)
}
