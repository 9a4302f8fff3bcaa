package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/logging"
	"github.com/dmitrijs2005/vaultblob/internal/server/auth"
	"github.com/dmitrijs2005/vaultblob/internal/server/models"
	"github.com/dmitrijs2005/vaultblob/internal/server/storage"
	"github.com/google/uuid"
)

// FileDataService registers, receives and serves legacy file data. A
// record is readable by members of the group it was registered for.
type FileDataService struct {
	store  storage.Store
	newID  func() string
	logger logging.Logger
}

func NewFileDataService(store storage.Store, l logging.Logger) *FileDataService {
	return &FileDataService{
		store:  store,
		newID:  uuid.NewString,
		logger: l.With("module", "filedata_service"),
	}
}

// Register creates a pending record and returns its id.
func (s *FileDataService) Register(ctx context.Context, user *auth.Claims, post models.FileDataDataPost) (string, error) {
	size, err := strconv.ParseInt(post.Size, 10, 64)
	if err != nil || size < 0 {
		return "", fmt.Errorf("%w: size %q", common.ErrorBadRequest, post.Size)
	}
	if !user.IsMember(post.Group) {
		return "", fmt.Errorf("%w: not a member of %s", common.ErrAccessDenied, post.Group)
	}

	fd := &models.FileData{
		ID:           s.newID(),
		Group:        post.Group,
		UserID:       user.UserID,
		Size:         size,
		UploadStatus: models.UploadPending,
	}
	if err := s.save(ctx, fd); err != nil {
		return "", err
	}
	return fd.ID, nil
}

// Upload stores the data of a registered record.
func (s *FileDataService) Upload(ctx context.Context, user *auth.Claims, id string, data []byte) error {
	fd, err := s.load(ctx, user, id)
	if err != nil {
		return err
	}

	if err := s.store.Put(ctx, models.FileDataDataKey(id), data); err != nil {
		return err
	}
	fd.UploadStatus = models.UploadCompleted
	if err := s.save(ctx, fd); err != nil {
		return err
	}

	s.logger.Info(ctx, "file data stored", "id", id, "size", len(data))
	return nil
}

// Download returns the data of an uploaded record, base64 encoded when
// get.Base64 is set.
func (s *FileDataService) Download(ctx context.Context, user *auth.Claims, get models.FileDataDataGet) ([]byte, error) {
	id := get.File.ElementID
	if id == "" {
		return nil, fmt.Errorf("%w: missing file id", common.ErrorBadRequest)
	}

	fd, err := s.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if fd.UploadStatus != models.UploadCompleted {
		return nil, fmt.Errorf("file data %s: %w", id, common.ErrorNotFound)
	}

	data, err := s.store.Get(ctx, models.FileDataDataKey(id))
	if err != nil {
		return nil, err
	}
	if get.Base64 {
		return []byte(base64.StdEncoding.EncodeToString(data)), nil
	}
	return data, nil
}

func (s *FileDataService) load(ctx context.Context, user *auth.Claims, id string) (*models.FileData, error) {
	raw, err := s.store.Get(ctx, models.FileDataKey(id))
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("file data %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, err
	}

	var fd models.FileData
	if err := json.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("%w: file data %s: %v", common.ErrorInternal, id, err)
	}
	if !user.IsMember(fd.Group) {
		return nil, fmt.Errorf("%w: file data %s", common.ErrAccessDenied, id)
	}
	return &fd, nil
}

func (s *FileDataService) save(ctx context.Context, fd *models.FileData) error {
	raw, err := json.Marshal(fd)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, models.FileDataKey(fd.ID), raw)
}
