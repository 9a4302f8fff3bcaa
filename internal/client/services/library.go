package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/client/auth"
	"github.com/dmitrijs2005/vaultblob/internal/client/models"
	"github.com/dmitrijs2005/vaultblob/internal/client/repositories/blobrefs"
	"github.com/dmitrijs2005/vaultblob/internal/client/sessionkey"
)

// Library stores named attachments as blobs and remembers where they went.
type Library struct {
	files  *FileService
	refs   blobrefs.Repository
	groups sessionkey.GroupKeyProvider
	auth   AuthProvider
	now    func() time.Time
}

func NewLibrary(files *FileService, refs blobrefs.Repository, groups sessionkey.GroupKeyProvider, auth AuthProvider) *Library {
	return &Library{files: files, refs: refs, groups: groups, auth: auth, now: time.Now}
}

// Put encrypts data under a fresh session key owned by the user's file
// group, uploads it and records the returned reference.
func (l *Library) Put(ctx context.Context, name string, data []byte) (*models.BlobRecord, error) {
	group, err := l.auth.GroupID(auth.GroupTypeFile)
	if err != nil {
		return nil, err
	}

	_, ownerEncKey, err := sessionkey.NewOwnerEncSessionKey(ctx, l.groups, group)
	if err != nil {
		return nil, err
	}
	file := &models.File{
		Name:            name,
		Size:            int64(len(data)),
		OwnerGroupID:    group,
		OwnerEncSessKey: ownerEncKey,
	}

	token, err := l.files.UploadBlob(ctx, file, data, group)
	if err != nil {
		return nil, err
	}
	ref, err := models.ParseBlobReference(token)
	if err != nil {
		return nil, err
	}

	rec := &models.BlobRecord{
		BlobID:          ref.BlobID,
		ArchiveID:       ref.ArchiveID,
		Name:            name,
		Size:            file.Size,
		Fingerprint:     ref.BlobHash,
		OwnerGroup:      group,
		OwnerEncSessKey: ownerEncKey,
		CreatedAt:       l.now().UTC(),
	}
	if err := l.refs.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("record blob %s: %w", ref.BlobID, err)
	}
	return rec, nil
}

// Get downloads and decrypts a previously recorded blob.
func (l *Library) Get(ctx context.Context, blobID string) (*models.BlobRecord, []byte, error) {
	rec, err := l.refs.GetByBlobID(ctx, blobID)
	if err != nil {
		return nil, nil, err
	}

	if rec.IsFileData() {
		df, err := l.files.DownloadFileContent(ctx, recordFile(rec))
		if err != nil {
			return nil, nil, err
		}
		return rec, df.Data, nil
	}

	key, err := l.files.resolveKey(ctx, recordFile(rec))
	if err != nil {
		return nil, nil, err
	}

	data, err := l.files.DownloadBlob(ctx, models.BlobLocator{ArchiveID: rec.ArchiveID, BlobID: rec.BlobID}, key)
	if err != nil {
		return nil, nil, err
	}
	return rec, data, nil
}

// recordFile rebuilds the file entity of a file data record.
func recordFile(rec *models.BlobRecord) *models.File {
	return &models.File{
		ID:              models.IDTuple{ListID: rec.OwnerGroup, ElementID: rec.BlobID},
		Name:            rec.Name,
		Size:            rec.Size,
		OwnerGroupID:    rec.OwnerGroup,
		OwnerEncSessKey: rec.OwnerEncSessKey,
	}
}

// PutNative uploads the file at path through the native bridge without
// loading it into memory and records the file data id.
func (l *Library) PutNative(ctx context.Context, path, name string, size int64) (*models.BlobRecord, error) {
	group, err := l.auth.GroupID(auth.GroupTypeFile)
	if err != nil {
		return nil, err
	}
	sessionKey, ownerEncKey, err := sessionkey.NewOwnerEncSessionKey(ctx, l.groups, group)
	if err != nil {
		return nil, err
	}

	id, err := l.files.UploadFileDataNative(ctx, models.FileReference{
		Name:     name,
		MimeType: models.MediaTypeBinary,
		Location: path,
		Size:     size,
	}, sessionKey)
	if err != nil {
		return nil, err
	}

	rec := &models.BlobRecord{
		BlobID:          id,
		ArchiveID:       models.FileDataArchive,
		Name:            name,
		Size:            size,
		OwnerGroup:      group,
		OwnerEncSessKey: ownerEncKey,
		CreatedAt:       l.now().UTC(),
	}
	if err := l.refs.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("record file data %s: %w", id, err)
	}
	return rec, nil
}

// GetNative lets the native bridge download and decrypt a file data record
// to disk.
func (l *Library) GetNative(ctx context.Context, fileDataID string) (models.FileReference, error) {
	rec, err := l.refs.GetByBlobID(ctx, fileDataID)
	if err != nil {
		return models.FileReference{}, err
	}
	if !rec.IsFileData() {
		return models.FileReference{}, fmt.Errorf("%s is a blob, use get", fileDataID)
	}
	return l.files.DownloadFileContentNative(ctx, recordFile(rec))
}

// ClearTemp removes temporary files of the native bridge.
func (l *Library) ClearTemp(ctx context.Context) error {
	return l.files.ClearFileData(ctx)
}

func (l *Library) List(ctx context.Context) ([]*models.BlobRecord, error) {
	return l.refs.List(ctx)
}

// Forget drops the local record of a blob. The stored blob is untouched.
func (l *Library) Forget(ctx context.Context, blobID string) error {
	return l.refs.DeleteByBlobID(ctx, blobID)
}
