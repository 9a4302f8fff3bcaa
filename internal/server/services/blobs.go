package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/cryptox"
	"github.com/dmitrijs2005/vaultblob/internal/logging"
	"github.com/dmitrijs2005/vaultblob/internal/server/auth"
	"github.com/dmitrijs2005/vaultblob/internal/server/config"
	"github.com/dmitrijs2005/vaultblob/internal/server/models"
	"github.com/dmitrijs2005/vaultblob/internal/server/storage"
	"github.com/google/uuid"
)

type BlobService struct {
	store     storage.Store
	jwtSecret []byte
	servers   []models.BlobServerURL
	tokenTTL  time.Duration
	newBlobID func() string
	logger    logging.Logger
}

func NewBlobService(store storage.Store, cfg *config.Config, l logging.Logger) *BlobService {
	return &BlobService{
		store:     store,
		jwtSecret: []byte(cfg.SecretKey),
		servers:   []models.BlobServerURL{{URL: cfg.PublicURL}},
		tokenTTL:  cfg.StorageTokenValidityDuration,
		newBlobID: uuid.NewString,
		logger:    l.With("module", "blob_service"),
	}
}

// IssueAccessToken grants user a storage token for req. Writes need
// membership of the owner group; reads need the archive to belong to one
// of the user's groups.
func (s *BlobService) IssueAccessToken(ctx context.Context, user *auth.Claims, req models.BlobAccessTokenData) (models.BlobAccessInfo, error) {
	if !req.Valid() {
		return models.BlobAccessInfo{}, fmt.Errorf("%w: token request needs exactly one of write or readArchiveId", common.ErrorBadRequest)
	}

	claims := auth.StorageClaims{UserID: user.UserID}
	if req.Write != nil {
		group := req.Write.ArchiveOwnerGroup
		if !user.IsMember(group) {
			return models.BlobAccessInfo{}, fmt.Errorf("%w: not a member of %s", common.ErrAccessDenied, group)
		}
		claims.Scope = auth.ScopeWrite
		claims.OwnerGroup = group
		claims.ArchiveID = models.ArchiveFor(group)
	} else {
		archive := *req.ReadArchiveID
		if !ownsArchive(user, archive) {
			return models.BlobAccessInfo{}, fmt.Errorf("%w: archive %s", common.ErrAccessDenied, archive)
		}
		claims.Scope = auth.ScopeRead
		claims.ArchiveID = archive
	}

	token, err := auth.GenerateStorageToken(claims, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return models.BlobAccessInfo{}, err
	}

	s.logger.Debug(ctx, "storage token issued", "user", user.UserID, "scope", claims.Scope, "archive", claims.ArchiveID)

	return models.BlobAccessInfo{StorageAccessToken: token, Servers: s.servers}, nil
}

func ownsArchive(user *auth.Claims, archiveID string) bool {
	for _, g := range user.Groups {
		if models.ArchiveFor(g) == archiveID {
			return true
		}
	}
	return false
}

func (s *BlobService) authorize(user *auth.Claims, token, scope string) (*auth.StorageClaims, error) {
	claims, err := auth.ParseStorageToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrAccessDenied, err)
	}
	if claims.UserID != user.UserID {
		return nil, fmt.Errorf("%w: token issued to another user", common.ErrAccessDenied)
	}
	if claims.Scope != scope {
		return nil, fmt.Errorf("%w: token scope %s", common.ErrAccessDenied, claims.Scope)
	}
	return claims, nil
}

// Put stores ciphertext in the archive of a write token issued to user.
// blobHash must be the fingerprint of ciphertext.
func (s *BlobService) Put(ctx context.Context, user *auth.Claims, token, blobHash string, ciphertext []byte) (models.BlobReference, error) {
	claims, err := s.authorize(user, token, auth.ScopeWrite)
	if err != nil {
		return models.BlobReference{}, err
	}
	if blobHash == "" || blobHash != cryptox.Fingerprint(ciphertext) {
		return models.BlobReference{}, fmt.Errorf("%w: blob hash mismatch", common.ErrorBadRequest)
	}

	ref := models.BlobReference{ArchiveID: claims.ArchiveID, BlobID: s.newBlobID(), BlobHash: blobHash}
	if err := s.store.Put(ctx, models.BlobKey(ref.ArchiveID, ref.BlobID), ciphertext); err != nil {
		return models.BlobReference{}, err
	}

	s.logger.Info(ctx, "blob stored", "archive", ref.ArchiveID, "blob", ref.BlobID, "size", len(ciphertext))
	return ref, nil
}

// Get returns the ciphertext at locator; the read token must be for its archive.
func (s *BlobService) Get(ctx context.Context, user *auth.Claims, token string, locator models.BlobLocator) ([]byte, error) {
	claims, err := s.authorize(user, token, auth.ScopeRead)
	if err != nil {
		return nil, err
	}
	if locator.ArchiveID == "" || locator.BlobID == "" {
		return nil, fmt.Errorf("%w: incomplete blob locator", common.ErrorBadRequest)
	}
	if claims.ArchiveID != locator.ArchiveID {
		return nil, fmt.Errorf("%w: token is for archive %s", common.ErrAccessDenied, claims.ArchiveID)
	}
	return s.store.Get(ctx, models.BlobKey(locator.ArchiveID, locator.BlobID))
}
