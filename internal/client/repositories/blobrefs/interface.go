// Package blobrefs records where uploaded blobs live so they can be
// downloaded later: archive and blob id, upload fingerprint and the
// owner encrypted session key needed to decrypt them.
package blobrefs

import (
	"context"

	"github.com/dmitrijs2005/vaultblob/internal/client/models"
)

type Repository interface {
	Save(ctx context.Context, rec *models.BlobRecord) error
	// GetByBlobID returns common.ErrorNotFound when no record exists.
	GetByBlobID(ctx context.Context, blobID string) (*models.BlobRecord, error)
	List(ctx context.Context) ([]*models.BlobRecord, error)
	DeleteByBlobID(ctx context.Context, blobID string) error
}
