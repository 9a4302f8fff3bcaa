// Package tokens exchanges ownership metadata for short-lived blob storage
// tokens. Tokens are never cached: every transfer asks for a fresh one.
package tokens

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vaultblob/internal/client/entity"
	"github.com/dmitrijs2005/vaultblob/internal/client/models"
)

// ServicePoster posts an authenticated service request.
type ServicePoster interface {
	Post(ctx context.Context, service entity.Service, request, response any) error
}

type Broker struct {
	exec ServicePoster
}

func NewBroker(exec ServicePoster) *Broker {
	return &Broker{exec: exec}
}

// AcquireUploadToken returns a token allowing writes into an archive owned
// by ownerGroupID for blobs of the given type.
func (b *Broker) AcquireUploadToken(ctx context.Context, ownerGroupID string, model entity.TypeModel) (models.BlobAccessInfo, error) {
	req := models.NewWriteTokenRequest(ownerGroupID, models.TypeInfo{
		Application: model.App,
		TypeID:      model.TypeID(),
	})
	return b.acquire(ctx, req)
}

// AcquireDownloadToken returns a token allowing reads from archiveID.
func (b *Broker) AcquireDownloadToken(ctx context.Context, archiveID string) (models.BlobAccessInfo, error) {
	return b.acquire(ctx, models.NewReadTokenRequest(archiveID))
}

func (b *Broker) acquire(ctx context.Context, req models.BlobAccessTokenData) (models.BlobAccessInfo, error) {
	if err := req.Validate(); err != nil {
		return models.BlobAccessInfo{}, err
	}

	var resp models.BlobAccessTokenReturn
	if err := b.exec.Post(ctx, models.BlobAccessTokenService, req, &resp); err != nil {
		return models.BlobAccessInfo{}, err
	}

	info := resp.BlobAccessInfo
	if err := info.Validate(); err != nil {
		return models.BlobAccessInfo{}, fmt.Errorf("token service response: %w", err)
	}
	return info, nil
}
