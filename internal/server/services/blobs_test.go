package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/cryptox"
	"github.com/dmitrijs2005/vaultblob/internal/logging"
	"github.com/dmitrijs2005/vaultblob/internal/server/auth"
	"github.com/dmitrijs2005/vaultblob/internal/server/config"
	"github.com/dmitrijs2005/vaultblob/internal/server/models"
	"github.com/dmitrijs2005/vaultblob/internal/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func user(id string) *auth.Claims {
	return &auth.Claims{UserID: id, Groups: auth.GroupsFor(id)}
}

func newBlobService(t *testing.T) *BlobService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    "k",
		PublicURL:                    "http://store:8080",
		StorageTokenValidityDuration: time.Minute,
	}
	s := NewBlobService(storage.NewMemoryStore(), cfg, logging.NewDiscardLogger())
	s.newBlobID = func() string { return "B1" }
	return s
}

func writeRequest(group string) models.BlobAccessTokenData {
	return models.BlobAccessTokenData{Write: &models.BlobWriteData{ArchiveOwnerGroup: group}}
}

func readRequest(archive string) models.BlobAccessTokenData {
	return models.BlobAccessTokenData{ReadArchiveID: &archive}
}

func TestBlobService_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newBlobService(t)
	alice := user("alice")
	group := alice.Groups[auth.GroupFile]

	info, err := s.IssueAccessToken(ctx, alice, writeRequest(group))
	require.NoError(t, err)
	assert.Equal(t, []models.BlobServerURL{{URL: "http://store:8080"}}, info.Servers)

	ciphertext := []byte("opaque ciphertext")
	ref, err := s.Put(ctx, alice, info.StorageAccessToken, cryptox.Fingerprint(ciphertext), ciphertext)
	require.NoError(t, err)
	assert.Equal(t, models.ArchiveFor(group), ref.ArchiveID)
	assert.Equal(t, "B1", ref.BlobID)

	read, err := s.IssueAccessToken(ctx, alice, readRequest(ref.ArchiveID))
	require.NoError(t, err)

	got, err := s.Get(ctx, alice, read.StorageAccessToken, models.BlobLocator{ArchiveID: ref.ArchiveID, BlobID: ref.BlobID})
	require.NoError(t, err)
	assert.Equal(t, ciphertext, got)

	_, err = s.Get(ctx, alice, read.StorageAccessToken, models.BlobLocator{ArchiveID: ref.ArchiveID, BlobID: "nope"})
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestBlobService_TokenScoping(t *testing.T) {
	ctx := context.Background()
	s := newBlobService(t)
	alice, bob := user("alice"), user("bob")
	aliceArchive := models.ArchiveFor(alice.Groups[auth.GroupFile])

	_, err := s.IssueAccessToken(ctx, bob, writeRequest(alice.Groups[auth.GroupFile]))
	require.ErrorIs(t, err, common.ErrAccessDenied)

	_, err = s.IssueAccessToken(ctx, bob, readRequest(aliceArchive))
	require.ErrorIs(t, err, common.ErrAccessDenied)

	_, err = s.IssueAccessToken(ctx, alice, models.BlobAccessTokenData{})
	require.ErrorIs(t, err, common.ErrorBadRequest)

	write, err := s.IssueAccessToken(ctx, alice, writeRequest(alice.Groups[auth.GroupFile]))
	require.NoError(t, err)
	_, err = s.Get(ctx, alice, write.StorageAccessToken, models.BlobLocator{ArchiveID: aliceArchive, BlobID: "B1"})
	require.ErrorIs(t, err, common.ErrAccessDenied, "write token cannot read")

	read, err := s.IssueAccessToken(ctx, alice, readRequest(aliceArchive))
	require.NoError(t, err)
	_, err = s.Put(ctx, alice, read.StorageAccessToken, cryptox.Fingerprint([]byte("x")), []byte("x"))
	require.ErrorIs(t, err, common.ErrAccessDenied, "read token cannot write")

	other := models.ArchiveFor(alice.Groups[auth.GroupMail])
	_, err = s.Get(ctx, alice, read.StorageAccessToken, models.BlobLocator{ArchiveID: other, BlobID: "B1"})
	require.ErrorIs(t, err, common.ErrAccessDenied, "read token is bound to one archive")

	_, err = s.Get(ctx, bob, read.StorageAccessToken, models.BlobLocator{ArchiveID: aliceArchive, BlobID: "B1"})
	require.ErrorIs(t, err, common.ErrAccessDenied, "tokens are bound to their user")

	_, err = s.Get(ctx, alice, "garbage", models.BlobLocator{ArchiveID: aliceArchive, BlobID: "B1"})
	require.ErrorIs(t, err, common.ErrAccessDenied)
}

func TestBlobService_PutRejectsWrongHash(t *testing.T) {
	ctx := context.Background()
	s := newBlobService(t)
	alice := user("alice")

	info, err := s.IssueAccessToken(ctx, alice, writeRequest(alice.Groups[auth.GroupFile]))
	require.NoError(t, err)

	_, err = s.Put(ctx, alice, info.StorageAccessToken, cryptox.Fingerprint([]byte("other")), []byte("data"))
	require.ErrorIs(t, err, common.ErrorBadRequest)

	_, err = s.Put(ctx, alice, info.StorageAccessToken, "", []byte("data"))
	require.ErrorIs(t, err, common.ErrorBadRequest)
}
