package blobrefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vaultblob/internal/client/models"
	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const columns = `blob_id, archive_id, name, size, fingerprint, owner_group, owner_enc_session_key, created_at`

func (r *SQLiteRepository) Save(ctx context.Context, rec *models.BlobRecord) error {
	query := `INSERT INTO blob_refs (` + columns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(blob_id) DO UPDATE SET archive_id = excluded.archive_id,
				name = excluded.name,
				size = excluded.size,
				fingerprint = excluded.fingerprint,
				owner_group = excluded.owner_group,
				owner_enc_session_key = excluded.owner_enc_session_key`

	_, err := r.db.ExecContext(ctx, query, rec.BlobID, rec.ArchiveID, rec.Name, rec.Size,
		rec.Fingerprint, rec.OwnerGroup, rec.OwnerEncSessKey, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save blob ref %s: %w", rec.BlobID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.BlobRecord, error) {
	rec := &models.BlobRecord{}
	err := s.Scan(&rec.BlobID, &rec.ArchiveID, &rec.Name, &rec.Size, &rec.Fingerprint,
		&rec.OwnerGroup, &rec.OwnerEncSessKey, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *SQLiteRepository) GetByBlobID(ctx context.Context, blobID string) (*models.BlobRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM blob_refs WHERE blob_id = ?`, blobID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blob ref %s: %w", blobID, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob ref %s: %w", blobID, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.BlobRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM blob_refs ORDER BY created_at, blob_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list blob refs: %w", err)
	}
	defer rows.Close()

	var result []*models.BlobRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blob ref: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) DeleteByBlobID(ctx context.Context, blobID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blob_refs WHERE blob_id = ?`, blobID)
	if err != nil {
		return fmt.Errorf("failed to delete blob ref %s: %w", blobID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("blob ref %s: %w", blobID, common.ErrorNotFound)
	}
	return nil
}

var _ Repository = (*SQLiteRepository)(nil)
