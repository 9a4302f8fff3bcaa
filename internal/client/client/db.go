package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/vaultblob/internal/client/migrations"
	"github.com/dmitrijs2005/vaultblob/internal/client/repositories/blobrefs"
	"github.com/dmitrijs2005/vaultblob/internal/client/repositories/metadata"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	Metadata metadata.Repository
	BlobRefs blobrefs.Repository
}

func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Metadata: metadata.NewSQLiteRepository(db),
		BlobRefs: blobrefs.NewSQLiteRepository(db),
	}
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite database at dsn and applies migrations.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
