package storage

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// Migrate creates missing tables and indexes, it is safe to run on every start.
func Migrate(ctx context.Context, pg *pgxpool.Pool) error {
	if _, err := pg.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}

	return nil
}

// Truncate empties every catalog table. Meant for tests against a scratch database.
func Truncate(ctx context.Context, pg *pgxpool.Pool) error {
	if _, err := pg.Exec(ctx, "TRUNCATE author, book, genre"); err != nil {
		return fmt.Errorf("truncating: %w", err)
	}

	return nil
}
