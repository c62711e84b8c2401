package storagetest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"library/internal/storage"
)

// Pool connects to TEST_DATABASE_URL, applies the schema and empties the tables.
// The test is skipped when the variable is unset.
func Pool(t testing.TB) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pg, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pg.Close)

	if err := storage.Migrate(ctx, pg); err != nil {
		t.Fatal(err)
	}
	if err := storage.Truncate(ctx, pg); err != nil {
		t.Fatal(err)
	}

	return pg
}
