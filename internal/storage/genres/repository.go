package genres

import (
	"context"

	"library/internal/types"
)

type Repository interface {
	// GetAll returns every genre ordered by name ascending
	GetAll(ctx context.Context) ([]*types.Genre, error)

	// Insert adds genres by name, names already present are left alone.
	// Returns every requested genre keyed by name
	Insert(ctx context.Context, names ...string) (map[string]*types.Genre, error)
}
