package authors

import (
	"context"

	"library/internal/types"
)

type Repository interface {
	// GetAll returns every author ordered by family name ascending
	GetAll(ctx context.Context) ([]*types.Author, error)
	// GetById returns nil, nil when there is no such author
	GetById(ctx context.Context, id string) (*types.Author, error)

	// Create stores a new author under a freshly generated identity and returns the stored record
	Create(ctx context.Context, author *types.Author) (*types.Author, error)
	// UpdateById replaces the author keeping id. Returns nil, nil when there is no such author
	UpdateById(ctx context.Context, id string, author *types.Author) (*types.Author, error)
	// DeleteById does not check for dependent books, callers must
	DeleteById(ctx context.Context, id string) error

	Ping(ctx context.Context) error
}
