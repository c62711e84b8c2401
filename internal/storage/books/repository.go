package books

import (
	"context"

	"library/internal/types"
)

type Repository interface {
	// GetById returns nil, nil when there is no such book
	GetById(ctx context.Context, id string) (*types.Book, error)
	// GetByAuthor returns full records of the books referencing authorId, ordered by title
	GetByAuthor(ctx context.Context, authorId string) ([]*types.Book, error)
	// SummariesByAuthor is GetByAuthor projected to id, title and summary
	SummariesByAuthor(ctx context.Context, authorId string) ([]*types.Book, error)

	// Create stores a new book under a freshly generated identity and returns the stored record
	Create(ctx context.Context, book *types.Book) (*types.Book, error)
	DeleteById(ctx context.Context, id string) error
}
