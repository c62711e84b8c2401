package books

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"library/internal/types"
)

var _ Repository = (*memoryRepo)(nil)

func NewMemoryRepository() Repository {
	return &memoryRepo{books: make(map[string]*types.Book)}
}

type memoryRepo struct {
	mu    sync.RWMutex
	books map[string]*types.Book
}

func (m *memoryRepo) GetById(ctx context.Context, id string) (*types.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.books[id]
	if !ok {
		return nil, nil
	}

	c := *b
	return &c, nil
}

func (m *memoryRepo) GetByAuthor(ctx context.Context, authorId string) ([]*types.Book, error) {
	m.mu.RLock()
	ret := make([]*types.Book, 0)
	for _, b := range m.books {
		if b.Author == authorId {
			c := *b
			ret = append(ret, &c)
		}
	}
	m.mu.RUnlock()

	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Title != ret[j].Title {
			return ret[i].Title < ret[j].Title
		}
		return ret[i].Id < ret[j].Id
	})

	return ret, nil
}

func (m *memoryRepo) SummariesByAuthor(ctx context.Context, authorId string) ([]*types.Book, error) {
	bs, err := m.GetByAuthor(ctx, authorId)
	if err != nil {
		return nil, err
	}

	for _, b := range bs {
		b.Author = ""
	}

	return bs, nil
}

func (m *memoryRepo) Create(ctx context.Context, book *types.Book) (*types.Book, error) {
	b := *book
	b.Id = uuid.NewString()

	m.mu.Lock()
	m.books[b.Id] = &b
	m.mu.Unlock()

	c := b
	return &c, nil
}

func (m *memoryRepo) DeleteById(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.books, id)
	m.mu.Unlock()

	return nil
}
