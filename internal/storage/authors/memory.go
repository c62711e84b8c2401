package authors

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"library/internal/types"
)

var _ Repository = (*memoryRepo)(nil)

// NewMemoryRepository keeps authors in process memory, records are copied in and out.
func NewMemoryRepository() Repository {
	return &memoryRepo{authors: make(map[string]*types.Author)}
}

type memoryRepo struct {
	mu      sync.RWMutex
	authors map[string]*types.Author
}

func (m *memoryRepo) GetAll(ctx context.Context) ([]*types.Author, error) {
	m.mu.RLock()
	ret := make([]*types.Author, 0, len(m.authors))
	for _, a := range m.authors {
		ret = append(ret, clone(a))
	}
	m.mu.RUnlock()

	// collator is not safe for concurrent use
	c := collate.New(language.Und)
	sort.SliceStable(ret, func(i, j int) bool {
		if cmp := c.CompareString(ret[i].FamilyName, ret[j].FamilyName); cmp != 0 {
			return cmp < 0
		}
		return ret[i].Id < ret[j].Id
	})

	return ret, nil
}

func (m *memoryRepo) GetById(ctx context.Context, id string) (*types.Author, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.authors[id]
	if !ok {
		return nil, nil
	}

	return clone(a), nil
}

func (m *memoryRepo) Create(ctx context.Context, author *types.Author) (*types.Author, error) {
	a := clone(author)
	a.Id = uuid.NewString()

	m.mu.Lock()
	m.authors[a.Id] = a
	m.mu.Unlock()

	return clone(a), nil
}

func (m *memoryRepo) UpdateById(ctx context.Context, id string, author *types.Author) (*types.Author, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.authors[id]; !ok {
		return nil, nil
	}

	a := clone(author)
	a.Id = id
	m.authors[id] = a

	return clone(a), nil
}

func (m *memoryRepo) DeleteById(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.authors, id)
	m.mu.Unlock()

	return nil
}

func (m *memoryRepo) Ping(ctx context.Context) error {
	return nil
}

func clone(a *types.Author) *types.Author {
	c := *a
	c.DateOfBirth = dateOnly(a.DateOfBirth)
	c.DateOfDeath = dateOnly(a.DateOfDeath)
	return &c
}
