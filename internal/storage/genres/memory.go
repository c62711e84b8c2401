package genres

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

func NewMemoryRepository() Repository {
	return &memoryRepo{byName: make(map[string]*types.Genre)}
}

type memoryRepo struct {
	mu     sync.RWMutex
	byName map[string]*types.Genre
}

func (m *memoryRepo) GetAll(ctx context.Context) ([]*types.Genre, error) {
	m.mu.RLock()
	ret := make([]*types.Genre, 0, len(m.byName))
	for _, g := range m.byName {
		c := *g
		ret = append(ret, &c)
	}
	m.mu.RUnlock()

	c := collate.New(language.Und)
	sort.SliceStable(ret, func(i, j int) bool {
		return c.CompareString(ret[i].Name, ret[j].Name) < 0
	})

	return ret, nil
}

func (m *memoryRepo) Insert(ctx context.Context, names ...string) (map[string]*types.Genre, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ret := make(map[string]*types.Genre, len(names))
	for _, name := range names {
		g, ok := m.byName[name]
		if !ok {
			g = &types.Genre{Id: uuid.NewString(), Name: name}
			m.byName[name] = g
		}

		c := *g
		ret[name] = &c
	}

	return ret, nil
}
