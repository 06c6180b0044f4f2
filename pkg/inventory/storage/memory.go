package storage

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/nemonet1337/zaiPipeline/pkg/inventory"
)

// MemoryStorage keeps the entity set in process memory
// エンティティ全体をプロセスメモリに保持
type MemoryStorage struct {
	mu    sync.Mutex
	set   inventory.EntitySet
	saves int
}

var _ inventory.Storage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an in-memory storage seeded with the given set
// 初期データ付きのメモリストレージを作成
func NewMemoryStorage(seed *inventory.EntitySet) *MemoryStorage {
	s := &MemoryStorage{}
	if seed != nil {
		s.set = copySet(seed)
	}
	return s
}

// Load returns a copy of the stored entity set
func (s *MemoryStorage) Load(ctx context.Context) (*inventory.EntitySet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := copySet(&s.set)
	return &out, nil
}

// Save replaces the stored entity set
func (s *MemoryStorage) Save(ctx context.Context, set *inventory.EntitySet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = copySet(set)
	s.saves++
	return nil
}

// Saves returns how many times Save has been called
func (s *MemoryStorage) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *MemoryStorage) Ping(ctx context.Context) error { return nil }

func (s *MemoryStorage) Close() error { return nil }

func copySet(set *inventory.EntitySet) inventory.EntitySet {
	return inventory.EntitySet{
		Products: lo.Map(set.Products, func(p inventory.Product, _ int) inventory.Product { return p.Clone() }),
		Batches:  lo.Map(set.Batches, func(b inventory.Batch, _ int) inventory.Batch { return b.Clone() }),
	}
}
