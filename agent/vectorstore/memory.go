package vectorstore

import (
	"context"
	"sync"
)

type entry struct {
	chunk  Chunk
	vector []float64
}

// MemoryStore is a brute-force in-process store.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	entries   map[string]entry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry)}
}

func (s *MemoryStore) Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error {
	if err := validateBatch(chunks, vectors); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && len(vectors[0]) != s.dimension {
		return ErrDimensionMismatch
	}
	s.dimension = len(vectors[0])
	for i, c := range chunks {
		v := make([]float64, len(vectors[i]))
		copy(v, vectors[i])
		s.entries[c.ID] = entry{chunk: c, vector: v}
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, vector []float64, k int) ([]ScoredChunk, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension != 0 && len(vector) != s.dimension {
		return nil, ErrDimensionMismatch
	}
	scored := make([]ScoredChunk, 0, len(s.entries))
	for _, e := range s.entries {
		scored = append(scored, ScoredChunk{Chunk: e.chunk, Score: Cosine(e.vector, vector)})
	}
	return topK(scored, k), nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
	s.dimension = 0
	return nil
}
