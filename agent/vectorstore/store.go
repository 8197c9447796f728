package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	defaultTopK = 3
)

var (
	ErrLengthMismatch    = errors.New("chunks and vectors length mismatch")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrEmptyVector       = errors.New("vector is empty")
)

type Config struct {
	Backend   string `envconfig:"BACKEND" split_words:"true" default:"memory"`
	KeyPrefix string `envconfig:"KEY_PREFIX" split_words:"true" default:"aqr:chunks:"`
}

// Chunk is one slice of an ingested document. It is immutable once stored;
// writing the same ID again replaces it.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
	Index      int    `json:"index"`
	Text       string `json:"text"`
}

type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// Store persists chunk vectors and ranks them by cosine similarity.
type Store interface {
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, k int) ([]ScoredChunk, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// New picks the backend named in cfg. rdb is only needed for redis.
func New(cfg Config, rdb redis.Cmdable) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(rdb, WithKeyPrefix(cfg.KeyPrefix))
	default:
		return nil, fmt.Errorf("unsupported vector backend %q", cfg.Backend)
	}
}

func validateBatch(chunks []Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return ErrLengthMismatch
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return ErrEmptyVector
		}
		if len(v) != len(vectors[0]) {
			return fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(v), len(vectors[0]))
		}
		if strings.TrimSpace(chunks[i].ID) == "" {
			return fmt.Errorf("chunk %d has no id", i)
		}
	}
	return nil
}

// Cosine returns 0 when either vector has zero norm or the lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// topK sorts by descending score, breaking ties on document order.
func topK(scored []ScoredChunk, k int) []ScoredChunk {
	if k <= 0 {
		k = defaultTopK
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].DocumentID != scored[j].DocumentID {
			return scored[i].DocumentID < scored[j].DocumentID
		}
		return scored[i].Index < scored[j].Index
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
