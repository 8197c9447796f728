package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "aqr:chunks:"

type StoreOption func(*RedisStore)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *RedisStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

// RedisStore keeps one hash per chunk plus a set of chunk ids. Writes run in
// MULTI/EXEC so a batch lands atomically; the last writer of an id wins.
type RedisStore struct {
	rdb       redis.Cmdable
	keyPrefix string
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(rdb redis.Cmdable, opts ...StoreOption) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	s := &RedisStore{rdb: rdb, keyPrefix: defaultKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *RedisStore) idsKey() string { return s.keyPrefix + "ids" }

func (s *RedisStore) chunkKey(id string) string { return s.keyPrefix + "chunk:" + id }

func (s *RedisStore) Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error {
	if err := validateBatch(chunks, vectors); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, c := range chunks {
			encoded, err := json.Marshal(vectors[i])
			if err != nil {
				return fmt.Errorf("encode vector %s: %w", c.ID, err)
			}
			pipe.HSet(ctx, s.chunkKey(c.ID), map[string]any{
				"document_id": c.DocumentID,
				"source":      c.Source,
				"index":       c.Index,
				"text":        c.Text,
				"vector":      string(encoded),
			})
			pipe.SAdd(ctx, s.idsKey(), c.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis upsert chunks: %w", err)
	}
	return nil
}

func (s *RedisStore) Search(ctx context.Context, vector []float64, k int) ([]ScoredChunk, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}

	ids, err := s.rdb.SMembers(ctx, s.idsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list chunk ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.HGetAll(ctx, s.chunkKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis load chunks: %w", err)
	}

	scored := make([]ScoredChunk, 0, len(cmds))
	for i, cmd := range cmds {
		fields, err := cmd.(*redis.MapStringStringCmd).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		chunk, vec, err := decodeChunk(ids[i], fields)
		if err != nil {
			return nil, err
		}
		if len(vec) != len(vector) {
			continue
		}
		scored = append(scored, ScoredChunk{Chunk: chunk, Score: Cosine(vec, vector)})
	}
	return topK(scored, k), nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.rdb.SCard(ctx, s.idsKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis count chunks: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	ids, err := s.rdb.SMembers(ctx, s.idsKey()).Result()
	if err != nil {
		return fmt.Errorf("redis list chunk ids: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.chunkKey(id))
	}
	keys = append(keys, s.idsKey())

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis clear chunks: %w", err)
	}
	return nil
}

func decodeChunk(id string, fields map[string]string) (Chunk, []float64, error) {
	var vec []float64
	if err := json.Unmarshal([]byte(fields["vector"]), &vec); err != nil {
		return Chunk{}, nil, fmt.Errorf("decode vector %s: %w", id, err)
	}
	idx, _ := strconv.Atoi(fields["index"])
	return Chunk{
		ID:         id,
		DocumentID: fields["document_id"],
		Source:     fields["source"],
		Index:      idx,
		Text:       fields["text"],
	}, vec, nil
}
