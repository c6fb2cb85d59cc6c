package redisdb

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// EmbeddingCache keeps computed embeddings in Redis so repeated texts skip
// the model call. Failures degrade to a cache miss; they never fail the
// request.
type EmbeddingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewEmbeddingCache(rdb *redis.Client, ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{rdb: rdb, ttl: ttl}
}

func (c *EmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[Redis] cache get failed: %v", err)
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		log.Printf("[Redis] cache entry corrupt, dropping: %v", err)
		c.rdb.Del(ctx, key)
		return nil, false
	}
	return vec, true
}

func (c *EmbeddingCache) Put(ctx context.Context, key string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("[Redis] cache set failed: %v", err)
	}
}
