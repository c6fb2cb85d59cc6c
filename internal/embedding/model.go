package embedding

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"sync/atomic"
)

// Encoder is the backend that actually turns text into a vector.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Cache stores previously computed vectors keyed by model+content hash.
// Implementations degrade silently: a miss or a broken backend just means
// the encoder runs again.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Put(ctx context.Context, key string, vec []float32)
}

// Model is the process-wide embedding handle. It is constructed once at
// startup and passed into its consumers; until Load completes every Embed
// call returns ErrModelUnavailable instead of blocking.
type Model struct {
	encoder Encoder
	cache   Cache // nil when caching is disabled
	name    string
	dims    int
	ready   atomic.Bool
}

// NewModel wraps an encoder as a lifecycle-managed model handle.
func NewModel(encoder Encoder, cache Cache, name string, dims int) *Model {
	return &Model{
		encoder: encoder,
		cache:   cache,
		name:    name,
		dims:    dims,
	}
}

// Load warms the backend with a probe encoding and verifies its
// dimensionality, then marks the model ready. Intended to run in a
// startup goroutine; callers keep getting ErrModelUnavailable until it
// returns nil.
func (m *Model) Load(ctx context.Context) error {
	vec, err := m.encoder.Encode(ctx, "warmup probe")
	if err != nil {
		return fmt.Errorf("model %s warm-up failed: %w", m.name, err)
	}
	if len(vec) != m.dims {
		return fmt.Errorf("model %s returned %d dimensions, want %d", m.name, len(vec), m.dims)
	}
	m.ready.Store(true)
	log.Printf("[Embedding] Successfully loaded model: %s (%d dims)", m.name, m.dims)
	return nil
}

// Loaded reports whether the model finished initializing.
func (m *Model) Loaded() bool {
	return m.ready.Load()
}

// ModelName returns the configured encoder model identifier.
func (m *Model) ModelName() string {
	return m.name
}

// Embed encodes text into a fixed-length vector. Deterministic for a
// fixed model version; never returns a vector of the wrong length.
func (m *Model) Embed(ctx context.Context, text string) ([]float32, error) {
	if !m.ready.Load() {
		return nil, ErrModelUnavailable
	}
	if text == "" {
		return nil, fmt.Errorf("%w: empty input text", ErrEmbedFailed)
	}

	key := cacheKey(m.name, text)
	if m.cache != nil {
		if vec, ok := m.cache.Get(ctx, key); ok && len(vec) == m.dims {
			return vec, nil
		}
	}

	vec, err := m.encoder.Encode(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedFailed, err)
	}
	if len(vec) != m.dims {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", ErrEmbedFailed, len(vec), m.dims)
	}

	if m.cache != nil {
		m.cache.Put(ctx, key, vec)
	}
	return vec, nil
}

func cacheKey(model, text string) string {
	return fmt.Sprintf("emb:%s:%x", model, sha256.Sum256([]byte(text)))
}
