package memory

import (
	"context"
	"fmt"
	"log"
)

// Embedder is the embedding model handle the service depends on. The
// concrete implementation lives in internal/embedding; tests substitute
// a deterministic fake.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
	Loaded() bool
}

// Service composes the embedder and the store. On every write the
// embedding is derived fresh from the record's content before storage is
// touched; on every query the query text is embedded before ranking is
// delegated to the store. Single pass, no retries.
type Service struct {
	store    *Store
	embedder Embedder
}

// NewService wires a store and an embedding model handle together.
func NewService(store *Store, embedder Embedder) *Service {
	return &Service{store: store, embedder: embedder}
}

// Save embeds the record's content and upserts it. A failed embedding
// aborts before any storage write, so a row can never carry an embedding
// that drifted from its content.
func (s *Service) Save(ctx context.Context, rec *MemoryRecord) (*UpsertResult, error) {
	if rec.Content == "" {
		return nil, fmt.Errorf("%w: content must not be empty", ErrInvalidRecord)
	}
	vec, err := s.embedder.Embed(ctx, rec.Content)
	if err != nil {
		log.Printf("[Memory] embedding failed for record save: %v", err)
		return nil, err
	}
	rec.Embedding = vec
	result, err := s.store.Upsert(ctx, rec)
	if err != nil {
		log.Printf("[Memory] upsert failed: %v", err)
		return nil, err
	}
	return result, nil
}

// Search embeds queryText and returns up to topK records ordered by
// ascending distance.
func (s *Service) Search(ctx context.Context, queryText string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}
	vec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		log.Printf("[Memory] embedding failed for similarity search: %v", err)
		return nil, err
	}
	results, err := s.store.SimilaritySearch(ctx, vec, topK)
	if err != nil {
		log.Printf("[Memory] similarity search failed: %v", err)
		return nil, err
	}
	return results, nil
}

// ModelName exposes the underlying encoder identifier for health reporting.
func (s *Service) ModelName() string {
	return s.embedder.ModelName()
}

// ModelLoaded reports whether embedding-dependent operations can run.
func (s *Service) ModelLoaded() bool {
	return s.embedder.Loaded()
}
