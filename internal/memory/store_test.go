package memory

import (
	"context"
	"os"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbConn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	if err := dbConn.AutoMigrate(&MemoryRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := dbConn.Exec("DELETE FROM memory").Error; err != nil {
		t.Fatalf("failed to clean table: %v", err)
	}
	return NewStore(dbConn)
}

func TestUpsertInsert(t *testing.T) {
	s := setupTestStore(t)
	rec := &MemoryRecord{
		Title:     "A",
		Content:   "hello world",
		Embedding: Vector{1, 2, 3},
		Scope:     "global",
		Status:    "active",
	}
	result, err := s.Upsert(context.Background(), rec)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if result.Operation != OperationInsert {
		t.Errorf("expected insert, got %s", result.Operation)
	}
	if result.ID == 0 {
		t.Error("expected a new id to be assigned")
	}

	stored, err := s.Get(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Content != "hello world" {
		t.Errorf("unexpected content: %q", stored.Content)
	}
	if len(stored.Embedding) != 3 || stored.Embedding[0] != 1 {
		t.Errorf("embedding not persisted: %v", stored.Embedding)
	}
	if stored.CreatedAt.IsZero() {
		t.Error("created_at was not defaulted")
	}
}

func TestUpsertInsertAssignsDistinctIDs(t *testing.T) {
	s := setupTestStore(t)
	r1, err := s.Upsert(context.Background(), &MemoryRecord{Content: "one", Embedding: Vector{1}})
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	r2, err := s.Upsert(context.Background(), &MemoryRecord{Content: "two", Embedding: Vector{2}})
	if err != nil {
		t.Fatalf("second insert failed: %v", err)
	}
	if r1.ID == r2.ID {
		t.Errorf("expected distinct ids, both got %d", r1.ID)
	}
}

func TestUpsertUpdateOverwritesEmbedding(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	created, err := s.Upsert(ctx, &MemoryRecord{Content: "old", Embedding: Vector{1, 1, 1}, Scope: "global", Status: "active"})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	before, _ := s.Get(ctx, created.ID)

	result, err := s.Upsert(ctx, &MemoryRecord{
		ID:        created.ID,
		Title:     "changed title",
		Content:   "changed",
		Embedding: Vector{9, 9, 9},
		Scope:     "global",
		Status:    "active",
		UpdatedAt: before.UpdatedAt.Add(time.Second),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if result.Operation != OperationUpdate {
		t.Errorf("expected update, got %s", result.Operation)
	}
	if result.RowsAffected != 1 {
		t.Errorf("expected 1 row affected, got %d", result.RowsAffected)
	}

	after, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if after.Content != "changed" {
		t.Errorf("content not updated: %q", after.Content)
	}
	if len(after.Embedding) != 3 || after.Embedding[0] != 9 {
		t.Errorf("embedding not overwritten: %v", after.Embedding)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Error("updated_at did not advance")
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", before.CreatedAt, after.CreatedAt)
	}
}

func TestUpsertUpdateMissingID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	result, err := s.Upsert(ctx, &MemoryRecord{ID: 9999, Content: "ghost", Embedding: Vector{1}})
	if err != nil {
		t.Fatalf("expected silent no-op, got error: %v", err)
	}
	if result.RowsAffected != 0 {
		t.Errorf("expected 0 rows affected, got %d", result.RowsAffected)
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("update of missing id created %d records", n)
	}
}

func TestSimilaritySearchRejectsBadTopK(t *testing.T) {
	s := setupTestStore(t)
	for _, topK := range []int{0, -3} {
		if _, err := s.SimilaritySearch(context.Background(), Vector{1, 2}, topK); err != ErrInvalidTopK {
			t.Errorf("topK=%d: expected ErrInvalidTopK, got %v", topK, err)
		}
	}
}

func TestRawQuerySelect(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if _, err := s.Upsert(ctx, &MemoryRecord{Title: "raw", Content: "raw row", Embedding: Vector{1}}); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	result, err := s.RawQuery(ctx, "SELECT id, title FROM memory")
	if err != nil {
		t.Fatalf("RawQuery failed: %v", err)
	}
	if !result.IsRead {
		t.Fatal("expected a read result")
	}
	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result.Rows))
	}
	if result.Rows[0]["title"] != "raw" {
		t.Errorf("unexpected row: %v", result.Rows[0])
	}
}

func TestRawQueryWrite(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if _, err := s.Upsert(ctx, &MemoryRecord{Content: "to delete", Embedding: Vector{1}}); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	result, err := s.RawQuery(ctx, "DELETE FROM memory")
	if err != nil {
		t.Fatalf("RawQuery failed: %v", err)
	}
	if result.IsRead {
		t.Fatal("expected a write result")
	}
	if result.RowsAffected != 1 {
		t.Errorf("expected 1 row affected, got %d", result.RowsAffected)
	}
}

func TestRawQueryBadStatement(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.RawQuery(context.Background(), "DELETE FROM no_such_table"); err == nil {
		t.Error("expected error for bad statement")
	}
}

// Vector-ranked retrieval needs the pgvector distance operator; this test
// only runs against a real Postgres instance with the extension installed.
func TestSimilaritySearchOrdering_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("set TEST_DB_DSN to run the pgvector ordering test")
	}
	dbConn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := dbConn.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		t.Fatalf("pgvector extension unavailable: %v", err)
	}
	if err := dbConn.AutoMigrate(&MemoryRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := dbConn.Exec("DELETE FROM memory").Error; err != nil {
		t.Fatalf("failed to clean table: %v", err)
	}
	s := NewStore(dbConn)
	ctx := context.Background()

	// Five records with embeddings at increasing angles from the query.
	for i := 0; i < 5; i++ {
		vec := make(Vector, EmbeddingDims)
		vec[0] = 1
		vec[1] = float32(i)
		if _, err := s.Upsert(ctx, &MemoryRecord{Title: "rec", Content: "c", Embedding: vec}); err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}

	query := make(Vector, EmbeddingDims)
	query[0] = 1
	results, err := s.SimilaritySearch(ctx, query, 3)
	if err != nil {
		t.Fatalf("SimilaritySearch failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected exactly 3 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity < results[i-1].Similarity {
			t.Errorf("results not in ascending distance order: %v then %v",
				results[i-1].Similarity, results[i].Similarity)
		}
	}
}
