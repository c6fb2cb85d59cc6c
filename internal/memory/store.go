package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// projection returned by similarity search; embedding is internal and
// never leaves the store.
const searchColumns = "id, title, content, scope, project, category, tags, source, " +
	"priority, status, usage_count, created_at, updated_at, last_used_at"

const (
	OperationInsert = "insert"
	OperationUpdate = "update"
)

// UpsertResult reports what a write did.
type UpsertResult struct {
	ID           uint
	Operation    string
	RowsAffected int64
}

// RawResult holds the outcome of an arbitrary statement: row maps for
// reads, an affected-row count for writes.
type RawResult struct {
	IsRead       bool
	Rows         []map[string]interface{}
	RowsAffected int64
}

// Store persists MemoryRecord rows and answers vector-ranked retrieval.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over an initialized database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Upsert inserts the record when no id is set, otherwise overwrites the
// row with that id in place. The embedding on the record must already be
// the encoding of its content; the store never recomputes it.
//
// An update matching no row reports zero rows affected and no error.
func (s *Store) Upsert(ctx context.Context, rec *MemoryRecord) (*UpsertResult, error) {
	if rec.ID == 0 {
		tx := s.db.WithContext(ctx).Create(rec)
		if tx.Error != nil {
			return nil, fmt.Errorf("%w: insert: %v", ErrQueryFailed, tx.Error)
		}
		return &UpsertResult{ID: rec.ID, Operation: OperationInsert, RowsAffected: tx.RowsAffected}, nil
	}

	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	// Full overwrite of every mutable column; created_at stays untouched.
	tx := s.db.WithContext(ctx).Model(&MemoryRecord{}).Where("id = ?", rec.ID).Updates(map[string]interface{}{
		"title":        rec.Title,
		"content":      rec.Content,
		"embedding":    rec.Embedding,
		"scope":        rec.Scope,
		"project":      rec.Project,
		"category":     rec.Category,
		"tags":         rec.Tags,
		"source":       rec.Source,
		"priority":     rec.Priority,
		"status":       rec.Status,
		"usage_count":  rec.UsageCount,
		"updated_at":   updatedAt,
		"last_used_at": rec.LastUsedAt,
	})
	if tx.Error != nil {
		return nil, fmt.Errorf("%w: update: %v", ErrQueryFailed, tx.Error)
	}
	return &UpsertResult{ID: rec.ID, Operation: OperationUpdate, RowsAffected: tx.RowsAffected}, nil
}

// Get fetches one record by id, embedding included (internal use and tests).
func (s *Store) Get(ctx context.Context, id uint) (*MemoryRecord, error) {
	var rec MemoryRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, fmt.Errorf("%w: get: %v", ErrQueryFailed, err)
	}
	return &rec, nil
}

// SimilaritySearch returns up to topK records ordered by ascending cosine
// distance between queryVec and each stored embedding. The vector rides as
// a bound parameter, not a formatted literal.
func (s *Store) SimilaritySearch(ctx context.Context, queryVec Vector, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}
	var results []SearchResult
	tx := s.db.WithContext(ctx).Raw(
		"SELECT "+searchColumns+", embedding <=> ?::vector AS similarity FROM memory ORDER BY similarity ASC LIMIT ?",
		queryVec, topK,
	).Scan(&results)
	if tx.Error != nil {
		return nil, fmt.Errorf("%w: similarity search: %v", ErrQueryFailed, tx.Error)
	}
	return results, nil
}

// RawQuery executes an arbitrary statement. SELECT statements return row
// maps; everything else returns the affected-row count. Callers reach this
// only through the admin capability.
func (s *Store) RawQuery(ctx context.Context, stmt string) (*RawResult, error) {
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(stmt)), "SELECT") {
		var rows []map[string]interface{}
		if err := s.db.WithContext(ctx).Raw(stmt).Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		return &RawResult{IsRead: true, Rows: rows}, nil
	}
	tx := s.db.WithContext(ctx).Exec(stmt)
	if tx.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, tx.Error)
	}
	return &RawResult{RowsAffected: tx.RowsAffected}, nil
}

// Count reports how many memory rows exist (used by tests and health tooling).
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&MemoryRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrQueryFailed, err)
	}
	return n, nil
}
