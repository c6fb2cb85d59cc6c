package memory

import (
	"time"

	"gorm.io/datatypes"
)

// MemoryRecord is a persisted memory row. The store is the sole writer of
// ID and Embedding; every other field is caller-owned. Embedding always
// holds the encoding of the current Content and is never serialized out.
type MemoryRecord struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Embedding  Vector         `json:"-"`
	Scope      string         `json:"scope" gorm:"default:global"`
	Project    *string        `json:"project,omitempty"`
	Category   *string        `json:"category,omitempty"`
	Tags       datatypes.JSON `json:"tags,omitempty" gorm:"type:jsonb"`
	Source     *string        `json:"source,omitempty"`
	Priority   int            `json:"priority"`
	Status     string         `json:"status" gorm:"default:active"`
	UsageCount int            `json:"usage_count"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	LastUsedAt *time.Time     `json:"last_used_at,omitempty"`
}

// TableName keeps the original table name used by the memory database.
func (MemoryRecord) TableName() string {
	return "memory"
}

// SearchResult is one similarity hit: the record projection plus the
// cosine distance to the query vector. Lower is more similar. The raw
// embedding is deliberately absent.
type SearchResult struct {
	ID         uint           `json:"id"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Scope      string         `json:"scope"`
	Project    *string        `json:"project"`
	Category   *string        `json:"category"`
	Tags       datatypes.JSON `json:"tags"`
	Source     *string        `json:"source"`
	Priority   int            `json:"priority"`
	Status     string         `json:"status"`
	UsageCount int            `json:"usage_count"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	LastUsedAt *time.Time     `json:"last_used_at"`
	Similarity float64        `json:"similarity"`
}
