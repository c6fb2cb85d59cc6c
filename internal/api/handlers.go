package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"pkb-memory/internal/embedding"
	"pkb-memory/internal/memory"
)

// errorStatus maps the service error taxonomy to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, embedding.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, memory.ErrInvalidTopK), errors.Is(err, memory.ErrInvalidRecord):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": gin.H{"message": err.Error()}})
}

// GET /health
func HealthHandler(svc *memory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"model_loaded": svc.ModelLoaded(),
			"model_name":   svc.ModelName(),
		})
	}
}

type embedRequest struct {
	Text string `json:"text"`
}

// POST /embed
func EmbedHandler(model memory.Embedder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req embedRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Missing text"}})
			return
		}
		vec, err := model.Embed(c.Request.Context(), req.Text)
		if err != nil {
			log.Printf("[API] embed failed: %v", err)
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"embedding": vec,
			"model":     model.ModelName(),
		})
	}
}

type queryRequest struct {
	Query string `json:"query"`
}

// POST /db_query  [admin only]
func QueryHandler(store *memory.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req queryRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Missing query"}})
			return
		}
		result, err := store.RawQuery(c.Request.Context(), req.Query)
		if err != nil {
			log.Printf("[API] db_query failed: %v", err)
			abortWithError(c, err)
			return
		}
		if result.IsRead {
			c.JSON(http.StatusOK, result.Rows)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "rows_affected": result.RowsAffected})
	}
}

type similarityRequest struct {
	QueryText string `json:"query_text"`
	TopK      *int   `json:"top_k"`
}

// POST /mem_similarity
func SimilarityHandler(svc *memory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req similarityRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.QueryText == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Missing query_text"}})
			return
		}
		topK := 5
		if req.TopK != nil {
			topK = *req.TopK
		}
		results, err := svc.Search(c.Request.Context(), req.QueryText, topK)
		if err != nil {
			log.Printf("[API] similarity search failed: %v", err)
			abortWithError(c, err)
			return
		}
		if results == nil {
			results = []memory.SearchResult{}
		}
		c.JSON(http.StatusOK, results)
	}
}

type memoryRecordRequest struct {
	ID         *uint      `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Scope      string     `json:"scope"`
	Project    *string    `json:"project"`
	Category   *string    `json:"category"`
	Tags       []string   `json:"tags"`
	Source     *string    `json:"source"`
	Priority   int        `json:"priority"`
	Status     string     `json:"status"`
	UsageCount int        `json:"usage_count"`
	CreatedAt  *time.Time `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

func (r *memoryRecordRequest) toRecord() (*memory.MemoryRecord, error) {
	rec := &memory.MemoryRecord{
		Title:      r.Title,
		Content:    r.Content,
		Scope:      r.Scope,
		Project:    r.Project,
		Category:   r.Category,
		Source:     r.Source,
		Priority:   r.Priority,
		Status:     r.Status,
		UsageCount: r.UsageCount,
		LastUsedAt: r.LastUsedAt,
	}
	if r.ID != nil {
		rec.ID = *r.ID
	}
	if rec.Scope == "" {
		rec.Scope = "global"
	}
	if rec.Status == "" {
		rec.Status = "active"
	}
	if r.Tags != nil {
		raw, err := json.Marshal(r.Tags)
		if err != nil {
			return nil, err
		}
		rec.Tags = datatypes.JSON(raw)
	}
	if r.CreatedAt != nil {
		rec.CreatedAt = *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		rec.UpdatedAt = *r.UpdatedAt
	}
	return rec, nil
}

// POST /mem_crud
func CrudHandler(svc *memory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req memoryRecordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		if req.Content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Missing content"}})
			return
		}
		rec, err := req.toRecord()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid tags"}})
			return
		}
		result, err := svc.Save(c.Request.Context(), rec)
		if err != nil {
			log.Printf("[API] mem_crud failed: %v", err)
			abortWithError(c, err)
			return
		}
		resp := gin.H{
			"status":    "success",
			"id":        result.ID,
			"operation": result.Operation,
		}
		if result.Operation == memory.OperationUpdate {
			resp["rows_affected"] = result.RowsAffected
		}
		c.JSON(http.StatusOK, resp)
	}
}
