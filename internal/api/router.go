package api

import (
	"github.com/gin-gonic/gin"

	"pkb-memory/internal/auth"
	"pkb-memory/internal/config"
	"pkb-memory/internal/memory"
)

func SetupRouter(cfg *config.Config, svc *memory.Service, store *memory.Store, model memory.Embedder) *gin.Engine {
	r := gin.Default()
	r.Use(RequestIDMiddleware())

	r.GET("/health", HealthHandler(svc))
	r.POST("/embed", EmbedHandler(model))
	r.POST("/mem_similarity", SimilarityHandler(svc))
	r.POST("/mem_crud", CrudHandler(svc))

	// Raw SQL passthrough stays behind the admin capability
	r.POST("/db_query", auth.AdminMiddleware(cfg), QueryHandler(store))

	return r
}
