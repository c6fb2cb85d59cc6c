package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"pkb-memory/internal/api"
	"pkb-memory/internal/config"
	"pkb-memory/internal/db"
	"pkb-memory/internal/embedding"
	"pkb-memory/internal/memory"
	redisdb "pkb-memory/internal/redis"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := db.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}

	var cache embedding.Cache
	if cfg.Redis.Addr != "" {
		rdb := redisdb.NewClient(cfg)
		cache = redisdb.NewEmbeddingCache(rdb, 24*time.Hour)
		log.Printf("[Main] Embedding cache enabled (redis at %s)", cfg.Redis.Addr)
	}

	client := embedding.NewClient(cfg.Embedding.APIURL, cfg.Embedding.ModelName)
	model := embedding.NewModel(client, cache, cfg.Embedding.ModelName, cfg.Embedding.Dimensions)

	// The model warms up in the background; embedding-dependent endpoints
	// answer 503 until it is ready.
	go func() {
		if err := model.Load(context.Background()); err != nil {
			log.Printf("[Main] WARNING: embedding model failed to load: %v", err)
		}
	}()

	store := memory.NewStore(db.DB)
	svc := memory.NewService(store, model)

	r := api.SetupRouter(cfg, svc, store, model)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Starting server on %s\n", addr)
	if err := r.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
