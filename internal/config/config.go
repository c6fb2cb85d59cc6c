package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
)

type Config struct {
	Server struct {
		Host string
		Port int
	}
	Postgres struct {
		Host     string
		Port     int
		Database string
		User     string
		Password string
	}
	Embedding struct {
		APIURL     string
		ModelName  string
		Dimensions int
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Admin struct {
		JWTSecret string
	}
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// LoadConfig reads configuration from the environment (singleton)
func LoadConfig() (*Config, error) {
	once.Do(func() {
		var c Config
		var err error

		c.Server.Host = envOr("SERVER_HOST", "0.0.0.0")
		if c.Server.Port, err = envIntOr("SERVER_PORT", 8000); err != nil {
			cfgErr = err
			return
		}

		c.Postgres.Host = envOr("POSTGRES_HOST", "localhost")
		if c.Postgres.Port, err = envIntOr("POSTGRES_PORT", 5432); err != nil {
			cfgErr = err
			return
		}
		c.Postgres.Database = os.Getenv("POSTGRES_DATABASE")
		c.Postgres.User = os.Getenv("POSTGRES_USER")
		c.Postgres.Password = os.Getenv("POSTGRES_PASSWORD")

		c.Embedding.APIURL = os.Getenv("EMBEDDING_API_URL")
		c.Embedding.ModelName = envOr("EMBEDDING_MODEL", "all-mpnet-base-v2")
		if c.Embedding.Dimensions, err = envIntOr("EMBEDDING_DIMENSIONS", 768); err != nil {
			cfgErr = err
			return
		}

		c.Redis.Addr = os.Getenv("REDIS_ADDR") // empty disables the embedding cache
		c.Redis.Password = os.Getenv("REDIS_PASSWORD")
		if c.Redis.DB, err = envIntOr("REDIS_DB", 0); err != nil {
			cfgErr = err
			return
		}

		c.Admin.JWTSecret = os.Getenv("ADMIN_JWT_SECRET")

		// Minimal validation
		if c.Postgres.Database == "" || c.Postgres.User == "" {
			cfgErr = errors.New("POSTGRES_DATABASE and POSTGRES_USER must be set")
			return
		}
		if c.Embedding.APIURL == "" {
			cfgErr = errors.New("EMBEDDING_API_URL must be set")
			return
		}
		if c.Admin.JWTSecret == "" {
			cfgErr = errors.New("ADMIN_JWT_SECRET must be set")
			return
		}
		cfg = &c
	})
	return cfg, cfgErr
}

// GetConfig returns the loaded config (must call LoadConfig first)
func GetConfig() *Config {
	return cfg
}

// DSN builds the Postgres connection string from the configured parts.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		c.Postgres.Host, c.Postgres.Port, c.Postgres.Database, c.Postgres.User, c.Postgres.Password)
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
