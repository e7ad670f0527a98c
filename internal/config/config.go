package config

import (
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	StoreID           string `validate:"required"`
	DatabaseURL       string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	AuthSecret        string `validate:"omitempty,min=32"`
	ReorderTTLSeconds int    `validate:"gte=1"`
	DefaultPriceTier  string `validate:"oneof=unit semiWholesale wholesale"`
}

// Load reads configuration from the environment, with an optional .env
// file for local development.
func Load() (Config, error) {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, err := strconv.Atoi(getEnv("REORDER_TTL_SECONDS", "30"))
	if err != nil || ttl < 1 {
		ttl = 30
	}

	cfg := Config{
		StoreID:           getEnv("DEFAULT_STORE_ID", "main-store"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           redisDB,
		AuthSecret:        os.Getenv("AUTH_SECRET"),
		ReorderTTLSeconds: ttl,
		DefaultPriceTier:  getEnv("DEFAULT_PRICE_TIER", "unit"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
