package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort int

	DataDir    string
	DBPath     string
	StorageDir string

	RabbitMQURL      string
	RabbitMQExchange string
	ChannelPoolSize  int

	CatalogCacheTTL       time.Duration
	CheckoutMaxConcurrent int

	SessionIdleTTL     time.Duration
	SessionMaxShoppers int

	// AdminToken guards /admin when non-empty.
	AdminToken string
}

func Load() Config {
	dataDir := getEnv("DATA_DIR", "data")

	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPPort: getEnvInt("HTTP_PORT", 8080),

		DataDir:    dataDir,
		DBPath:     getEnv("DB_PATH", filepath.Join(dataDir, "storefront.db")),
		StorageDir: getEnv("STORAGE_DIR", filepath.Join(dataDir, "local")),

		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "storefront.events"),
		ChannelPoolSize:  getEnvInt("CHANNEL_POOL_SIZE", 4),

		CatalogCacheTTL:       getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		CheckoutMaxConcurrent: getEnvInt("CHECKOUT_MAX_CONCURRENT", 10),

		SessionIdleTTL:     getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
		SessionMaxShoppers: getEnvInt("SESSION_MAX_SHOPPERS", 10000),

		AdminToken: getEnv("ADMIN_TOKEN", ""),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}

	return d
}
