package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port              string
	AllowedOrigin     string
	DatabaseURL       string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	AuthSecret        string
	WalletAPIURL      string
	PayAPIURL         string
	UsersAPIURL       string
	RelayURL          string
	RelayToken        string
	TxCacheTTLSeconds int
	TxFetchLimit      int
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, err := strconv.Atoi(getEnv("TX_CACHE_TTL_SECONDS", "300"))
	if err != nil || ttl < 1 {
		ttl = 300
	}
	limit, err := strconv.Atoi(getEnv("TX_FETCH_LIMIT", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}

	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		AllowedOrigin:     getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           redisDB,
		AuthSecret:        strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		WalletAPIURL:      getEnv("WALLET_API_URL", "http://127.0.0.1:9601"),
		PayAPIURL:         getEnv("PAY_API_URL", "http://127.0.0.1:9602"),
		UsersAPIURL:       getEnv("USERS_API_URL", "http://127.0.0.1:9603"),
		RelayURL:          os.Getenv("RELAY_URL"),
		RelayToken:        strings.TrimSpace(os.Getenv("RELAY_TOKEN")),
		TxCacheTTLSeconds: ttl,
		TxFetchLimit:      limit,
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
