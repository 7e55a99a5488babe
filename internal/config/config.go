package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	DatabaseURL     string
	SQLitePath      string
	RedisURL        string
	NATSURL         string
	JWTSecret       string
	StatsCacheTTL   time.Duration
	DockerHost      string
	CheckMemoryMB   int
	CheckCPUShares  int
	OpenAIAPIKey    string
	ReviewModel     string
	ReviewMaxTokens int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADEHUB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GradeHub API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("sqlite.path", "gradehub.db")
	v.SetDefault("stats.cache_ttl", "5m")
	v.SetDefault("check_memory_mb", 256)
	v.SetDefault("check_cpu_shares", 512)
	v.SetDefault("review.model", "gpt-4o-mini")
	v.SetDefault("review.max_tokens", 512)

	ttlString := v.GetString("stats.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid stats cache ttl: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		DatabaseURL:     v.GetString("database.url"),
		SQLitePath:      v.GetString("sqlite.path"),
		RedisURL:        v.GetString("redis.url"),
		NATSURL:         v.GetString("nats.url"),
		JWTSecret:       v.GetString("jwt.secret"),
		StatsCacheTTL:   ttl,
		DockerHost:      v.GetString("docker_host"),
		CheckMemoryMB:   v.GetInt("check_memory_mb"),
		CheckCPUShares:  v.GetInt("check_cpu_shares"),
		OpenAIAPIKey:    v.GetString("openai_api_key"),
		ReviewModel:     v.GetString("review.model"),
		ReviewMaxTokens: v.GetInt("review.max_tokens"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.CheckMemoryMB <= 0 {
		cfg.CheckMemoryMB = 256
	}

	if cfg.CheckCPUShares <= 0 {
		cfg.CheckCPUShares = 512
	}

	return cfg, nil
}
