// Package config builds the runtime configuration from environment variables
// so main stays lean.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"creditline/internal/domain"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr     string
	LogLevel string
	LogJSON  bool
}

// FNB configures the primary credit channel.
type FNB struct {
	BaseURL    string
	LoginPath  string
	QueryPath  string
	User       string
	Password   string
	Timeout    time.Duration
	SessionTTL time.Duration
}

// GASO configures the analytic fallback channel.
type GASO struct {
	APIURL      string
	ResourceKey string
	DatasetID   string
	ReportID    string
	ModelID     int
	Timeout     time.Duration
}

// Fallback governs the orchestration order.
type Fallback struct {
	Order           []domain.Channel
	ContinueOnError bool
}

// Redis configures the optional shared result cache. An empty URL keeps the
// cache in process memory.
type Redis struct {
	URL      string
	CacheTTL time.Duration
}

// Config is the full runtime configuration.
type Config struct {
	Server   Server
	FNB      FNB
	GASO     GASO
	Fallback Fallback
	Redis    Redis
}

// FromEnv reads configuration from the environment, applying development
// defaults for everything except credentials.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: Server{
			Addr:     envString("CREDITLINE_ADDR", ":8080"),
			LogLevel: envString("LOG_LEVEL", "info"),
			LogJSON:  envBool("LOG_JSON", true),
		},
		FNB: FNB{
			BaseURL:    envString("FNB_BASE_URL", "https://apiprd.fnbsecure.com.pe"),
			LoginPath:  envString("FNB_LOGIN_PATH", "/api/v1/allies/login"),
			QueryPath:  envString("FNB_QUERY_PATH", "/api/v1/allies/credit-line"),
			User:       os.Getenv("FNB_USER"),
			Password:   os.Getenv("FNB_PASSWORD"),
			Timeout:    envDuration("FNB_TIMEOUT", 30*time.Second),
			SessionTTL: envDuration("FNB_SESSION_TTL", time.Hour),
		},
		GASO: GASO{
			APIURL:      envString("GASO_API_URL", "https://wabi-south-central-us-api.analysis.windows.net/public/reports/querydata"),
			ResourceKey: os.Getenv("GASO_RESOURCE_KEY"),
			DatasetID:   os.Getenv("GASO_DATASET_ID"),
			ReportID:    os.Getenv("GASO_REPORT_ID"),
			ModelID:     envInt("GASO_MODEL_ID", 0),
			Timeout:     envDuration("GASO_TIMEOUT", 30*time.Second),
		},
		Fallback: Fallback{
			ContinueOnError: envBool("FALLBACK_CONTINUE_ON_ERROR", true),
		},
		Redis: Redis{
			URL:      os.Getenv("REDIS_URL"),
			CacheTTL: envDuration("CACHE_TTL", 5*time.Minute),
		},
	}

	order, err := parseOrder(envString("FALLBACK_ORDER", "fnb,gaso"))
	if err != nil {
		return Config{}, err
	}
	cfg.Fallback.Order = order

	return cfg, nil
}

func parseOrder(raw string) ([]domain.Channel, error) {
	parts := strings.Split(raw, ",")
	order := make([]domain.Channel, 0, len(parts))
	for _, part := range parts {
		channel := domain.Channel(strings.ToLower(strings.TrimSpace(part)))
		if channel == "" {
			continue
		}
		if !channel.Valid() {
			return nil, fmt.Errorf("FALLBACK_ORDER: unknown channel %q", channel)
		}
		order = append(order, channel)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("FALLBACK_ORDER: no channels configured")
	}
	return order, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
