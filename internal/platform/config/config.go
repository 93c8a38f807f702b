package config

import (
	"os"
	"strconv"
	"time"
)

// Source holds everything one connector needs to talk to its register.
// Rate limits are configuration, not constants: the documented
// requests-per-window values differ per source and per key tier.
type Source struct {
	Name        string
	BaseURL     string
	APIKey      string
	MinInterval time.Duration // minimum gap between requests
	Burst       int
	PageSize    int
	MaxRecords  int // 0 means no cap
	Timeout     time.Duration
}

// Retry bounds the transient-error retry loop shared by all connectors.
type Retry struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Config is the explicit configuration struct threaded through every
// component at startup. No process-wide mutable globals.
type Config struct {
	DataDir  string
	HTTPAddr string
	RedisURL string
	CacheTTL time.Duration
	Workers  int
	Pipeline string

	Retry Retry

	CompaniesHouse Source
	CharityComm    Source
	Parliament     Source
	Schools        Source
}

// FromEnv builds the full configuration from environment variables so
// main stays lean. Defaults reflect each register's documented public
// (keyless) rate limits; an API key shifts a source to its keyed tier.
func FromEnv() Config {
	cfg := Config{
		DataDir:  envOr("KOSMOS_DATA_DIR", "data"),
		HTTPAddr: envOr("KOSMOS_HTTP_ADDR", ":8080"),
		RedisURL: os.Getenv("KOSMOS_REDIS_URL"),
		CacheTTL: envDuration("KOSMOS_CACHE_TTL", 15*time.Minute),
		Workers:  envInt("KOSMOS_WORKERS", 4),
		Pipeline: envOr("KOSMOS_PIPELINE", "kosmos"),
		Retry: Retry{
			MaxAttempts:     envInt("KOSMOS_RETRY_ATTEMPTS", 3),
			InitialInterval: envDuration("KOSMOS_RETRY_INITIAL", 500*time.Millisecond),
			MaxInterval:     envDuration("KOSMOS_RETRY_MAX", 30*time.Second),
		},
	}

	// Companies House: 150 req / 5 s without a key, 600 req / 10 s with.
	chKey := os.Getenv("COMPANIES_HOUSE_API_KEY")
	chInterval := 5 * time.Second / 150
	if chKey != "" {
		chInterval = 10 * time.Second / 600
	}
	cfg.CompaniesHouse = Source{
		Name:        "Companies House API",
		BaseURL:     envOr("COMPANIES_HOUSE_URL", "https://api.company-information.service.gov.uk"),
		APIKey:      chKey,
		MinInterval: envDuration("COMPANIES_HOUSE_MIN_INTERVAL", chInterval),
		Burst:       envInt("COMPANIES_HOUSE_BURST", 10),
		PageSize:    envInt("COMPANIES_HOUSE_PAGE_SIZE", 100),
		MaxRecords:  envInt("COMPANIES_HOUSE_LIMIT", 500),
		Timeout:     envDuration("COMPANIES_HOUSE_TIMEOUT", 30*time.Second),
	}

	cfg.CharityComm = Source{
		Name:        "Charity Commission API",
		BaseURL:     envOr("CHARITY_COMMISSION_URL", "https://api.charitycommission.gov.uk/api/v1"),
		APIKey:      os.Getenv("CHARITY_COMMISSION_API_KEY"),
		MinInterval: envDuration("CHARITY_COMMISSION_MIN_INTERVAL", time.Second),
		Burst:       envInt("CHARITY_COMMISSION_BURST", 5),
		PageSize:    envInt("CHARITY_COMMISSION_PAGE_SIZE", 100),
		MaxRecords:  envInt("CHARITY_COMMISSION_LIMIT", 200),
		Timeout:     envDuration("CHARITY_COMMISSION_TIMEOUT", 30*time.Second),
	}

	// Parliament: 200 req / 10 s public.
	cfg.Parliament = Source{
		Name:        "UK Parliament API",
		BaseURL:     envOr("PARLIAMENT_URL", "https://api.parliament.uk"),
		APIKey:      os.Getenv("PARLIAMENT_API_KEY"),
		MinInterval: envDuration("PARLIAMENT_MIN_INTERVAL", 10*time.Second/200),
		Burst:       envInt("PARLIAMENT_BURST", 10),
		PageSize:    envInt("PARLIAMENT_PAGE_SIZE", 200),
		MaxRecords:  envInt("PARLIAMENT_LIMIT", 0),
		Timeout:     envDuration("PARLIAMENT_TIMEOUT", 30*time.Second),
	}

	// Single bulk CSV download, so one request per run and a long timeout.
	cfg.Schools = Source{
		Name:        "DfE Schools CSV",
		BaseURL:     envOr("SCHOOLS_URL", "https://get-information-schools.service.gov.uk"),
		MinInterval: envDuration("SCHOOLS_MIN_INTERVAL", 2*time.Second),
		Burst:       1,
		MaxRecords:  envInt("SCHOOLS_LIMIT", 0),
		Timeout:     envDuration("SCHOOLS_TIMEOUT", 5*time.Minute),
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
