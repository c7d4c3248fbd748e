package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultAllowedOrigins = "https://v0-challenge-five.vercel.app,http://localhost:5173,http://localhost:3000"

type Config struct {
	// Server settings
	Port           int
	Environment    string // "production" enables the *.vercel.app origin pattern
	Debug          bool
	AllowedOrigins []string

	// Headlines source
	NewsProvider    string // newsapi | rss
	NewsAPIKey      string
	NewsAPIBaseURL  string
	FeedsConfigPath string

	// AI settings
	AIProvider      string // openai | gemini | anthropic
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string

	// Cache settings
	CacheTTL         int // seconds, per news cache entry
	SamplePages      int // pages of articles kept per date-filtered cache entry
	SummaryStore     string
	SummaryStorePath string
	DatabaseURL      string
	RedisURL         string

	// Network settings
	RequestTimeout     time.Duration
	ScrapeTimeout      time.Duration
	RetryAttempts      int
	RetryDelay         time.Duration
	SummaryConcurrency int
}

// Load reads the configuration and validates all of it.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Read loads .env (when present) and the process environment without
// validating the result.
func Read() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:               8000,
		Environment:        "development",
		NewsProvider:       "newsapi",
		NewsAPIBaseURL:     "https://newsapi.org/v2",
		FeedsConfigPath:    "configs/feeds.yaml",
		AIProvider:         "openai",
		OpenAIModel:        "gpt-4o-mini",
		GeminiModel:        "gemini-1.5-flash",
		AnthropicModel:     "claude-3-5-haiku-latest",
		CacheTTL:           900,
		SamplePages:        3,
		SummaryStore:       "memory",
		SummaryStorePath:   "full_summaries.json",
		RequestTimeout:     30 * time.Second,
		ScrapeTimeout:      15 * time.Second,
		RetryAttempts:      2,
		RetryDelay:         time.Second,
		SummaryConcurrency: 8,
	}

	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.Environment = getEnvOrDefault("ENVIRONMENT", cfg.Environment)
	cfg.Debug = getEnvBoolOrDefault("DEBUG", false)
	cfg.AllowedOrigins = splitList(getEnvOrDefault("ALLOWED_ORIGINS", defaultAllowedOrigins))

	cfg.NewsProvider = strings.ToLower(getEnvOrDefault("NEWS_PROVIDER", cfg.NewsProvider))
	cfg.NewsAPIKey = os.Getenv("NEWS_API_KEY")
	cfg.NewsAPIBaseURL = getEnvOrDefault("NEWS_API_BASE_URL", cfg.NewsAPIBaseURL)
	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)

	cfg.AIProvider = strings.ToLower(getEnvOrDefault("AI_PROVIDER", cfg.AIProvider))
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = getEnvOrDefault("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.AnthropicModel = getEnvOrDefault("ANTHROPIC_MODEL", cfg.AnthropicModel)

	cfg.CacheTTL = getEnvIntOrDefault("CACHE_TTL", cfg.CacheTTL)
	cfg.SamplePages = getEnvIntOrDefault("SAMPLE_PAGES", cfg.SamplePages)
	cfg.SummaryStore = strings.ToLower(getEnvOrDefault("SUMMARY_STORE", cfg.SummaryStore))
	cfg.SummaryStorePath = getEnvOrDefault("SUMMARY_STORE_PATH", cfg.SummaryStorePath)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")

	cfg.RequestTimeout = getEnvDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.ScrapeTimeout = getEnvDurationOrDefault("SCRAPE_TIMEOUT", cfg.ScrapeTimeout)
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)
	cfg.RetryDelay = getEnvDurationOrDefault("RETRY_DELAY", cfg.RetryDelay)
	if v := getEnvIntOrDefault("SUMMARY_CONCURRENCY", 0); v > 0 {
		cfg.SummaryConcurrency = v
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("15s") or bare seconds ("15").
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateSource checks only the headlines provider settings.
func (c *Config) ValidateSource() error {
	switch c.NewsProvider {
	case "newsapi":
		if c.NewsAPIKey == "" {
			return fmt.Errorf("NEWS_API_KEY is required")
		}
	case "rss":
		if c.FeedsConfigPath == "" {
			return fmt.Errorf("FEEDS_CONFIG_PATH is required for the rss provider")
		}
	default:
		return fmt.Errorf("NEWS_PROVIDER must be 'newsapi' or 'rss'")
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.ValidateSource(); err != nil {
		return err
	}

	switch c.AIProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	default:
		return fmt.Errorf("AI_PROVIDER must be 'openai', 'gemini' or 'anthropic'")
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.SamplePages <= 0 {
		return fmt.Errorf("SAMPLE_PAGES must be positive")
	}

	switch c.SummaryStore {
	case "memory", "file":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres summary store")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis summary store")
		}
	default:
		return fmt.Errorf("SUMMARY_STORE must be one of memory, file, postgres, redis")
	}
	return nil
}
