package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string

	ProjectsRoot      string
	BrandTemplatePath string
	DefaultAudience   string
	PurgeDelay        time.Duration

	// Empty DSN disables the run ledger.
	PostgresDSN string

	// Empty URL disables run events and the worker intake.
	NATSURL              string
	NATSRunSubject       string
	NATSCompletedSubject string

	LLMProvider       string
	LLMCacheDir       string
	LLMRatePerSecond  float64
	LLMBurst          int
	LLMRequestTimeout time.Duration
	OllamaURL         string
	OllamaGenModel    string

	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	BreakerEnabled      bool
	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration

	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		ProjectsRoot:      mustEnv("PROJECTS_ROOT", "./projects"),
		BrandTemplatePath: mustEnv("BRAND_TEMPLATE_PATH", ""),
		DefaultAudience:   mustEnv("DEFAULT_AUDIENCE", "investors"),
		PurgeDelay:        mustEnvDuration("PURGE_DELAY", 30*time.Second),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:              mustEnv("NATS_URL", ""),
		NATSRunSubject:       mustEnv("NATS_RUN_SUBJECT", "deck.runs.requested"),
		NATSCompletedSubject: mustEnv("NATS_COMPLETED_SUBJECT", "deck.runs.completed"),

		LLMProvider:       mustEnv("LLM_PROVIDER", "dev"),
		LLMCacheDir:       mustEnv("LLM_CACHE_DIR", ".llm_cache"),
		LLMRatePerSecond:  mustEnvFloat("LLM_RATE_PER_SECOND", 2),
		LLMBurst:          mustEnvInt("LLM_BURST", 1),
		LLMRequestTimeout: mustEnvDuration("LLM_REQUEST_TIMEOUT", 120*time.Second),
		OllamaURL:         mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaGenModel:    mustEnv("OLLAMA_GEN_MODEL", "llama3.1:8b"),

		RetryMaxAttempts:    mustEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryInitialBackoff: mustEnvDuration("RETRY_INITIAL_BACKOFF", 250*time.Millisecond),
		RetryMaxBackoff:     mustEnvDuration("RETRY_MAX_BACKOFF", 2*time.Second),
		BreakerEnabled:      mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:  mustEnvInt("BREAKER_MIN_REQUESTS", 5),
		BreakerFailureRatio: mustEnvFloat("BREAKER_FAILURE_RATIO", 0.5),
		BreakerOpenTimeout:  mustEnvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
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

// mustEnvDuration accepts Go durations ("45s") and bare integers as seconds.
func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
