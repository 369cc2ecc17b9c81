package config

import (
	"os"
	"strconv"
)

type Config struct {
	Env      string
	HTTPAddr string

	RedisAddr     string
	RedisPassword string

	DataDir string

	// Discovery
	SeedURL           string
	GlobalPostingCap  int
	PerSeedPostingCap int
	FanOutCap         int
	MaxHops           int
	FetchTimeoutSec   int
	DiscoveryWorkers  int
	CacheTTLSec       int
	HostRPS           int
	HostBurst         int

	// Page-level found thresholds
	FoundMinPostingLinks int
	FoundMinJobCards     int
	FoundMinIndicators   int

	// Decision oracle
	OracleMode       string
	LLMProvider      string
	GeminiAPIKey     string
	DefaultLLMModel  string
	OracleTimeoutSec int

	// Submission
	SubmitWorkers    int
	SubmitTimeoutSec int

	// Swappable policy tables
	ClassifierRulesPath string
	SubmitSelectorsPath string

	// Proof artifact storage
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string

	WebhookSigningSecret string
	TaskMaxRetries       int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func Load() Config {
	cfg := Config{
		Env:      getenv("APP_ENV", "development"),
		HTTPAddr: getenv("HTTP_ADDR", ":8081"),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		DataDir: getenv("DATA_DIR", "./data"),

		SeedURL:           getenv("SEED_URL", ""),
		GlobalPostingCap:  getenvInt("GLOBAL_POSTING_CAP", 60),
		PerSeedPostingCap: getenvInt("PER_SEED_POSTING_CAP", 10),
		FanOutCap:         getenvInt("FAN_OUT_CAP", 3),
		MaxHops:           getenvInt("MAX_HOPS", 3),
		FetchTimeoutSec:   getenvInt("FETCH_TIMEOUT_SECONDS", 20),
		DiscoveryWorkers:  getenvInt("DISCOVERY_WORKERS", 4),
		CacheTTLSec:       getenvInt("DISCOVERY_CACHE_TTL_SECONDS", 3600),
		HostRPS:           getenvInt("HOST_RPS", 2),
		HostBurst:         getenvInt("HOST_BURST", 4),

		FoundMinPostingLinks: getenvInt("FOUND_MIN_POSTING_LINKS", 3),
		FoundMinJobCards:     getenvInt("FOUND_MIN_JOB_CARDS", 2),
		FoundMinIndicators:   getenvInt("FOUND_MIN_INDICATORS", 1),

		OracleMode:       getenv("ORACLE_MODE", "heuristic"),
		LLMProvider:      getenv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:     getenv("GEMINI_API_KEY", ""),
		DefaultLLMModel:  getenv("DEFAULT_LLM_MODEL", "gemini-1.5-flash"),
		OracleTimeoutSec: getenvInt("ORACLE_TIMEOUT_SECONDS", 12),

		SubmitWorkers:    getenvInt("SUBMIT_WORKERS", 2),
		SubmitTimeoutSec: getenvInt("SUBMIT_TIMEOUT_SECONDS", 120),

		ClassifierRulesPath: getenv("CLASSIFIER_RULES_PATH", ""),
		SubmitSelectorsPath: getenv("SUBMIT_SELECTORS_PATH", ""),

		SupabaseURL:        getenv("SUPABASE_URL", ""),
		SupabaseServiceKey: getenv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseBucket:     getenv("SUPABASE_STORAGE_BUCKET", "proofs"),

		WebhookSigningSecret: getenv("WEBHOOK_SIGNING_SECRET", ""),
		TaskMaxRetries:       getenvInt("TASK_MAX_RETRIES", 3),
	}
	if cfg.RedisAddr == "" {
		panic("REDIS_ADDR is required")
	}
	return cfg
}
