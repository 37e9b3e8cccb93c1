package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string
	ModelTimeoutSeconds int

	SessionTTLMinutes     int
	SessionCleanupMinutes int

	MaxUploadBytes int

	SummaryInputLimit    int
	EvaluationInputLimit int
	HistoryWindow        int
	RankedChunkLimit     int
	DefaultPassageCount  int
	MinChunkChars        int

	RetryAttempts             int
	RetryBaseDelayMS          int
	RetryMaxDelayMS           int
	BreakerEnabled            bool
	BreakerMinRequests        int
	BreakerFailureRatio       float64
	BreakerOpenTimeoutSeconds int
	BreakerProbeCalls         int
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		OpenAIAPIKey:        mustEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       mustEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:         mustEnv("OPENAI_MODEL", "gpt-4o"),
		ModelTimeoutSeconds: mustEnvInt("MODEL_TIMEOUT_SECONDS", 60),

		SessionTTLMinutes:     mustEnvInt("SESSION_TTL_MINUTES", 120),
		SessionCleanupMinutes: mustEnvInt("SESSION_CLEANUP_MINUTES", 10),

		MaxUploadBytes: mustEnvInt("MAX_UPLOAD_BYTES", 10<<20),

		SummaryInputLimit:    mustEnvInt("SUMMARY_INPUT_LIMIT", 8000),
		EvaluationInputLimit: mustEnvInt("EVALUATION_INPUT_LIMIT", 6000),
		HistoryWindow:        mustEnvInt("HISTORY_WINDOW", 3),
		RankedChunkLimit:     mustEnvInt("RANKED_CHUNK_LIMIT", 20),
		DefaultPassageCount:  mustEnvInt("DEFAULT_PASSAGE_COUNT", 3),
		MinChunkChars:        mustEnvInt("MIN_CHUNK_CHARS", 50),

		RetryAttempts:             mustEnvInt("RETRY_ATTEMPTS", 3),
		RetryBaseDelayMS:          mustEnvInt("RETRY_BASE_DELAY_MS", 200),
		RetryMaxDelayMS:           mustEnvInt("RETRY_MAX_DELAY_MS", 2000),
		BreakerEnabled:            mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:        mustEnvInt("BREAKER_MIN_REQUESTS", 5),
		BreakerFailureRatio:       mustEnvFloat("BREAKER_FAILURE_RATIO", 0.5),
		BreakerOpenTimeoutSeconds: mustEnvInt("BREAKER_OPEN_TIMEOUT_SECONDS", 30),
		BreakerProbeCalls:         mustEnvInt("BREAKER_PROBE_CALLS", 1),
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

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
