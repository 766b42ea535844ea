package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"sjsage522/bilisentiment/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Target video
	BVID         string
	SegmentsFile string

	// Provider session
	APIBase     string
	CommentBase string
	SessData    string
	CookieFile  string

	// Pacing and retries
	PacingMin        time.Duration
	PacingMax        time.Duration
	CommentPacing    time.Duration
	RateLimitBlock   time.Duration
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration

	// Text and sentiment
	PositiveThreshold float64
	NegativeThreshold float64
	MinTokenRunes     int
	StopwordsFile     string
	FilterTerms       []string
	TopN              int

	// Sentiment backend: "lexicon" or "openai"
	SentimentBackend string
	OpenAIAPIKey     string
	OpenAIModel      string

	// Memcache configuration
	MemcacheAddr string
	CacheTTL     time.Duration

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Output
	OutputDir    string
	ErrorLogFile string

	// RunInterval repeats the analysis on a schedule; 0 runs once
	RunInterval time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		BVID:                 strings.TrimSpace(getEnv("BILI_BVID", "")),
		SegmentsFile:         getEnv("SEGMENTS_FILE", ""),
		APIBase:              strings.TrimRight(getEnv("BILI_API_BASE", "https://api.bilibili.com"), "/"),
		CommentBase:          strings.TrimRight(getEnv("BILI_COMMENT_BASE", "https://comment.bilibili.com"), "/"),
		SessData:             getEnv("BILI_SESSDATA", ""),
		CookieFile:           getEnv("BILI_COOKIE_FILE", ""),
		PacingMin:            getEnvMillis("PACING_MIN_MS", 1000),
		PacingMax:            getEnvMillis("PACING_MAX_MS", 2500),
		CommentPacing:        getEnvMillis("COMMENT_PACING_MS", 500),
		RateLimitBlock:       time.Duration(getEnvInt("RATE_LIMIT_BLOCK_SECONDS", 300)) * time.Second,
		RetryMaxAttempts:     getEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:       getEnvMillis("RETRY_BASE_DELAY_MS", 500),
		PositiveThreshold:    getEnvFloat("POSITIVE_THRESHOLD", 0.65),
		NegativeThreshold:    getEnvFloat("NEGATIVE_THRESHOLD", 0.35),
		MinTokenRunes:        getEnvInt("MIN_TOKEN_RUNES", 2),
		StopwordsFile:        getEnv("STOPWORDS_FILE", ""),
		FilterTerms:          splitList(getEnv("FILTER_TERMS", "")),
		TopN:                 getEnvInt("TOP_N", 50),
		SentimentBackend:     strings.ToLower(getEnv("SENTIMENT_BACKEND", "lexicon")),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-5-mini"),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		CacheTTL:             time.Duration(getEnvInt("CACHE_TTL_SECONDS", 600)) * time.Second,
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "bilisentiment"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),
		OutputDir:            getEnv("OUTPUT_DIR", "output"),
		ErrorLogFile:         getEnv("ERROR_LOG_FILE", "error.log"),
		RunInterval:          time.Duration(getEnvInt("RUN_INTERVAL_SECONDS", 0)) * time.Second,
		Environment:          getEnv("APP_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.BVID == "" {
		return errors.NewConfiguration("BILI_BVID is required", nil)
	}
	if c.PacingMin < 0 || c.PacingMax < c.PacingMin {
		return errors.NewConfiguration("PACING_MAX_MS must be >= PACING_MIN_MS >= 0", nil)
	}
	if c.CommentPacing < 0 {
		return errors.NewConfiguration("COMMENT_PACING_MS must be >= 0", nil)
	}
	if c.RetryMaxAttempts < 1 {
		return errors.NewConfiguration("RETRY_MAX_ATTEMPTS must be >= 1", nil)
	}
	if c.PositiveThreshold < 0 || c.PositiveThreshold > 1 ||
		c.NegativeThreshold < 0 || c.NegativeThreshold > 1 {
		return errors.NewConfiguration("sentiment thresholds must be within [0,1]", nil)
	}
	if c.NegativeThreshold > c.PositiveThreshold {
		return errors.NewConfiguration("NEGATIVE_THRESHOLD must not exceed POSITIVE_THRESHOLD", nil)
	}
	if c.TopN <= 0 {
		return errors.NewConfiguration("TOP_N must be > 0", nil)
	}
	if c.MinTokenRunes < 1 {
		return errors.NewConfiguration("MIN_TOKEN_RUNES must be >= 1", nil)
	}
	switch c.SentimentBackend {
	case "lexicon":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return errors.NewConfiguration("OPENAI_API_KEY is required for the openai sentiment backend", nil)
		}
	default:
		return errors.NewConfiguration("unknown SENTIMENT_BACKEND "+c.SentimentBackend, nil)
	}
	if c.RunInterval < 0 {
		return errors.NewConfiguration("RUN_INTERVAL_SECONDS must be >= 0", nil)
	}
	if c.RedisAddr != "" && c.RedisStreamCount < 1 {
		return errors.NewConfiguration("REDIS_STREAM_COUNT must be >= 1", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Millisecond
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
