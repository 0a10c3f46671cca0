package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
	"github.com/lueurxax/code-skeptic-scanner/internal/process/filters"
	"github.com/lueurxax/code-skeptic-scanner/internal/process/scoring"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Tool catalog sources.
const (
	CatalogFile     = "file"
	CatalogPostgres = "postgres"
)

// EnvLocal enables console logging.
const EnvLocal = "local"

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Popularity gate
	MinLikes    int `env:"MIN_LIKES" envDefault:"10"`
	MinRetweets int `env:"MIN_RETWEETS" envDefault:"2"`
	MinReplies  int `env:"MIN_REPLIES" envDefault:"1"`

	// Content gate
	ToolKeywords       []string `env:"TOOL_KEYWORDS" envSeparator:"," envDefault:"copilot,chatgpt,cursor,claude,codex,ai coding,llm"`
	SkepticismKeywords []string `env:"SKEPTICISM_KEYWORDS" envSeparator:"," envDefault:"doubt,skeptic,overrated,hype,broken,useless,wrong,bug"`
	MinFollowers       int      `env:"MIN_FOLLOWERS" envDefault:"100"`

	// Doubt scoring and detection
	DoubtKeywords       []string `env:"DOUBT_KEYWORDS" envSeparator:"," envDefault:"doubt,hype,overrated,useless,broken,hallucinat"`
	SentimentThreshold  float64  `env:"SENTIMENT_THRESHOLD" envDefault:"0.5"`
	FuzzyMatchThreshold float64  `env:"FUZZY_MATCH_THRESHOLD" envDefault:"0.8"`
	KeywordLimit        int      `env:"KEYWORD_LIMIT" envDefault:"20"`

	// Review queue
	MaxQueueSize       int           `env:"MAX_QUEUE_SIZE" envDefault:"100"`
	StaleReviewMaxAge  time.Duration `env:"STALE_REVIEW_MAX_AGE" envDefault:"30m"`
	StaleSweepInterval time.Duration `env:"STALE_SWEEP_INTERVAL" envDefault:"1m"`

	// Storage
	StorageBackend   string        `env:"STORAGE_BACKEND" envDefault:"memory"`
	PostgresDSN      string        `env:"POSTGRES_DSN"`
	RedisAddr        string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	DecidedReviewTTL time.Duration `env:"DECIDED_REVIEW_TTL" envDefault:"720h"`

	// Ingestion
	NATSURL           string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSSubject       string `env:"NATS_SUBJECT" envDefault:"tweets.ingest"`
	NATSQueueGroup    string `env:"NATS_QUEUE_GROUP" envDefault:"skeptic-scanner"`
	IngestConcurrency int    `env:"INGEST_CONCURRENCY" envDefault:"8"`
	NATSPendingMsgs   int    `env:"NATS_PENDING_MSGS" envDefault:"0"`
	NATSPendingBytes  int    `env:"NATS_PENDING_BYTES" envDefault:"0"`

	// Tool catalog
	CatalogSource          string        `env:"CATALOG_SOURCE" envDefault:"file"`
	ToolCatalogPath        string        `env:"TOOL_CATALOG_PATH" envDefault:"configs/tools.yaml"`
	CatalogRefreshInterval time.Duration `env:"CATALOG_REFRESH_INTERVAL" envDefault:"10m"`

	// Response drafting
	LLMAPIKey         string        `env:"LLM_API_KEY"`
	LLMModel          string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMBaseURL        string        `env:"LLM_BASE_URL"`
	LLMRateLimitRPS   float64       `env:"LLM_RATE_LIMIT_RPS" envDefault:"1"`
	LLMTimeout        time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	MaxResponseLength int           `env:"MAX_RESPONSE_LENGTH" envDefault:"280"`
	ForbiddenWords    []string      `env:"FORBIDDEN_WORDS" envSeparator:","`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

// Thresholds is the component-level projection of Config.
type Thresholds struct {
	Popularity          filters.PopularityThresholds
	Content             filters.ContentCriteria
	Scoring             scoring.Settings
	FuzzyMatchThreshold float64
	KeywordLimit        int
	MaxQueueSize        int
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	normalize(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values the components would refuse at construction.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory, StorageRedis:
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: POSTGRES_DSN is required for the postgres backend", errors.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown STORAGE_BACKEND %q", errors.ErrInvalidInput, c.StorageBackend)
	}

	switch c.CatalogSource {
	case CatalogFile:
		if c.ToolCatalogPath == "" {
			return fmt.Errorf("%w: TOOL_CATALOG_PATH is required for the file catalog", errors.ErrInvalidInput)
		}
	case CatalogPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: POSTGRES_DSN is required for the postgres catalog", errors.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown CATALOG_SOURCE %q", errors.ErrInvalidInput, c.CatalogSource)
	}

	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("%w: MAX_QUEUE_SIZE must be positive", errors.ErrInvalidInput)
	}

	if c.SentimentThreshold <= 0 {
		return fmt.Errorf("%w: SENTIMENT_THRESHOLD must be positive", errors.ErrInvalidInput)
	}

	if c.FuzzyMatchThreshold <= 0 || c.FuzzyMatchThreshold > 1 {
		return fmt.Errorf("%w: FUZZY_MATCH_THRESHOLD must be in (0,1]", errors.ErrInvalidInput)
	}

	if c.MinLikes < 0 || c.MinRetweets < 0 || c.MinReplies < 0 || c.MinFollowers < 0 {
		return fmt.Errorf("%w: engagement thresholds must not be negative", errors.ErrInvalidInput)
	}

	return nil
}

// Thresholds projects the configuration into component snapshots.
func (c *Config) Thresholds() Thresholds {
	return Thresholds{
		Popularity: filters.PopularityThresholds{
			MinLikes:    c.MinLikes,
			MinRetweets: c.MinRetweets,
			MinReplies:  c.MinReplies,
		},
		Content: filters.ContentCriteria{
			ToolKeywords:       append([]string(nil), c.ToolKeywords...),
			SkepticismKeywords: append([]string(nil), c.SkepticismKeywords...),
			MinFollowers:       c.MinFollowers,
		},
		Scoring: scoring.Settings{
			DoubtKeywords:      append([]string(nil), c.DoubtKeywords...),
			SentimentThreshold: c.SentimentThreshold,
		},
		FuzzyMatchThreshold: c.FuzzyMatchThreshold,
		KeywordLimit:        c.KeywordLimit,
		MaxQueueSize:        c.MaxQueueSize,
	}
}

// IsLocal reports whether the process runs in the local environment.
func (c *Config) IsLocal() bool {
	return strings.EqualFold(c.AppEnv, EnvLocal)
}

// LLMEnabled reports whether drafts go through the LLM.
func (c *Config) LLMEnabled() bool {
	return c.LLMAPIKey != ""
}

func normalize(cfg *Config) {
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.CatalogSource = strings.ToLower(strings.TrimSpace(cfg.CatalogSource))
	cfg.ToolKeywords = trimList(cfg.ToolKeywords)
	cfg.SkepticismKeywords = trimList(cfg.SkepticismKeywords)
	cfg.DoubtKeywords = trimList(cfg.DoubtKeywords)
	cfg.ForbiddenWords = trimList(cfg.ForbiddenWords)
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))

	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}
