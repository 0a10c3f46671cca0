package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
)

const testErrLoad = "Load() error = %v"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	assert.Equal(t, EnvLocal, cfg.AppEnv)
	assert.True(t, cfg.IsLocal())
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, CatalogFile, cfg.CatalogSource)
	assert.Equal(t, "configs/tools.yaml", cfg.ToolCatalogPath)
	assert.Equal(t, 100, cfg.MaxQueueSize)
	assert.InDelta(t, 0.8, cfg.FuzzyMatchThreshold, 1e-9)
	assert.InDelta(t, 0.5, cfg.SentimentThreshold, 1e-9)
	assert.Equal(t, 30*time.Minute, cfg.StaleReviewMaxAge)
	assert.Equal(t, 280, cfg.MaxResponseLength)
	assert.Zero(t, cfg.NATSPendingMsgs)
	assert.False(t, cfg.LLMEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("MIN_LIKES", "50")
	t.Setenv("TOOL_KEYWORDS", " copilot , ,cursor")
	t.Setenv("MAX_QUEUE_SIZE", "7")
	t.Setenv("STALE_REVIEW_MAX_AGE", "5m")
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("LLM_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsLocal())
	assert.Equal(t, 50, cfg.MinLikes)
	assert.Equal(t, []string{"copilot", "cursor"}, cfg.ToolKeywords)
	assert.Equal(t, 7, cfg.MaxQueueSize)
	assert.Equal(t, 5*time.Minute, cfg.StaleReviewMaxAge)
	assert.Equal(t, StorageRedis, cfg.StorageBackend)
	assert.True(t, cfg.LLMEnabled())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown backend", env: map[string]string{"STORAGE_BACKEND": "mongo"}},
		{name: "postgres without dsn", env: map[string]string{"STORAGE_BACKEND": "postgres", "POSTGRES_DSN": ""}},
		{name: "unknown catalog source", env: map[string]string{"CATALOG_SOURCE": "http"}},
		{name: "postgres catalog without dsn", env: map[string]string{"CATALOG_SOURCE": "postgres", "POSTGRES_DSN": ""}},
		{name: "zero queue", env: map[string]string{"MAX_QUEUE_SIZE": "0"}},
		{name: "zero sentiment threshold", env: map[string]string{"SENTIMENT_THRESHOLD": "0"}},
		{name: "fuzzy above one", env: map[string]string{"FUZZY_MATCH_THRESHOLD": "1.5"}},
		{name: "negative likes", env: map[string]string{"MIN_LIKES": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput))
		})
	}
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("MIN_LIKES", "many")

	_, err := Load()
	require.Error(t, err)
}

func TestThresholds(t *testing.T) {
	t.Setenv("MIN_LIKES", "10")
	t.Setenv("MIN_RETWEETS", "5")
	t.Setenv("MIN_REPLIES", "2")
	t.Setenv("DOUBT_KEYWORDS", "hype,doubt")
	t.Setenv("MIN_FOLLOWERS", "300")

	cfg, err := Load()
	require.NoError(t, err)

	th := cfg.Thresholds()
	assert.Equal(t, 10, th.Popularity.MinLikes)
	assert.Equal(t, 5, th.Popularity.MinRetweets)
	assert.Equal(t, 2, th.Popularity.MinReplies)
	assert.Equal(t, 300, th.Content.MinFollowers)
	assert.Equal(t, []string{"hype", "doubt"}, th.Scoring.DoubtKeywords)
	assert.Equal(t, cfg.MaxQueueSize, th.MaxQueueSize)

	th.Scoring.DoubtKeywords[0] = "mutated"
	assert.Equal(t, "hype", cfg.DoubtKeywords[0])
}
