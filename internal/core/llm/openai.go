// Package llm drafts review responses with an OpenAI-compatible chat completion API.
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
	"github.com/lueurxax/code-skeptic-scanner/internal/platform/observability"
)

// Config configures the OpenAI drafter.
type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	RateLimitRPS float64
	Timeout      time.Duration
}

// Drafter writes response candidates through the chat completion API.
// It is rate limited and stops calling the API for a while after repeated failures.
type Drafter struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
	now         func() time.Time

	// Circuit breaker state
	consecutiveFailures int
	circuitOpenUntil    time.Time
	mu                  sync.Mutex
}

// NewDrafter creates an OpenAI drafter.
func NewDrafter(cfg Config, logger *zerolog.Logger) *Drafter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = defaultRateLimitRPS
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &Drafter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       resolveModel(cfg.Model),
		timeout:     timeout,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), rateLimiterBurst),
		logger:      logger,
		now:         time.Now,
	}
}

func resolveModel(model string) string {
	if model == "" {
		model = openai.GPT4oMini
	}

	return model
}

// Draft asks the model for a reply to the tweet.
func (d *Drafter) Draft(ctx context.Context, tweet domain.EnrichedTweet) (string, error) {
	if err := d.checkCircuit(); err != nil {
		return "", err
	}

	if err := d.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := d.now()

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildDraftPrompt(tweet)},
		},
		MaxTokens:   draftMaxTokens,
		Temperature: draftTemperature,
	})

	observability.LLMRequestDuration.WithLabelValues(d.model).Observe(d.now().Sub(start).Seconds())

	if err != nil {
		d.recordFailure()

		return "", fmt.Errorf(errOpenAIChatCompletion, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		d.recordFailure()

		return "", errors.ErrEmptyResponse
	}

	d.recordSuccess()

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	d.logger.Debug().Str("tweet_id", tweet.ID).Str("content", content).Msg("LLM draft")

	return content, nil
}

func (d *Drafter) checkCircuit() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.now().Before(d.circuitOpenUntil) {
		return fmt.Errorf("%w until %v", errors.ErrCircuitBreakerOpen, d.circuitOpenUntil)
	}

	return nil
}

func (d *Drafter) recordSuccess() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.consecutiveFailures = 0
}

func (d *Drafter) recordFailure() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.consecutiveFailures++
	if d.consecutiveFailures >= circuitBreakerThreshold {
		d.circuitOpenUntil = d.now().Add(circuitBreakerTimeout)
		d.logger.Warn().
			Int("consecutive_failures", d.consecutiveFailures).
			Time("open_until", d.circuitOpenUntil).
			Msg("Circuit breaker opened")
	}
}
