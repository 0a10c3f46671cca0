package llm

import "time"

// Error format strings.
const (
	errRateLimiter          = "rate limiter error: %w"
	errOpenAIChatCompletion = "openai chat completion error: %w"
)

// Client defaults.
const (
	rateLimiterBurst        = 5
	defaultRateLimitRPS     = 1.0
	defaultRequestTimeout   = 30 * time.Second
	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 1 * time.Minute
	draftMaxTokens          = 200
	draftTemperature        = 0.7
	promptTweetMaxChars     = 1000
)
