package response

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/ports"
	"github.com/lueurxax/code-skeptic-scanner/internal/platform/observability"
)

const (
	drafterTemplate = "template"
	drafterPrimary  = "primary"

	statusOK       = "ok"
	statusError    = "error"
	statusFallback = "fallback"

	highDoubt   = 7
	mediumDoubt = 4
)

// TemplateDrafter writes canned replies picked by doubt rating. It never fails.
type TemplateDrafter struct{}

// Draft returns a reply for the tweet.
func (TemplateDrafter) Draft(_ context.Context, tweet domain.EnrichedTweet) (string, error) {
	subject := "AI coding tools"
	if names := toolNames(tweet.MentionedTools); names != "" {
		subject = names
	}

	handle := ""
	if tweet.AuthorHandle != "" {
		handle = "@" + strings.TrimPrefix(tweet.AuthorHandle, "@") + " "
	}

	var body string

	switch {
	case tweet.DoubtRating >= highDoubt:
		body = fmt.Sprintf("That frustration with %s is fair. They work best on small, well-tested changes, "+
			"and reviewing every suggestion like a junior dev's PR catches most of the bad ones.", subject)
	case tweet.DoubtRating >= mediumDoubt:
		body = fmt.Sprintf("Healthy skepticism about %s is warranted. Where have they let you down most? "+
			"Boilerplate and tests tend to go better than core logic.", subject)
	default:
		body = fmt.Sprintf("Interesting take on %s. Curious what would change your mind either way.", subject)
	}

	return handle + body, nil
}

func toolNames(tools []domain.ToolRef) string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}

	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

// FallbackDrafter uses Primary and falls back to Fallback when Primary errors or returns
// blank text.
type FallbackDrafter struct {
	primary  ports.Drafter
	fallback ports.Drafter
	logger   *zerolog.Logger
}

// NewFallbackDrafter creates a drafter chain. A nil fallback selects TemplateDrafter.
func NewFallbackDrafter(primary, fallback ports.Drafter, logger *zerolog.Logger) *FallbackDrafter {
	if fallback == nil {
		fallback = TemplateDrafter{}
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &FallbackDrafter{primary: primary, fallback: fallback, logger: logger}
}

// Draft returns the primary draft or the fallback draft.
func (d *FallbackDrafter) Draft(ctx context.Context, tweet domain.EnrichedTweet) (string, error) {
	if d.primary != nil {
		text, err := d.primary.Draft(ctx, tweet)
		if err == nil && strings.TrimSpace(text) != "" {
			observability.DraftRequests.WithLabelValues(drafterPrimary, statusOK).Inc()

			return text, nil
		}

		if err == nil {
			err = errors.ErrEmptyResponse
		}

		observability.DraftRequests.WithLabelValues(drafterPrimary, statusFallback).Inc()
		d.logger.Warn().Err(err).Str("tweet_id", tweet.ID).Msg("primary drafter failed, using fallback")
	}

	text, err := d.fallback.Draft(ctx, tweet)
	if err != nil {
		observability.DraftRequests.WithLabelValues(drafterTemplate, statusError).Inc()

		return "", fmt.Errorf("fallback draft: %w", err)
	}

	observability.DraftRequests.WithLabelValues(drafterTemplate, statusOK).Inc()

	return text, nil
}
