package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/ports"
	"github.com/lueurxax/code-skeptic-scanner/internal/platform/observability"
)

// Outcome is the result of handling one ingested tweet.
type Outcome string

const (
	OutcomeRejected  Outcome = "rejected"
	OutcomeQueued    Outcome = "queued"
	OutcomeQueueFull Outcome = "queue_full"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// candidateNamespace scopes the name-based ids derived from tweet ids.
var candidateNamespace = uuid.MustParse("5b0f3c8e-93d4-4c2a-9a51-6f1d2e7c4b80")

// CandidateID returns the stable review id for a tweet. Redelivering a tweet yields the
// same id, so the review queue rejects it as a duplicate.
func CandidateID(tweetID string) string {
	return uuid.NewSHA1(candidateNamespace, []byte(tweetID)).String()
}

// Submitter accepts response candidates for human review.
type Submitter interface {
	Submit(ctx context.Context, candidate domain.ResponseCandidate) (bool, error)
}

// Formatter fits drafted text into a reply.
type Formatter interface {
	Format(text string, hashtags []string) string
}

// Intake is the entry point for ingested tweets: enrich, draft a reply and submit it.
type Intake struct {
	pipeline  *Pipeline
	drafter   ports.Drafter
	formatter Formatter
	submitter Submitter
	now       func() time.Time
	logger    *zerolog.Logger
}

// NewIntake creates an intake. A nil formatter submits drafts unchanged.
func NewIntake(p *Pipeline, drafter ports.Drafter, formatter Formatter, submitter Submitter, logger *zerolog.Logger) *Intake {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Intake{
		pipeline:  p,
		drafter:   drafter,
		formatter: formatter,
		submitter: submitter,
		now:       time.Now,
		logger:    logger,
	}
}

// OnTweet handles one tweet. It never returns an error: every failure is reported as an
// outcome and logged, so a bad tweet cannot stop the ingestion source. A full review queue
// drops the candidate.
func (in *Intake) OnTweet(ctx context.Context, raw domain.RawTweet) Outcome {
	outcome := in.handle(ctx, raw)
	observability.IntakeOutcomes.WithLabelValues(string(outcome)).Inc()

	return outcome
}

func (in *Intake) handle(ctx context.Context, raw domain.RawTweet) Outcome {
	result := in.pipeline.Enrich(raw)
	if result.Rejected {
		return OutcomeRejected
	}

	text, err := in.drafter.Draft(ctx, result.Tweet)
	if err != nil {
		in.logger.Error().Err(err).Str(logFieldTweetID, raw.ID).Msg("failed to draft response")

		return OutcomeFailed
	}

	if in.formatter != nil {
		text = in.formatter.Format(text, result.Tweet.Hashtags)
	}

	if strings.TrimSpace(text) == "" {
		in.logger.Error().Err(errors.ErrEmptyResponse).Str(logFieldTweetID, raw.ID).Msg("drafted response is empty")

		return OutcomeFailed
	}

	queued, err := in.submitter.Submit(ctx, domain.ResponseCandidate{
		ID:        CandidateID(raw.ID),
		Content:   text,
		Tweet:     result.Tweet,
		CreatedAt: in.now(),
	})

	switch {
	case errors.Is(err, errors.ErrDuplicateItem):
		in.logger.Debug().Str(logFieldTweetID, raw.ID).Msg("response candidate already queued")

		return OutcomeDuplicate
	case err != nil:
		in.logger.Error().Err(err).Str(logFieldTweetID, raw.ID).Msg("failed to submit response candidate")

		return OutcomeFailed
	case !queued:
		in.logger.Warn().Str(logFieldTweetID, raw.ID).Msg("review queue full, dropping response candidate")

		return OutcomeQueueFull
	}

	in.logger.Info().
		Str(logFieldTweetID, raw.ID).
		Int("doubt_rating", result.Tweet.DoubtRating).
		Msg("response candidate queued for review")

	return OutcomeQueued
}
