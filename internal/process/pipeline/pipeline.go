// Package pipeline turns raw tweets into enriched tweets and feeds them to human review.
package pipeline

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
	"github.com/lueurxax/code-skeptic-scanner/internal/platform/observability"
	"github.com/lueurxax/code-skeptic-scanner/internal/process/analyzer"
	"github.com/lueurxax/code-skeptic-scanner/internal/process/detection"
	"github.com/lueurxax/code-skeptic-scanner/internal/process/filters"
	"github.com/lueurxax/code-skeptic-scanner/internal/process/scoring"
)

const logFieldTweetID = "tweet_id"

// Stages are the components composed by the pipeline.
type Stages struct {
	Popularity *filters.Popularity
	Content    *filters.Content
	Analyzer   *analyzer.Analyzer
	Scorer     *scoring.Scorer
	Detector   *detection.Detector
}

func (s Stages) validate() error {
	if s.Popularity == nil || s.Content == nil || s.Analyzer == nil || s.Scorer == nil || s.Detector == nil {
		return fmt.Errorf("%w: every pipeline stage is required", errors.ErrInvalidInput)
	}

	return nil
}

// Result is the outcome of Enrich. Rejected results carry the filter reason and no tweet.
type Result struct {
	Tweet    domain.EnrichedTweet
	Rejected bool
	Reason   string
}

// Err returns an errors.ErrRejectedByFilter error for rejected results and nil otherwise.
func (r Result) Err() error {
	if !r.Rejected {
		return nil
	}

	return fmt.Errorf("%w: %s", errors.ErrRejectedByFilter, r.Reason)
}

// Pipeline is the enrichment transform. It holds no mutable state beyond the stage
// snapshots, so concurrent Enrich calls are safe.
type Pipeline struct {
	stages       Stages
	keywordLimit atomic.Int64
	logger       *zerolog.Logger
}

// New creates a pipeline. A non-positive keyword limit selects analyzer.DefaultKeywordLimit.
func New(stages Stages, keywordLimit int, logger *zerolog.Logger) (*Pipeline, error) {
	if err := stages.validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	p := &Pipeline{stages: stages, logger: logger}
	p.SetKeywordLimit(keywordLimit)

	return p, nil
}

// Stages returns the composed stages, for runtime updates.
func (p *Pipeline) Stages() Stages { return p.stages }

// SetKeywordLimit changes how many keywords are fed to tool detection.
func (p *Pipeline) SetKeywordLimit(limit int) {
	if limit <= 0 {
		limit = analyzer.DefaultKeywordLimit
	}

	p.keywordLimit.Store(int64(limit))
}

// Enrich runs popularity and content filters, then analysis, doubt scoring and tool
// detection. Every stage snapshot is taken on entry, so updates made while the call is
// running apply to the next call only. Filter rejection short-circuits the later stages.
func (p *Pipeline) Enrich(raw domain.RawTweet) Result {
	start := time.Now()
	defer func() { observability.EnrichDuration.Observe(time.Since(start).Seconds()) }()

	popularity := p.stages.Popularity.Thresholds()
	content := p.stages.Content.Snapshot()
	scorer := p.stages.Scorer.Snapshot()
	detector := p.stages.Detector.Snapshot()
	limit := int(p.keywordLimit.Load())

	for _, gate := range []filters.Gate{popularity, content} {
		if ok, reason := gate.Check(raw); !ok {
			observability.FilterRejections.WithLabelValues(reason).Inc()
			p.logger.Debug().Str(logFieldTweetID, raw.ID).Str("reason", reason).Msg("tweet rejected by filter")

			return Result{Rejected: true, Reason: reason}
		}
	}

	analysis := p.stages.Analyzer.Analyze(raw.Text, limit)

	enriched := domain.EnrichedTweet{
		RawTweet:       cloneRaw(raw),
		Sentiment:      analysis.Sentiment,
		DoubtRating:    scorer.Rate(raw.Text, analysis.Sentiment),
		MentionedTools: detector.Detect(analysis.Keywords),
	}

	observability.DoubtRating.Observe(float64(enriched.DoubtRating))

	for _, t := range enriched.MentionedTools {
		observability.ToolMentions.WithLabelValues(t.ID).Inc()
	}

	p.logger.Debug().
		Str(logFieldTweetID, raw.ID).
		Float64("sentiment", enriched.Sentiment).
		Int("doubt_rating", enriched.DoubtRating).
		Int("tools", len(enriched.MentionedTools)).
		Msg("tweet enriched")

	return Result{Tweet: enriched}
}

func cloneRaw(raw domain.RawTweet) domain.RawTweet {
	out := raw
	out.MediaURLs = append([]string(nil), raw.MediaURLs...)
	out.Hashtags = append([]string(nil), raw.Hashtags...)

	return out
}
