package filters

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
)

// PopularityThresholds are the engagement minimums a tweet must meet. All three apply.
type PopularityThresholds struct {
	MinLikes    int `json:"min_likes"`
	MinRetweets int `json:"min_retweets"`
	MinReplies  int `json:"min_replies"`
}

// Passes reports whether the tweet meets or exceeds every threshold.
func (t PopularityThresholds) Passes(tweet domain.RawTweet) bool {
	return tweet.Likes >= t.MinLikes &&
		tweet.Retweets >= t.MinRetweets &&
		tweet.Replies >= t.MinReplies
}

// Check implements Gate.
func (t PopularityThresholds) Check(tweet domain.RawTweet) (bool, string) {
	if !t.Passes(tweet) {
		return false, ReasonPopularity
	}

	return true, ""
}

func (t PopularityThresholds) validate() error {
	if t.MinLikes < 0 || t.MinRetweets < 0 || t.MinReplies < 0 {
		return fmt.Errorf("%w: popularity thresholds must not be negative", errors.ErrInvalidInput)
	}

	return nil
}

// PopularityUpdate is a partial update. Nil fields keep their current value.
type PopularityUpdate struct {
	MinLikes    *int `json:"min_likes,omitempty"`
	MinRetweets *int `json:"min_retweets,omitempty"`
	MinReplies  *int `json:"min_replies,omitempty"`
}

// Popularity is the runtime-tunable popularity gate.
type Popularity struct {
	mu      sync.Mutex // serializes writers; readers only load the pointer
	current atomic.Pointer[PopularityThresholds]
	logger  *zerolog.Logger
}

// NewPopularity creates the gate with initial thresholds.
func NewPopularity(initial PopularityThresholds, logger *zerolog.Logger) (*Popularity, error) {
	if err := initial.validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	p := &Popularity{logger: logger}
	p.current.Store(&initial)

	return p, nil
}

// Thresholds returns the active snapshot.
func (p *Popularity) Thresholds() PopularityThresholds {
	return *p.current.Load()
}

// Passes checks the tweet against the active snapshot.
func (p *Popularity) Passes(tweet domain.RawTweet) bool {
	ok, _ := p.Check(tweet)

	return ok
}

// Check checks the tweet against the active snapshot and returns the rejection reason.
func (p *Popularity) Check(tweet domain.RawTweet) (bool, string) {
	th := p.Thresholds()

	ok, reason := th.Check(tweet)
	if !ok {
		p.logger.Debug().
			Str(logFieldTweetID, tweet.ID).
			Int("likes", tweet.Likes).
			Int("retweets", tweet.Retweets).
			Int("replies", tweet.Replies).
			Msg("tweet below popularity thresholds")
	}

	return ok, reason
}

// UpdateThresholds applies a partial update and returns the new snapshot.
// An invalid update leaves the active snapshot untouched.
func (p *Popularity) UpdateThresholds(u PopularityUpdate) (PopularityThresholds, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := *p.current.Load()

	if u.MinLikes != nil {
		next.MinLikes = *u.MinLikes
	}

	if u.MinRetweets != nil {
		next.MinRetweets = *u.MinRetweets
	}

	if u.MinReplies != nil {
		next.MinReplies = *u.MinReplies
	}

	if err := next.validate(); err != nil {
		return p.Thresholds(), err
	}

	p.current.Store(&next)

	p.logger.Info().
		Int("min_likes", next.MinLikes).
		Int("min_retweets", next.MinRetweets).
		Int("min_replies", next.MinReplies).
		Msg("popularity thresholds updated")

	return next, nil
}
