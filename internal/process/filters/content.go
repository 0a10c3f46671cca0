package filters

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
)

// ContentCriteria configures the content gate.
type ContentCriteria struct {
	ToolKeywords       []string `json:"tool_keywords"`
	SkepticismKeywords []string `json:"skepticism_keywords"`
	MinFollowers       int      `json:"min_followers"`
}

func (c ContentCriteria) validate() error {
	if c.MinFollowers < 0 {
		return fmt.Errorf("%w: min followers must not be negative", errors.ErrInvalidInput)
	}

	return nil
}

// ContentUpdate is a partial update. A nil slice keeps the current list; an empty
// non-nil slice clears it. A nil MinFollowers keeps the current value.
type ContentUpdate struct {
	ToolKeywords       []string `json:"tool_keywords,omitempty"`
	SkepticismKeywords []string `json:"skepticism_keywords,omitempty"`
	MinFollowers       *int     `json:"min_followers,omitempty"`
}

// ContentSnapshot is an immutable, pre-folded view of ContentCriteria.
type ContentSnapshot struct {
	criteria   ContentCriteria
	tools      []string
	skepticism []string
}

func compileContent(c ContentCriteria) *ContentSnapshot {
	caser := cases.Fold()

	c.ToolKeywords = cloneStrings(c.ToolKeywords)
	c.SkepticismKeywords = cloneStrings(c.SkepticismKeywords)

	return &ContentSnapshot{
		criteria:   c,
		tools:      foldAll(caser, c.ToolKeywords),
		skepticism: foldAll(caser, c.SkepticismKeywords),
	}
}

// Criteria returns a copy of the criteria the snapshot was built from.
func (s *ContentSnapshot) Criteria() ContentCriteria {
	c := s.criteria
	c.ToolKeywords = cloneStrings(c.ToolKeywords)
	c.SkepticismKeywords = cloneStrings(c.SkepticismKeywords)

	return c
}

// Check applies the follower gate, then tool keywords, then skepticism keywords.
func (s *ContentSnapshot) Check(tweet domain.RawTweet) (bool, string) {
	if tweet.AuthorFollowers < s.criteria.MinFollowers {
		return false, ReasonMinFollowers
	}

	text := cases.Fold().String(tweet.Text)

	if !containsAny(text, s.tools) {
		return false, ReasonNoTool
	}

	if !containsAny(text, s.skepticism) {
		return false, ReasonNoSkepticism
	}

	return true, ""
}

// Passes reports whether the tweet satisfies all three content conditions.
func (s *ContentSnapshot) Passes(tweet domain.RawTweet) bool {
	ok, _ := s.Check(tweet)

	return ok
}

// Content is the runtime-tunable content gate.
type Content struct {
	mu      sync.Mutex
	current atomic.Pointer[ContentSnapshot]
	logger  *zerolog.Logger
}

// NewContent creates the gate with initial criteria.
func NewContent(initial ContentCriteria, logger *zerolog.Logger) (*Content, error) {
	if err := initial.validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	c := &Content{logger: logger}
	c.current.Store(compileContent(initial))

	return c, nil
}

// Snapshot returns the active snapshot.
func (c *Content) Snapshot() *ContentSnapshot {
	return c.current.Load()
}

// Criteria returns the active criteria.
func (c *Content) Criteria() ContentCriteria {
	return c.Snapshot().Criteria()
}

// Passes checks the tweet against the active snapshot.
func (c *Content) Passes(tweet domain.RawTweet) bool {
	ok, _ := c.Check(tweet)

	return ok
}

// Check checks the tweet against the active snapshot and returns the rejection reason.
func (c *Content) Check(tweet domain.RawTweet) (bool, string) {
	ok, reason := c.Snapshot().Check(tweet)
	if !ok {
		c.logger.Debug().Str(logFieldTweetID, tweet.ID).Str("reason", reason).Msg("tweet filtered by content")
	}

	return ok, reason
}

// UpdateCriteria applies a partial update and returns the new criteria.
func (c *Content) UpdateCriteria(u ContentUpdate) (ContentCriteria, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.current.Load().Criteria()

	if u.ToolKeywords != nil {
		next.ToolKeywords = cloneStrings(u.ToolKeywords)
	}

	if u.SkepticismKeywords != nil {
		next.SkepticismKeywords = cloneStrings(u.SkepticismKeywords)
	}

	if u.MinFollowers != nil {
		next.MinFollowers = *u.MinFollowers
	}

	if err := next.validate(); err != nil {
		return c.Criteria(), err
	}

	c.current.Store(compileContent(next))

	c.logger.Info().
		Strs("tool_keywords", next.ToolKeywords).
		Strs("skepticism_keywords", next.SkepticismKeywords).
		Int("min_followers", next.MinFollowers).
		Msg("content criteria updated")

	return next, nil
}
