// Package scoring converts sentiment and doubt-keyword hits into a 0-10 doubt rating.
//
// The rating is keyword dominant: every keyword hit adds 10% to the multiplier with no
// upper bound, and only the final value is clamped. A handful of hits therefore
// saturates the rating at 10.
package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
)

const (
	// DefaultSentimentThreshold scales inverted sentiment into the base score.
	DefaultSentimentThreshold = 0.5

	keywordWeight = 0.1
)

// SentimentSource supplies sentiment for tweets scored directly through Scorer.Score.
type SentimentSource interface {
	AnalyzeSentiment(text string) float64
}

// Settings configures the doubt scorer.
type Settings struct {
	DoubtKeywords      []string `json:"doubt_keywords"`
	SentimentThreshold float64  `json:"sentiment_threshold"`
}

func (s Settings) validate() error {
	if !(s.SentimentThreshold > 0) || math.IsInf(s.SentimentThreshold, 0) {
		return fmt.Errorf("%w: sentiment threshold must be a positive number", errors.ErrInvalidInput)
	}

	return nil
}

// Update is a partial update of Settings. Nil fields keep their current value.
type Update struct {
	DoubtKeywords      []string `json:"doubt_keywords,omitempty"`
	SentimentThreshold *float64 `json:"sentiment_threshold,omitempty"`
}

// Snapshot is an immutable compiled view of Settings.
type Snapshot struct {
	settings Settings
	patterns []*regexp.Regexp
}

func compile(s Settings) *Snapshot {
	keywords := make([]string, len(s.DoubtKeywords))
	copy(keywords, s.DoubtKeywords)
	s.DoubtKeywords = keywords

	patterns := make([]*regexp.Regexp, 0, len(keywords))

	for _, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			continue
		}

		patterns = append(patterns, regexp.MustCompile("(?i)"+regexp.QuoteMeta(kw)))
	}

	return &Snapshot{settings: s, patterns: patterns}
}

// Settings returns a copy of the settings the snapshot was built from.
func (s *Snapshot) Settings() Settings {
	out := s.settings
	out.DoubtKeywords = append([]string(nil), s.settings.DoubtKeywords...)

	return out
}

// KeywordCount sums case-insensitive, non-overlapping occurrences of every doubt keyword.
func (s *Snapshot) KeywordCount(text string) int {
	count := 0

	for _, re := range s.patterns {
		count += len(re.FindAllStringIndex(text, -1))
	}

	return count
}

// Rate computes the doubt rating for text with an already computed sentiment.
func (s *Snapshot) Rate(text string, sentiment float64) int {
	return Rating(sentiment, s.KeywordCount(text), s.settings.SentimentThreshold)
}

// Rating is the pure doubt formula:
//
//	base       = clamp((1 - sentiment) / sentimentThreshold, 0, 1)
//	multiplier = 1 + 0.1 * keywordCount
//	rating     = round(min(base * multiplier, 1) * 10)
func Rating(sentiment float64, keywordCount int, sentimentThreshold float64) int {
	if math.IsNaN(sentiment) {
		sentiment = 0
	}

	if !(sentimentThreshold > 0) {
		sentimentThreshold = DefaultSentimentThreshold
	}

	if keywordCount < 0 {
		keywordCount = 0
	}

	base := clamp((1-sentiment)*(1/sentimentThreshold), 0, 1)
	multiplier := 1 + keywordWeight*float64(keywordCount)
	adjusted := clamp(base*multiplier, 0, 1)

	rating := int(math.Round(adjusted * domain.MaxDoubtRating))

	if rating < domain.MinDoubtRating {
		return domain.MinDoubtRating
	}

	if rating > domain.MaxDoubtRating {
		return domain.MaxDoubtRating
	}

	return rating
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}

	return math.Max(lo, math.Min(v, hi))
}

// Scorer is the runtime-tunable doubt scorer.
type Scorer struct {
	mu        sync.Mutex
	current   atomic.Pointer[Snapshot]
	sentiment SentimentSource
	logger    *zerolog.Logger
}

// New creates a Scorer. The sentiment source is used by Score only.
func New(initial Settings, sentiment SentimentSource, logger *zerolog.Logger) (*Scorer, error) {
	if initial.SentimentThreshold == 0 {
		initial.SentimentThreshold = DefaultSentimentThreshold
	}

	if err := initial.validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	s := &Scorer{sentiment: sentiment, logger: logger}
	s.current.Store(compile(initial))

	return s, nil
}

// Snapshot returns the active compiled settings.
func (s *Scorer) Snapshot() *Snapshot {
	return s.current.Load()
}

// Score analyzes the tweet's sentiment and rates it against the active settings.
func (s *Scorer) Score(tweet domain.RawTweet) int {
	var sentiment float64
	if s.sentiment != nil {
		sentiment = s.sentiment.AnalyzeSentiment(tweet.Text)
	}

	rating := s.Snapshot().Rate(tweet.Text, sentiment)

	s.logger.Debug().Str("tweet_id", tweet.ID).Int("doubt_rating", rating).Msg("assigned doubt rating")

	return rating
}

// Update applies a partial update and returns the new settings.
func (s *Scorer) Update(u Update) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Load().Settings()

	if u.DoubtKeywords != nil {
		next.DoubtKeywords = append([]string(nil), u.DoubtKeywords...)
	}

	if u.SentimentThreshold != nil {
		next.SentimentThreshold = *u.SentimentThreshold
	}

	if err := next.validate(); err != nil {
		return s.Snapshot().Settings(), err
	}

	s.current.Store(compile(next))

	s.logger.Info().
		Strs("doubt_keywords", next.DoubtKeywords).
		Float64("sentiment_threshold", next.SentimentThreshold).
		Msg("doubt scoring settings updated")

	return next, nil
}
