// Package analyzer tokenizes tweet text, scores its sentiment and extracts ranked keywords.
//
// Analysis never fails: empty or unanalyzable text yields a neutral score and no keywords,
// so the enrichment pipeline cannot stall on bad input.
package analyzer

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"
	"github.com/kljensen/snowball/english"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
)

// DefaultKeywordLimit caps extracted keywords when no limit is configured.
const DefaultKeywordLimit = 10

// Analysis is the combined output of one pass over a text.
type Analysis struct {
	Sentiment float64
	Keywords  []string
}

// Analyzer is stateless and safe for concurrent use.
type Analyzer struct {
	logger *zerolog.Logger
}

// New creates an Analyzer. A nil logger disables degraded-analysis logging.
func New(logger *zerolog.Logger) *Analyzer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Analyzer{logger: logger}
}

// AnalyzeSentiment returns the normalized sentiment of text in [-1, 1].
func (a *Analyzer) AnalyzeSentiment(text string) float64 {
	return sentiment(a.tokens(text))
}

// ExtractKeywords returns up to limit stemmed tokens ranked by term frequency,
// ties broken by first occurrence. A non-positive limit returns every keyword.
func (a *Analyzer) ExtractKeywords(text string, limit int) []string {
	return keywords(a.tokens(text), limit)
}

// Analyze tokenizes text once and derives both sentiment and keywords.
func (a *Analyzer) Analyze(text string, limit int) Analysis {
	toks := a.tokens(text)

	return Analysis{
		Sentiment: sentiment(toks),
		Keywords:  keywords(toks, limit),
	}
}

type token struct {
	folded string
	stem   string
}

// tokens returns the word tokens of text, case folded and stemmed.
func (a *Analyzer) tokens(text string) []token {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, " ")
	}

	if strings.TrimSpace(text) == "" {
		return nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		a.logger.Debug().Err(err).Msg("text analysis degraded, using neutral output")

		return nil
	}

	// Casers are stateful; one per call keeps concurrent analyses independent.
	caser := cases.Fold()
	raw := doc.Tokens()
	out := make([]token, 0, len(raw))

	for _, t := range raw {
		folded := caser.String(strings.TrimLeft(t.Text, "#@"))
		if folded != "n't" && !hasWordRune(folded) {
			continue
		}

		out = append(out, token{folded: folded, stem: english.Stem(folded, false)})
	}

	return out
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}

	return false
}

// sentiment averages AFINN polarity over all tokens, flipping the word after a negation,
// and scales the average into [-1, 1].
func sentiment(toks []token) float64 {
	if len(toks) == 0 {
		return 0
	}

	var (
		total  int
		negate bool
	)

	for _, t := range toks {
		if _, ok := negations[t.folded]; ok {
			negate = true

			continue
		}

		v, ok := polarity.score(t.folded, t.stem)
		if !ok {
			continue
		}

		if negate {
			v = -v
			negate = false
		}

		total += v
	}

	avg := float64(total) / float64(len(toks))

	return clamp(avg/maxPolarity, -1, 1)
}

func keywords(toks []token, limit int) []string {
	counts := make(map[string]int)
	order := make([]string, 0, len(toks))

	for _, t := range toks {
		if _, stop := stopWords[t.folded]; stop {
			continue
		}

		if counts[t.stem] == 0 {
			order = append(order, t.stem)
		}

		counts[t.stem]++
	}

	// order already holds first-occurrence order; a stable sort keeps it for ties.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}

	return order
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
