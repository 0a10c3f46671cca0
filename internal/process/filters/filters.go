// Package filters implements the admission gates run before enrichment.
//
// Two gates are provided:
//   - Popularity: engagement counters must meet every configured minimum
//   - Content: author reach plus tool and skepticism keyword presence
//
// Each gate holds an immutable snapshot of its settings. Update calls copy the
// active snapshot, apply the supplied fields and swap it atomically, so a check
// always sees one consistent snapshot and updates never apply retroactively.
package filters

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
)

const (
	ReasonPopularity   = "filter_popularity"
	ReasonMinFollowers = "filter_min_followers"
	ReasonNoTool       = "filter_no_tool_keyword"
	ReasonNoSkepticism = "filter_no_skepticism_keyword"
)

const logFieldTweetID = "tweet_id"

// Gate is satisfied by both filters.
type Gate interface {
	Check(tweet domain.RawTweet) (bool, string)
}

func foldAll(caser cases.Caser, words []string) []string {
	out := make([]string, 0, len(words))

	for _, w := range words {
		f := caser.String(strings.TrimSpace(w))
		if f == "" {
			continue
		}

		out = append(out, f)
	}

	return out
}

func containsAny(foldedText string, foldedKeywords []string) bool {
	for _, kw := range foldedKeywords {
		if strings.Contains(foldedText, kw) {
			return true
		}
	}

	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}

	out := make([]string, len(in))
	copy(out, in)

	return out
}
