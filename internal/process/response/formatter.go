// Package response drafts and formats reply candidates for enriched tweets.
package response

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

const (
	// DefaultMaxLength is the tweet length limit.
	DefaultMaxLength = 280

	ellipsis = "..."
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	hashtagRe    = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
)

// Formatter cleans drafted text and fits it into a tweet.
type Formatter struct {
	maxLength int
	forbidden []*regexp.Regexp
}

// NewFormatter creates a formatter. A non-positive maxLength selects DefaultMaxLength.
func NewFormatter(maxLength int, forbiddenWords []string) *Formatter {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	f := &Formatter{maxLength: maxLength}

	for _, w := range forbiddenWords {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}

		f.forbidden = append(f.forbidden, regexp.MustCompile("(?i)"+regexp.QuoteMeta(w)))
	}

	return f
}

// MaxLength returns the length limit in runes.
func (f *Formatter) MaxLength() int { return f.maxLength }

// Format removes forbidden words, collapses whitespace, trims the text to the length limit
// and appends hashtags while they still fit.
func (f *Formatter) Format(text string, hashtags []string) string {
	for _, re := range f.forbidden {
		text = re.ReplaceAllString(text, "")
	}

	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	text = f.trim(text)

	return f.appendHashtags(text, hashtags)
}

// trim cuts text at the last sentence end that fits, or the last word boundary, and marks
// the cut with an ellipsis.
func (f *Formatter) trim(text string) string {
	if utf8.RuneCountInString(text) <= f.maxLength {
		return text
	}

	budget := f.maxLength - utf8.RuneCountInString(ellipsis)
	if budget <= 0 {
		return ellipsis[:f.maxLength]
	}

	runes := []rune(text)[:budget]

	cut := lastIndexFunc(runes, func(r rune) bool { return r == '.' || r == '!' || r == '?' })
	if cut > 0 {
		runes = runes[:cut]
	} else if space := lastIndexFunc(runes, unicode.IsSpace); space > 0 {
		runes = runes[:space]
	}

	return strings.TrimRightFunc(string(runes), func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';' || r == ':'
	}) + ellipsis
}

func (f *Formatter) appendHashtags(text string, hashtags []string) string {
	if len(hashtags) == 0 {
		return text
	}

	caser := cases.Fold()

	present := make(map[string]struct{})
	for _, m := range hashtagRe.FindAllStringSubmatch(text, -1) {
		present[caser.String(m[1])] = struct{}{}
	}

	remaining := f.maxLength - utf8.RuneCountInString(text)

	var sb strings.Builder
	sb.WriteString(text)

	for _, tag := range hashtags {
		tag = strings.TrimLeft(strings.TrimSpace(tag), "#")
		if tag == "" || strings.ContainsFunc(tag, unicode.IsSpace) {
			continue
		}

		key := caser.String(tag)
		if _, ok := present[key]; ok {
			continue
		}

		rendered := "#" + tag

		cost := utf8.RuneCountInString(rendered)
		if sb.Len() > 0 {
			cost++
		}

		if cost > remaining {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(rendered)

		present[key] = struct{}{}
		remaining -= cost
	}

	return sb.String()
}

func lastIndexFunc(runes []rune, f func(rune) bool) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if f(runes[i]) {
			return i
		}
	}

	return -1
}
