// Package textutil cleans tweet text delivered by the ingestion sources.
//
// Twitter's v1.1 payloads escape &, < and > as HTML entities, and scraped payloads
// sometimes keep anchor markup around links and mentions.
package textutil

import (
	"html"
	"regexp"
	"strings"
)

var (
	// A tag name must directly follow < or </, so comparisons and <3 survive.
	tagRegex       = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9-]*(?:\s[^<>]*)?/?>`)
	zeroWidthChars = strings.NewReplacer("\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "")
)

// StripHTMLTags removes all HTML tags from text, keeping only the content.
func StripHTMLTags(text string) string {
	result := tagRegex.ReplaceAllString(text, "")
	result = html.UnescapeString(result)

	return strings.TrimSpace(result)
}

// CleanTweetText strips markup and entities, drops zero-width characters and trims
// trailing spaces on every line. Line breaks are kept.
func CleanTweetText(text string) string {
	text = zeroWidthChars.Replace(StripHTMLTags(text))

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
