package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
)

const systemPrompt = "You reply to developers who are skeptical about AI coding tools. " +
	"Be honest about the tools' limitations, never dismissive of the author's experience, " +
	"and never promotional. Answer with the reply text only, no quotes or hashtags."

func buildDraftPrompt(tweet domain.EnrichedTweet) string {
	var sb strings.Builder

	sb.WriteString("Write a short reply to this tweet.\n\n")
	fmt.Fprintf(&sb, "Tweet by @%s: %s\n", tweet.AuthorHandle, truncate(tweet.Text, promptTweetMaxChars))

	if len(tweet.MentionedTools) > 0 {
		names := make([]string, 0, len(tweet.MentionedTools))
		for _, t := range tweet.MentionedTools {
			names = append(names, t.Name)
		}

		fmt.Fprintf(&sb, "Mentioned AI tools: %s\n", strings.Join(names, ", "))
	}

	fmt.Fprintf(&sb, "Doubt rating (0-10): %d\n\n", tweet.DoubtRating)

	sb.WriteString("Instructions:\n")
	sb.WriteString("1. Address the concern the author raises about the mentioned tools.\n")
	sb.WriteString("2. Offer a balanced perspective with both benefits and drawbacks.\n")
	sb.WriteString("3. Keep it under 240 characters and relevant to the tweet.\n")
	sb.WriteString("4. Use a friendly and professional tone.\n")

	return sb.String()
}

// truncate cuts s to max runes and marks the cut with an ellipsis.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	if max < 0 {
		max = 0
	}

	return string([]rune(s)[:max]) + "..."
}
