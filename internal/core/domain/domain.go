// Package domain holds the records that flow through intake, enrichment and review.
package domain

import "time"

// RawTweet represents a tweet as delivered by the ingestion source.
// It is treated as immutable once ingested.
type RawTweet struct {
	ID              string    `json:"id"`
	Text            string    `json:"text"`
	AuthorHandle    string    `json:"author_handle"`
	AuthorFollowers int       `json:"author_followers"`
	CreatedAt       time.Time `json:"created_at"`
	Likes           int       `json:"likes"`
	Retweets        int       `json:"retweets"`
	Replies         int       `json:"replies"`
	MediaURLs       []string  `json:"media_urls,omitempty"`
	Hashtags        []string  `json:"hashtags,omitempty"`
	QuotedTweetID   string    `json:"quoted_tweet_id,omitempty"`
}

// EnrichedTweet is a RawTweet with the fields derived by the enrichment pipeline.
// It is replaced wholesale on re-analysis, never patched.
type EnrichedTweet struct {
	RawTweet

	Sentiment      float64   `json:"sentiment"`
	DoubtRating    int       `json:"doubt_rating"`
	MentionedTools []ToolRef `json:"mentioned_tools"`
}

// Doubt rating bounds.
const (
	MinDoubtRating = 0
	MaxDoubtRating = 10
)

// MentionsTool reports whether the tool id was detected in the tweet.
func (e EnrichedTweet) MentionsTool(id string) bool {
	for _, t := range e.MentionedTools {
		if t.ID == id {
			return true
		}
	}

	return false
}
