// Package stream receives tweets from ingestion sources and hands them to intake
// without ever blocking the source.
package stream

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
	"github.com/lueurxax/code-skeptic-scanner/internal/platform/textutil"
)

// twitterTimeLayout is the created_at layout of the Twitter v1.1 API.
const twitterTimeLayout = "Mon Jan 02 15:04:05 -0700 2006"

var hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// TweetPayload is the wire record delivered by ingestion sources. Author fields may be
// flat or nested under user.
type TweetPayload struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	AuthorHandle    string   `json:"author_handle"`
	AuthorFollowers *int     `json:"author_followers"`
	CreatedAt       string   `json:"created_at"`
	Likes           int      `json:"likes"`
	Retweets        int      `json:"retweets"`
	Replies         int      `json:"replies"`
	MediaURLs       []string `json:"media_urls"`
	Hashtags        []string `json:"hashtags"`
	QuotedTweetID   string   `json:"quoted_tweet_id"`

	User *struct {
		ScreenName     string `json:"screen_name"`
		FollowersCount int    `json:"followers_count"`
	} `json:"user"`
}

// DecodeTweet parses and validates a JSON tweet payload.
func DecodeTweet(data []byte) (domain.RawTweet, error) {
	var p TweetPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.RawTweet{}, fmt.Errorf("%w: decode tweet payload: %v", errors.ErrInvalidInput, err)
	}

	return p.ToRawTweet()
}

// ToRawTweet validates the payload and converts it.
func (p TweetPayload) ToRawTweet() (domain.RawTweet, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return domain.RawTweet{}, fmt.Errorf("%w: tweet id is required", errors.ErrInvalidInput)
	}

	text := textutil.CleanTweetText(p.Text)
	if text == "" {
		return domain.RawTweet{}, fmt.Errorf("%w: tweet %s has no text", errors.ErrInvalidInput, id)
	}

	handle := p.AuthorHandle
	followers := 0

	if p.AuthorFollowers != nil {
		followers = *p.AuthorFollowers
	}

	if p.User != nil {
		if handle == "" {
			handle = p.User.ScreenName
		}

		if p.AuthorFollowers == nil {
			followers = p.User.FollowersCount
		}
	}

	if followers < 0 || p.Likes < 0 || p.Retweets < 0 || p.Replies < 0 {
		return domain.RawTweet{}, fmt.Errorf("%w: tweet %s has negative counters", errors.ErrInvalidInput, id)
	}

	createdAt, err := parseCreatedAt(p.CreatedAt)
	if err != nil {
		return domain.RawTweet{}, fmt.Errorf("%w: tweet %s created_at %q: %v", errors.ErrInvalidInput, id, p.CreatedAt, err)
	}

	hashtags := normalizeHashtags(p.Hashtags)
	if len(hashtags) == 0 {
		hashtags = ExtractHashtags(text)
	}

	return domain.RawTweet{
		ID:              id,
		Text:            text,
		AuthorHandle:    strings.TrimPrefix(strings.TrimSpace(handle), "@"),
		AuthorFollowers: followers,
		CreatedAt:       createdAt,
		Likes:           p.Likes,
		Retweets:        p.Retweets,
		Replies:         p.Replies,
		MediaURLs:       nonEmpty(p.MediaURLs),
		Hashtags:        hashtags,
		QuotedTweetID:   strings.TrimSpace(p.QuotedTweetID),
	}, nil
}

func parseCreatedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(twitterTimeLayout, s); err == nil {
		return t.UTC(), nil
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}

	return t.UTC(), nil
}

// ExtractHashtags returns the distinct hashtags in text, without the leading #,
// in order of appearance.
func ExtractHashtags(text string) []string {
	matches := hashtagRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}

	return normalizeHashtags(tags)
}

func normalizeHashtags(in []string) []string {
	if len(in) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))

	for _, tag := range in {
		tag = strings.TrimLeft(strings.TrimSpace(tag), "#")
		if tag == "" {
			continue
		}

		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}

		out = append(out, tag)
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

func nonEmpty(in []string) []string {
	var out []string

	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}
