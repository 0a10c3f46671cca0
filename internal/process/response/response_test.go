package response

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/ports/mocks"
)

func TestFormatter_Format(t *testing.T) {
	tests := []struct {
		name      string
		max       int
		forbidden []string
		text      string
		hashtags  []string
		want      string
	}{
		{name: "short text untouched", max: 50, text: "Fair point.", want: "Fair point."},
		{name: "collapses whitespace", max: 50, text: "  Fair \n\t point.  ", want: "Fair point."},
		{name: "removes forbidden words", max: 50, forbidden: []string{"damn"}, text: "Damn, that is a fair point.", want: ", that is a fair point."},
		{name: "trims at sentence end", max: 25, text: "First sentence. Second sentence is long.", want: "First sentence..."},
		{name: "trims at word boundary", max: 15, text: "no sentence ends here at all", want: "no sentence..."},
		{name: "appends hashtags", max: 40, text: "Fair point.", hashtags: []string{"ai", "#dev"}, want: "Fair point. #ai #dev"},
		{name: "skips hashtags that do not fit", max: 16, text: "Fair point.", hashtags: []string{"devtools", "ai"}, want: "Fair point. #ai"},
		{name: "skips hashtags already present", max: 40, text: "Fair point #AI.", hashtags: []string{"ai"}, want: "Fair point #AI."},
		{name: "longer tag does not hide a shorter one", max: 40, text: "Fair point #aitools.", hashtags: []string{"ai", "AITools"}, want: "Fair point #aitools. #ai"},
		{name: "skips repeated hashtags", max: 40, text: "ok", hashtags: []string{"go", "Go"}, want: "ok #go"},
		{name: "skips blank hashtags", max: 40, text: "ok", hashtags: []string{"", "#", "a b"}, want: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFormatter(tt.max, tt.forbidden)
			assert.Equal(t, tt.want, f.Format(tt.text, tt.hashtags))
		})
	}
}

func TestFormatter_NeverExceedsMaxLength(t *testing.T) {
	f := NewFormatter(0, nil)
	assert.Equal(t, DefaultMaxLength, f.MaxLength())

	text := strings.Repeat("word ", 100) + "end."
	got := f.Format(text, []string{"one", "two", "three"})

	assert.LessOrEqual(t, utf8.RuneCountInString(got), DefaultMaxLength)
	assert.True(t, strings.HasSuffix(got, "word..."), "no room left for hashtags")
}

func TestFormatter_TinyLimit(t *testing.T) {
	f := NewFormatter(2, nil)
	assert.Equal(t, "..", f.Format("hello", nil))
}

func TestTemplateDrafter(t *testing.T) {
	tests := []struct {
		name  string
		tweet domain.EnrichedTweet
		want  []string
	}{
		{
			name: "high doubt with tools",
			tweet: domain.EnrichedTweet{
				RawTweet:       domain.RawTweet{AuthorHandle: "dev"},
				DoubtRating:    9,
				MentionedTools: []domain.ToolRef{{ID: "a", Name: "Copilot"}, {ID: "b", Name: "Cursor"}},
			},
			want: []string{"@dev ", "frustration with Copilot and Cursor"},
		},
		{
			name:  "medium doubt",
			tweet: domain.EnrichedTweet{DoubtRating: 5},
			want:  []string{"Healthy skepticism about AI coding tools"},
		},
		{
			name:  "low doubt",
			tweet: domain.EnrichedTweet{DoubtRating: 1, MentionedTools: []domain.ToolRef{{ID: "a", Name: "ChatGPT"}}},
			want:  []string{"Interesting take on ChatGPT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TemplateDrafter{}.Draft(context.Background(), tt.tweet)
			require.NoError(t, err)

			for _, s := range tt.want {
				assert.Contains(t, got, s)
			}
		})
	}
}

func TestFallbackDrafter(t *testing.T) {
	tweet := domain.EnrichedTweet{DoubtRating: 9}

	primary := mocks.NewDrafter("from the model")
	got, err := NewFallbackDrafter(primary, nil, nil).Draft(context.Background(), tweet)
	require.NoError(t, err)
	assert.Equal(t, "from the model", got)

	primary.DraftFn = func(context.Context, domain.EnrichedTweet) (string, error) { return "", mocks.ErrMockFailure }
	got, err = NewFallbackDrafter(primary, nil, nil).Draft(context.Background(), tweet)
	require.NoError(t, err)
	assert.Contains(t, got, "frustration")

	primary.DraftFn = func(context.Context, domain.EnrichedTweet) (string, error) { return "   ", nil }
	got, err = NewFallbackDrafter(primary, mocks.NewDrafter("fallback"), nil).Draft(context.Background(), tweet)
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)

	got, err = NewFallbackDrafter(nil, nil, nil).Draft(context.Background(), tweet)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}
