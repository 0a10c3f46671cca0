package detection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
)

func testCatalog() []domain.ToolCatalogEntry {
	return []domain.ToolCatalogEntry{
		{ID: "chatgpt", Name: "ChatGPT", Aliases: []string{"GPT4"}},
		{ID: "copilot", Name: "Copilot", Aliases: []string{"ghcopilot"}},
		{ID: "cursor", Name: "Cursor"},
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("", ""), 1e-9)
	assert.InDelta(t, 1.0, Similarity("chatgpt", "chatgpt"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", ""), 1e-9)
	assert.InDelta(t, 1-2.0/7, Similarity("chatbot", "chatgpt"), 1e-9)
	assert.InDelta(t, 1-1.0/4, Similarity("naïf", "naif"), 1e-9, "distance counts runes")
}

func TestDetect(t *testing.T) {
	d, err := New(testCatalog(), 0, nil)
	require.NoError(t, err)
	assert.InDelta(t, DefaultFuzzyMatchThreshold, d.Snapshot().Threshold(), 1e-9)

	tests := []struct {
		name     string
		keywords []string
		want     []domain.ToolRef
	}{
		{name: "exact case-insensitive", keywords: []string{"chatgpt"}, want: []domain.ToolRef{{ID: "chatgpt", Name: "ChatGPT"}}},
		{name: "below threshold", keywords: []string{"chatbot"}, want: []domain.ToolRef{}},
		{name: "alias match", keywords: []string{"gpt4"}, want: []domain.ToolRef{{ID: "chatgpt", Name: "ChatGPT"}}},
		{name: "typo within threshold", keywords: []string{"copilt"}, want: []domain.ToolRef{{ID: "copilot", Name: "Copilot"}}},
		{
			name:     "dedup in first detection order",
			keywords: []string{"cursor", "chatgpt", "CURSOR", "gpt4"},
			want:     []domain.ToolRef{{ID: "cursor", Name: "Cursor"}, {ID: "chatgpt", Name: "ChatGPT"}},
		},
		{name: "no keywords", keywords: nil, want: []domain.ToolRef{}},
		{name: "blank keyword", keywords: []string{"  "}, want: []domain.ToolRef{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.keywords))
		})
	}
}

func TestDetect_FirstMatchWins(t *testing.T) {
	catalog := []domain.ToolCatalogEntry{
		{ID: "first", Name: "codex"},
		{ID: "second", Name: "codexs"},
	}

	d, err := New(catalog, 0.8, nil)
	require.NoError(t, err)

	// "codexs" is an exact hit on the second entry but already reaches 0.83 on the first.
	assert.Equal(t, []domain.ToolRef{{ID: "first", Name: "codex"}}, d.Detect([]string{"codexs"}))
}

func TestUpdateCatalog(t *testing.T) {
	d, err := New(testCatalog(), 0, nil)
	require.NoError(t, err)

	before := d.Snapshot()

	require.NoError(t, d.UpdateCatalog([]domain.ToolCatalogEntry{{ID: "claude", Name: "Claude"}}))

	assert.Empty(t, d.Detect([]string{"chatgpt"}))
	assert.Equal(t, []domain.ToolRef{{ID: "claude", Name: "Claude"}}, d.Detect([]string{"claude"}))

	// Snapshots taken before the update are unaffected.
	assert.Equal(t, []domain.ToolRef{{ID: "chatgpt", Name: "ChatGPT"}}, before.Detect([]string{"chatgpt"}))
	assert.Len(t, before.Catalog(), 3)

	err = d.UpdateCatalog([]domain.ToolCatalogEntry{{ID: "a", Name: "A"}, {ID: "a", Name: "B"}})
	require.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Len(t, d.Snapshot().Catalog(), 1)
}

func TestUpdateThreshold(t *testing.T) {
	d, err := New(testCatalog(), 0, nil)
	require.NoError(t, err)

	require.NoError(t, d.UpdateThreshold(0.7))
	assert.Equal(t, []domain.ToolRef{{ID: "chatgpt", Name: "ChatGPT"}}, d.Detect([]string{"chatbot"}))

	for _, bad := range []float64{0, -0.1, 1.01} {
		require.ErrorIs(t, d.UpdateThreshold(bad), errors.ErrInvalidInput)
	}

	assert.InDelta(t, 0.7, d.Snapshot().Threshold(), 1e-9)
}

func TestDetect_ResultsAreCatalogMembers(t *testing.T) {
	d, err := New(testCatalog(), 0.5, nil)
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, c := range testCatalog() {
		ids[c.ID] = true
	}

	for _, ref := range d.Detect([]string{"chat", "gpt", "copy", "curse", "zzz", "cursors"}) {
		assert.True(t, ids[ref.ID], ref.ID)
	}
}

func TestDetector_ConcurrentUpdates(t *testing.T) {
	d, err := New(testCatalog(), 0, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()

			for j := 0; j < 100; j++ {
				refs := d.Detect([]string{"chatgpt", "cursor"})
				assert.LessOrEqual(t, len(refs), 2)
			}
		}()

		go func() {
			defer wg.Done()

			for j := 0; j < 20; j++ {
				_ = d.UpdateCatalog(testCatalog()[:1+j%3])
			}
		}()
	}

	wg.Wait()
}
