package differ

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentDiffer_LineStats(t *testing.T) {
	tests := []struct {
		name        string
		previous    string
		current     string
		wantAdded   int
		wantRemoved int
	}{
		{name: "identical", previous: "a\nb", current: "a\nb", wantAdded: 0, wantRemoved: 0},
		{name: "line replaced", previous: "Hello", current: "World", wantAdded: 1, wantRemoved: 1},
		{name: "line appended", previous: "a\nb", current: "a\nb\nc", wantAdded: 1, wantRemoved: 0},
		{name: "lines removed", previous: "a\nb\nc\nd", current: "a\nd", wantAdded: 0, wantRemoved: 2},
		{name: "from empty", previous: "", current: "x\ny", wantAdded: 2, wantRemoved: 0},
	}

	cd := NewContentDiffer(DefaultDiffConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := cd.Compare(tt.previous, tt.current)
			require.NotNil(t, summary)
			assert.Equal(t, tt.wantAdded, summary.LinesAdded)
			assert.Equal(t, tt.wantRemoved, summary.LinesRemoved)
		})
	}
}

func TestContentDiffer_Preview(t *testing.T) {
	cd := NewContentDiffer(DefaultDiffConfig())

	summary := cd.Compare("Hello", "World")
	assert.Contains(t, summary.Preview, "--- previous\n+++ current\n")
	assert.Contains(t, summary.Preview, "-Hello\n")
	assert.Contains(t, summary.Preview, "+World\n")
	assert.False(t, summary.Truncated)

	assert.Empty(t, cd.Compare("same", "same").Preview)
}

func TestContentDiffer_PreviewTruncated(t *testing.T) {
	var prev, cur []string
	for i := 0; i < 50; i++ {
		prev = append(prev, fmt.Sprintf("old %d", i))
		cur = append(cur, fmt.Sprintf("new %d", i))
	}

	cd := NewContentDiffer(DiffConfig{ContextLines: 1, MaxPreviewLines: 10})
	summary := cd.Compare(strings.Join(prev, "\n"), strings.Join(cur, "\n"))

	assert.True(t, summary.Truncated)
	assert.Len(t, strings.Split(strings.TrimSuffix(summary.Preview, "\n"), "\n"), 10)
	assert.Equal(t, 50, summary.LinesAdded)
	assert.Equal(t, 50, summary.LinesRemoved)
}

func TestContentDiffer_PreviewDisabled(t *testing.T) {
	cd := NewContentDiffer(DiffConfig{MaxPreviewLines: 0})
	summary := cd.Compare("a", "b")
	assert.Empty(t, summary.Preview)
	assert.Equal(t, 1, summary.LinesAdded)
}
