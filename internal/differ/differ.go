// Package differ summarizes how the normalized text of a resource changed.
package differ

import (
	"strings"

	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffConfig holds configuration for content diffing
type DiffConfig struct {
	ContextLines    int
	MaxPreviewLines int // 0 disables the preview
}

// DefaultDiffConfig returns default configuration
func DefaultDiffConfig() DiffConfig {
	return DiffConfig{
		ContextLines:    2,
		MaxPreviewLines: 40,
	}
}

// ContentDiffer compares two versions of normalized text.
type ContentDiffer struct {
	dmp    *diffmatchpatch.DiffMatchPatch
	config DiffConfig
}

// NewContentDiffer creates a new ContentDiffer
func NewContentDiffer(cfg DiffConfig) *ContentDiffer {
	if cfg.ContextLines < 0 {
		cfg.ContextLines = 0
	}
	return &ContentDiffer{
		dmp:    diffmatchpatch.New(),
		config: cfg,
	}
}

// Compare returns line statistics and a unified-diff preview of previous → current.
func (cd *ContentDiffer) Compare(previous, current string) *models.DiffSummary {
	previous = withTrailingNewline(previous)
	current = withTrailingNewline(current)

	added, removed := cd.lineStats(previous, current)
	summary := &models.DiffSummary{
		LinesAdded:   added,
		LinesRemoved: removed,
	}
	if cd.config.MaxPreviewLines > 0 && (added > 0 || removed > 0) {
		summary.Preview, summary.Truncated = cd.preview(previous, current)
	}
	return summary
}

// lineStats runs a line-mode diff and counts inserted and deleted lines.
func (cd *ContentDiffer) lineStats(previous, current string) (added, removed int) {
	a, b, lines := cd.dmp.DiffLinesToChars(previous, current)
	diffs := cd.dmp.DiffMain(a, b, false)
	diffs = cd.dmp.DiffCharsToLines(diffs, lines)

	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			added += countLines(diff.Text)
		case diffmatchpatch.DiffDelete:
			removed += countLines(diff.Text)
		}
	}
	return added, removed
}

func (cd *ContentDiffer) preview(previous, current string) (string, bool) {
	u := difflib.UnifiedDiff{
		A:        difflib.SplitLines(previous),
		B:        difflib.SplitLines(current),
		FromFile: "previous",
		ToFile:   "current",
		Context:  cd.config.ContextLines,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil || s == "" {
		return "", false
	}

	lines := strings.SplitAfter(strings.TrimSuffix(s, "\n"), "\n")
	if len(lines) <= cd.config.MaxPreviewLines {
		return s, false
	}
	return strings.Join(lines[:cd.config.MaxPreviewLines], ""), true
}

// withTrailingNewline makes the last line comparable with lines followed by more text.
func withTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
