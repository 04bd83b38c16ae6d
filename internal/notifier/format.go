package notifier

import (
	"fmt"
	"strings"

	"github.com/aleister1102/pagewatch/internal/models"
)

const changesIntro = "The following websites have changed since the last scan:"

// summaryLine renders per-status counts, e.g. "3 checked: 1 changed, 1 unreachable, ...".
func summaryLine(result *models.RunResult) string {
	counts := result.Counts()
	parts := make([]string, 0, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		parts = append(parts, fmt.Sprintf("%d %s", counts[s], statusLabel(s)))
	}
	return fmt.Sprintf("%d checked: %s", len(result.Reports), strings.Join(parts, ", "))
}

func statusLabel(s models.Status) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// plainTextBody is the e-mail body: changed resources first, then anything
// that could not be checked.
func plainTextBody(result *models.RunResult) string {
	var b strings.Builder

	changed := result.Filter(models.StatusChanged)
	if len(changed) > 0 {
		b.WriteString(changesIntro)
		b.WriteString("\n\n")
		for _, rep := range changed {
			b.WriteString(displayName(rep))
			b.WriteString("\n")
		}
	} else {
		b.WriteString("No changes detected.\n")
	}

	if unreachable := result.Filter(models.StatusUnreachable); len(unreachable) > 0 {
		b.WriteString("\nCould not be checked:\n\n")
		for _, rep := range unreachable {
			fmt.Fprintf(&b, "%s: %s\n", displayName(rep), rep.Error)
		}
	}

	for _, rep := range changed {
		if rep.Diff == nil || rep.Diff.Preview == "" {
			continue
		}
		fmt.Fprintf(&b, "\n--- %s (+%d/-%d lines)\n%s", displayName(rep), rep.Diff.LinesAdded, rep.Diff.LinesRemoved, rep.Diff.Preview)
		if rep.Diff.Truncated {
			b.WriteString("[diff truncated]\n")
		}
	}

	fmt.Fprintf(&b, "\n%s\nRun %s\n", summaryLine(result), result.RunID)
	return b.String()
}

// displayName shows the ID, with the URL when it differs.
func displayName(rep models.ChangeReport) string {
	if rep.URL == "" || rep.URL == rep.ID {
		return rep.ID
	}
	return fmt.Sprintf("%s (%s)", rep.ID, rep.URL)
}
