package models

import (
	"time"

	"github.com/aleister1102/pagewatch/internal/fingerprint"
)

// Status is the outcome of checking one resource.
type Status string

const (
	StatusFirstObservation Status = "first_observation"
	StatusUnchanged        Status = "unchanged"
	StatusChanged          Status = "changed"
	StatusUnreachable      Status = "unreachable"
)

// AllStatuses lists statuses in display order.
var AllStatuses = []Status{StatusChanged, StatusUnreachable, StatusFirstObservation, StatusUnchanged}

// DiffSummary describes how the normalized text of a changed resource moved.
type DiffSummary struct {
	LinesAdded   int    `json:"lines_added"`
	LinesRemoved int    `json:"lines_removed"`
	Preview      string `json:"preview,omitempty"`
	Truncated    bool   `json:"truncated,omitempty"`
}

// ChangeReport is the per-resource result of one run.
type ChangeReport struct {
	ID        string                   `json:"id"`
	URL       string                   `json:"url"`
	Status    Status                   `json:"status"`
	Changed   bool                     `json:"changed"`
	Previous  *fingerprint.Fingerprint `json:"previous,omitempty"`
	Current   *fingerprint.Fingerprint `json:"current,omitempty"`
	Error     string                   `json:"error,omitempty"`
	Degraded  bool                     `json:"degraded,omitempty"`
	Reason    string                   `json:"degraded_reason,omitempty"`
	CheckedAt time.Time                `json:"checked_at"`
	Diff      *DiffSummary             `json:"diff,omitempty"`

	// Text is the normalized content; kept in memory for snapshots and diffs only.
	Text string `json:"-"`
}

// NewReport derives the status from the previous and current fingerprints.
// A nil current fingerprint means the resource could not be fetched.
func NewReport(res Resource, previous, current *fingerprint.Fingerprint, checkedAt time.Time) ChangeReport {
	r := ChangeReport{
		ID:        res.ID,
		URL:       res.URL,
		Previous:  previous,
		Current:   current,
		CheckedAt: checkedAt,
	}
	switch {
	case current == nil:
		r.Status = StatusUnreachable
	case previous == nil:
		r.Status = StatusFirstObservation
	case *previous == *current:
		r.Status = StatusUnchanged
	default:
		r.Status = StatusChanged
		r.Changed = true
	}
	return r
}
