package models

import "time"

// RunResult is everything one monitoring pass produced, in input order.
type RunResult struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Reports    []ChangeReport `json:"reports"`
	Cancelled  bool           `json:"cancelled,omitempty"`
	// StoreError holds the persistence failure message, if any.
	StoreError string `json:"store_error,omitempty"`
}

// Counts tallies reports per status.
func (r *RunResult) Counts() map[Status]int {
	counts := make(map[Status]int, len(AllStatuses))
	for _, s := range AllStatuses {
		counts[s] = 0
	}
	for _, rep := range r.Reports {
		counts[rep.Status]++
	}
	return counts
}

// Filter returns the reports with the given status, in order.
func (r *RunResult) Filter(status Status) []ChangeReport {
	var out []ChangeReport
	for _, rep := range r.Reports {
		if rep.Status == status {
			out = append(out, rep)
		}
	}
	return out
}

// HasChanges reports whether any resource changed or became unreachable.
func (r *RunResult) HasChanges() bool {
	for _, rep := range r.Reports {
		if rep.Status == StatusChanged || rep.Status == StatusUnreachable {
			return true
		}
	}
	return false
}

// Duration is the wall time of the run.
func (r *RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
