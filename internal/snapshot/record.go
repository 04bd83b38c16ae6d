// Package snapshot archives the normalized text of monitored resources in
// per-resource Parquet files so that changes can be diffed later.
package snapshot

import "time"

// Record is one archived version of a resource's normalized text.
type Record struct {
	ResourceID  string `parquet:"resource_id"`
	RunID       string `parquet:"run_id"`
	Timestamp   int64  `parquet:"timestamp"` // Unix milliseconds
	Fingerprint string `parquet:"fingerprint"`
	Content     string `parquet:"content"`
}

// Time returns the record timestamp.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}
