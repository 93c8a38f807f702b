package domain

import "time"

// RunStatus is the outcome of one connector run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunError   RunStatus = "error"
)

// CollectionLogEntry is one line of the append-only collection audit
// trail: one entry per connector run, never per record, written whether
// the run succeeded, partially succeeded, or failed outright.
//
// Wire field names match the historical JSONL format, so older logs stay
// readable.
type CollectionLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Category  Category  `json:"category"`
	Source    string    `json:"source"`
	Records   int       `json:"records"`
	Status    RunStatus `json:"status"`
	Detail    string    `json:"detail,omitempty"`
}
