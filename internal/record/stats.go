package record

import "time"

// LoadStats summarizes one source load for logs, /readyz and cmd/verify.
// Skipped counts malformed rows; Dropped counts well-formed rows that were
// rejected (missing identifier, front matter, duplicate key).
type LoadStats struct {
	Source   string        `json:"source"`
	Path     string        `json:"path"`
	Loaded   int           `json:"loaded"`
	Skipped  int           `json:"skipped"`
	Dropped  int           `json:"dropped"`
	Missing  bool          `json:"missing"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"durationNs"`
}

// Status returns the metrics label for the load outcome.
func (s LoadStats) Status() string {
	switch {
	case s.Missing:
		return "missing"
	case s.Error != "":
		return "error"
	default:
		return "success"
	}
}
