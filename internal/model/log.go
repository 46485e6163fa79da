package model

import "sync"

// LogFunc receives log entries from the core.
// Implementations must be safe for concurrent use when passed to operations
// that run worker pools.
type LogFunc func(severity Severity, message string)

// ProgressFunc receives the fraction of work completed, in [0, 1].
// Values delivered to a single ProgressFunc never decrease.
type ProgressFunc func(fraction float64)

// Entry is a single recorded log line.
type Entry struct {
	// Severity is the level of the entry.
	Severity Severity `json:"severity"`

	// Message is the human-readable text.
	Message string `json:"message"`
}

// DiscardLog is a LogFunc that drops every entry.
func DiscardLog(Severity, string) {}

// DiscardProgress is a ProgressFunc that drops every update.
func DiscardProgress(float64) {}

// Recorder collects entries in memory.
// It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{entries: make([]Entry, 0)}
}

// Log appends an entry. Its signature matches LogFunc.
func (r *Recorder) Log(severity Severity, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Severity: severity, Message: message})
}

// Entries returns a copy of all recorded entries in arrival order.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many entries have the given severity.
func (r *Recorder) Count(severity Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Severity == severity {
			n++
		}
	}
	return n
}

// Tee returns a LogFunc that forwards every entry to all non-nil fns in order.
func Tee(fns ...LogFunc) LogFunc {
	return func(severity Severity, message string) {
		for _, fn := range fns {
			if fn != nil {
				fn(severity, message)
			}
		}
	}
}
