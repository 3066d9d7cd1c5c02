package llm

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CallEntry records one provider invocation for offline prompt/response audit
type CallEntry struct {
	Provider string        `json:"provider"`
	Mode     Mode          `json:"mode"`
	Model    string        `json:"model"`
	Duration time.Duration `json:"duration"`
	Success  bool          `json:"success"`
	Response string        `json:"response,omitempty"`
	Error    string        `json:"error,omitempty"`
	At       time.Time     `json:"at"`
}

// CallRecorder receives one entry per provider call, success or failure.
// It is injected at construction time so tests can swap the sink.
type CallRecorder interface {
	Record(entry CallEntry)
	Drain() []CallEntry
}

// LogRecorder is the default CallRecorder: it emits a structured log event
// per call and buffers entries until drained.
type LogRecorder struct {
	log     zerolog.Logger
	mu      sync.Mutex
	entries []CallEntry
}

// NewLogRecorder creates a LogRecorder writing to the given logger
func NewLogRecorder(log zerolog.Logger) *LogRecorder {
	return &LogRecorder{log: log}
}

// Record logs and buffers the entry
func (r *LogRecorder) Record(entry CallEntry) {
	ev := r.log.Info()
	if !entry.Success {
		ev = r.log.Error()
	}
	ev.Str("provider", entry.Provider).
		Str("mode", string(entry.Mode)).
		Str("model", entry.Model).
		Dur("duration", entry.Duration).
		Bool("success", entry.Success)
	if entry.Success {
		ev.Str("response", entry.Response)
	} else {
		ev.Str("error", entry.Error)
	}
	ev.Msg("llm call")

	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
}

// Drain returns all buffered entries and clears the buffer
func (r *LogRecorder) Drain() []CallEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.entries
	r.entries = nil
	return out
}

// record is the uniform timing side effect shared by every adapter
func record(rec CallRecorder, provider string, mode Mode, model string, start time.Time, response string, err error) {
	entry := CallEntry{
		Provider: provider,
		Mode:     mode,
		Model:    model,
		Duration: time.Since(start),
		Success:  err == nil,
		At:       start,
	}
	if err != nil {
		entry.Error = err.Error()
	} else {
		entry.Response = response
	}
	rec.Record(entry)
}
