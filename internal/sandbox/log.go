package sandbox

import "sync"

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Entry is one line of the visible interaction log.
type Entry struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// LogSink is the append-only logging capability handed to scripts.
type LogSink interface {
	Append(entry Entry)
}

// MemoryLog is a LogSink that retains entries for display and tests. Safe
// for concurrent use: asynchronous script callbacks may append after the
// activating call has returned.
type MemoryLog struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (l *MemoryLog) Append(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the log.
func (l *MemoryLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// HasError reports whether any entry is an error entry.
func (l *MemoryLog) HasError() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.Level == LevelError {
			return true
		}
	}
	return false
}
