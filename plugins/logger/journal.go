package logger

import (
	"time"

	"github.com/nom-cli/plugin-sdk/domain/entities"
)

// journal is a ring of at most limit entries. It grows on demand so a large
// bound costs nothing until it is used.
type journal struct {
	now     func() time.Time
	entries []entities.LogEntry
	start   int
	limit   int
}

func newJournal(limit int, now func() time.Time) *journal {
	return &journal{limit: limit, now: now}
}

func (j *journal) append(level entities.LogLevel, message string, metadata *string) {
	e := entities.LogEntry{
		Timestamp: j.now(),
		Level:     level,
		Message:   message,
		Metadata:  metadata,
	}
	if len(j.entries) < j.limit {
		j.entries = append(j.entries, e)
		return
	}
	j.entries[j.start] = e
	j.start = (j.start + 1) % j.limit
}

// snapshot returns the entries oldest-first. The result is never nil.
func (j *journal) snapshot() []entities.LogEntry {
	out := make([]entities.LogEntry, 0, len(j.entries))
	out = append(out, j.entries[j.start:]...)
	out = append(out, j.entries[:j.start]...)
	return out
}

func (j *journal) reset() {
	j.entries = nil
	j.start = 0
}

func (j *journal) len() int {
	return len(j.entries)
}
