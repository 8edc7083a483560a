// Package audit records the who-did-what events emitted on successful
// mutations. Recording is best-effort: a sink failure never impacts the
// request that produced the event.
package audit

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Event is one recorded action.
type Event struct {
	Time        time.Time `json:"time"`
	Actor       string    `json:"actor"`
	SubjectID   string    `json:"subject_id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
}

// Recorder accepts audit events.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Log keeps a bounded in-memory window of events and optionally forwards
// them to a sink.
type Log struct {
	mu      sync.Mutex
	entries []Event
	max     int
	sink    Recorder
}

// NewLog builds a log retaining at most max events, forwarding to sink when
// non-nil.
func NewLog(max int, sink Recorder) *Log {
	if max <= 0 {
		max = 200
	}
	return &Log{max: max, sink: sink}
}

// Record appends the event, stamping the time when unset.
func (l *Log) Record(ctx context.Context, ev Event) error {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, ev)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
	if l.sink != nil {
		// Best-effort persistence; ignore errors to avoid impacting request flow.
		_ = l.sink.Record(ctx, ev)
	}
	return nil
}

// List returns a copy of the retained events.
func (l *Log) List() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.entries))
	copy(out, l.entries)
	return out
}

// FileSink appends audit events as JSONL.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileSink opens the JSONL file for appending. An empty path yields a nil
// sink.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, err
	}
	return &FileSink{file: f}, nil
}

// Record writes the event as one JSON line.
func (s *FileSink) Record(_ context.Context, ev Event) error {
	if s == nil || s.file == nil {
		return nil
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.file.Write(append(b, '\n'))
	return err
}
