// Package recorder keeps a rotating JSONL trace of conversation turns,
// assistant proposals and fetches, for debugging sessions after the fact.
package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	// MaxRotatedFiles bounds how many session traces are kept on disk.
	MaxRotatedFiles = 3
	// DefaultTraceDir is used when no directory is configured.
	DefaultTraceDir = "data/traces"
)

// Event is a single trace record. TurnID correlates the records of one
// conversational turn (input, proposal, fetch, outcome).
type Event struct {
	Timestamp time.Time   `json:"ts"`
	Type      string      `json:"type"`
	TurnID    string      `json:"turn_id,omitempty"`
	Data      interface{} `json:"data"`
}

// Recorder writes events for one session to a JSONL file, rotating old
// session traces away.
type Recorder struct {
	mu       sync.Mutex
	file     *os.File
	encoder  *json.Encoder
	basePath string
}

// NewRecorder creates the trace directory if needed.
func NewRecorder(basePath string) (*Recorder, error) {
	if basePath == "" {
		basePath = DefaultTraceDir
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, err
	}
	return &Recorder{basePath: basePath}, nil
}

// Start opens a fresh trace for a session, rotating older traces so only
// the last MaxRotatedFiles remain.
func (r *Recorder) Start(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		_ = r.file.Close()
		r.file = nil
	}

	if err := r.rotate(); err != nil {
		return fmt.Errorf("rotate traces: %w", err)
	}

	filename := fmt.Sprintf("session_%s_%d.jsonl", sessionID, time.Now().UnixMilli())
	f, err := os.Create(filepath.Join(r.basePath, filename))
	if err != nil {
		return err
	}

	r.file = f
	r.encoder = json.NewEncoder(f)
	return nil
}

// Log appends one event; a recorder without an open trace drops events
// silently so callers never have to guard.
func (r *Recorder) Log(eventType, turnID string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil {
		return
	}

	_ = r.encoder.Encode(Event{
		Timestamp: time.Now(),
		Type:      eventType,
		TurnID:    turnID,
		Data:      data,
	})
}

// rotate keeps only the newest traces, leaving room for the one about to
// be created.
func (r *Recorder) rotate() error {
	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return err
	}

	var traces []struct {
		Name string
		Time time.Time
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		traces = append(traces, struct {
			Name string
			Time time.Time
		}{e.Name(), info.ModTime()})
	}

	sort.Slice(traces, func(i, j int) bool {
		return traces[i].Time.After(traces[j].Time)
	})

	if len(traces) >= MaxRotatedFiles {
		keep := MaxRotatedFiles - 1
		for i := keep; i < len(traces); i++ {
			_ = os.Remove(filepath.Join(r.basePath, traces[i].Name))
		}
	}
	return nil
}

// Close finishes the current trace.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		r.encoder = nil
		return err
	}
	return nil
}
