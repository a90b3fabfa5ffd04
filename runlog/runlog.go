// Package runlog persists one append-only structured record per
// pipeline run. Records are never mutated after write, so the log stays
// a complete audit trail even for discarded or failed runs.
package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Marianoooo45/ocr-qcm-ctk/screenshot"
	"github.com/Marianoooo45/ocr-qcm-ctk/sink"
)

const fileName = "runs.jsonl"

// Record is one completed or failed run.
type Record struct {
	ID         string            `json:"id"`
	Generation uint64            `json:"generation"`
	Timestamp  time.Time         `json:"timestamp"`
	Region     screenshot.Region `json:"region"`
	OCRText    string            `json:"ocr_text,omitempty"`
	Answer     string            `json:"answer,omitempty"`
	Provider   string            `json:"provider,omitempty"`
	Model      string            `json:"model,omitempty"`
	Template   string            `json:"template,omitempty"`
	Sinks      []sink.Outcome    `json:"sinks,omitempty"`
	ErrorKind  string            `json:"error_kind,omitempty"`
	Error      string            `json:"error,omitempty"`
	Cancelled  bool              `json:"cancelled,omitempty"`
	Discarded  bool              `json:"discarded,omitempty"`
}

// Log appends records as JSON lines under dir.
type Log struct {
	mu   sync.Mutex
	path string
}

func New(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &Log{path: filepath.Join(dir, fileName)}, nil
}

func (l *Log) Path() string { return l.path }

// Append writes rec as one JSON line.
func (l *Log) Append(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append run record: %w", err)
	}
	return nil
}

// ReadAll returns every record in the log, oldest first.
func (l *Log) ReadAll() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("corrupt run record: %w", err)
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}
