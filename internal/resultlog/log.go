package resultlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xdjs/artist-bio-gen/internal/domain"
)

// Log is the append-only, crash-safe result log. Appends are serialised
// by the Log's own mutex; each append writes exactly one JSON
// object followed by LF, then flushes.
type Log struct {
	mu       sync.Mutex
	file     *os.File
	promptID string
	version  string
}

// Open opens or creates the log file at path. In non-resume mode the
// file is truncated; in resume mode existing contents are preserved.
func Open(path, promptID, version string, resume bool) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("result log dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if resume {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open result log: %w", err)
	}
	return &Log{file: f, promptID: promptID, version: version}, nil
}

// Append writes one Response Record as a single JSON line and flushes.
func (l *Log) Append(rec domain.ResponseRecord) error {
	line, err := json.Marshal(buildRecord(rec, l.promptID, l.version))
	if err != nil {
		return fmt.Errorf("marshal result record: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("append result record: %w", err)
	}
	return l.file.Sync()
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
