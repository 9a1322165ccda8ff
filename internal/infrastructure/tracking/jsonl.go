// Package tracking is the local stand-in for an external experiment-tracking
// service: training runs are appended to a JSONL file, one object per run.
package tracking

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/estatelens/backend/internal/domain"
)

// JSONLTracker appends training runs to a newline-delimited JSON file.
type JSONLTracker struct {
	mu   sync.Mutex
	path string
}

// NewJSONLTracker creates a tracker writing to path, creating intermediate
// directories as needed.
func NewJSONLTracker(path string) (*JSONLTracker, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("tracking: create dir: %w", err)
	}
	return &JSONLTracker{path: path}, nil
}

// LogRun appends one run record.
func (t *JSONLTracker) LogRun(run *domain.TrainingRun) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	raw, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("tracking: marshal run: %w", err)
	}

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("tracking: open %q: %w", t.path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("tracking: append run: %w", err)
	}
	return nil
}
