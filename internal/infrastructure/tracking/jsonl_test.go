package tracking

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatelens/backend/internal/domain"
)

func TestLogRunAppendsOneLinePerRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "training.jsonl")

	tracker, err := NewJSONLTracker(path)
	require.NoError(t, err)

	first := &domain.TrainingRun{
		Version:   "run-1",
		Params:    map[string]float64{"members": 25, "lambda": 1},
		Metrics:   domain.Metrics{R2: 0.82, MAE: 350000},
		Rows:      1200,
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	second := &domain.TrainingRun{Version: "run-2", Rows: 1300}

	require.NoError(t, tracker.LogRun(first))
	require.NoError(t, tracker.LogRun(second))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var runs []domain.TrainingRun
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var run domain.TrainingRun
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &run))
		runs = append(runs, run)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].Version)
	assert.Equal(t, 0.82, runs[0].Metrics.R2)
	assert.Equal(t, 1200, runs[0].Rows)
	assert.Equal(t, "run-2", runs[1].Version)
}

func TestLogRunSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training.jsonl")

	tracker, err := NewJSONLTracker(path)
	require.NoError(t, err)
	require.NoError(t, tracker.LogRun(&domain.TrainingRun{Version: "a"}))

	// A new tracker on the same path appends rather than truncating.
	reopened, err := NewJSONLTracker(path)
	require.NoError(t, err)
	require.NoError(t, reopened.LogRun(&domain.TrainingRun{Version: "b"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version":"a"`)
	assert.Contains(t, string(raw), `"version":"b"`)
}
