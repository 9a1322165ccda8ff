package usecase

import (
	"testing"

	"github.com/estatelens/backend/internal/domain"
)

// fakeTracker records logged runs.
type fakeTracker struct {
	runs []*domain.TrainingRun
}

func (f *fakeTracker) LogRun(run *domain.TrainingRun) error {
	f.runs = append(f.runs, run)
	return nil
}

func trainingRows(n int) []domain.RawRecord {
	locations := []string{"Mumbai", "Pune", "Delhi", "Chennai"}
	rows := make([]domain.RawRecord, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, listingRow(map[string]string{
			domain.ColLocation:   locations[i%len(locations)],
			domain.ColCarpetArea: formatNumber(float64(800 + i*10)),
			domain.ColAmount:     formatNumber(float64(8_000_000 + i*100_000)),
		}))
	}
	return rows
}

func TestTrainProducesCompleteResult(t *testing.T) {
	cleaner := NewCleaner(DefaultCleanerConfig())
	stub := &stubEstimator{price: 9_000_000, confidence: 1}
	tracker := &fakeTracker{}

	service := NewTrainingService(cleaner, stub, tracker, TrainingConfig{
		TestFraction: 1.0 / 3.0,
		Seed:         42,
		Version:      "test-run",
	})

	result, err := service.Train(trainingRows(30))
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	if !stub.fitCalled {
		t.Error("estimator was never fitted")
	}
	if result.Encoders == nil || result.Scaler == nil {
		t.Fatal("result missing encoders or scaler")
	}
	if len(result.FeatureColumns) != len(domain.FeatureColumns) {
		t.Errorf("feature columns = %d, want %d", len(result.FeatureColumns), len(domain.FeatureColumns))
	}
	if result.Dataset.NumRows() != 30 {
		t.Errorf("dataset rows = %d, want 30", result.Dataset.NumRows())
	}

	if len(tracker.runs) != 1 {
		t.Fatalf("tracked runs = %d, want 1", len(tracker.runs))
	}
	run := tracker.runs[0]
	if run.Version != "test-run" || run.Rows != 30 {
		t.Errorf("run = %+v", run)
	}
}

func TestTrainPropagatesStructuralErrors(t *testing.T) {
	cleaner := NewCleaner(DefaultCleanerConfig())
	service := NewTrainingService(cleaner, &stubEstimator{}, nil, TrainingConfig{Seed: 1})

	rows := []domain.RawRecord{listingRow(nil)}
	delete(rows[0], domain.ColFloor)

	if _, err := service.Train(rows); err == nil {
		t.Error("expected structural error for missing column")
	}
}

func TestTrainWorksWithoutTracker(t *testing.T) {
	cleaner := NewCleaner(DefaultCleanerConfig())
	service := NewTrainingService(cleaner, &stubEstimator{price: 1, confidence: 1}, nil, TrainingConfig{Seed: 7})

	if _, err := service.Train(trainingRows(12)); err != nil {
		t.Fatalf("Train without tracker: %v", err)
	}
}
