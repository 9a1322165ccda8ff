package usecase

import (
	"fmt"
	"log"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/estatelens/backend/internal/domain"
)

// TrainingConfig holds the knobs of one training run.
type TrainingConfig struct {
	TestFraction float64
	Seed         int64
	Version      string
}

// TrainingService runs the batch pipeline: clean, scale, split, fit,
// evaluate. The regression estimator and the experiment-tracking sink are
// injected capabilities.
type TrainingService struct {
	cleaner   *Cleaner
	estimator domain.Estimator
	tracker   domain.RunTracker
	cfg       TrainingConfig
}

// NewTrainingService creates a training service. The tracker may be nil, in
// which case metrics are only logged locally.
func NewTrainingService(cleaner *Cleaner, est domain.Estimator, tracker domain.RunTracker, cfg TrainingConfig) *TrainingService {
	if cfg.TestFraction == 0 {
		cfg.TestFraction = 1.0 / 3.0
	}
	return &TrainingService{cleaner: cleaner, estimator: est, tracker: tracker, cfg: cfg}
}

// TrainingResult bundles everything one run produces. Encoders and scaler
// params are immutable once returned; a new run builds a new result, never
// mutates an old one.
type TrainingResult struct {
	Encoders       *EncoderSet
	Scaler         *ScalerParams
	FeatureColumns []string
	Metrics        domain.Metrics
	Stats          CleanStats
	Dataset        *domain.Dataset
	Version        string
}

// Train executes the pipeline on raw listing rows.
func (s *TrainingService) Train(rows []domain.RawRecord) (*TrainingResult, error) {
	ds, encoders, stats, err := s.cleaner.Clean(rows)
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}

	X := datasetMatrix(ds)
	scaler, scaled, err := FitTransform(X)
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}

	trainX, testX, trainY, testY, err := Split(scaled, ds.Target, s.cfg.TestFraction, s.cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}

	log.Printf("[train] fitting on %d rows, holding out %d", len(trainY), len(testY))
	if err := s.estimator.Fit(trainX, trainY); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	var metrics domain.Metrics
	if testX != nil {
		metrics, err = s.evaluate(testX, testY)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		log.Printf("[train] r2=%.4f mae=%.0f rmse=%.0f mape=%.4f",
			metrics.R2, metrics.MAE, metrics.RMSE, metrics.MAPE)
	} else {
		log.Printf("[train] dataset too small for a held-out split, skipping evaluation")
	}

	result := &TrainingResult{
		Encoders:       encoders,
		Scaler:         scaler,
		FeatureColumns: ds.Columns,
		Metrics:        metrics,
		Stats:          stats,
		Dataset:        ds,
		Version:        s.cfg.Version,
	}
	s.logRun(result)
	return result, nil
}

// evaluate computes the held-out regression metrics.
func (s *TrainingService) evaluate(testX *mat.Dense, testY []float64) (domain.Metrics, error) {
	rows, _ := testX.Dims()
	preds := make([]float64, rows)
	for i := 0; i < rows; i++ {
		p, _, err := s.estimator.Predict(mat.Row(nil, i, testX))
		if err != nil {
			return domain.Metrics{}, err
		}
		preds[i] = p
	}

	var mae, sqErr, mape float64
	mapeCount := 0
	for i, actual := range testY {
		diff := preds[i] - actual
		mae += math.Abs(diff)
		sqErr += diff * diff
		if actual != 0 {
			mape += math.Abs(diff / actual)
			mapeCount++
		}
	}
	n := float64(len(testY))
	metrics := domain.Metrics{
		R2:   stat.RSquaredFrom(preds, testY, nil),
		MAE:  mae / n,
		RMSE: math.Sqrt(sqErr / n),
	}
	if mapeCount > 0 {
		metrics.MAPE = mape / float64(mapeCount)
	}
	return metrics, nil
}

// logRun reports the run to the tracking sink. Tracking failures never fail
// the training run itself.
func (s *TrainingService) logRun(result *TrainingResult) {
	if s.tracker == nil {
		return
	}
	run := &domain.TrainingRun{
		Version: result.Version,
		Params: map[string]float64{
			"test_fraction": s.cfg.TestFraction,
			"seed":          float64(s.cfg.Seed),
		},
		Metrics:   result.Metrics,
		Rows:      result.Dataset.NumRows(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.tracker.LogRun(run); err != nil {
		log.Printf("[train] WARN run tracking failed: %v", err)
	}
}

// datasetMatrix copies a cleaned dataset into a dense gonum matrix.
func datasetMatrix(ds *domain.Dataset) *mat.Dense {
	rows := ds.NumRows()
	cols := len(ds.Columns)
	X := mat.NewDense(rows, cols, nil)
	for i, row := range ds.Rows {
		X.SetRow(i, row)
	}
	return X
}
