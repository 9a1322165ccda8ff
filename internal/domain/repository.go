package domain

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Estimator is the consumed regression capability. Fitting internals (tree
// construction, boosting schedules) are outside this module; the pipeline only
// depends on fit/predict.
type Estimator interface {
	Fit(X mat.Matrix, y []float64) error
	// Predict returns the predicted price and a confidence value in (0, 1]
	// for a single feature row.
	Predict(features []float64) (price float64, confidence float64, err error)
}

// RunTracker is the experiment-tracking sink training runs are reported to.
type RunTracker interface {
	LogRun(run *TrainingRun) error
}

// DatasetWriter persists a cleaned dataset to a storage backend.
type DatasetWriter interface {
	Write(ds *Dataset) error
	Close() error
}

// CacheRepository defines the interface for caching operations.
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
