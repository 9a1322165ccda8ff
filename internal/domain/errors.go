package domain

import "errors"

var (
	// ErrMissingColumn is returned when a required column is absent from the
	// input table entirely. Row-level dirt is filtered, never raised; a
	// missing column is structural and aborts the operation.
	ErrMissingColumn = errors.New("required column missing from input")

	// ErrEncoderNotFitted is returned when an encoding is requested for a
	// column the registry was never fit on.
	ErrEncoderNotFitted = errors.New("encoder not fitted for column")

	// ErrFeatureMismatch is returned when the adapter's feature columns
	// disagree with the columns the estimator was trained on.
	ErrFeatureMismatch = errors.New("feature columns do not match trained model")

	// ErrArtifactMismatch is returned when the model, encoder and scaler
	// artifacts do not share the same version.
	ErrArtifactMismatch = errors.New("artifact versions do not match")

	// ErrEstimatorNotFitted is returned when Predict is called before Fit.
	ErrEstimatorNotFitted = errors.New("estimator has not been fitted")

	// ErrInvalidRequest is returned when request parameters are invalid.
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrEmptyDataset is returned when cleaning leaves no usable rows.
	ErrEmptyDataset = errors.New("no rows left after cleaning")

	// ErrModelNotLoaded is returned when the serving layer has no model
	// state to predict against.
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrCacheMiss is returned when data is not found in cache.
	ErrCacheMiss = errors.New("cache miss")
)
