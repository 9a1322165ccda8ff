package usecase

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ScalerParams holds per-column standardization statistics, computed once on
// the training features and reused unchanged at inference time.
type ScalerParams struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes column means and standard deviations of the feature
// matrix.
func FitScaler(X mat.Matrix) *ScalerParams {
	rows, cols := X.Dims()
	params := &ScalerParams{
		Mean: make([]float64, cols),
		Std:  make([]float64, cols),
	}

	column := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(column, j, X)
		params.Mean[j], params.Std[j] = stat.MeanStdDev(column, nil)
	}
	return params
}

// Transform standardizes each column to zero mean and unit variance using the
// fitted statistics. A zero-variance column is centered but not divided, so a
// constant feature can never produce a division by zero.
func (p *ScalerParams) Transform(X mat.Matrix) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if cols != len(p.Mean) {
		return nil, fmt.Errorf("scaler fitted on %d columns, got %d", len(p.Mean), cols)
	}

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := X.At(i, j) - p.Mean[j]
			if p.Std[j] > 0 {
				v /= p.Std[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// TransformRow standardizes a single feature row.
func (p *ScalerParams) TransformRow(features []float64) ([]float64, error) {
	if len(features) != len(p.Mean) {
		return nil, fmt.Errorf("scaler fitted on %d columns, got %d", len(p.Mean), len(features))
	}

	out := make([]float64, len(features))
	for j, v := range features {
		v -= p.Mean[j]
		if p.Std[j] > 0 {
			v /= p.Std[j]
		}
		out[j] = v
	}
	return out, nil
}

// FitTransform fits the scaler and standardizes the matrix in one call.
func FitTransform(X mat.Matrix) (*ScalerParams, *mat.Dense, error) {
	params := FitScaler(X)
	scaled, err := params.Transform(X)
	return params, scaled, err
}

// Split partitions the scaled features and aligned targets into train and
// test subsets with a seeded shuffle. The same seed and input always produce
// the same partition, and X/y stay row-aligned through the shuffle.
func Split(X *mat.Dense, y []float64, testFraction float64, seed int64) (trainX, testX *mat.Dense, trainY, testY []float64, err error) {
	rows, cols := X.Dims()
	if rows != len(y) {
		return nil, nil, nil, nil, fmt.Errorf("feature rows (%d) and targets (%d) are misaligned", rows, len(y))
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, nil, nil, fmt.Errorf("test fraction must be in (0, 1), got %g", testFraction)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(rows)
	testSize := int(float64(rows) * testFraction)
	if testSize == 0 && rows > 1 {
		testSize = 1
	}
	trainSize := rows - testSize

	trainX = mat.NewDense(trainSize, cols, nil)
	trainY = make([]float64, trainSize)
	if testSize > 0 {
		testX = mat.NewDense(testSize, cols, nil)
		testY = make([]float64, testSize)
	}

	for i, src := range perm {
		row := mat.Row(nil, src, X)
		if i < trainSize {
			trainX.SetRow(i, row)
			trainY[i] = y[src]
		} else {
			testX.SetRow(i-trainSize, row)
			testY[i-trainSize] = y[src]
		}
	}
	return trainX, testX, trainY, testY, nil
}
