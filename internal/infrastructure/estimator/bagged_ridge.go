// Package estimator provides the regression capability consumed by the
// training and prediction services: a bootstrap-aggregated ensemble of ridge
// regressors solved in closed form. The ensemble spread doubles as the
// confidence signal on served predictions.
package estimator

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/estatelens/backend/internal/domain"
)

// Config controls ensemble size and regularization.
type Config struct {
	Members int
	Lambda  float64
	Seed    int64
}

// DefaultConfig returns a reasonable ensemble setup for tabular listing data.
func DefaultConfig() Config {
	return Config{Members: 25, Lambda: 1.0, Seed: 42}
}

// BaggedRidge is an ensemble of ridge regressors, each fit on a bootstrap
// resample of the training rows. Fitting is deterministic for a fixed seed.
type BaggedRidge struct {
	cfg Config

	// weights holds one coefficient vector per member, intercept last.
	weights  [][]float64
	features int
}

// New creates an unfitted ensemble.
func New(cfg Config) *BaggedRidge {
	if cfg.Members <= 0 {
		cfg.Members = 1
	}
	return &BaggedRidge{cfg: cfg}
}

// Fit trains every ensemble member on its own bootstrap resample.
func (e *BaggedRidge) Fit(X mat.Matrix, y []float64) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("estimator: empty training matrix (%dx%d)", rows, cols)
	}
	if rows != len(y) {
		return fmt.Errorf("estimator: %d rows but %d targets", rows, len(y))
	}

	rng := rand.New(rand.NewSource(e.cfg.Seed))
	e.weights = make([][]float64, 0, e.cfg.Members)
	e.features = cols

	for member := 0; member < e.cfg.Members; member++ {
		sampleX := mat.NewDense(rows, cols+1, nil)
		sampleY := make([]float64, rows)
		for i := 0; i < rows; i++ {
			src := rng.Intn(rows)
			for j := 0; j < cols; j++ {
				sampleX.Set(i, j, X.At(src, j))
			}
			sampleX.Set(i, cols, 1) // intercept column
			sampleY[i] = y[src]
		}

		w, err := ridgeSolve(sampleX, sampleY, e.cfg.Lambda)
		if err != nil {
			return fmt.Errorf("estimator: fit member %d: %w", member, err)
		}
		e.weights = append(e.weights, w)
	}
	return nil
}

// Predict averages the member predictions for one feature row and derives a
// confidence value from their spread.
func (e *BaggedRidge) Predict(features []float64) (float64, float64, error) {
	if len(e.weights) == 0 {
		return 0, 0, domain.ErrEstimatorNotFitted
	}
	if len(features) != e.features {
		return 0, 0, fmt.Errorf("%w: estimator expects %d features, got %d",
			domain.ErrFeatureMismatch, e.features, len(features))
	}

	preds := make([]float64, len(e.weights))
	for k, w := range e.weights {
		v := w[len(w)-1] // intercept
		for j, x := range features {
			v += w[j] * x
		}
		preds[k] = v
	}

	mean, std := stat.MeanStdDev(preds, nil)
	if len(preds) == 1 {
		std = 0
	}
	return mean, confidenceFromSpread(mean, std), nil
}

// confidenceFromSpread maps member disagreement to (0, 1]. Full agreement is
// 1; confidence decays as the spread grows relative to the prediction.
func confidenceFromSpread(mean, std float64) float64 {
	if std == 0 {
		return 1
	}
	scale := math.Abs(mean)
	if scale == 0 {
		scale = 1
	}
	return 1 / (1 + std/scale)
}

// ridgeSolve solves (XᵀX + λI)w = Xᵀy. The intercept coefficient is not
// regularized.
func ridgeSolve(X *mat.Dense, y []float64, lambda float64) ([]float64, error) {
	var xtx mat.Dense
	xtx.Mul(X.T(), X)

	n, _ := xtx.Dims()
	for i := 0; i < n-1; i++ {
		xtx.Set(i, i, xtx.At(i, i)+lambda)
	}

	var xty mat.VecDense
	xty.MulVec(X.T(), mat.NewVecDense(len(y), y))

	var w mat.VecDense
	if err := w.SolveVec(&xtx, &xty); err != nil {
		return nil, fmt.Errorf("solve normal equations: %w", err)
	}

	out := make([]float64, n)
	copy(out, w.RawVector().Data)
	return out, nil
}

// Params exports the fitted ensemble for persistence.
type Params struct {
	Members  [][]float64 `json:"members"`
	Features int         `json:"features"`
	Lambda   float64     `json:"lambda"`
	Seed     int64       `json:"seed"`
}

// Params returns the serializable state of a fitted ensemble.
func (e *BaggedRidge) Params() (*Params, error) {
	if len(e.weights) == 0 {
		return nil, domain.ErrEstimatorNotFitted
	}
	return &Params{
		Members:  e.weights,
		Features: e.features,
		Lambda:   e.cfg.Lambda,
		Seed:     e.cfg.Seed,
	}, nil
}

// Restore rebuilds a fitted ensemble from persisted parameters.
func Restore(p *Params) (*BaggedRidge, error) {
	if len(p.Members) == 0 {
		return nil, fmt.Errorf("estimator: no ensemble members in artifact")
	}
	for k, w := range p.Members {
		if len(w) != p.Features+1 {
			return nil, fmt.Errorf("estimator: member %d has %d coefficients, expected %d",
				k, len(w), p.Features+1)
		}
	}
	return &BaggedRidge{
		cfg:      Config{Members: len(p.Members), Lambda: p.Lambda, Seed: p.Seed},
		weights:  p.Members,
		features: p.Features,
	}, nil
}
