package domain

import "time"

// Column names as they appear in the scraped listings CSV.
const (
	ColIndex        = "Index"
	ColTitle        = "Title"
	ColDescription  = "Description"
	ColAmount       = "Amount(in rupees)"
	ColPricePerUnit = "Price (in rupees)"
	ColLocation     = "location"
	ColCarpetArea   = "Carpet Area"
	ColStatus       = "Status"
	ColFloor        = "Floor"
	ColTransaction  = "Transaction"
	ColFurnishing   = "Furnishing"
	ColFacing       = "facing"
	ColOverlooking  = "overlooking"
	ColSociety      = "Society"
	ColBathroom     = "Bathroom"
	ColBalcony      = "Balcony"
	ColCarParking   = "Car Parking"
	ColOwnership    = "Ownership"
	ColSuperArea    = "Super Area"
	ColDimensions   = "Dimensions"
	ColPlotArea     = "Plot Area"
)

// SentinelLabel replaces missing categorical values before encoding so that
// "missing" itself gets a stable code.
const SentinelLabel = "Unknown"

// DroppedColumns carry no predictive signal or duplicate other columns; the
// cleaner removes them before any other step.
var DroppedColumns = []string{
	ColIndex, ColDescription, ColOwnership, ColOverlooking,
	ColCarParking, ColDimensions, ColPlotArea, ColSuperArea,
}

// CategoricalColumns are text-label columns encoded to integer codes.
var CategoricalColumns = []string{
	ColTitle, ColLocation, ColTransaction, ColFurnishing,
	ColFacing, ColStatus, ColFloor, ColSociety,
}

// CountColumns are plain numeric counts; missing values are filled with the
// column mode at cleaning time.
var CountColumns = []string{ColBathroom, ColBalcony}

// FeatureColumns is the exact ordered feature set the estimator is trained on.
// Code assignment and scaling are positional, so this order is part of the
// model contract and is persisted alongside the artifacts.
var FeatureColumns = []string{
	ColTitle, ColBathroom, ColCarpetArea, ColLocation, ColTransaction,
	ColFurnishing, ColBalcony, ColFacing, ColPricePerUnit,
	ColStatus, ColSociety, ColFloor,
}

// TargetColumn is the sale price in rupees, parsed from free text ("1.2 Cr").
const TargetColumn = ColAmount

// RawRecord is one scraped listing row keyed by column name. An absent key or
// empty string both mean "missing".
type RawRecord map[string]string

// Value returns the trimmed cell value and whether it is present.
func (r RawRecord) Value(column string) (string, bool) {
	v, ok := r[column]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Dataset is the dense numeric table produced by the cleaner: one row per
// surviving listing, columns in a fixed order, target aligned by row index.
type Dataset struct {
	Columns []string
	Rows    [][]float64
	Target  []float64
}

// NumRows returns the number of rows in the dataset.
func (d *Dataset) NumRows() int {
	return len(d.Rows)
}

// PredictionRequest carries one raw listing for price prediction.
type PredictionRequest struct {
	Title        string  `json:"title" binding:"required"`
	Bathroom     float64 `json:"bathroom" binding:"min=0"`
	CarpetArea   float64 `json:"carpetArea" binding:"min=0"`
	Location     string  `json:"location" binding:"required"`
	Transaction  string  `json:"transaction"`
	Furnishing   string  `json:"furnishing"`
	Balcony      float64 `json:"balcony" binding:"min=0"`
	Facing       string  `json:"facing"`
	PricePerUnit float64 `json:"pricePerUnit" binding:"min=0"`
	Status       string  `json:"status"`
	Society      string  `json:"society"`
	Floor        string  `json:"floor"`
}

// PredictionResponse is the served prediction. Confidence is derived from the
// spread of the ensemble members, in (0, 1].
type PredictionResponse struct {
	PredictedPrice float64   `json:"predictedPrice"`
	Confidence     float64   `json:"confidence"`
	Status         string    `json:"status"`
	Source         string    `json:"source"` // "Model" or "Cache"
	CachedAt       time.Time `json:"cachedAt,omitempty"`
}

// TrainingRun records the parameters and held-out metrics of one training run
// for the experiment-tracking sink.
type TrainingRun struct {
	Version   string             `json:"version"`
	Params    map[string]float64 `json:"params"`
	Metrics   Metrics            `json:"metrics"`
	Rows      int                `json:"rows"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Metrics are the regression accuracy metrics computed on the test split.
type Metrics struct {
	R2   float64 `json:"r2"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
}
