package usecase

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/estatelens/backend/internal/domain"
)

// CleanerConfig fixes the column roles the cleaner operates on. The column
// set is configuration, not inferred from the data.
type CleanerConfig struct {
	DropColumns        []string
	CategoricalColumns []string
	CountColumns       []string
	FeatureColumns     []string
	TargetColumn       string
}

// DefaultCleanerConfig returns the column layout of the scraped listings
// table.
func DefaultCleanerConfig() CleanerConfig {
	return CleanerConfig{
		DropColumns:        domain.DroppedColumns,
		CategoricalColumns: domain.CategoricalColumns,
		CountColumns:       domain.CountColumns,
		FeatureColumns:     domain.FeatureColumns,
		TargetColumn:       domain.TargetColumn,
	}
}

// CleanStats summarizes what one cleaning pass did to the table.
type CleanStats struct {
	InputRows  int
	Duplicates int
	Dropped    int
	OutputRows int
}

// Cleaner turns raw scraped listings into a dense numeric dataset. The same
// transform, driven by the same encoder state, must produce byte-identical
// output on repeated runs; every step below is deterministic.
type Cleaner struct {
	cfg CleanerConfig
}

// NewCleaner creates a cleaner with the given column configuration.
func NewCleaner(cfg CleanerConfig) *Cleaner {
	return &Cleaner{cfg: cfg}
}

// Clean runs the full training-time pipeline and fits the categorical
// encoders on the surviving rows.
//
// Step order is fixed; later steps assume earlier ones completed:
//  1. prune configured columns
//  2. fill missing categoricals with the sentinel label
//  3. fill missing counts with the column mode
//  4. drop exact duplicate rows, keeping the first
//  5. parse price text to rupees
//  6. strip area unit suffixes and parse
//  7. drop rows still holding a missing numeric value
//  8. encode categorical columns
//
// Row-level dirt never raises; only a structurally absent column does.
func (c *Cleaner) Clean(rows []domain.RawRecord) (*domain.Dataset, *EncoderSet, CleanStats, error) {
	stats := CleanStats{InputRows: len(rows)}

	if len(rows) == 0 {
		return nil, nil, stats, domain.ErrEmptyDataset
	}
	if err := c.checkRequiredColumns(rows); err != nil {
		return nil, nil, stats, err
	}

	// Steps 1-3 work on a copy; the caller's records are not mutated.
	work := make([]domain.RawRecord, len(rows))
	for i, row := range rows {
		work[i] = c.pruneColumns(row)
	}
	c.fillCategoricals(work)
	c.fillCounts(work)

	// Step 4: exact-duplicate removal, first occurrence wins, original
	// order otherwise preserved.
	work, dup := c.deduplicate(work)
	stats.Duplicates = dup

	// Steps 5-7: numeric coercion and the single density gate. Any row with
	// an unparseable or still-missing numeric value is filtered here.
	type parsedRow struct {
		rec     domain.RawRecord
		numeric map[string]float64
		target  float64
	}
	var kept []parsedRow
	for _, rec := range work {
		numeric, ok := c.parseNumericColumns(rec)
		if !ok {
			stats.Dropped++
			continue
		}
		rawTarget, _ := rec.Value(c.cfg.TargetColumn)
		target, ok := ParsePrice(rawTarget)
		if !ok {
			stats.Dropped++
			continue
		}
		kept = append(kept, parsedRow{rec: rec, numeric: numeric, target: target})
	}
	if len(kept) == 0 {
		return nil, nil, stats, domain.ErrEmptyDataset
	}

	// Step 8: fit encoders over the surviving rows in first-seen order and
	// encode. Encoded categoricals never trigger the drop above.
	encoders := NewEncoderSet()
	for _, column := range c.cfg.CategoricalColumns {
		values := make([]string, len(kept))
		for i, row := range kept {
			values[i], _ = row.rec.Value(column)
		}
		encoders.Fit(column, values)
	}

	ds := &domain.Dataset{
		Columns: c.cfg.FeatureColumns,
		Rows:    make([][]float64, 0, len(kept)),
		Target:  make([]float64, 0, len(kept)),
	}
	for _, row := range kept {
		features, err := c.assembleRow(row.rec, row.numeric, encoders)
		if err != nil {
			return nil, nil, stats, err
		}
		ds.Rows = append(ds.Rows, features)
		ds.Target = append(ds.Target, row.target)
	}

	stats.OutputRows = ds.NumRows()
	log.Printf("[cleaner] %d rows in, %d duplicates, %d dropped, %d rows out",
		stats.InputRows, stats.Duplicates, stats.Dropped, stats.OutputRows)
	return ds, encoders, stats, nil
}

// TransformRecord replays the cleaning transform on a single record using
// encoders fit at training time, never a fresh fit, since code assignment is
// dataset-dependent. A missing numeric value cannot be filtered away for a
// single record, so it is an invalid-request error here.
func (c *Cleaner) TransformRecord(rec domain.RawRecord, encoders *EncoderSet) ([]float64, error) {
	work := c.pruneColumns(rec)
	for _, column := range c.cfg.CategoricalColumns {
		if _, ok := work.Value(column); !ok {
			work[column] = domain.SentinelLabel
		}
	}

	numeric, ok := c.parseNumericColumns(work)
	if !ok {
		return nil, fmt.Errorf("%w: unparseable numeric field", domain.ErrInvalidRequest)
	}
	return c.assembleRow(work, numeric, encoders)
}

// checkRequiredColumns verifies every column the pipeline reads exists in the
// table header. An entirely absent column is structural, not row dirt.
func (c *Cleaner) checkRequiredColumns(rows []domain.RawRecord) error {
	present := make(map[string]bool)
	for _, row := range rows {
		for column := range row {
			present[column] = true
		}
	}

	required := make([]string, 0, len(c.cfg.FeatureColumns)+1)
	required = append(required, c.cfg.FeatureColumns...)
	required = append(required, c.cfg.TargetColumn)
	for _, column := range required {
		if !present[column] {
			return fmt.Errorf("%w: %q", domain.ErrMissingColumn, column)
		}
	}
	return nil
}

func (c *Cleaner) pruneColumns(rec domain.RawRecord) domain.RawRecord {
	out := make(domain.RawRecord, len(rec))
	for column, value := range rec {
		out[column] = value
	}
	for _, column := range c.cfg.DropColumns {
		delete(out, column)
	}
	return out
}

// fillCategoricals substitutes the sentinel label for missing categorical
// values. This runs before encoding so the sentinel gets a stable code.
func (c *Cleaner) fillCategoricals(rows []domain.RawRecord) {
	for _, rec := range rows {
		for _, column := range c.cfg.CategoricalColumns {
			if _, ok := rec.Value(column); !ok {
				rec[column] = domain.SentinelLabel
			}
		}
	}
}

// fillCounts fills missing count cells with the column mode computed over the
// full table. An empty column has no mode; its cells stay missing and fall to
// the final drop instead of crashing the pass.
func (c *Cleaner) fillCounts(rows []domain.RawRecord) {
	for _, column := range c.cfg.CountColumns {
		mode, ok := columnMode(rows, column)
		if !ok {
			continue
		}
		filled := strconv.FormatFloat(mode, 'f', -1, 64)
		for _, rec := range rows {
			if _, present := rec.Value(column); !present {
				rec[column] = filled
			}
		}
	}
}

// columnMode returns the most frequent parseable value of a column. Ties go
// to the smaller value so the result does not depend on map iteration order.
func columnMode(rows []domain.RawRecord, column string) (float64, bool) {
	counts := make(map[float64]int)
	for _, rec := range rows {
		raw, present := rec.Value(column)
		if !present {
			continue
		}
		if v, ok := ParseCount(raw); ok {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return 0, false
	}

	var mode float64
	best := -1
	for v, n := range counts {
		if n > best || (n == best && v < mode) {
			mode, best = v, n
		}
	}
	return mode, true
}

// deduplicate removes rows whose every column equals an earlier row.
func (c *Cleaner) deduplicate(rows []domain.RawRecord) ([]domain.RawRecord, int) {
	columns := c.rowKeyColumns()
	seen := make(map[string]struct{}, len(rows))
	out := rows[:0]
	removed := 0

	for _, rec := range rows {
		var sb strings.Builder
		for _, column := range columns {
			sb.WriteString(rec[column])
			sb.WriteByte('\x1f')
		}
		key := sb.String()
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out, removed
}

// rowKeyColumns is the fixed column order used to build duplicate keys.
func (c *Cleaner) rowKeyColumns() []string {
	columns := make([]string, 0, len(c.cfg.FeatureColumns)+1)
	columns = append(columns, c.cfg.FeatureColumns...)
	columns = append(columns, c.cfg.TargetColumn)
	return columns
}

// parseNumericColumns coerces every non-categorical feature cell to a float.
// The bool result is false when any value is missing or unparseable.
func (c *Cleaner) parseNumericColumns(rec domain.RawRecord) (map[string]float64, bool) {
	numeric := make(map[string]float64)
	for _, column := range c.cfg.FeatureColumns {
		if c.isCategorical(column) {
			continue
		}
		raw, present := rec.Value(column)
		if !present {
			return nil, false
		}

		var value float64
		var ok bool
		if column == domain.ColCarpetArea {
			value, ok = ParseArea(raw)
		} else {
			value, ok = ParseCount(raw)
		}
		if !ok {
			return nil, false
		}
		numeric[column] = value
	}
	return numeric, true
}

// assembleRow produces the feature vector in the fixed feature column order.
func (c *Cleaner) assembleRow(rec domain.RawRecord, numeric map[string]float64, encoders *EncoderSet) ([]float64, error) {
	features := make([]float64, len(c.cfg.FeatureColumns))
	for i, column := range c.cfg.FeatureColumns {
		if c.isCategorical(column) {
			value, _ := rec.Value(column)
			code, err := encoders.Encode(column, value)
			if err != nil {
				return nil, err
			}
			features[i] = float64(code)
			continue
		}
		features[i] = numeric[column]
	}
	return features, nil
}

func (c *Cleaner) isCategorical(column string) bool {
	for _, cat := range c.cfg.CategoricalColumns {
		if column == cat {
			return true
		}
	}
	return false
}
