package usecase

import (
	"errors"
	"reflect"
	"testing"

	"github.com/estatelens/backend/internal/domain"
)

// listingRow builds a fully populated raw listing; overrides replace
// individual cells. An override of "" makes that cell missing.
func listingRow(overrides map[string]string) domain.RawRecord {
	base := domain.RawRecord{
		domain.ColIndex:        "0",
		domain.ColTitle:        "2 BHK Apartment",
		domain.ColDescription:  "Spacious flat close to the metro",
		domain.ColAmount:       "95 Lac",
		domain.ColPricePerUnit: "9500",
		domain.ColLocation:     "Mumbai",
		domain.ColCarpetArea:   "1000 sqft",
		domain.ColStatus:       "Ready to Move",
		domain.ColFloor:        "3 out of 10",
		domain.ColTransaction:  "Resale",
		domain.ColFurnishing:   "Semi-Furnished",
		domain.ColFacing:       "East",
		domain.ColOverlooking:  "Garden/Park",
		domain.ColSociety:      "Green Acres",
		domain.ColBathroom:     "2",
		domain.ColBalcony:      "1",
		domain.ColCarParking:   "1 Covered",
		domain.ColOwnership:    "Freehold",
	}
	for column, value := range overrides {
		base[column] = value
	}
	return base
}

func featureIndex(t *testing.T, ds *domain.Dataset, column string) int {
	t.Helper()
	for i, c := range ds.Columns {
		if c == column {
			return i
		}
	}
	t.Fatalf("column %q not in dataset", column)
	return -1
}

func TestCleanFillsMissingCountsAndParsesUnits(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())

	rows := []domain.RawRecord{
		listingRow(map[string]string{domain.ColBathroom: "2", domain.ColBalcony: "1"}),
		listingRow(map[string]string{domain.ColBathroom: "2", domain.ColBalcony: "1", domain.ColLocation: "Pune"}),
		listingRow(map[string]string{domain.ColBathroom: "3", domain.ColBalcony: "2", domain.ColLocation: "Delhi"}),
		listingRow(map[string]string{
			domain.ColBathroom:   "",
			domain.ColBalcony:    "",
			domain.ColAmount:     "1.2 Cr",
			domain.ColCarpetArea: "900 sqft",
			domain.ColLocation:   "X",
		}),
	}

	ds, _, stats, err := c.Clean(rows)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if stats.Dropped != 0 {
		t.Fatalf("Dropped = %d, want 0", stats.Dropped)
	}
	if ds.NumRows() != 4 {
		t.Fatalf("rows = %d, want 4", ds.NumRows())
	}

	// The 1.2 Cr row ends up last (order preserved).
	last := ds.Rows[3]
	if ds.Target[3] != 12_000_000 {
		t.Errorf("target = %v, want 12000000", ds.Target[3])
	}
	if got := last[featureIndex(t, ds, domain.ColCarpetArea)]; got != 900 {
		t.Errorf("carpet area = %v, want 900", got)
	}
	// Missing counts take the column mode computed over the full table.
	if got := last[featureIndex(t, ds, domain.ColBathroom)]; got != 2 {
		t.Errorf("bathroom filled = %v, want mode 2", got)
	}
	if got := last[featureIndex(t, ds, domain.ColBalcony)]; got != 1 {
		t.Errorf("balcony filled = %v, want mode 1", got)
	}
}

func TestCleanCollapsesExactDuplicates(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())

	rows := []domain.RawRecord{
		listingRow(nil),
		listingRow(nil),
		listingRow(map[string]string{domain.ColLocation: "Pune"}),
	}

	ds, _, stats, err := c.Clean(rows)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if stats.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", stats.Duplicates)
	}
	if ds.NumRows() != 2 {
		t.Errorf("rows = %d, want 2", ds.NumRows())
	}
}

func TestCleanFillsMissingCategoricalsWithSentinel(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())

	rows := []domain.RawRecord{
		listingRow(nil),
		listingRow(map[string]string{domain.ColFacing: "", domain.ColLocation: "Pune"}),
	}

	ds, encoders, _, err := c.Clean(rows)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	enc, ok := encoders.Encoding(domain.ColFacing)
	if !ok {
		t.Fatal("facing encoding missing")
	}
	sentinelCode, seen := enc.Encode(domain.SentinelLabel)
	if !seen {
		t.Fatal("sentinel label did not receive a code")
	}
	if got := ds.Rows[1][featureIndex(t, ds, domain.ColFacing)]; got != float64(sentinelCode) {
		t.Errorf("facing code = %v, want sentinel code %d", got, sentinelCode)
	}
}

func TestCleanDropsUnparseableRowsWithoutError(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())

	rows := []domain.RawRecord{
		listingRow(nil),
		listingRow(map[string]string{domain.ColAmount: "Call for Price", domain.ColLocation: "Pune"}),
		listingRow(map[string]string{domain.ColCarpetArea: "900 acres", domain.ColLocation: "Delhi"}),
	}

	ds, _, stats, err := c.Clean(rows)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if stats.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", stats.Dropped)
	}
	if ds.NumRows() != 1 {
		t.Errorf("rows = %d, want 1", ds.NumRows())
	}
}

func TestCleanUndefinedModeDropsInsteadOfCrashing(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())

	// Bathroom missing everywhere: the mode is undefined, so the rows fall
	// through to the final drop and nothing is left.
	rows := []domain.RawRecord{
		listingRow(map[string]string{domain.ColBathroom: ""}),
		listingRow(map[string]string{domain.ColBathroom: "", domain.ColLocation: "Pune"}),
	}

	_, _, _, err := c.Clean(rows)
	if !errors.Is(err, domain.ErrEmptyDataset) {
		t.Errorf("err = %v, want ErrEmptyDataset", err)
	}
}

func TestCleanMissingColumnIsStructuralError(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())

	rows := []domain.RawRecord{listingRow(nil)}
	for _, rec := range rows {
		delete(rec, domain.ColStatus)
	}

	_, _, _, err := c.Clean(rows)
	if !errors.Is(err, domain.ErrMissingColumn) {
		t.Errorf("err = %v, want ErrMissingColumn", err)
	}
}

func TestCleanAlreadyCleanInputDropsNothing(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())

	rows := []domain.RawRecord{
		listingRow(map[string]string{domain.ColAmount: "9500000", domain.ColCarpetArea: "1000"}),
		listingRow(map[string]string{domain.ColAmount: "7200000", domain.ColCarpetArea: "850", domain.ColLocation: "Pune"}),
	}

	ds, _, stats, err := c.Clean(rows)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if stats.Dropped != 0 || stats.Duplicates != 0 {
		t.Errorf("stats = %+v, want no drops and no duplicates", stats)
	}
	if ds.NumRows() != 2 {
		t.Errorf("rows = %d, want 2", ds.NumRows())
	}
}

func TestCleanIsDeterministic(t *testing.T) {
	rows := []domain.RawRecord{
		listingRow(nil),
		listingRow(map[string]string{domain.ColLocation: "Pune", domain.ColAmount: "1.1 Cr"}),
		listingRow(map[string]string{domain.ColLocation: "Delhi", domain.ColFacing: ""}),
	}

	first, firstEnc, _, err := NewCleaner(DefaultCleanerConfig()).Clean(rows)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	second, secondEnc, _, err := NewCleaner(DefaultCleanerConfig()).Clean(rows)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("repeated cleaning produced different datasets")
	}
	if !reflect.DeepEqual(firstEnc.Labels(), secondEnc.Labels()) {
		t.Error("repeated cleaning produced different encoder labels")
	}
}

func TestTransformRecordMatchesTrainingTransform(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())

	rows := []domain.RawRecord{
		listingRow(nil),
		listingRow(map[string]string{domain.ColLocation: "Pune"}),
	}

	ds, encoders, _, err := c.Clean(rows)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	features, err := c.TransformRecord(listingRow(nil), encoders)
	if err != nil {
		t.Fatalf("TransformRecord: %v", err)
	}
	if !reflect.DeepEqual(features, ds.Rows[0]) {
		t.Errorf("inference transform = %v, training row = %v", features, ds.Rows[0])
	}
}

func TestTransformRecordRejectsUnparseableNumeric(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())
	_, encoders, _, err := c.Clean([]domain.RawRecord{listingRow(nil)})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	bad := listingRow(map[string]string{domain.ColCarpetArea: "nine hundred"})
	if _, err := c.TransformRecord(bad, encoders); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	c := NewCleaner(DefaultCleanerConfig())

	rec := listingRow(map[string]string{domain.ColFacing: ""})
	before := make(domain.RawRecord, len(rec))
	for k, v := range rec {
		before[k] = v
	}

	if _, _, _, err := c.Clean([]domain.RawRecord{rec, listingRow(nil)}); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if !reflect.DeepEqual(rec, before) {
		t.Error("Clean mutated the caller's records")
	}
}
