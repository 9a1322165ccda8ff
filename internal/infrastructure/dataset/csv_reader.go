// Package dataset reads raw listing tables from delimited text files.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/estatelens/backend/internal/domain"
)

// ReadCSV loads a header-mapped CSV file into raw records. Empty cells stay
// empty strings; the cleaner treats those as missing. Ragged rows are
// tolerated (short rows leave trailing columns missing) because scraped
// exports are rarely rectangular.
func ReadCSV(path string) ([]domain.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	return readRecords(f)
}

func readRecords(r io.Reader) ([]domain.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("dataset: %w", domain.ErrEmptyDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}

	var rows []domain.RawRecord
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read row %d: %w", len(rows)+2, err)
		}

		rec := make(domain.RawRecord, len(header))
		for i, column := range header {
			if i < len(cells) {
				rec[column] = cells[i]
			} else {
				rec[column] = ""
			}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
