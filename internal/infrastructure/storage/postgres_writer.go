package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/estatelens/backend/internal/domain"
)

// PostgresWriter persists cleaned listings to PostgreSQL so downstream
// analysis can query them without re-running the pipeline.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection, runs the schema migration, and
// returns a ready-to-use writer.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS clean_listings (
			id             SERIAL PRIMARY KEY,
			title_code     INT     NOT NULL,
			bathroom       NUMERIC NOT NULL,
			carpet_area    NUMERIC NOT NULL,
			location_code  INT     NOT NULL,
			transaction_code INT   NOT NULL,
			furnishing_code  INT   NOT NULL,
			balcony        NUMERIC NOT NULL,
			facing_code    INT     NOT NULL,
			price_per_unit NUMERIC NOT NULL,
			status_code    INT     NOT NULL,
			society_code   INT     NOT NULL,
			floor_code     INT     NOT NULL,
			amount         NUMERIC NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_clean_listings_amount   ON clean_listings(amount);
		CREATE INDEX IF NOT EXISTS idx_clean_listings_location ON clean_listings(location_code);
	`)
	return err
}

// Clear deletes all previously exported rows.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM clean_listings")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write replaces the stored export with the given dataset, batch-inserting
// rows. Column order must match domain.FeatureColumns.
func (pw *PostgresWriter) Write(ds *domain.Dataset) error {
	if ds.NumRows() == 0 {
		return nil
	}
	if len(ds.Columns) != 12 {
		return fmt.Errorf("postgres: expected 12 feature columns, got %d", len(ds.Columns))
	}
	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < ds.NumRows(); i += batchSize {
		end := i + batchSize
		if end > ds.NumRows() {
			end = ds.NumRows()
		}
		if err := pw.insertBatch(ds, i, end); err != nil {
			return err
		}
	}
	return nil
}

const columnsPerRow = 13 // 12 features + target

func (pw *PostgresWriter) insertBatch(ds *domain.Dataset, start, end int) error {
	valueStrings := make([]string, 0, end-start)
	valueArgs := make([]interface{}, 0, (end-start)*columnsPerRow)

	for idx := start; idx < end; idx++ {
		base := (idx - start) * columnsPerRow
		placeholders := make([]string, columnsPerRow)
		for p := range placeholders {
			placeholders[p] = fmt.Sprintf("$%d", base+p+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		for _, v := range ds.Rows[idx] {
			valueArgs = append(valueArgs, v)
		}
		valueArgs = append(valueArgs, ds.Target[idx])
	}

	query := fmt.Sprintf(`
		INSERT INTO clean_listings (
			title_code, bathroom, carpet_area, location_code, transaction_code,
			furnishing_code, balcony, facing_code, price_per_unit,
			status_code, society_code, floor_code, amount
		) VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

// Close closes the database connection.
func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
