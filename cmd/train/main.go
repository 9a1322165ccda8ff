package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/estatelens/backend/config"
	"github.com/estatelens/backend/internal/domain"
	"github.com/estatelens/backend/internal/infrastructure/artifact"
	"github.com/estatelens/backend/internal/infrastructure/dataset"
	"github.com/estatelens/backend/internal/infrastructure/estimator"
	"github.com/estatelens/backend/internal/infrastructure/storage"
	"github.com/estatelens/backend/internal/infrastructure/tracking"
	"github.com/estatelens/backend/internal/usecase"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("=== EstateLens training pipeline starting ===")
	log.Printf("Dataset: %s | test fraction: %.2f | seed: %d",
		cfg.Dataset.CSVPath, cfg.Dataset.TestFraction, cfg.Dataset.Seed)

	rows, err := dataset.ReadCSV(cfg.Dataset.CSVPath)
	if err != nil {
		log.Fatalf("Failed to read dataset: %v", err)
	}
	log.Printf("Loaded %d raw rows", len(rows))

	tracker, err := tracking.NewJSONLTracker(cfg.Tracking.RunsPath)
	if err != nil {
		log.Printf("WARN run tracking disabled: %v", err)
		tracker = nil
	}

	est := estimator.New(estimator.Config{
		Members: cfg.Model.Members,
		Lambda:  cfg.Model.Lambda,
		Seed:    cfg.Model.Seed,
	})

	cleaner := usecase.NewCleaner(usecase.DefaultCleanerConfig())
	training := newTrainingService(cleaner, est, tracker, cfg)

	result, err := training.Train(rows)
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}

	store := artifact.NewStore(cfg.Model.ArtifactDir)
	if err := store.Save(result, est); err != nil {
		log.Fatalf("Failed to save artifacts: %v", err)
	}
	log.Printf("Artifacts saved to %s", cfg.Model.ArtifactDir)

	exportDataset(cfg, result.Dataset)

	log.Printf("=== Training complete: %d rows, r2=%.4f ===",
		result.Dataset.NumRows(), result.Metrics.R2)
}

func newTrainingService(cleaner *usecase.Cleaner, est domain.Estimator, tracker *tracking.JSONLTracker, cfg *config.Config) *usecase.TrainingService {
	// A nil *JSONLTracker must become a nil interface, or the service would
	// call LogRun on it.
	var sink domain.RunTracker
	if tracker != nil {
		sink = tracker
	}
	return usecase.NewTrainingService(cleaner, est, sink, usecase.TrainingConfig{
		TestFraction: cfg.Dataset.TestFraction,
		Seed:         cfg.Dataset.Seed,
		Version:      cfg.Model.Version,
	})
}

// exportDataset writes the cleaned table to the configured storage backends.
// Export failures are logged, not fatal; the artifacts are already saved.
func exportDataset(cfg *config.Config, ds *domain.Dataset) {
	if cfg.Storage.ExportCSVPath != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.Storage.ExportCSVPath)
		if err != nil {
			log.Printf("WARN CSV export skipped: %v", err)
		} else {
			defer csvWriter.Close()
			if err := csvWriter.Write(ds); err != nil {
				log.Printf("WARN CSV export failed: %v", err)
			} else {
				log.Printf("Cleaned dataset exported to %s", cfg.Storage.ExportCSVPath)
			}
		}
	}

	if cfg.Storage.ExportToDB {
		pgWriter, err := storage.NewPostgresWriter(cfg.Storage.PostgresDSN)
		if err != nil {
			log.Printf("WARN Postgres export skipped: %v", err)
			return
		}
		defer pgWriter.Close()
		if err := pgWriter.Write(ds); err != nil {
			log.Printf("WARN Postgres export failed: %v", err)
		} else {
			log.Printf("Cleaned dataset exported to Postgres")
		}
	}
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime)
	log.SetOutput(os.Stdout)
}
