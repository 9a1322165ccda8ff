package main

import (
	"fmt"
	"log"
	"os"

	"github.com/estatelens/backend/config"
	httpDelivery "github.com/estatelens/backend/internal/delivery/http"
	"github.com/estatelens/backend/internal/infrastructure/artifact"
	"github.com/estatelens/backend/internal/infrastructure/cache"
	"github.com/estatelens/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting EstateLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Artifact dir: %s", cfg.Model.ArtifactDir)

	// Load the artifact bundle before serving anything. All requests read
	// this state; it is immutable once the router starts.
	store := artifact.NewStore(cfg.Model.ArtifactDir)
	state, err := store.Load()
	if err != nil {
		log.Fatalf("Failed to load model artifacts: %v (run cmd/train first)", err)
	}
	log.Printf("Model version %s loaded (%d feature columns)",
		state.Version, len(state.FeatureColumns))

	predictionCache := cache.NewMemoryCache()
	log.Printf("Prediction cache TTL: %s", cfg.Cache.TTL)

	cleaner := usecase.NewCleaner(usecase.DefaultCleanerConfig())
	predictions, err := usecase.NewPredictionService(state, cleaner, predictionCache,
		usecase.PredictionServiceConfig{CacheTTL: cfg.Cache.TTL})
	if err != nil {
		log.Fatalf("Failed to initialize prediction service: %v", err)
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(predictions)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
