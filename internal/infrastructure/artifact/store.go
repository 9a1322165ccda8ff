// Package artifact persists and reloads the three co-versioned artifacts a
// served model depends on: estimator weights, encoder mappings and scaler
// statistics. Loading any one without the matching others would silently
// corrupt predictions, so every load cross-checks versions.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/estatelens/backend/internal/domain"
	"github.com/estatelens/backend/internal/infrastructure/estimator"
	"github.com/estatelens/backend/internal/usecase"
)

const (
	manifestFile = "manifest.json"
	modelFile    = "model.json"
	encodersFile = "encoders.json"
	scalerFile   = "scaler.json"
)

// manifest describes one artifact bundle.
type manifest struct {
	Version        string    `json:"version"`
	FeatureColumns []string  `json:"featureColumns"`
	CreatedAt      time.Time `json:"createdAt"`
}

type modelArtifact struct {
	Version string            `json:"version"`
	Params  *estimator.Params `json:"params"`
}

type encodersArtifact struct {
	Version string              `json:"version"`
	Labels  map[string][]string `json:"labels"`
}

type scalerArtifact struct {
	Version string                `json:"version"`
	Params  *usecase.ScalerParams `json:"params"`
}

// Store reads and writes artifact bundles under one directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save writes a complete bundle for one training result. An existing bundle
// at the same path is replaced whole; versions are never mutated in place.
func (s *Store) Save(result *usecase.TrainingResult, est *estimator.BaggedRidge) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("artifact: create dir: %w", err)
	}

	params, err := est.Params()
	if err != nil {
		return fmt.Errorf("artifact: %w", err)
	}

	version := result.Version
	if version == "" {
		version = time.Now().UTC().Format("20060102-150405")
	}

	files := map[string]interface{}{
		manifestFile: manifest{
			Version:        version,
			FeatureColumns: result.FeatureColumns,
			CreatedAt:      time.Now().UTC(),
		},
		modelFile:    modelArtifact{Version: version, Params: params},
		encodersFile: encodersArtifact{Version: version, Labels: result.Encoders.Labels()},
		scalerFile:   scalerArtifact{Version: version, Params: result.Scaler},
	}

	for name, payload := range files {
		if err := s.writeJSON(name, payload); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the bundle and rebuilds the immutable serving state. Every
// artifact must carry the manifest's version.
func (s *Store) Load() (*usecase.ModelState, error) {
	var m manifest
	if err := s.readJSON(manifestFile, &m); err != nil {
		return nil, err
	}

	var model modelArtifact
	if err := s.readJSON(modelFile, &model); err != nil {
		return nil, err
	}
	var encoders encodersArtifact
	if err := s.readJSON(encodersFile, &encoders); err != nil {
		return nil, err
	}
	var scaler scalerArtifact
	if err := s.readJSON(scalerFile, &scaler); err != nil {
		return nil, err
	}

	for name, version := range map[string]string{
		modelFile:    model.Version,
		encodersFile: encoders.Version,
		scalerFile:   scaler.Version,
	} {
		if version != m.Version {
			return nil, fmt.Errorf("%w: %s has version %q, manifest has %q",
				domain.ErrArtifactMismatch, name, version, m.Version)
		}
	}

	est, err := estimator.Restore(model.Params)
	if err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}

	return &usecase.ModelState{
		Estimator:      est,
		Encoders:       usecase.RestoreEncoderSet(encoders.Labels),
		Scaler:         scaler.Params,
		FeatureColumns: m.FeatureColumns,
		Version:        m.Version,
	}, nil
}

func (s *Store) writeJSON(name string, payload interface{}) error {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: marshal %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("artifact: write %s: %w", name, err)
	}
	return nil
}

func (s *Store) readJSON(name string, out interface{}) error {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("artifact: read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("artifact: parse %s: %w", name, err)
	}
	return nil
}
