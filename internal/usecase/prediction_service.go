package usecase

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/estatelens/backend/internal/domain"
)

// Package-level compiled regex patterns for cache key normalization
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

// ModelState is the immutable serving state loaded from one artifact bundle:
// fitted estimator, encoder mappings, scaler statistics and the feature
// column order the estimator was trained on. It is fully constructed before
// the first request is dispatched and never mutated afterwards, so concurrent
// reads need no locking.
type ModelState struct {
	Estimator      domain.Estimator
	Encoders       *EncoderSet
	Scaler         *ScalerParams
	FeatureColumns []string
	Version        string
}

// PredictionServiceConfig holds configuration for the prediction service.
type PredictionServiceConfig struct {
	CacheTTL time.Duration
}

// PredictionService serves price predictions against one loaded model
// version.
type PredictionService struct {
	state    *ModelState
	cleaner  *Cleaner
	cache    domain.CacheRepository
	cacheTTL time.Duration
}

// NewPredictionService wires the serving state. The adapter's produced
// columns and the estimator's expected columns are checked here, once, at the
// load barrier; a disagreement is a structural error, not a per-request
// surprise.
func NewPredictionService(state *ModelState, cleaner *Cleaner, cache domain.CacheRepository, cfg PredictionServiceConfig) (*PredictionService, error) {
	if state == nil || state.Estimator == nil || state.Encoders == nil || state.Scaler == nil {
		return nil, fmt.Errorf("%w: incomplete model state", domain.ErrArtifactMismatch)
	}
	if !equalColumns(cleaner.cfg.FeatureColumns, state.FeatureColumns) {
		return nil, fmt.Errorf("%w: adapter produces %v, model expects %v",
			domain.ErrFeatureMismatch, cleaner.cfg.FeatureColumns, state.FeatureColumns)
	}
	if len(state.Scaler.Mean) != len(state.FeatureColumns) {
		return nil, fmt.Errorf("%w: scaler fitted on %d columns, model expects %d",
			domain.ErrArtifactMismatch, len(state.Scaler.Mean), len(state.FeatureColumns))
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	return &PredictionService{
		state:    state,
		cleaner:  cleaner,
		cache:    cache,
		cacheTTL: cacheTTL,
	}, nil
}

// Version returns the loaded model version.
func (s *PredictionService) Version() string {
	return s.state.Version
}

// Predict prepares one raw listing through the persisted encoders and scaler
// and returns the estimator's price with an ensemble-spread confidence.
// Flow: check cache -> encode + scale -> predict -> cache -> return
func (s *PredictionService) Predict(ctx context.Context, request *domain.PredictionRequest) (*domain.PredictionResponse, error) {
	if request == nil || request.Title == "" || request.Location == "" {
		return nil, domain.ErrInvalidRequest
	}

	cacheKey := s.generateCacheKey(request)

	if cached := s.getFromCache(ctx, cacheKey); cached != nil {
		cached.Source = "Cache"
		return cached, nil
	}

	features, err := s.cleaner.TransformRecord(requestToRecord(request), s.state.Encoders)
	if err != nil {
		return nil, err
	}

	scaled, err := s.state.Scaler.TransformRow(features)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrArtifactMismatch, err)
	}

	price, confidence, err := s.state.Estimator.Predict(scaled)
	if err != nil {
		return nil, err
	}

	response := &domain.PredictionResponse{
		PredictedPrice: price,
		Confidence:     confidence,
		Status:         "success",
		Source:         "Model",
	}

	if err := s.setInCache(ctx, cacheKey, response); err != nil {
		log.Printf("[predict] WARN cache write failed: %v", err)
	}

	return response, nil
}

// requestToRecord maps the typed request onto raw column names so the same
// transform path serves training tables and single requests.
func requestToRecord(r *domain.PredictionRequest) domain.RawRecord {
	return domain.RawRecord{
		domain.ColTitle:        r.Title,
		domain.ColBathroom:     formatNumber(r.Bathroom),
		domain.ColCarpetArea:   formatNumber(r.CarpetArea),
		domain.ColLocation:     r.Location,
		domain.ColTransaction:  r.Transaction,
		domain.ColFurnishing:   r.Furnishing,
		domain.ColBalcony:      formatNumber(r.Balcony),
		domain.ColFacing:       r.Facing,
		domain.ColPricePerUnit: formatNumber(r.PricePerUnit),
		domain.ColStatus:       r.Status,
		domain.ColSociety:      r.Society,
		domain.ColFloor:        r.Floor,
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// generateCacheKey creates a normalized cache key from the request fields.
func (s *PredictionService) generateCacheKey(r *domain.PredictionRequest) string {
	parts := []string{
		normalizeForCacheKey(r.Title),
		normalizeForCacheKey(r.Location),
		normalizeForCacheKey(r.Transaction),
		normalizeForCacheKey(r.Furnishing),
		normalizeForCacheKey(r.Facing),
		normalizeForCacheKey(r.Status),
		normalizeForCacheKey(r.Society),
		normalizeForCacheKey(r.Floor),
		formatNumber(r.Bathroom),
		formatNumber(r.Balcony),
		formatNumber(r.CarpetArea),
		formatNumber(r.PricePerUnit),
	}
	return fmt.Sprintf("predict:%s:%s", s.state.Version, strings.Join(parts, ":"))
}

// normalizeForCacheKey normalizes a string for use as cache key component.
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// getFromCache retrieves a prediction from cache, tolerating the JSON
// round-trip the cache applies to stored values.
func (s *PredictionService) getFromCache(ctx context.Context, key string) *domain.PredictionResponse {
	if s.cache == nil {
		return nil
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil
	}

	if response, ok := value.(*domain.PredictionResponse); ok {
		return response
	}
	if dataMap, ok := value.(map[string]interface{}); ok {
		return mapToPredictionResponse(dataMap)
	}
	return nil
}

func (s *PredictionService) setInCache(ctx context.Context, key string, response *domain.PredictionResponse) error {
	if s.cache == nil {
		return nil
	}
	response.CachedAt = time.Now()
	return s.cache.Set(ctx, key, response, s.cacheTTL)
}

// mapToPredictionResponse converts a map (from JSON cache) to a response.
func mapToPredictionResponse(data map[string]interface{}) *domain.PredictionResponse {
	result := &domain.PredictionResponse{}
	if v, ok := data["predictedPrice"].(float64); ok {
		result.PredictedPrice = v
	}
	if v, ok := data["confidence"].(float64); ok {
		result.Confidence = v
	}
	if v, ok := data["status"].(string); ok {
		result.Status = v
	}
	if v, ok := data["source"].(string); ok {
		result.Source = v
	}
	return result
}

func equalColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
