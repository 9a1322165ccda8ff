package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/estatelens/backend/internal/domain"
	"github.com/estatelens/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	predictions *usecase.PredictionService
}

// NewHandler creates a new HTTP handler
func NewHandler(predictions *usecase.PredictionService) *Handler {
	return &Handler{predictions: predictions}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	modelVersion := ""
	if h.predictions != nil {
		modelVersion = h.predictions.Version()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"service":      "estatelens-backend",
		"version":      "1.0.0",
		"modelLoaded":  h.predictions != nil,
		"modelVersion": modelVersion,
	})
}

// Predict handles price prediction requests. Structural errors become JSON
// error responses; the process never crashes on a bad request.
func (h *Handler) Predict(c *gin.Context) {
	if h.predictions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": domain.ErrModelNotLoaded.Error(),
		})
		return
	}

	var request domain.PredictionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   domain.ErrInvalidRequest.Error(),
			"details": err.Error(),
		})
		return
	}

	response, err := h.predictions.Predict(c.Request.Context(), &request)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			log.Printf("[http] prediction failed: %v", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrModelNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrFeatureMismatch),
		errors.Is(err, domain.ErrArtifactMismatch),
		errors.Is(err, domain.ErrEncoderNotFitted),
		errors.Is(err, domain.ErrEstimatorNotFitted):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
