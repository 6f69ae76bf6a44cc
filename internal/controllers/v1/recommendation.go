// Package v1 implements the v1 API endpoints.
package v1

import (
	"errors"
	"net/http"

	"github.com/geldwijs/backend/internal/engine"
	"github.com/geldwijs/backend/internal/lease"
	"github.com/geldwijs/backend/internal/recovery"
	"github.com/gin-gonic/gin"
)

// httpError is the error body for all v1 endpoints.
type httpError struct {
	Error string `json:"error"`
}

// RegisterRecommendationRoutes registers the recommendation endpoints.
func RegisterRecommendationRoutes(r *gin.RouterGroup, e *engine.Engine) {
	r.OPTIONS("", OptionsRecommendations)
	r.POST("", GenerateRecommendations(e))
}

// OptionsRecommendations returns the allowed HTTP verbs.
func OptionsRecommendations(c *gin.Context) {
	c.Header("allow", "OPTIONS, POST")
	c.Status(http.StatusNoContent)
}

// GenerateRecommendations runs the recommendation engine for the user
// in the request body.
func GenerateRecommendations(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request engine.Request
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
			return
		}

		response, err := e.GenerateRecommendations(c.Request.Context(), request)
		if err != nil {
			c.JSON(status(err), httpError{Error: err.Error()})
			return
		}

		c.JSON(http.StatusOK, response)
	}
}

// status maps engine errors to HTTP status codes. The engine degrades
// internally, so everything reaching this point is a boundary failure.
func status(err error) int {
	if errors.Is(err, lease.ErrBusy) {
		return http.StatusConflict
	}

	switch recovery.Classify(err) {
	case recovery.ClassValidation:
		return http.StatusBadRequest
	case recovery.ClassBusiness:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
