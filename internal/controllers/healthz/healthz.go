// Package healthz implements the health check endpoint.
package healthz

import (
	"net/http"

	"github.com/geldwijs/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the health check endpoint.
func RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", Get)
	r.OPTIONS("", Options)
}

// Get returns 204 when the backend is healthy, 500 otherwise.
func Get(c *gin.Context) {
	sqlDB, err := models.DB.DB()
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusNoContent)
}

// Options returns the allowed HTTP verbs.
func Options(c *gin.Context) {
	c.Header("allow", "OPTIONS, GET")
	c.Status(http.StatusNoContent)
}
