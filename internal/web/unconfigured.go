package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"compliance-analyzer/internal/shared/server/respond"
)

// Unconfigured answers every request with the configuration error alone.
// API paths get the standard JSON error body.
func Unconfigured(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			respond.Error(c, http.StatusServiceUnavailable, "not_configured", message, nil)
			return
		}
		renderPage(c, http.StatusServiceUnavailable, pageData{ConfigError: message})
	}
}
