package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is the application version, overridable at build time with
// -ldflags "-X .../internal/api.Version=x.y.z".
var Version = "1.0.0"

// handlePing is a simple health check.
func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleVersion returns the application version.
func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": Version})
}
