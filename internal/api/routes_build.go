package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/worldforge-project/worldforge/internal/builder"
)

type worldRequest struct {
	Structures []builder.Structure `json:"structures" binding:"required"`
}

// handleBuildStructure builds a single structure and returns its result.
func (s *Server) handleBuildStructure(c *gin.Context) {
	var structure builder.Structure
	if err := c.ShouldBindJSON(&structure); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid structure payload"})
		return
	}
	if len(structure.Commands) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "structure has no commands"})
		return
	}

	log.Info().
		Str("structure", structure.Name).
		Int("commands", len(structure.Commands)).
		Msg("API: structure build requested")

	result := s.builder.BuildStructure(c.Request.Context(), structure)

	c.JSON(http.StatusOK, result)
}

// handleBuildWorld builds every structure in order and returns the
// aggregate report. Failed structures do not stop the run.
func (s *Server) handleBuildWorld(c *gin.Context) {
	var req worldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid world payload"})
		return
	}
	if len(req.Structures) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "world has no structures"})
		return
	}

	log.Info().
		Int("structures", len(req.Structures)).
		Msg("API: world build requested")

	report := s.builder.BuildWorld(c.Request.Context(), req.Structures)

	c.JSON(http.StatusOK, report)
}
