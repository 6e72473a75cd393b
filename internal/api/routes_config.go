package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/worldforge-project/worldforge/internal/config"
	"github.com/worldforge-project/worldforge/internal/events"
)

// handleGetConfig returns the current configuration. The RCON secret
// is never echoed back.
func (s *Server) handleGetConfig(c *gin.Context) {
	rconCfg := s.cfg.GetRCON()
	rconCfg.Password = ""

	c.JSON(http.StatusOK, gin.H{
		"rcon":     rconCfg,
		"build":    s.cfg.GetBuild(),
		"api_port": s.cfg.APIPort,
	})
}

// handleSetRCON updates the RCON target configuration. The new target
// takes effect on the next connect; an established session keeps its
// current connection until it is torn down.
func (s *Server) handleSetRCON(c *gin.Context) {
	var rconCfg config.RCONConfig
	if err := c.ShouldBindJSON(&rconCfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if rconCfg.Host == "" || rconCfg.Port < 1 || rconCfg.Port > 65535 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rcon host and a valid port are required"})
		return
	}

	s.cfg.SetRCON(rconCfg)

	if err := s.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save config"})
		return
	}

	s.eventBus.Emit(c.Request.Context(), events.Event{
		Type:   events.EventConfigChanged,
		Source: "api",
		Payload: events.ConfigChangedPayload{
			Section: "rcon",
		},
	})

	log.Info().
		Str("host", rconCfg.Host).
		Int("port", rconCfg.Port).
		Msg("API: rcon target updated")

	rconCfg.Password = ""
	c.JSON(http.StatusOK, gin.H{
		"status": "updated",
		"rcon":   rconCfg,
	})
}
