package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/worldforge-project/worldforge/internal/rcon"
)

type commandRequest struct {
	Command string `json:"command" binding:"required"`
}

type batchItem struct {
	Text     string `json:"text" binding:"required"`
	DelayMs  int    `json:"delay_ms"`
	Optional bool   `json:"optional"`
}

type batchRequest struct {
	Commands []batchItem `json:"commands" binding:"required"`
}

// handleCommand executes a single command on the game server.
func (s *Server) handleCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "command is required"})
		return
	}

	response, err := s.executor.ExecuteOne(c.Request.Context(), req.Command)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, rcon.ErrAuthentication) {
			status = http.StatusUnauthorized
		}
		log.Error().Err(err).Str("command", req.Command).Msg("API: command failed")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response": response,
	})
}

// handleCommandBatch executes an ordered batch of commands.
func (s *Server) handleCommandBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "commands are required"})
		return
	}

	items := make([]rcon.Command, len(req.Commands))
	for i, item := range req.Commands {
		items[i] = rcon.Command{
			Text:        item.Text,
			DelayBefore: time.Duration(item.DelayMs) * time.Millisecond,
			Optional:    item.Optional,
		}
	}

	result, err := s.executor.ExecuteBatch(c.Request.Context(), items)
	if err != nil {
		if errors.Is(err, rcon.ErrBatchTooLarge) || errors.Is(err, rcon.ErrEmptyBatch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Int("commands", len(items)).Msg("API: batch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"executed": len(result.Results),
		"results":  result.Results,
		"errors":   result.Errors,
	})
}
