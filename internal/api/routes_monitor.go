package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/worldforge-project/worldforge/internal/util"
)

// handleStatus reports the session state and host resource usage.
func (s *Server) handleStatus(c *gin.Context) {
	status := gin.H{
		"session_state": s.session.State().String(),
		"rcon_target":   s.cfg.GetRCON().Host,
	}

	if cpuUsage, err := util.GetCPUUsage(); err == nil {
		status["cpu_percent"] = cpuUsage
	}
	if memUsage, err := util.GetMemoryUsage(); err == nil {
		status["memory"] = memUsage
	}
	if diskUsage, err := util.GetDiskUsage("."); err == nil {
		status["disk"] = diskUsage
	}

	c.JSON(http.StatusOK, status)
}

// handleHistoryRuns returns recent world build runs.
func (s *Server) handleHistoryRuns(c *gin.Context) {
	limit := queryLimit(c, 20)

	runs, err := s.history.RecentRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// handleHistoryStructures returns recent structure build results.
func (s *Server) handleHistoryStructures(c *gin.Context) {
	limit := queryLimit(c, 50)

	records, err := s.history.RecentStructures(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"structures": records})
}

func queryLimit(c *gin.Context, fallback int) int {
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
