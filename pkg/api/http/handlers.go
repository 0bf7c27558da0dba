package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleHello serves the greeting after its artificial delay
func (s *Server) handleHello(c *gin.Context) {
	greeting, err := s.greeter.Greet(c.Request.Context(), c.GetString(requestIDKey))
	if err != nil {
		s.logger.Error("failed to greet", zap.Error(err))
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	c.String(http.StatusOK, greeting.Body)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	stats := s.greeter.Stats()

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": gin.H{
			"greeter": "ok",
		},
		"in_flight": stats.InFlight,
		"served":    stats.Served,
	})
}

// handleActuatorHealth answers in the actuator health shape
func (s *Server) handleActuatorHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
