package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-mcpdir/internal/listings"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	ServersCount int    `json:"servers_count"`
}

// healthHandler always answers 200; the count is re-read from disk on
// every call and is 0 when the file cannot be loaded.
func (s *WebServer) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		ServersCount: listings.Count(s.Config.DataFile, s.Log),
	})
}
