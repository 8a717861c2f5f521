package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ConnectionCounter interface {
	Len() int
}

// Health reports liveness and the number of open connections.
func Health(counter ConnectionCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": counter.Len()})
	}
}
