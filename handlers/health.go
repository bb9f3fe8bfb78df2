package handlers

import (
	"net/http"

	"bloodlink/ws"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	gw *ws.Gateway
}

func NewHealthHandler(gw *ws.Gateway) *HealthHandler {
	return &HealthHandler{gw: gw}
}

// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"online": h.gw.OnlineCount(),
	})
}
