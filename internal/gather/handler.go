package gather

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Gatherer *Gatherer
}

func NewHandler(g *Gatherer) *Handler {
	return &Handler{Gatherer: g}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/gather", h.trigger) // POST /api/data/gather
	rg.GET("/status", h.status)   // GET /api/data/status
}

func (h *Handler) trigger(c *gin.Context) {
	snap, accepted := h.Gatherer.Trigger()
	if !accepted {
		c.JSON(http.StatusOK, gin.H{
			"message": "gather already running",
			"job_id":  snap.JobID,
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message": "gather started",
		"job_id":  snap.JobID,
	})
}

func (h *Handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.Gatherer.Status())
}
