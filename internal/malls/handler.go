package malls

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/malls", h.list)       // GET /api/malls
	rg.GET("/malls/:id", h.getByID) // GET /api/malls/:id
	rg.GET("/stores", h.listStores) // GET /api/stores
}

func (h *Handler) list(c *gin.Context) {
	malls, err := h.Repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, malls)
}

func (h *Handler) getByID(c *gin.Context) {
	id := c.Param("id")
	m, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "mall not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) listStores(c *gin.Context) {
	stores, err := h.Repo.ListStores(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, stores)
}
