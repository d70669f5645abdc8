package search

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Repo   *Repo
	Remote RemoteMatcher
}

// NewHandler builds the search handler. remote may be nil, in which
// case matching is exact-normalized only.
func NewHandler(repo *Repo, remote RemoteMatcher) *Handler {
	return &Handler{Repo: repo, Remote: remote}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/search", h.search) // POST /api/search
}

type searchRequest struct {
	Stores []string `json:"stores"`
}

type searchResponse struct {
	Results         []MallResult `json:"results"`
	UnmatchedStores []string     `json:"unmatched_stores"`
}

func (h *Handler) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Stores) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide at least one store name"})
		return
	}

	ctx := c.Request.Context()

	catalog, err := h.Repo.AllStores(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog load failed"})
		return
	}

	matches := Resolve(ctx, req.Stores, catalog, h.Remote)

	unmatched := []string{}
	var matchedIDs []string
	for _, m := range matches {
		if m.Found {
			matchedIDs = append(matchedIDs, m.MatchedID)
		} else {
			unmatched = append(unmatched, m.Requested)
		}
	}

	if len(matchedIDs) == 0 {
		c.JSON(http.StatusOK, searchResponse{Results: []MallResult{}, UnmatchedStores: unmatched})
		return
	}

	links, err := h.Repo.LinksForStores(ctx, matchedIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "link query failed"})
		return
	}

	mallIDs := make([]string, 0, len(links))
	seen := make(map[string]bool)
	for _, l := range links {
		if !seen[l.MallID] {
			seen[l.MallID] = true
			mallIDs = append(mallIDs, l.MallID)
		}
	}

	malls, err := h.Repo.MallsByID(ctx, mallIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mall query failed"})
		return
	}

	results := Rank(malls, links, matches, len(req.Stores))
	c.JSON(http.StatusOK, searchResponse{Results: results, UnmatchedStores: unmatched})
}
