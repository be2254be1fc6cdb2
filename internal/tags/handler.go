package tags

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shelfmark/pkg/apperr"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/meta", h.meta) // GET /tags/meta
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/books/:book_id", h.links)
	rg.PUT("/books/:book_id", h.saveLinks)
}

func (h *Handler) meta(c *gin.Context) {
	m, err := h.Repo.LoadMeta(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load meta failed"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) links(c *gin.Context) {
	links, err := h.Repo.GetLinks(c.Request.Context(), c.Param("book_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get links failed"})
		return
	}
	c.JSON(http.StatusOK, links)
}

type saveLinksReq struct {
	ThemeIDs    []int64 `json:"theme_ids"`
	CategoryIDs []int64 `json:"category_ids"`
}

func (h *Handler) saveLinks(c *gin.Context) {
	var req saveLinksReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if err := h.Repo.SaveLinks(c.Request.Context(), c.Param("book_id"), req.ThemeIDs, req.CategoryIDs); err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "saved"})
}
