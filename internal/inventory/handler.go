package inventory

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"shelfmark/pkg/apperr"
	"shelfmark/pkg/models"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

// Public route: students see copy codes and status, but no borrower info.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/books/:book_id/copies", h.listPublic)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/books/:book_id/copies", h.listAdmin)
	rg.POST("/books/:book_id/copies", h.add)
	rg.DELETE("/copies/:copy_id", h.remove)
}

func (h *Handler) listPublic(c *gin.Context) {
	h.list(c, false)
}

func (h *Handler) listAdmin(c *gin.Context) {
	h.list(c, true)
}

func (h *Handler) list(c *gin.Context, withLoans bool) {
	copies, err := h.Repo.ListCopies(c.Request.Context(), c.Param("book_id"), withLoans)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list copies failed"})
		return
	}

	available := 0
	checkedOut := 0
	for _, cp := range copies {
		switch cp.Status {
		case models.CopyAvailable:
			available++
		case models.CopyCheckedOut:
			checkedOut++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total":       len(copies),
		"available":   available,
		"checked_out": checkedOut,
		"items":       copies,
	})
}

type addReq struct {
	Count int `json:"count"`
}

func (h *Handler) add(c *gin.Context) {
	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	// The form clamps rather than rejects; mirror that here.
	count := ClampAddCount(req.Count)

	copies, err := h.Repo.AddCopies(c.Request.Context(), c.Param("book_id"), count)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"added": len(copies), "items": copies})
}

func (h *Handler) remove(c *gin.Context) {
	copyID := strings.TrimSpace(c.Param("copy_id"))
	if copyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "copy_id required"})
		return
	}

	// Destructive: the client shows a confirm step and then sets this.
	if ok, _ := strconv.ParseBool(c.Query("confirm")); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confirm=true required"})
		return
	}

	if err := h.Repo.RemoveCopy(c.Request.Context(), copyID); err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "removed"})
}
