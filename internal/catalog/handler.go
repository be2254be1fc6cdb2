package catalog

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shelfmark/pkg/apperr"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

// Param is :book_id everywhere so these can share a router tree with
// the copy routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)             // GET /books?q=...&category=...
	rg.GET("/:book_id", h.getByID) // GET /books/:book_id
	rg.GET("/meta/badges", h.badges)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.create)
	rg.PUT("/:book_id", h.update)
	rg.DELETE("/:book_id", h.remove)
}

func (h *Handler) list(c *gin.Context) {
	books, err := h.Repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	// Search and category filtering happen over the loaded list, matching
	// the browse surface: no query pushdown.
	q := c.Query("q")
	category := c.Query("category")
	filtered := FilterBooks(books, q, category)

	c.JSON(http.StatusOK, gin.H{
		"total":      len(filtered),
		"items":      filtered,
		"categories": CategoryOptions(books),
	})
}

func (h *Handler) getByID(c *gin.Context) {
	b, err := h.Repo.GetByID(c.Request.Context(), c.Param("book_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if b == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) badges(c *gin.Context) {
	c.JSON(http.StatusOK, Badges())
}

type createReq struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	b, err := h.Repo.Create(c.Request.Context(), uuid.NewString(), req.Title, req.Author, req.Description)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, b)
}

type updateReq struct {
	Title       *string   `json:"title"`
	Author      *string   `json:"author"`
	Description *string   `json:"description"`
	Subjects    *[]string `json:"subjects"`
	CoverURL    *string   `json:"cover_url"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var subjects *[]string
	if req.Subjects != nil {
		cleaned := dedupeSubjects(*req.Subjects)
		subjects = &cleaned
	}

	err := h.Repo.Update(c.Request.Context(), c.Param("book_id"), BookPatch{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Subjects:    subjects,
		CoverURL:    req.CoverURL,
	})
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}

	b, err := h.Repo.GetByID(c.Request.Context(), c.Param("book_id"))
	if err != nil || b == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch saved failed"})
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Repo.Delete(c.Request.Context(), c.Param("book_id")); err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// dedupeSubjects trims entries and drops case-insensitive duplicates,
// keeping first-seen spelling and order.
func dedupeSubjects(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}
