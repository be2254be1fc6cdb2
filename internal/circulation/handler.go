package circulation

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"shelfmark/pkg/apperr"
	"shelfmark/pkg/models"
)

// CopyLister is the slice of the inventory surface the detail-view
// session endpoints need.
type CopyLister interface {
	ListCopies(ctx context.Context, bookID string, withLoans bool) ([]models.CopyWithLoan, error)
}

type Handler struct {
	Service  *Service
	Sessions *Sessions
	Copies   CopyLister
}

func NewHandler(svc *Service, sessions *Sessions, copies CopyLister) *Handler {
	return &Handler{Service: svc, Sessions: sessions, Copies: copies}
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/active", h.listActive)
	rg.POST("/checkout", h.checkout)
	rg.POST("/checkin", h.checkin)
	rg.POST("/books/:book_id/quick-checkin", h.quickCheckin)
	rg.POST("/sessions", h.openSession)
	rg.GET("/sessions/:id/copies", h.sessionCopies)
	rg.DELETE("/sessions/:id", h.closeSession)
}

func (h *Handler) listActive(c *gin.Context) {
	loans, err := h.Service.ListActiveLoans(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list active loans failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(loans), "items": loans})
}

type checkoutReq struct {
	CopyID        string `json:"copy_id"`
	BorrowerName  string `json:"borrower_name"`
	BorrowerClass string `json:"borrower_class"`
	DueDate       string `json:"due_date"` // YYYY-MM-DD, optional
}

func (h *Handler) checkout(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	loan, err := h.Service.Checkout(c.Request.Context(), req.CopyID, req.BorrowerName, req.BorrowerClass, req.DueDate)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, loan)
}

type checkinReq struct {
	CopyID string `json:"copy_id"`
}

func (h *Handler) checkin(c *gin.Context) {
	var req checkinReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	loan, err := h.Service.Checkin(c.Request.Context(), req.CopyID)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, loan)
}

func (h *Handler) quickCheckin(c *gin.Context) {
	res, err := h.Service.QuickCheckin(c.Request.Context(), c.Param("book_id"))
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	if res.Ambiguous {
		// More than one copy of this book is out: the operator has to
		// pick the specific copy in the detail view.
		c.JSON(http.StatusConflict, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

type openSessionReq struct {
	BookID   string `json:"book_id"`
	Checkout bool   `json:"checkout"` // operator arrived via "check out"
}

func (h *Handler) openSession(c *gin.Context) {
	var req openSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.BookID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "book_id required"})
		return
	}

	sess := h.Sessions.Open(req.BookID, req.Checkout)

	copies, err := h.Copies.ListCopies(c.Request.Context(), req.BookID, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list copies failed"})
		return
	}

	resp := gin.H{"session_id": sess.ID, "items": copies}
	if target, ok := sess.AutoTarget(copies); ok {
		resp["auto_target"] = target
	}
	c.JSON(http.StatusCreated, resp)
}

// sessionCopies refreshes the copy list within an open detail session.
// The auto-checkout target fires at most once per session, so a refresh
// after a cancelled checkout does not re-select a copy.
func (h *Handler) sessionCopies(c *gin.Context) {
	sess := h.Sessions.Get(c.Param("id"))
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	copies, err := h.Copies.ListCopies(c.Request.Context(), sess.BookID, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list copies failed"})
		return
	}

	resp := gin.H{"session_id": sess.ID, "items": copies}
	if target, ok := sess.AutoTarget(copies); ok {
		resp["auto_target"] = target
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) closeSession(c *gin.Context) {
	h.Sessions.Close(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "closed"})
}
