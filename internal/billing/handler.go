package billing

import (
	"net/http"
	"strconv"

	"coachpay/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// ListTransactions godoc
// @Summary      List own ledger transactions
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   Transaction
// @Router       /billing/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.repo.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}

// CoachEarnings godoc
// @Summary      Coach earnings summary
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        coachID  path      int  true  "Coach ID"
// @Success      200      {object}  CoachEarningsSummary
// @Router       /admin/reports/coach/{coachID}/earnings [get]
func (h *Handler) CoachEarnings(c *gin.Context) {
	coachID, err := strconv.ParseInt(c.Param("coachID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coach ID"})
		return
	}

	summary, err := h.repo.CoachEarnings(c.Request.Context(), coachID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load earnings"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// PlatformRevenue godoc
// @Summary      Platform revenue summary
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  RevenueSummary
// @Router       /admin/reports/revenue [get]
func (h *Handler) PlatformRevenue(c *gin.Context) {
	summary, err := h.repo.PlatformRevenue(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load revenue"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
