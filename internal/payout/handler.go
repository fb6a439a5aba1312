package payout

import (
	"errors"
	"net/http"
	"strconv"

	"coachpay/internal/auth"
	"coachpay/internal/bankaccount"
	"coachpay/internal/payment"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create godoc
// @Summary      Request payout
// @Description  Requests a payout of the earnings from one captured payment.
// @Tags         payouts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateRequest  true  "Payout request"
// @Success      201      {object}  Payout
// @Failure      400      {object}  gin.H
// @Failure      409      {object}  gin.H
// @Router       /coach/payouts [post]
func (h *Handler) Create(c *gin.Context) {
	coachID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), coachID, req)
	if err != nil {
		respondPayoutError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// List godoc
// @Summary      List own payouts
// @Tags         payouts
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Payout
// @Router       /coach/payouts [get]
func (h *Handler) List(c *gin.Context) {
	coachID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	limit, offset := pagination(c)
	payouts, err := h.service.ListByCoach(c.Request.Context(), coachID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payouts"})
		return
	}

	c.JSON(http.StatusOK, payouts)
}

// ListPending godoc
// @Summary      List pending payouts
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Payout
// @Router       /admin/payouts [get]
func (h *Handler) ListPending(c *gin.Context) {
	limit, offset := pagination(c)
	payouts, err := h.service.ListPending(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payouts"})
		return
	}

	c.JSON(http.StatusOK, payouts)
}

// Approve godoc
// @Summary      Approve payout
// @Description  Approves a pending payout and runs the transfer.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        payoutID  path      int  true  "Payout ID"
// @Success      200       {object}  Payout
// @Failure      404       {object}  gin.H
// @Failure      409       {object}  gin.H
// @Router       /admin/payouts/{payoutID}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	payoutID, err := strconv.ParseInt(c.Param("payoutID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payout ID"})
		return
	}

	p, err := h.service.Approve(c.Request.Context(), payoutID)
	if err != nil {
		respondPayoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// Reject godoc
// @Summary      Reject payout
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payoutID  path      int            true  "Payout ID"
// @Param        request   body      RejectRequest  true  "Rejection reason"
// @Success      200       {object}  Payout
// @Failure      404       {object}  gin.H
// @Failure      409       {object}  gin.H
// @Router       /admin/payouts/{payoutID}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	payoutID, err := strconv.ParseInt(c.Param("payoutID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payout ID"})
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.service.Reject(c.Request.Context(), payoutID, req.Reason)
	if err != nil {
		respondPayoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func respondPayoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPayoutNotFound),
		errors.Is(err, bankaccount.ErrAccountNotFound),
		errors.Is(err, payment.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrAccountNotVerified),
		errors.Is(err, ErrPaymentNotCaptured),
		errors.Is(err, ErrNothingToPayOut):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrPayoutExists),
		errors.Is(err, ErrNotPending),
		errors.Is(err, ErrStateConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payout operation failed"})
	}
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
