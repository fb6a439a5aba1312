package payment

import (
	"errors"
	"net/http"
	"strconv"

	"coachpay/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func respondServiceError(c *gin.Context, err error) {
	var gwErr *GatewayError
	var ledgerErr *LedgerWriteError

	switch {
	case errors.Is(err, ErrPaymentNotFound), errors.Is(err, ErrRefundNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidRate),
		errors.Is(err, ErrRateOwnershipMismatch),
		errors.Is(err, ErrInvalidRefundReason),
		errors.Is(err, ErrInvalidRefundAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrStateConflict), errors.Is(err, ErrRefundExceedsBalance):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUnknownOutcome):
		c.JSON(http.StatusAccepted, gin.H{"error": err.Error()})
	case errors.As(err, &gwErr):
		// Surface the processor's human-readable reason.
		c.JSON(http.StatusBadGateway, gin.H{"error": gwErr.Err.Error()})
	case errors.As(err, &ledgerErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment could not be recorded"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// loadOwnedPayment fetches the payment and rejects callers who are neither a
// party to it nor an admin. Every by-ID operation goes through this gate.
func (h *Handler) loadOwnedPayment(c *gin.Context) (*Payment, bool) {
	paymentID, err := strconv.ParseInt(c.Param("paymentID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment ID"})
		return nil, false
	}

	p, err := h.service.GetByID(c.Request.Context(), paymentID)
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}

	userID, _ := auth.GetUserID(c)
	role, _ := auth.GetUserRole(c)
	if role != auth.RoleAdmin && p.ClientID != userID && p.CoachID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your payment"})
		return nil, false
	}

	return p, true
}

// Authorize godoc
// @Summary      Authorize payment
// @Description  Places a hold for a coach's rate on behalf of the client.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      AuthorizeRequest  true  "Authorization"
// @Success      201      {object}  Payment
// @Failure      400      {object}  gin.H
// @Failure      502      {object}  gin.H
// @Router       /payments [post]
func (h *Handler) Authorize(c *gin.Context) {
	clientID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.service.Authorize(c.Request.Context(), clientID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// Capture godoc
// @Summary      Capture payment
// @Description  Finalizes an authorized hold into a completed charge.
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        paymentID  path      int  true  "Payment ID"
// @Success      200        {object}  Payment
// @Failure      409        {object}  gin.H
// @Router       /payments/{paymentID}/capture [post]
func (h *Handler) Capture(c *gin.Context) {
	owned, ok := h.loadOwnedPayment(c)
	if !ok {
		return
	}

	p, err := h.service.Capture(c.Request.Context(), owned.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel godoc
// @Summary      Cancel payment
// @Description  Voids an uncaptured hold.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        paymentID  path      int            true   "Payment ID"
// @Param        request    body      cancelRequest  false  "Reason"
// @Success      200        {object}  Payment
// @Failure      409        {object}  gin.H
// @Router       /payments/{paymentID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	owned, ok := h.loadOwnedPayment(c)
	if !ok {
		return
	}

	var req cancelRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "canceled by user"
	}

	p, err := h.service.Cancel(c.Request.Context(), owned.ID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// Refund godoc
// @Summary      Refund payment
// @Description  Issues a full or partial refund against a captured payment.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        paymentID  path      int            true  "Payment ID"
// @Param        request    body      RefundRequest  true  "Refund"
// @Success      201        {object}  Refund
// @Failure      409        {object}  gin.H
// @Router       /payments/{paymentID}/refund [post]
func (h *Handler) Refund(c *gin.Context) {
	owned, ok := h.loadOwnedPayment(c)
	if !ok {
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	refund, err := h.service.Refund(c.Request.Context(), owned.ID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, refund)
}

// GetPayment godoc
// @Summary      Get payment
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        paymentID  path      int  true  "Payment ID"
// @Success      200        {object}  Payment
// @Failure      404        {object}  gin.H
// @Router       /payments/{paymentID} [get]
func (h *Handler) GetPayment(c *gin.Context) {
	p, ok := h.loadOwnedPayment(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, p)
}

// ListPayments godoc
// @Summary      List own payments
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   Payment
// @Router       /payments [get]
func (h *Handler) ListPayments(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	role, _ := auth.GetUserRole(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	payments, err := h.service.ListForUser(c.Request.Context(), userID, role, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payments"})
		return
	}

	c.JSON(http.StatusOK, payments)
}

// ListRefunds godoc
// @Summary      List refunds for a payment
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        paymentID  path      int  true  "Payment ID"
// @Success      200        {array}   Refund
// @Router       /payments/{paymentID}/refunds [get]
func (h *Handler) ListRefunds(c *gin.Context) {
	owned, ok := h.loadOwnedPayment(c)
	if !ok {
		return
	}

	refunds, err := h.service.ListRefunds(c.Request.Context(), owned.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list refunds"})
		return
	}

	c.JSON(http.StatusOK, refunds)
}
