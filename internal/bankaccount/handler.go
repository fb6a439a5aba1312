package bankaccount

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

// Create godoc
// @Summary      Add bank account
// @Description  Registers an unverified payout destination for the coach.
// @Tags         bank-accounts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateRequest  true  "Bank account"
// @Success      201      {object}  Masked
// @Failure      400      {object}  gin.H
// @Router       /coach/bank-accounts [post]
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

	account, err := h.service.Create(c.Request.Context(), coachID, req)
	if err != nil {
		if errors.Is(err, ErrInvalidRoutingNumber) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add bank account"})
		return
	}

	c.JSON(http.StatusCreated, account)
}

// List godoc
// @Summary      List own bank accounts
// @Tags         bank-accounts
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Masked
// @Router       /coach/bank-accounts [get]
func (h *Handler) List(c *gin.Context) {
	coachID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	accounts, err := h.service.ListByCoach(c.Request.Context(), coachID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bank accounts"})
		return
	}

	c.JSON(http.StatusOK, accounts)
}

// SetDefault godoc
// @Summary      Set default bank account
// @Tags         bank-accounts
// @Security     BearerAuth
// @Produce      json
// @Param        accountID  path      int  true  "Bank account ID"
// @Success      200        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Router       /coach/bank-accounts/{accountID}/default [post]
func (h *Handler) SetDefault(c *gin.Context) {
	coachID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	accountID, err := strconv.ParseInt(c.Param("accountID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account ID"})
		return
	}

	if err := h.service.SetDefault(c.Request.Context(), accountID, coachID); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "bank account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set default"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "default bank account updated"})
}

// Verify godoc
// @Summary      Verify bank account
// @Tags         bank-accounts
// @Security     BearerAuth
// @Produce      json
// @Param        accountID  path      int  true  "Bank account ID"
// @Success      200        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Router       /admin/bank-accounts/{accountID}/verify [post]
func (h *Handler) Verify(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("accountID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account ID"})
		return
	}

	if err := h.service.Verify(c.Request.Context(), accountID); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "bank account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify bank account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "bank account verified"})
}

// Delete godoc
// @Summary      Delete bank account
// @Description  Refused while payouts against the account are in flight.
// @Tags         bank-accounts
// @Security     BearerAuth
// @Produce      json
// @Param        accountID  path      int  true  "Bank account ID"
// @Success      200        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Router       /coach/bank-accounts/{accountID} [delete]
func (h *Handler) Delete(c *gin.Context) {
	coachID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	accountID, err := strconv.ParseInt(c.Param("accountID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account ID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), accountID, coachID); err != nil {
		switch {
		case errors.Is(err, ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "bank account not found"})
		case errors.Is(err, ErrHasPendingPayouts):
			c.JSON(http.StatusConflict, gin.H{"error": "bank account has payouts in flight"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete bank account"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "bank account deleted"})
}
