package rate

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

// CreateRate godoc
// @Summary      Create rate
// @Description  Creates a priced offering for the authenticated coach.
// @Tags         rates
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        rate  body      CreateRateRequest  true  "Rate"
// @Success      201   {object}  Rate
// @Failure      400   {object}  gin.H
// @Router       /coach/rates [post]
func (h *Handler) CreateRate(c *gin.Context) {
	coachID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rate, err := h.service.Create(c.Request.Context(), coachID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSessionType),
			errors.Is(err, ErrInvalidDuration),
			errors.Is(err, ErrInvalidRateAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create rate"})
		}
		return
	}

	c.JSON(http.StatusCreated, rate)
}

// ListMyRates godoc
// @Summary      List own rates
// @Tags         rates
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Rate
// @Router       /coach/rates [get]
func (h *Handler) ListMyRates(c *gin.Context) {
	coachID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	rates, err := h.service.ListByCoach(c.Request.Context(), coachID, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rates"})
		return
	}

	c.JSON(http.StatusOK, rates)
}

// ListCoachRates godoc
// @Summary      List a coach's active rates
// @Tags         rates
// @Security     BearerAuth
// @Produce      json
// @Param        coachID  path      int  true  "Coach ID"
// @Success      200      {array}   Rate
// @Failure      400      {object}  gin.H
// @Router       /coaches/{coachID}/rates [get]
func (h *Handler) ListCoachRates(c *gin.Context) {
	coachID, err := strconv.ParseInt(c.Param("coachID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coach ID"})
		return
	}

	rates, err := h.service.ListByCoach(c.Request.Context(), coachID, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rates"})
		return
	}

	c.JSON(http.StatusOK, rates)
}

// DeactivateRate godoc
// @Summary      Deactivate rate
// @Description  Soft-disables a rate; historical payments keep referencing it.
// @Tags         rates
// @Security     BearerAuth
// @Produce      json
// @Param        rateID  path      int  true  "Rate ID"
// @Success      200     {object}  gin.H
// @Failure      404     {object}  gin.H
// @Router       /coach/rates/{rateID}/deactivate [patch]
func (h *Handler) DeactivateRate(c *gin.Context) {
	coachID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	rateID, err := strconv.ParseInt(c.Param("rateID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate ID"})
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), rateID, coachID); err != nil {
		if errors.Is(err, ErrRateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rate not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate rate"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "rate deactivated"})
}
