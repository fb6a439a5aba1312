package webhook

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"coachpay/internal/payment"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	secret  string
}

func NewHandler(service Service, secret string) *Handler {
	return &Handler{service: service, secret: secret}
}

// Receive godoc
// @Summary      Gateway webhook
// @Description  Receives processor event notifications. Retried by the
// @Description  processor until a 2xx is returned.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        request  body      Event  true  "Event"
// @Success      200      {object}  gin.H
// @Failure      401      {object}  gin.H
// @Router       /webhooks/gateway [post]
func (h *Handler) Receive(c *gin.Context) {
	if h.secret != "" {
		provided := c.GetHeader("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}
	}

	var event Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Process(c.Request.Context(), event); err != nil {
		// A retryable failure: reply non-2xx so the processor redelivers.
		if errors.Is(err, payment.ErrPaymentNotFound) || errors.Is(err, payment.ErrRefundNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "object not yet recorded"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "event processed"})
}
