package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"adminBackend/internal/gateway"
	"adminBackend/internal/logger"
	"adminBackend/internal/payments"
)

// WebhookHandler receives gateway notifications.
type WebhookHandler interface {
	Gateway(c *gin.Context)
}

type webhookHandler struct {
	payments PaymentService
	user     string
	pass     string
	log      logger.Logger
}

// NewWebhookHandler creates a WebhookHandler that accepts notifications signed
// with the shop id and secret key as Basic credentials.
func NewWebhookHandler(svc PaymentService, shopID, secretKey string, log logger.Logger) WebhookHandler {
	return &webhookHandler{payments: svc, user: shopID, pass: secretKey, log: log}
}

// Gateway handles POST /webhooks/gateway. The transaction is only queued here;
// the drain job records it.
func (h *webhookHandler) Gateway(c *gin.Context) {
	if !gateway.VerifyBasicAuth(c.GetHeader("Authorization"), h.user, h.pass) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid webhook credentials"})
		return
	}
	var env gateway.WebhookEnvelope
	if !bindJSON(c, &env) {
		return
	}
	if strings.TrimSpace(env.Transaction.UID) == "" {
		badRequest(c, "transaction.uid is required")
		return
	}
	queued, err := h.payments.Enqueue(c.Request.Context(), env.Transaction, payments.SourceWebhook)
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "uid": env.Transaction.UID, "queued": queued})
}
