package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adminBackend/internal/logger"
)

// SubscriptionHandler lists and cancels subscriptions.
type SubscriptionHandler interface {
	List(c *gin.Context)
	Cancel(c *gin.Context)
}

type subscriptionHandler struct {
	support SupportService
	log     logger.Logger
}

// NewSubscriptionHandler creates a SubscriptionHandler.
func NewSubscriptionHandler(svc SupportService, log logger.Logger) SubscriptionHandler {
	return &subscriptionHandler{support: svc, log: log}
}

// List handles GET /subscriptions?profile_id=.
func (h *subscriptionHandler) List(c *gin.Context) {
	profileID, ok := queryInt(c, "profile_id")
	if !ok {
		return
	}
	list, err := h.support.ListSubscriptions(c.Request.Context(), profileID)
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "subscriptions": list})
}

// Cancel handles POST /subscriptions/:id/cancel.
func (h *subscriptionHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sub, err := h.support.CancelSubscription(c.Request.Context(), actor(c), id)
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "subscription": sub})
}
