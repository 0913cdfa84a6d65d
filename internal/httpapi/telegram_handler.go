package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adminBackend/internal/logger"
	"adminBackend/internal/telegram"
)

// TelegramHandler grants chat access and runs the expiry sweep.
type TelegramHandler interface {
	Grant(c *gin.Context)
	Sweep(c *gin.Context)
}

type telegramHandler struct {
	telegram TelegramService
	log      logger.Logger
}

// NewTelegramHandler creates a TelegramHandler.
func NewTelegramHandler(svc TelegramService, log logger.Logger) TelegramHandler {
	return &telegramHandler{telegram: svc, log: log}
}

// Grant handles POST /telegram/grants.
func (h *telegramHandler) Grant(c *gin.Context) {
	var req telegram.GrantRequest
	if !bindJSON(c, &req) {
		return
	}
	g, err := h.telegram.Grant(c.Request.Context(), actor(c), req)
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "grant": g})
}

// Sweep handles POST /telegram/sweep.
func (h *telegramHandler) Sweep(c *gin.Context) {
	res, err := h.telegram.Sweep(c.Request.Context())
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
