package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adminBackend/internal/logger"
	"adminBackend/models"
	"adminBackend/repository"
)

// AuditHandler exposes the audit log read-only.
type AuditHandler interface {
	List(c *gin.Context)
}

type auditHandler struct {
	audit repository.AuditRepositoryI
	log   logger.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(audit repository.AuditRepositoryI, log logger.Logger) AuditHandler {
	return &auditHandler{audit: audit, log: log}
}

// List handles GET /audit?actor=&action=&entity=&entity_id=&limit=.
func (h *auditHandler) List(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	entries, err := h.audit.List(c.Request.Context(), repository.AuditFilter{
		Actor:    c.Query("actor"),
		Action:   c.Query("action"),
		Entity:   c.Query("entity"),
		EntityID: c.Query("entity_id"),
		Limit:    int(limit),
	})
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	if entries == nil {
		entries = []models.AuditLog{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entries": entries})
}
