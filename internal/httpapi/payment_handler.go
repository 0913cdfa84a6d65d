package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adminBackend/internal/logger"
	"adminBackend/internal/payments"
)

// PaymentHandler serves the payment report and job endpoints.
type PaymentHandler interface {
	Unlinked(c *gin.Context)
	Get(c *gin.Context)
	Backfill(c *gin.Context)
	Reconcile(c *gin.Context)
	Receipts(c *gin.Context)
	Sync(c *gin.Context)
}

type paymentHandler struct {
	payments PaymentService
	log      logger.Logger
}

// NewPaymentHandler creates a PaymentHandler.
func NewPaymentHandler(svc PaymentService, log logger.Logger) PaymentHandler {
	return &paymentHandler{payments: svc, log: log}
}

// ReconcileRequest is the body of POST /payments/reconcile.
type ReconcileRequest struct {
	DryRun bool `json:"dry_run"`
	Limit  int  `json:"limit" binding:"gte=0"`
}

// SyncRequest is the body of POST /payments/sync.
type SyncRequest struct {
	DrainLimit int `json:"drain_limit" binding:"gte=0"`
}

// Unlinked handles POST /payments/unlinked.
func (h *paymentHandler) Unlinked(c *gin.Context) {
	var req payments.UnlinkedRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	resp, err := h.payments.UnlinkedReport(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /payments/:uid.
func (h *paymentHandler) Get(c *gin.Context) {
	p, err := h.payments.PaymentByUID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "payment": p})
}

// Backfill handles POST /payments/backfill.
func (h *paymentHandler) Backfill(c *gin.Context) {
	var req payments.BackfillRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	res, err := h.payments.Backfill(c.Request.Context(), actor(c), req)
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Reconcile handles POST /payments/reconcile.
func (h *paymentHandler) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	res, err := h.payments.Reconcile(c.Request.Context(), req.DryRun, req.Limit)
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Receipts handles POST /payments/receipts.
func (h *paymentHandler) Receipts(c *gin.Context) {
	var req payments.ReceiptRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	res, err := h.payments.FetchReceipts(c.Request.Context(), actor(c), req)
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Sync handles POST /payments/sync. A failed step answers 502 with the
// partial result.
func (h *paymentHandler) Sync(c *gin.Context) {
	var req SyncRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	res, err := h.payments.Sync(c.Request.Context(), req.DrainLimit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": res})
}
