package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"adminBackend/internal/fees"
	"adminBackend/internal/logger"
	"adminBackend/models"
	"adminBackend/repository"
)

// FeeHandler manages the fee table and quotes fees.
type FeeHandler interface {
	ListRules(c *gin.Context)
	ReplaceRules(c *gin.Context)
	Quote(c *gin.Context)
}

type feeHandler struct {
	rules repository.FeeRuleRepositoryI
	audit repository.AuditRepositoryI
	log   logger.Logger
}

// NewFeeHandler creates a FeeHandler.
func NewFeeHandler(rules repository.FeeRuleRepositoryI, audit repository.AuditRepositoryI, log logger.Logger) FeeHandler {
	return &feeHandler{rules: rules, audit: audit, log: log}
}

// ReplaceRulesRequest is the body of PUT /fee-rules.
type ReplaceRulesRequest struct {
	Rules []fees.RuleInput `json:"rules"`
}

// QuoteRequest is the body of POST /fees/quote. CardBrand may be left empty
// when a BIN is given.
type QuoteRequest struct {
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	Currency      string `json:"currency" binding:"required,len=3"`
	IssuerCountry string `json:"issuer_country"`
	Channel       string `json:"channel"`
	MethodKind    string `json:"method_kind"`
	CardBrand     string `json:"card_brand"`
	Bin           string `json:"bin"`
}

// ListRules handles GET /fee-rules. ?active=true hides disabled rules.
func (h *feeHandler) ListRules(c *gin.Context) {
	list, err := h.rules.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	if list == nil {
		list = []models.FeeRule{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rules": list})
}

// ReplaceRules handles PUT /fee-rules. The table is swapped atomically.
func (h *feeHandler) ReplaceRules(c *gin.Context) {
	var req ReplaceRulesRequest
	if !bindJSON(c, &req) {
		return
	}
	rules, err := fees.Rules(req.Rules)
	if err != nil {
		badRequest(c, "%v", err)
		return
	}
	ctx := c.Request.Context()
	if err := h.rules.ReplaceAll(ctx, rules); err != nil {
		abortWithError(c, h.log, err)
		return
	}
	if _, err := h.audit.Append(ctx, actor(c), "fee_rules.replaced", "fee_rules", "", map[string]any{"count": len(rules)}); err != nil {
		h.log.Warn(fmt.Sprintf("[Fees] audit replace: %v", err))
	}
	list, err := h.rules.List(ctx, false)
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	if list == nil {
		list = []models.FeeRule{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rules": list})
}

// Quote handles POST /fees/quote against the active rules.
func (h *feeHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if !bindJSON(c, &req) {
		return
	}
	set, err := fees.Load(c.Request.Context(), h.rules)
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	in := fees.Input{
		Amount:        req.Amount,
		Currency:      req.Currency,
		IssuerCountry: req.IssuerCountry,
		Channel:       fees.Channel(req.Channel),
		MethodKind:    fees.MethodKind(req.MethodKind),
		CardBrand:     fees.DetectCardBrand(req.CardBrand, req.Bin),
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "card_brand": in.CardBrand, "fee": set.Calculate(in)})
}
