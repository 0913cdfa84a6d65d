package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"adminBackend/internal/auth"
	"adminBackend/internal/logger"
	"adminBackend/repository"
)

// Dependencies are the services behind the REST API.
type Dependencies struct {
	JWTSecret string
	Users     auth.UserLookup
	Payments  PaymentService
	Telegram  TelegramService
	Support   SupportService
	FeeRules  repository.FeeRuleRepositoryI
	Audit     repository.AuditRepositoryI

	// Gateway webhook credentials.
	ShopID    string
	SecretKey string

	// Ping reports database health for /healthz. Optional.
	Ping func(ctx context.Context) error

	Log logger.Logger
}

// NewRouter builds the gin engine with recovery, request logging and, when
// origins are configured, CORS.
func NewRouter(deps Dependencies, allowedOrigins []string) *gin.Engine {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(deps.Log))
	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Type", RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	SetupRoutes(r, deps)
	return r
}

// SetupRoutes registers every version 1 route on r.
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	log := deps.Log
	v1 := r.Group(BasePath)

	v1.GET("/healthz", health(deps.Ping))

	webhooks := NewWebhookHandler(deps.Payments, deps.ShopID, deps.SecretKey, log)
	v1.POST("/webhooks/gateway", webhooks.Gateway)

	api := v1.Group("", Authenticate(deps.JWTSecret))
	admin := Require(adminOnly(deps.Users), log)
	staffOnly := Require(staff(deps.Users), log)
	jobs := Require(serviceOrAdmin(deps.Users), log)

	// Payments
	paymentHandler := NewPaymentHandler(deps.Payments, log)
	api.POST("/payments/unlinked", admin, paymentHandler.Unlinked)
	api.GET("/payments/:uid", staffOnly, paymentHandler.Get)
	api.POST("/payments/backfill", jobs, paymentHandler.Backfill)
	api.POST("/payments/reconcile", jobs, paymentHandler.Reconcile)
	api.POST("/payments/receipts", admin, paymentHandler.Receipts)
	api.POST("/payments/sync", jobs, paymentHandler.Sync)

	// Fees
	feeHandler := NewFeeHandler(deps.FeeRules, deps.Audit, log)
	api.GET("/fee-rules", admin, feeHandler.ListRules)
	api.PUT("/fee-rules", admin, feeHandler.ReplaceRules)
	api.POST("/fees/quote", admin, feeHandler.Quote)

	// Telegram
	telegramHandler := NewTelegramHandler(deps.Telegram, log)
	api.POST("/telegram/grants", admin, telegramHandler.Grant)
	api.POST("/telegram/sweep", jobs, telegramHandler.Sweep)

	// Subscriptions
	subscriptionHandler := NewSubscriptionHandler(deps.Support, log)
	api.GET("/subscriptions", staffOnly, subscriptionHandler.List)
	api.POST("/subscriptions/:id/cancel", admin, subscriptionHandler.Cancel)

	// Tickets
	ticketHandler := NewTicketHandler(deps.Support, log)
	api.GET("/tickets", staffOnly, ticketHandler.List)
	api.POST("/tickets", staffOnly, ticketHandler.Create)
	api.GET("/tickets/:id", staffOnly, ticketHandler.Get)
	api.POST("/tickets/:id/messages", staffOnly, ticketHandler.AddMessage)
	api.PATCH("/tickets/:id/status", staffOnly, ticketHandler.ChangeStatus)

	// Audit
	auditHandler := NewAuditHandler(deps.Audit, log)
	api.GET("/audit", admin, auditHandler.List)
}

func health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "database unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
