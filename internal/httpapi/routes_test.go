package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminBackend/internal/payments"
	"adminBackend/internal/support"
	"adminBackend/internal/testutil"
	"adminBackend/models"
	"adminBackend/repository"
)

const testSecret = "test-secret"

type server struct {
	router   *gin.Engine
	payments *repository.PaymentRepository
	admin    string
	support  string
	service  string
}

func newServer(t *testing.T, name string) *server {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, name)
	ctx := context.Background()
	users := repository.NewUserRepository(d)
	_, err := users.CreateWithRole(ctx, "root", models.RoleAdmin)
	require.NoError(t, err)
	_, err = users.CreateWithRole(ctx, "agent", models.RoleSupport)
	require.NoError(t, err)

	s := &server{
		payments: repository.NewPaymentRepository(d),
		admin:    testutil.GenerateJWTHS256(t, testSecret, "root", "admin"),
		support:  testutil.GenerateJWTHS256(t, testSecret, "agent", "support"),
		service:  testutil.GenerateJWTHS256(t, testSecret, "cron", "service"),
	}
	audit := repository.NewAuditRepository(d)
	outbox := repository.NewOutboxRepository(d)
	feeRules := repository.NewFeeRuleRepository(d)
	paymentSvc := payments.NewService(payments.Deps{
		Payments: s.payments,
		Profiles: repository.NewProfileRepository(d),
		Queue:    repository.NewQueueRepository(d),
		Rules:    feeRules,
		Audit:    audit,
		Outbox:   outbox,
	})
	supportSvc := support.NewService(repository.NewTicketRepository(d), repository.NewSubscriptionRepository(d), audit, outbox, nil)

	s.router = NewRouter(Dependencies{
		JWTSecret: testSecret,
		Users:     users,
		Payments:  paymentSvc,
		Telegram:  new(MockTelegramService),
		Support:   supportSvc,
		FeeRules:  feeRules,
		Audit:     audit,
		ShopID:    "shop",
		SecretKey: "secret",
		Ping:      d.PingContext,
	}, []string{"https://admin.example.com"})
	return s
}

func (s *server) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, BasePath+path, nil)
	} else {
		req = httptest.NewRequest(method, BasePath+path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestSetupRoutes_RoutesRegistered(t *testing.T) {
	s := newServer(t, "routes_registered")

	tests := []struct {
		method string
		path   string
	}{
		{"POST", "/webhooks/gateway"},
		{"POST", "/payments/unlinked"},
		{"GET", "/payments/some-uid"},
		{"POST", "/payments/backfill"},
		{"POST", "/payments/reconcile"},
		{"POST", "/payments/receipts"},
		{"POST", "/payments/sync"},
		{"GET", "/fee-rules"},
		{"PUT", "/fee-rules"},
		{"POST", "/fees/quote"},
		{"POST", "/telegram/grants"},
		{"POST", "/telegram/sweep"},
		{"GET", "/subscriptions"},
		{"POST", "/subscriptions/1/cancel"},
		{"GET", "/tickets"},
		{"POST", "/tickets"},
		{"GET", "/tickets/1"},
		{"POST", "/tickets/1/messages"},
		{"PATCH", "/tickets/1/status"},
		{"GET", "/audit"},
	}
	for _, tt := range tests {
		w := s.do(t, tt.method, tt.path, "", "")
		assert.NotEqual(t, http.StatusNotFound, w.Code, "%s %s", tt.method, tt.path)
	}
}

func TestHealthz(t *testing.T) {
	s := newServer(t, "routes_health")
	w := s.do(t, "GET", "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAuthorization(t *testing.T) {
	s := newServer(t, "routes_auth")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, "POST", "/payments/unlinked", "", "{}").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, "POST", "/payments/unlinked", "garbage", "{}").Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, "POST", "/payments/unlinked", s.support, "{}").Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, "POST", "/payments/unlinked", s.service, "{}").Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, "GET", "/tickets", s.service, "").Code)

	// a token claiming admin for a support account is refused
	forged := testutil.GenerateJWTHS256(t, testSecret, "agent", "admin")
	assert.Equal(t, http.StatusForbidden, s.do(t, "GET", "/audit", forged, "").Code)

	assert.Equal(t, http.StatusOK, s.do(t, "POST", "/payments/reconcile", s.service, `{"dry_run":true}`).Code)
	assert.Equal(t, http.StatusOK, s.do(t, "GET", "/tickets", s.support, "").Code)
}

func TestUnlinkedReport_Endpoint(t *testing.T) {
	s := newServer(t, "routes_unlinked")
	ctx := context.Background()
	for _, p := range []models.Payment{
		{ExternalUID: "a", Amount: 1000, Currency: "BYN", Status: models.PaymentStatusSuccessful, CardLast4: "4242", CardBrand: "visa", PaidAt: "2026-03-01T10:00:00Z"},
		{ExternalUID: "b", Amount: 1000, Currency: "BYN", Status: models.PaymentStatusSuccessful, CardLast4: "4242", CardBrand: "visa", PaidAt: "2026-03-02T10:00:00Z"},
	} {
		p := p
		_, err := s.payments.Upsert(ctx, &p)
		require.NoError(t, err)
	}

	w := s.do(t, "POST", "/payments/unlinked", s.admin, `{"limit":999}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp payments.UnlinkedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, payments.MaxReportLimit, resp.Pagination.Limit)
	require.Len(t, resp.Cards, 1)
	assert.Equal(t, 2, resp.Cards[0].PaymentsCount)

	w = s.do(t, "POST", "/payments/unlinked", s.admin, `{"limit":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, payments.DefaultReportLimit, resp.Pagination.Limit)

	w = s.do(t, "POST", "/payments/unlinked", s.admin, `{"mode":"details","last4":"12"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "4 digits")
}

func TestWebhook_Endpoint(t *testing.T) {
	s := newServer(t, "routes_webhook")
	body := `{"transaction":{"uid":"tx-9","status":"successful","amount":500,"currency":"BYN"}}`

	req := httptest.NewRequest("POST", BasePath+"/webhooks/gateway", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("shop", "secret")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"queued":true`)

	w = s.do(t, "POST", "/webhooks/gateway", s.admin, body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTickets_Endpoints(t *testing.T) {
	s := newServer(t, "routes_tickets")

	w := s.do(t, "POST", "/tickets", s.support, `{"subject":"Card charged twice"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "TKT-000001")

	w = s.do(t, "POST", "/tickets/1/messages", s.support, `{"body":"looking into it","is_internal":true}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, "PATCH", "/tickets/1/status", s.support, `{"status":"closed"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, "PATCH", "/tickets/1/status", s.support, `{"status":"open"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, "GET", "/tickets/1", s.support, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "looking into it")
	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/tickets/99", s.support, "").Code)

	w = s.do(t, "GET", "/audit?entity=ticket", s.admin, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ticket.created")
}
