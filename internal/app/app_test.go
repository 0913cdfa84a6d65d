package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminBackend/internal/config"
	"adminBackend/internal/logger"
	"adminBackend/internal/outbox"
	"adminBackend/repository"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "admin.db")},
		Gateway:  config.GatewayConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second},
		Telegram: config.TelegramConfig{APIBaseURL: "http://127.0.0.1:1"},
		Outbox:   config.OutboxConfig{Queue: "crm-sync", Interval: time.Second},
		Jobs:     config.JobsConfig{FetchLookback: time.Hour, ReceiptDelay: time.Millisecond},
	}
}

func newApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew_AppliesJobSettings(t *testing.T) {
	a := newApp(t, testConfig(t))
	assert.Equal(t, time.Hour, a.Payments.FetchLookback)
	assert.Equal(t, time.Millisecond, a.Payments.ReceiptDelay)
	require.NoError(t, a.DB.Ping())
}

func TestImportFeeRules(t *testing.T) {
	a := newApp(t, testConfig(t))
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fees.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  - channel: erip
    percent: 1.5
  - card_brand: belkart
    issuer_region: domestic
    percent: 1.8
    priority: 10
`), 0o600))

	n, err := a.ImportFeeRules(ctx, "cli", path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rules, err := a.Repos.FeeRules.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	entries, err := a.Repos.Audit.List(ctx, repository.AuditFilter{Action: "fee_rules.imported"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = a.ImportFeeRules(ctx, "cli", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewPublisher_Selection(t *testing.T) {
	cfg := testConfig(t)
	a := newApp(t, cfg)
	ctx := context.Background()

	pub, closer, err := a.NewPublisher(ctx)
	require.NoError(t, err)
	assert.IsType(t, &outbox.LogPublisher{}, pub)
	assert.NoError(t, closer.Close())

	a.Config.Outbox.CRMWebhookURL = "http://crm.example.com/hook"
	pub, _, err = a.NewPublisher(ctx)
	require.NoError(t, err)
	assert.IsType(t, &outbox.WebhookPublisher{}, pub)
}
