package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "shop", "secret", time.Second)
}

func TestListTransactions(t *testing.T) {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "shop", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "2026-02-01T00:00:00Z", r.URL.Query().Get("created_at_from"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"transactions":[{"uid":"t-1","status":"successful","amount":1500,"currency":"BYN",
"credit_card":{"brand":"visa","last_4":"4242","issuer_country":"BY"},"customer":{"email":"a@b.c"},
"additional_data":{"payment_method":{"type":"apple_pay"}}}]}`))
	})

	txs, err := c.ListTransactions(context.Background(), from, 2)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "t-1", txs[0].UID)
	assert.Equal(t, "4242", txs[0].Card().Last4)
	assert.Equal(t, "a@b.c", txs[0].Payer().Email)
	assert.Contains(t, txs[0].AdditionalText(), "apple_pay")
}

func TestGetReceipt(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transactions/ok/receipt":
			_, _ = w.Write([]byte(`{"receipt_url":"https://gw.example/r/ok"}`))
		case "/transactions/nested/receipt":
			_, _ = w.Write([]byte(`{"receipt":{"url":"https://gw.example/r/nested"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Transaction not found"}`))
		}
	})
	ctx := context.Background()

	u, err := c.GetReceipt(ctx, "ok")
	require.NoError(t, err)
	assert.Equal(t, "https://gw.example/r/ok", u)

	u, err = c.GetReceipt(ctx, "nested")
	require.NoError(t, err)
	assert.Equal(t, "https://gw.example/r/nested", u)

	_, err = c.GetReceipt(ctx, "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Transaction not found", apiErr.Message)
}

func TestClientRequiresCredentials(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", "", time.Second)
	_, err := c.ListTransactions(context.Background(), time.Now(), 1)
	assert.Error(t, err)
}

func TestVerifyBasicAuth(t *testing.T) {
	good := "Basic " + base64.StdEncoding.EncodeToString([]byte("shop:secret"))
	assert.True(t, VerifyBasicAuth(good, "shop", "secret"))
	assert.True(t, VerifyBasicAuth("basic "+good[6:], "shop", "secret"))
	assert.False(t, VerifyBasicAuth("Basic "+base64.StdEncoding.EncodeToString([]byte("shop:wrong")), "shop", "secret"))
	assert.False(t, VerifyBasicAuth("Bearer abc", "shop", "secret"))
	assert.False(t, VerifyBasicAuth("Basic !!!", "shop", "secret"))
	assert.False(t, VerifyBasicAuth(good, "", ""))
}
