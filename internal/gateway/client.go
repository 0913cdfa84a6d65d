package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PerPage is the page size requested from the transactions listing.
const PerPage = 100

// APIError is returned for non-2xx gateway responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway API error (%d): %s", e.StatusCode, e.Message)
}

// Client talks to the payment gateway with shop credentials.
type Client struct {
	baseURL   string
	shopID    string
	secretKey string
	client    *http.Client
}

// NewClient creates a gateway client. timeout applies per request.
func NewClient(baseURL, shopID, secretKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		shopID:    shopID,
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type listResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type receiptResponse struct {
	ReceiptURL string `json:"receipt_url"`
	Receipt    struct {
		URL string `json:"url"`
	} `json:"receipt"`
}

type errorResponse struct {
	Message string `json:"message"`
	Errors  any    `json:"errors"`
}

// ListTransactions returns one page (1-based) of transactions created at or after from.
// A page shorter than PerPage is the last one.
func (c *Client) ListTransactions(ctx context.Context, from time.Time, page int) ([]Transaction, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("created_at_from", from.UTC().Format(time.RFC3339))
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(PerPage))

	var out listResponse
	if err := c.get(ctx, "/transactions?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

// GetReceipt returns the receipt URL of one transaction.
func (c *Client) GetReceipt(ctx context.Context, uid string) (string, error) {
	if uid == "" {
		return "", fmt.Errorf("transaction uid is empty")
	}
	var out receiptResponse
	if err := c.get(ctx, "/transactions/"+url.PathEscape(uid)+"/receipt", &out); err != nil {
		return "", err
	}
	if out.ReceiptURL != "" {
		return out.ReceiptURL, nil
	}
	if out.Receipt.URL != "" {
		return out.Receipt.URL, nil
	}
	return "", fmt.Errorf("no receipt url for transaction %s", uid)
}

// VerifyBasicAuth checks an Authorization header against the shop credentials.
func (c *Client) VerifyBasicAuth(header string) bool {
	return VerifyBasicAuth(header, c.shopID, c.secretKey)
}

// VerifyBasicAuth reports whether header carries Basic credentials equal to user/pass.
func VerifyBasicAuth(header, user, pass string) bool {
	if user == "" && pass == "" {
		return false
	}
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return false
	}
	gotUser, gotPass, ok := strings.Cut(string(raw), ":")
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(gotUser), []byte(user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(gotPass), []byte(pass)) == 1
	return userOK && passOK
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.shopID == "" || c.secretKey == "" {
		return fmt.Errorf("gateway credentials are not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.shopID, c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &e) == nil && e.Message != "" {
			msg = e.Message
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
