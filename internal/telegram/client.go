// Package telegram manages time-bounded access to Telegram chats through the Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIError is an ok=false answer of the Bot API.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error (%d): %s", e.Code, e.Description)
}

// IsMemberGone reports whether err means the user is not in the chat any more.
func IsMemberGone(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusBadRequest {
		return false
	}
	d := strings.ToLower(apiErr.Description)
	return strings.Contains(d, "user not found") || strings.Contains(d, "participant_id_invalid") ||
		strings.Contains(d, "not a member")
}

// ChatMember is the subset of the Bot API ChatMember object we use.
type ChatMember struct {
	Status string `json:"status"`
	User   struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

// Client calls the Bot API for one bot.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a Bot API client. baseURL is usually https://api.telegram.org.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// CreateChatInviteLink creates an invite link valid until expireAt for memberLimit joins.
func (c *Client) CreateChatInviteLink(ctx context.Context, chatID int64, expireAt time.Time, memberLimit int) (string, error) {
	params := map[string]any{"chat_id": chatID}
	if !expireAt.IsZero() {
		params["expire_date"] = expireAt.Unix()
	}
	if memberLimit > 0 {
		params["member_limit"] = memberLimit
	}
	var out struct {
		InviteLink string `json:"invite_link"`
	}
	if err := c.call(ctx, "createChatInviteLink", params, &out); err != nil {
		return "", err
	}
	return out.InviteLink, nil
}

// BanChatMember removes a user from a chat. A zero untilDate bans forever.
func (c *Client) BanChatMember(ctx context.Context, chatID, userID int64, untilDate time.Time) error {
	params := map[string]any{"chat_id": chatID, "user_id": userID}
	if !untilDate.IsZero() {
		params["until_date"] = untilDate.Unix()
	}
	return c.call(ctx, "banChatMember", params, nil)
}

// UnbanChatMember lifts a ban so the user may rejoin later with a new link.
func (c *Client) UnbanChatMember(ctx context.Context, chatID, userID int64, onlyIfBanned bool) error {
	return c.call(ctx, "unbanChatMember", map[string]any{
		"chat_id": chatID, "user_id": userID, "only_if_banned": onlyIfBanned,
	}, nil)
}

// GetChatMember returns the membership of a user in a chat.
func (c *Client) GetChatMember(ctx context.Context, chatID, userID int64) (*ChatMember, error) {
	var out ChatMember
	if err := c.call(ctx, "getChatMember", map[string]any{"chat_id": chatID, "user_id": userID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, method string, params map[string]any, out any) error {
	if c.token == "" {
		return fmt.Errorf("telegram bot token is not configured")
	}
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bot"+c.token+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// the URL carries the token; keep it out of logs
		return fmt.Errorf("telegram %s request failed: %w", method, redact(err, c.token))
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var r apiResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &APIError{Code: resp.StatusCode, Description: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !r.OK {
		code := r.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return &APIError{Code: code, Description: r.Description}
	}
	if out != nil && len(r.Result) > 0 {
		if err := json.Unmarshal(r.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<token>"))
}
