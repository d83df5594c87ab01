// Package mailapi is a client for the temporary-mail provider's HTTP API.
package mailapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrAuthentication is returned when the provider rejects a login.
	ErrAuthentication = errors.New("mail provider authentication failed")
	// ErrTransport wraps network-level failures talking to the provider.
	ErrTransport = errors.New("mail provider transport error")
)

// APIError is a non-success HTTP status or envelope code.
type APIError struct {
	Op         string
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 && e.StatusCode != http.StatusOK {
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	}
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("%s: %s (code %d)", e.Op, msg, e.Code)
}

// rejected reports whether the provider answered but refused the request.
func (e *APIError) rejected() bool {
	switch e.StatusCode {
	case http.StatusOK, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

// Client talks to the mail provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client rooted at baseURL (without the /api suffix).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the provider root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Login exchanges the parent credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	payload := map[string]string{"email": email, "password": password}

	var data struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, "login", http.MethodPost, "/api/login", "", payload, &data); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.rejected() {
			return "", fmt.Errorf("%w: %v", ErrAuthentication, apiErr)
		}
		return "", err
	}
	if data.Token == "" {
		return "", fmt.Errorf("%w: empty token in response", ErrAuthentication)
	}
	return data.Token, nil
}

// ListAccounts returns every mailbox owned by the logged-in parent,
// the parent itself included.
func (c *Client) ListAccounts(ctx context.Context, token string) ([]Account, error) {
	var accounts []Account
	if err := c.do(ctx, "list accounts", http.MethodGet, "/api/account/list?accountId=0&size=100", token, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// CreateAccount registers a new child mailbox.
func (c *Client) CreateAccount(ctx context.Context, token, email string) (*Account, error) {
	payload := map[string]string{"email": email, "token": ""}

	var account Account
	if err := c.do(ctx, "create account", http.MethodPost, "/api/account/add", token, payload, &account); err != nil {
		return nil, err
	}
	if account.Email == "" {
		account.Email = email
	}
	return &account, nil
}

// DeleteAccount removes a child mailbox.
func (c *Client) DeleteAccount(ctx context.Context, token string, accountID int64) error {
	path := "/api/account/delete?accountId=" + strconv.FormatInt(accountID, 10)
	return c.do(ctx, "delete account", http.MethodDelete, path, token, nil, nil)
}

// ListEmails returns the newest size messages of a mailbox, newest first.
func (c *Client) ListEmails(ctx context.Context, token string, accountID int64, size int) ([]Email, error) {
	q := url.Values{}
	q.Set("accountId", strconv.FormatInt(accountID, 10))
	q.Set("emailId", "0")
	q.Set("timeSort", "0")
	q.Set("size", strconv.Itoa(size))
	q.Set("type", "0")

	var data struct {
		List []Email `json:"list"`
	}
	if err := c.do(ctx, "list emails", http.MethodGet, "/api/email/list?"+q.Encode(), token, nil, &data); err != nil {
		return nil, err
	}
	return data.List, nil
}

func (c *Client) do(ctx context.Context, op, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTransport, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{Op: op, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: read body: %v", ErrTransport, op, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if env.Code != 200 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Code: env.Code, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: decode data: %w", op, err)
	}
	return nil
}
