// Package pool talks to the remote account pool and reconciles it with the
// locally held token sets.
package pool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

var (
	// ErrAuthentication is returned when the pool rejects the shared secret.
	ErrAuthentication = errors.New("pool authentication failed")
	// ErrRemoteOperation marks a single delete, add or test call that failed.
	ErrRemoteOperation = errors.New("pool operation failed")
	// ErrTransport wraps network-level failures talking to the pool.
	ErrTransport = errors.New("pool transport error")
)

// DefaultUserAgent is submitted with every account added to the pool.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

const (
	adminTokenKey   = "admin"
	defaultTokenTTL = 10 * time.Minute
)

// StatusError is an unexpected HTTP status from the pool.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrRemoteOperation }

// AccountID is the pool's own identifier. The pool has served it both as a
// number and as a string.
type AccountID string

func (id *AccountID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = AccountID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("account id: %w", err)
	}
	*id = AccountID(n.String())
	return nil
}

// Account is one entry held by the pool.
type Account struct {
	ID         AccountID `json:"id"`
	TeamID     string    `json:"team_id,omitempty"`
	Csesidx    string    `json:"csesidx,omitempty"`
	SecureCSes string    `json:"secure_c_ses,omitempty"`
	HostCOses  string    `json:"host_c_oses,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
}

// AddRequest is the payload for a new pool account.
type AddRequest struct {
	TeamID     string `json:"team_id"`
	SecureCSes string `json:"secure_c_ses"`
	HostCOses  string `json:"host_c_oses"`
	Csesidx    string `json:"csesidx"`
	UserAgent  string `json:"user_agent"`
}

// Client is an authenticated pool API client. The admin token is cached
// and refreshed once on a 401.
type Client struct {
	baseURL    string
	password   string
	httpClient *http.Client
	tokens     *ttlcache.Cache[string, string]
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	tokenTTL   time.Duration
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithTokenTTL sets how long an admin token is reused.
func WithTokenTTL(d time.Duration) Option {
	return func(o *clientOptions) { o.tokenTTL = d }
}

// NewClient creates a pool client.
func NewClient(baseURL, password string, opts ...Option) *Client {
	o := clientOptions{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokenTTL:   defaultTokenTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		password:   password,
		httpClient: o.httpClient,
		tokens: ttlcache.New[string, string](
			ttlcache.WithTTL[string, string](o.tokenTTL),
			ttlcache.WithDisableTouchOnHit[string, string](),
		),
	}
}

// Login exchanges the shared secret for an admin token and caches it.
func (c *Client) Login(ctx context.Context) (string, error) {
	body := map[string]string{"password": c.password}
	var out struct {
		Token string `json:"token"`
	}
	status, err := c.send(ctx, "login", http.MethodPost, "/api/auth/login", "", body, &out)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return "", fmt.Errorf("%w: HTTP %d", ErrAuthentication, status)
		}
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: no token in response", ErrAuthentication)
	}
	c.tokens.Set(adminTokenKey, out.Token, ttlcache.DefaultTTL)
	return out.Token, nil
}

func (c *Client) adminToken(ctx context.Context) (string, error) {
	if item := c.tokens.Get(adminTokenKey); item != nil {
		return item.Value(), nil
	}
	return c.Login(ctx)
}

// authed sends an admin request, logging in again once if the cached
// token was rejected.
func (c *Client) authed(ctx context.Context, op, method, path string, body, out interface{}) (int, error) {
	token, err := c.adminToken(ctx)
	if err != nil {
		return 0, err
	}
	status, err := c.send(ctx, op, method, path, token, body, out)
	if status != http.StatusUnauthorized {
		return status, err
	}

	c.tokens.Delete(adminTokenKey)
	if token, err = c.Login(ctx); err != nil {
		return 0, err
	}
	return c.send(ctx, op, method, path, token, body, out)
}

// ListAccounts returns every account the pool holds.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var out struct {
		Accounts *[]Account `json:"accounts"`
	}
	if _, err := c.authed(ctx, "list accounts", http.MethodGet, "/api/accounts", nil, &out); err != nil {
		return nil, err
	}
	if out.Accounts == nil {
		return nil, fmt.Errorf("%w: list accounts: response has no accounts", ErrRemoteOperation)
	}
	return *out.Accounts, nil
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TestAccount asks the pool whether an account still works.
func (c *Client) TestAccount(ctx context.Context, id AccountID) (bool, error) {
	var out successResponse
	if _, err := c.authed(ctx, "test account", http.MethodGet, "/api/accounts/"+url.PathEscape(string(id))+"/test", nil, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}

// DeleteAccount removes an account. An account that is already gone
// counts as deleted.
func (c *Client) DeleteAccount(ctx context.Context, id AccountID) error {
	var out successResponse
	status, err := c.authed(ctx, "delete account", http.MethodDelete, "/api/accounts/"+url.PathEscape(string(id)), nil, &out)
	if status == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return out.check("delete account")
}

// AddAccount submits one token set.
func (c *Client) AddAccount(ctx context.Context, req AddRequest) error {
	var out successResponse
	if _, err := c.authed(ctx, "add account", http.MethodPost, "/api/accounts", req, &out); err != nil {
		return err
	}
	return out.check("add account")
}

func (r successResponse) check(op string) error {
	if r.Success {
		return nil
	}
	msg := r.Message
	if msg == "" {
		msg = "pool did not report success"
	}
	return fmt.Errorf("%w: %s: %s", ErrRemoteOperation, op, msg)
}

func (c *Client) send(ctx context.Context, op, method, path, token string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("%s: create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("x-admin-token", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrTransport, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %s: read body: %v", ErrTransport, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: %s: decode response: %v", ErrRemoteOperation, op, err)
		}
	}
	return resp.StatusCode, nil
}
