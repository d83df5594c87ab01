// Package proxycheck verifies that a configured outbound proxy actually
// carries traffic before a browser session is pointed at it.
package proxycheck

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"golang.org/x/net/proxy"

	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/logging"
)

const (
	DefaultEchoURL       = "https://httpbin.org/ip"
	DefaultTimeout       = 15 * time.Second
	DefaultTunnelTimeout = 10 * time.Second
)

// Validator runs the primary echo probe and, for refused or timed-out
// connections, a tunnel handshake fallback.
type Validator struct {
	// EchoURL must answer with JSON {"origin": "<ip>"}.
	EchoURL       string
	Timeout       time.Duration
	TunnelTimeout time.Duration
	Logger        *slog.Logger
}

// NewValidator returns a validator with the default probe endpoints.
func NewValidator(logger *slog.Logger) *Validator {
	return &Validator{
		EchoURL:       DefaultEchoURL,
		Timeout:       DefaultTimeout,
		TunnelTimeout: DefaultTunnelTimeout,
		Logger:        logger,
	}
}

// Validate reports whether traffic traverses p. A disabled proxy returns
// false without touching the network.
//
// An origin other than 127.0.0.1 is taken as proof of proxying. That only
// shows the request left the machine, not that it used this proxy.
func (v *Validator) Validate(ctx context.Context, p config.Proxy) bool {
	if !p.Enabled {
		return false
	}
	log := logging.Or(v.Logger).With("proxy", p.ServerURL())

	origin, err := v.probe(ctx, p)
	if err == nil {
		if origin == "" || origin == "127.0.0.1" {
			log.Warn("proxy may not be in effect", "origin", origin)
			return false
		}
		log.Info("proxy in effect", "origin", origin)
		return true
	}

	if !fallbackEligible(err) {
		log.Warn("proxy probe failed", "error", err)
		return false
	}

	log.Debug("proxy probe unreachable, trying tunnel handshake", "error", err)
	if err := v.tunnel(ctx, p); err != nil {
		log.Warn("proxy tunnel handshake failed", "error", err)
		return false
	}
	log.Info("proxy tunnel established")
	return true
}

func (v *Validator) echoURL() string {
	if v.EchoURL == "" {
		return DefaultEchoURL
	}
	return v.EchoURL
}

// probe fetches the echo endpoint through the proxy and returns the
// reported origin.
func (v *Validator) probe(ctx context.Context, p config.Proxy) (string, error) {
	proxyURL := &url.URL{Scheme: p.Scheme(), Host: p.Address()}
	if p.HasCredentials() {
		proxyURL.User = url.UserPassword(p.Username, p.Password)
	}

	transport := &http.Transport{
		Proxy:             http.ProxyURL(proxyURL),
		TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
		DisableKeepAlives: true,
	}
	defer transport.CloseIdleConnections()

	timeout := v.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Transport: transport, Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.echoURL(), nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("echo endpoint returned HTTP %d", resp.StatusCode)
	}

	var body struct {
		Origin string `json:"origin"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return "", fmt.Errorf("decode echo response: %w", err)
	}
	return body.Origin, nil
}

// tunnelTarget is host:port of the echo endpoint.
func (v *Validator) tunnelTarget() (string, error) {
	u, err := url.Parse(v.echoURL())
	if err != nil {
		return "", err
	}
	port := u.Port()
	if port == "" {
		port = "443"
		if u.Scheme == "http" {
			port = "80"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

// tunnel asks the proxy to open a raw tunnel to the echo host. SOCKS5
// proxies get a SOCKS handshake, everything else an HTTP CONNECT.
func (v *Validator) tunnel(ctx context.Context, p config.Proxy) error {
	target, err := v.tunnelTarget()
	if err != nil {
		return err
	}
	timeout := v.TunnelTimeout
	if timeout <= 0 {
		timeout = DefaultTunnelTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if p.IsSOCKS() {
		return socksTunnel(ctx, p, target, timeout)
	}
	return connectTunnel(ctx, p, target)
}

func connectTunnel(ctx context.Context, p config.Proxy, target string) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Address())
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: target},
		Host:   target,
		Header: make(http.Header),
	}
	if p.HasCredentials() {
		auth := base64.StdEncoding.EncodeToString([]byte(p.Username + ":" + p.Password))
		req.Header.Set("Proxy-Authorization", "Basic "+auth)
	}
	if err := req.Write(conn); err != nil {
		return fmt.Errorf("write CONNECT: %w", err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		return fmt.Errorf("read CONNECT response: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("proxy answered CONNECT with status %d", resp.StatusCode)
	}
	return nil
}

func socksTunnel(ctx context.Context, p config.Proxy, target string, timeout time.Duration) error {
	var auth *proxy.Auth
	if p.HasCredentials() {
		auth = &proxy.Auth{User: p.Username, Password: p.Password}
	}
	dialer, err := proxy.SOCKS5("tcp", p.Address(), auth, &net.Dialer{Timeout: timeout})
	if err != nil {
		return err
	}

	var conn net.Conn
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		conn, err = cd.DialContext(ctx, "tcp", target)
	} else {
		conn, err = dialer.Dial("tcp", target)
	}
	if err != nil {
		return fmt.Errorf("socks5 handshake: %w", err)
	}
	return conn.Close()
}

// fallbackEligible reports whether err is a refused or timed-out
// connection. Other failures (DNS, TLS, bad responses) are final.
func fallbackEligible(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
