package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ParentAccount is the operator's own mailbox at the mail provider.
type ParentAccount struct {
	Email           string `yaml:"email" json:"email"`
	AccountID       *int64 `yaml:"accountId" json:"accountId"`
	Name            string `yaml:"name" json:"name"`
	Status          *int   `yaml:"status" json:"status"`
	LatestEmailTime string `yaml:"latestEmailTime" json:"latestEmailTime"`
	CreateTime      string `yaml:"createTime" json:"createTime"`
}

// ChildAccount is a disposable mailbox delegated to one business identity.
// AccountID is the join key for code polling and token attachment.
type ChildAccount struct {
	Email           string    `yaml:"email" json:"email"`
	AccountID       int64     `yaml:"accountId" json:"accountId"`
	Name            string    `yaml:"name,omitempty" json:"name,omitempty"`
	Status          *int      `yaml:"status,omitempty" json:"status,omitempty"`
	LatestEmailTime string    `yaml:"latestEmailTime,omitempty" json:"latestEmailTime,omitempty"`
	CreateTime      string    `yaml:"createTime" json:"createTime"`
	Tokens          *TokenSet `yaml:"tokens,omitempty" json:"tokens,omitempty"`
	LastUpdated     string    `yaml:"lastUpdated,omitempty" json:"lastUpdated,omitempty"`
}

// TokenSet holds the four session artifacts harvested from a completed
// business login. HostCOses may legitimately be empty; it is still written.
type TokenSet struct {
	Csesidx    string `yaml:"csesidx" json:"csesidx"`
	HostCOses  string `yaml:"host_c_oses" json:"host_c_oses"`
	SecureCSes string `yaml:"secure_c_ses" json:"secure_c_ses"`
	TeamID     string `yaml:"team_id" json:"team_id"`
}

// Missing lists the mandatory fields that are empty.
func (t *TokenSet) Missing() []string {
	if t == nil {
		return []string{"csesidx", "secure_c_ses", "team_id"}
	}
	var missing []string
	if t.Csesidx == "" {
		missing = append(missing, "csesidx")
	}
	if t.SecureCSes == "" {
		missing = append(missing, "secure_c_ses")
	}
	if t.TeamID == "" {
		missing = append(missing, "team_id")
	}
	return missing
}

// Complete reports whether every mandatory field is present.
func (t *TokenSet) Complete() bool {
	return len(t.Missing()) == 0
}

// Proxy is the optional outbound proxy for the browser session.
type Proxy struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"url" json:"url"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"-"`
}

// Scheme returns the proxy type, defaulting to http.
func (p Proxy) Scheme() string {
	if p.Type == "" {
		return "http"
	}
	return strings.ToLower(p.Type)
}

// Address returns host:port.
func (p Proxy) Address() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// ServerURL is the value handed to the browser's --proxy-server flag.
func (p Proxy) ServerURL() string {
	return fmt.Sprintf("%s://%s", p.Scheme(), p.Address())
}

// HasCredentials reports whether both username and password are set.
func (p Proxy) HasCredentials() bool {
	return p.Username != "" && p.Password != ""
}

// IsSOCKS reports whether the proxy speaks SOCKS5.
func (p Proxy) IsSOCKS() bool {
	s := p.Scheme()
	return s == "socks5" || s == "socks5h"
}

// NeedsPageAuth reports whether credentials must be answered at the page
// network layer. Chromium cannot take SOCKS credentials that way.
func (p Proxy) NeedsPageAuth() bool {
	return p.HasCredentials() && !p.IsSOCKS()
}
