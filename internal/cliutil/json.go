package cliutil

import (
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
)

// ChildJSON returns a map for JSON output of a business child account.
// Token values are never printed, only which fields are present.
func ChildJSON(c config.ChildAccount) map[string]interface{} {
	m := map[string]interface{}{
		"email":     c.Email,
		"accountId": c.AccountID,
		"hasTokens": c.Tokens != nil,
	}
	if c.Tokens != nil {
		m["missing"] = c.Tokens.Missing()
	}
	if c.CreateTime != "" {
		m["createTime"] = c.CreateTime
	}
	if c.LastUpdated != "" {
		m["lastUpdated"] = c.LastUpdated
	}
	return m
}

// MailChildJSON returns a map for JSON output of a mail child account.
func MailChildJSON(c config.ChildAccount) map[string]interface{} {
	m := map[string]interface{}{
		"email":     c.Email,
		"accountId": c.AccountID,
	}
	if c.CreateTime != "" {
		m["createTime"] = c.CreateTime
	}
	if c.LatestEmailTime != "" {
		m["latestEmailTime"] = c.LatestEmailTime
	}
	return m
}
