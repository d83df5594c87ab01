// Package verify finds one-time verification codes in a mailbox.
package verify

import (
	"regexp"

	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/mailapi"
)

// Source selects which part of a message carries the code.
type Source int

const (
	FromBody Source = iota
	FromSubject
)

// Provider describes how one sender's verification mail looks.
type Provider struct {
	Name string
	// Subject, when set, must equal the message subject exactly.
	Subject string
	Source  Source
	// Pattern must capture the code in its first group.
	Pattern *regexp.Regexp
}

// GeminiBusiness matches the business login code mail.
var GeminiBusiness = Provider{
	Name:    "gemini-business",
	Subject: "Gemini Business 验证码",
	Source:  FromBody,
	Pattern: regexp.MustCompile(`(?i)(?:您的一次性验证码为[:：]|your one-time verification code is:?)\s*([A-Z0-9]{6})\b`),
}

// ChatGPT matches ChatGPT login codes, which are carried in the subject.
var ChatGPT = Provider{
	Name:    "chatgpt",
	Source:  FromSubject,
	Pattern: regexp.MustCompile(`(?i)(?:代码为|code is|código es)\s*(\d{6})`),
}

// Extract returns the code in text, or "" when the pattern does not match.
func (p Provider) Extract(text string) string {
	m := p.Pattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Match returns the code carried by e, or "".
func (p Provider) Match(e mailapi.Email) string {
	if p.Subject != "" && e.Subject != p.Subject {
		return ""
	}
	if p.Source == FromSubject {
		return p.Extract(e.Subject)
	}
	return p.Extract(e.PlainText())
}

// Find scans emails in list order and returns the first match.
func (p Provider) Find(emails []mailapi.Email) (code string, email mailapi.Email, ok bool) {
	for _, e := range emails {
		if c := p.Match(e); c != "" {
			return c, e, true
		}
	}
	return "", mailapi.Email{}, false
}
