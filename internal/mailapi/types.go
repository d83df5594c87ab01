package mailapi

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Account is one mailbox as listed by the provider.
type Account struct {
	Email           string `json:"email"`
	AccountID       int64  `json:"accountId"`
	Name            string `json:"name"`
	Status          *int   `json:"status"`
	LatestEmailTime string `json:"latestEmailTime"`
	CreateTime      string `json:"createTime"`
}

// Email is one message as listed by the provider.
type Email struct {
	EmailID    int64  `json:"emailId"`
	Subject    string `json:"subject"`
	Text       string `json:"text"`
	Content    string `json:"content"`
	CreateTime string `json:"createTime"`
	SendEmail  string `json:"sendEmail"`
	Name       string `json:"name"`
}

// PlainText returns the text body, falling back to the visible text of the
// HTML body when the provider did not supply one.
func (e Email) PlainText() string {
	if strings.TrimSpace(e.Text) != "" {
		return e.Text
	}
	if e.Content == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(e.Content))
	if err != nil {
		return e.Content
	}
	doc.Find("script, style").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Sender returns the display name, or the address when there is none.
func (e Email) Sender() string {
	if e.Name != "" {
		return e.Name
	}
	return e.SendEmail
}

const nameAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomLocalPart generates a random alphanumeric mailbox name.
func RandomLocalPart(length int) (string, error) {
	b := make([]byte, length)
	max := big.NewInt(int64(len(nameAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = nameAlphabet[n.Int64()]
	}
	return string(b), nil
}

// NewChildAddress builds a fresh 15-character address on domain. The domain
// may be given with or without its leading @.
func NewChildAddress(domain string) (string, error) {
	name, err := RandomLocalPart(15)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(domain, "@") {
		domain = "@" + domain
	}
	return name + domain, nil
}
