package config

import (
	"fmt"
	"strings"
	"time"
)

// MailFileName is the mail document in the config directory.
const MailFileName = "temp-mail.yaml"

// Credentials are the parent mailbox login.
type Credentials struct {
	Account  string `yaml:"account"`
	Password string `yaml:"password"`
}

// MailAccounts is the last snapshot fetched from the mail provider.
type MailAccounts struct {
	Parent      ParentAccount  `yaml:"parent"`
	Children    []ChildAccount `yaml:"children"`
	LastUpdated string         `yaml:"lastUpdated"`
}

// MailDocument is temp-mail.yaml.
type MailDocument struct {
	Credentials   Credentials  `yaml:"credentials"`
	DefaultDomain string       `yaml:"defaultDomain"`
	EmailAPIURL   string       `yaml:"emailApiUrl"`
	Accounts      MailAccounts `yaml:"accounts"`

	path string
}

// MailPath returns the mail document path.
func MailPath() (string, error) {
	return fileInDir(MailFileName)
}

// LoadMail reads the mail document from the config directory.
func LoadMail() (*MailDocument, error) {
	path, err := MailPath()
	if err != nil {
		return nil, err
	}
	return LoadMailFrom(path)
}

// LoadMailFrom reads the mail document at path.
func LoadMailFrom(path string) (*MailDocument, error) {
	doc := &MailDocument{path: path}
	if err := readDocument(path, doc); err != nil {
		return nil, err
	}
	if doc.Accounts.Children == nil {
		doc.Accounts.Children = []ChildAccount{}
	}
	return doc, nil
}

// Path returns where the document was loaded from.
func (d *MailDocument) Path() string {
	return d.path
}

// LoginEmail resolves the parent address, appending the default domain
// when the account has no @.
func (d *MailDocument) LoginEmail() string {
	return ResolveLoginEmail(d.Credentials.Account, d.DefaultDomain)
}

// ResolveLoginEmail appends domain to account unless account is already a
// full address.
func ResolveLoginEmail(account, domain string) string {
	if domain == "" || strings.Contains(account, "@") {
		return account
	}
	if !strings.HasPrefix(domain, "@") {
		domain = "@" + domain
	}
	return account + domain
}

// Validate checks that the document can be used to log in.
func (d *MailDocument) Validate() error {
	if d.Credentials.Account == "" || d.Credentials.Password == "" {
		return fmt.Errorf("%w: fill in credentials.account and credentials.password in %s", ErrConfiguration, MailFileName)
	}
	if d.EmailAPIURL == "" {
		return fmt.Errorf("%w: emailApiUrl is not set in %s", ErrConfiguration, MailFileName)
	}
	return nil
}

// ReplaceAccounts swaps in a fresh provider snapshot.
func (d *MailDocument) ReplaceAccounts(parent ParentAccount, children []ChildAccount, now time.Time) {
	if children == nil {
		children = []ChildAccount{}
	}
	d.Accounts = MailAccounts{
		Parent:      parent,
		Children:    children,
		LastUpdated: now.UTC().Format(time.RFC3339),
	}
}

// FindChild looks a child up by email or by numeric account id.
func (d *MailDocument) FindChild(ref string) (ChildAccount, bool) {
	for _, c := range d.Accounts.Children {
		if c.Email == ref || fmt.Sprint(c.AccountID) == ref {
			return c, true
		}
	}
	return ChildAccount{}, false
}

// Save rewrites the whole document.
func (d *MailDocument) Save() error {
	if d.path == "" {
		path, err := MailPath()
		if err != nil {
			return err
		}
		d.path = path
	}
	return writeDocument(d.path, d)
}
