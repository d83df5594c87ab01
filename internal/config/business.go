package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"
)

// BusinessFileName is the business document in the config directory.
const BusinessFileName = "gemini-mail.yaml"

// BusinessAccounts is the set of children whose tokens are refreshed.
type BusinessAccounts struct {
	Parent   ParentAccount  `yaml:"parent"`
	Children []ChildAccount `yaml:"children"`
}

// BusinessDocument is gemini-mail.yaml.
type BusinessDocument struct {
	PoolAPIURL string           `yaml:"poolApiUrl"`
	Password   string           `yaml:"password"`
	Proxy      Proxy            `yaml:"proxy"`
	Accounts   BusinessAccounts `yaml:"accounts"`
}

// ValidatePool checks the pool connection parameters.
func (d *BusinessDocument) ValidatePool() error {
	if d.PoolAPIURL == "" || d.Password == "" {
		return fmt.Errorf("%w: fill in poolApiUrl and password in %s", ErrConfiguration, BusinessFileName)
	}
	return nil
}

// BusinessPath returns the business document path.
func BusinessPath() (string, error) {
	return fileInDir(BusinessFileName)
}

// BusinessStore loads and rewrites the business document. Every mutation
// reloads the file so a write never clobbers fields it did not touch.
type BusinessStore struct {
	Path string
	Now  func() time.Time

	mu sync.Mutex
}

// NewBusinessStore opens the business document in the config directory.
func NewBusinessStore() (*BusinessStore, error) {
	path, err := BusinessPath()
	if err != nil {
		return nil, err
	}
	return &BusinessStore{Path: path}, nil
}

func (s *BusinessStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Load reads the document. A document without a parent email is malformed.
func (s *BusinessStore) Load() (*BusinessDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *BusinessStore) load() (*BusinessDocument, error) {
	var doc BusinessDocument
	if err := readDocument(s.Path, &doc); err != nil {
		return nil, err
	}
	if doc.Accounts.Parent.Email == "" {
		return nil, fmt.Errorf("%w: %s has no accounts.parent", ErrConfiguration, BusinessFileName)
	}
	if doc.Accounts.Children == nil {
		doc.Accounts.Children = []ChildAccount{}
	}
	return &doc, nil
}

// Save rewrites the whole document.
func (s *BusinessStore) Save(doc *BusinessDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeDocument(s.Path, doc)
}

// UpdateChildToken attaches a freshly harvested token set to one child and
// stamps lastUpdated. Incomplete token sets are refused.
func (s *BusinessStore) UpdateChildToken(email string, tokens TokenSet) error {
	if missing := tokens.Missing(); len(missing) > 0 {
		return fmt.Errorf("refusing to store incomplete tokens for %s: missing %v", email, missing)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	idx := -1
	for i := range doc.Accounts.Children {
		if doc.Accounts.Children[i].Email == email {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("child account not found: %s", email)
	}

	t := tokens
	doc.Accounts.Children[idx].Tokens = &t
	doc.Accounts.Children[idx].LastUpdated = s.now().UTC().Format(time.RFC3339)

	return writeDocument(s.Path, doc)
}

// SelectChildren replaces the business account list with the given parent
// and children. Pool settings and proxy are kept. A missing document is
// created.
func (s *BusinessStore) SelectChildren(parent ParentAccount, children []ChildAccount) (*BusinessDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc BusinessDocument
	if _, err := os.Stat(s.Path); err == nil {
		if err := readDocument(s.Path, &doc); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	selected := make([]ChildAccount, 0, len(children))
	for _, c := range children {
		c.Tokens = nil
		c.LastUpdated = ""
		selected = append(selected, c)
	}
	doc.Accounts = BusinessAccounts{Parent: parent, Children: selected}

	if err := writeDocument(s.Path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
