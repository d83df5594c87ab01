package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/mailapi"
)

const mailYAML = `credentials:
  account: boss
  password: hunter2
defaultDomain: '@mail.test'
emailApiUrl: https://mail.test
accounts:
  parent:
    email: boss@mail.test
    accountId: 1
    name: boss
    status: 0
    latestEmailTime: ""
    createTime: "2024-01-01 00:00:00"
  children:
    - email: c1@mail.test
      accountId: 11
      createTime: "2024-01-02 00:00:00"
  lastUpdated: ""
`

const businessYAML = `poolApiUrl: https://pool.test
password: admin
proxy:
  enabled: true
  type: http
  url: 10.0.0.1
  port: 8080
  username: u
  password: p
accounts:
  parent:
    email: boss@mail.test
    accountId: 1
    name: boss
    status: 0
    latestEmailTime: ""
    createTime: ""
  children:
    - email: c1@mail.test
      accountId: 11
      createTime: "2024-01-02 00:00:00"
    - email: c2@mail.test
      accountId: 12
      createTime: "2024-01-03 00:00:00"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNormalizeLineEndings(t *testing.T) {
	assert.Equal(t, "a\r\nb\r\nc", string(normalizeLineEndings([]byte("a\nb\r\nc"))))
}

func TestLoadMail(t *testing.T) {
	t.Run("missing file is configuration error", func(t *testing.T) {
		t.Setenv("GBPOOL_CONFIG_DIR", t.TempDir())
		_, err := LoadMail()
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("parses document", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("GBPOOL_CONFIG_DIR", dir)
		writeFile(t, dir, MailFileName, mailYAML)

		doc, err := LoadMail()
		require.NoError(t, err)
		require.NoError(t, doc.Validate())
		assert.Equal(t, "boss@mail.test", doc.LoginEmail())
		assert.Equal(t, "https://mail.test", doc.EmailAPIURL)
		require.NotNil(t, doc.Accounts.Parent.AccountID)
		assert.Equal(t, int64(1), *doc.Accounts.Parent.AccountID)
		require.Len(t, doc.Accounts.Children, 1)
		assert.Equal(t, int64(11), doc.Accounts.Children[0].AccountID)
	})

	t.Run("crlf document", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, MailFileName, strings.ReplaceAll(mailYAML, "\n", "\r\n"))

		doc, err := LoadMailFrom(path)
		require.NoError(t, err)
		assert.Equal(t, "hunter2", doc.Credentials.Password)
	})

	t.Run("missing credentials", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), MailFileName, "emailApiUrl: https://mail.test\n")

		doc, err := LoadMailFrom(path)
		require.NoError(t, err)
		assert.NotNil(t, doc.Accounts.Children)
		assert.ErrorIs(t, doc.Validate(), ErrConfiguration)
	})
}

func TestResolveLoginEmail(t *testing.T) {
	tests := []struct {
		account, domain, want string
	}{
		{"boss", "@mail.test", "boss@mail.test"},
		{"boss", "mail.test", "boss@mail.test"},
		{"boss@other.test", "@mail.test", "boss@other.test"},
		{"boss", "", "boss"},
	}
	for _, tt := range tests {
		t.Run(tt.account+tt.domain, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveLoginEmail(tt.account, tt.domain))
		})
	}
}

func TestMailDocumentSave(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, MailFileName, mailYAML)

	doc, err := LoadMailFrom(path)
	require.NoError(t, err)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	doc.ReplaceAccounts(ParentAccount{Email: "boss@mail.test"}, []ChildAccount{
		{Email: "n1@mail.test", AccountID: 21},
		{Email: "n2@mail.test", AccountID: 22},
	}, now)
	require.NoError(t, doc.Save())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, strings.ReplaceAll(string(raw), "\r\n", ""), "\n")
	assert.Contains(t, string(raw), "\r\n")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reloaded, err := LoadMailFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", reloaded.Credentials.Password)
	assert.Equal(t, "2025-03-01T12:00:00Z", reloaded.Accounts.LastUpdated)
	require.Len(t, reloaded.Accounts.Children, 2)

	c, ok := reloaded.FindChild("22")
	require.True(t, ok)
	assert.Equal(t, "n2@mail.test", c.Email)
	_, ok = reloaded.FindChild("missing@mail.test")
	assert.False(t, ok)
}

func TestBusinessStoreLoad(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		store := &BusinessStore{Path: filepath.Join(t.TempDir(), BusinessFileName)}
		_, err := store.Load()
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("missing parent", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), BusinessFileName, "poolApiUrl: x\naccounts:\n  children: []\n")
		_, err := (&BusinessStore{Path: path}).Load()
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("parses proxy and children", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), BusinessFileName, businessYAML)
		doc, err := (&BusinessStore{Path: path}).Load()
		require.NoError(t, err)
		require.NoError(t, doc.ValidatePool())

		assert.True(t, doc.Proxy.Enabled)
		assert.Equal(t, "10.0.0.1:8080", doc.Proxy.Address())
		assert.Equal(t, "http://10.0.0.1:8080", doc.Proxy.ServerURL())
		assert.True(t, doc.Proxy.NeedsPageAuth())
		assert.Len(t, doc.Accounts.Children, 2)
		assert.Nil(t, doc.Accounts.Children[0].Tokens)
	})
}

func TestUpdateChildToken(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, BusinessFileName, businessYAML)
	now := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)
	store := &BusinessStore{Path: path, Now: func() time.Time { return now }}

	t.Run("writes tokens with empty host cookie", func(t *testing.T) {
		err := store.UpdateChildToken("c2@mail.test", TokenSet{
			Csesidx:    "123",
			SecureCSes: "ses",
			TeamID:     "team",
		})
		require.NoError(t, err)

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `host_c_oses: ""`)
		assert.Contains(t, string(raw), "\r\n")

		doc, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, doc.Accounts.Children[0].Tokens)
		require.NotNil(t, doc.Accounts.Children[1].Tokens)
		assert.Equal(t, "team", doc.Accounts.Children[1].Tokens.TeamID)
		assert.Equal(t, "2025-03-01T08:30:00Z", doc.Accounts.Children[1].LastUpdated)
		assert.Equal(t, "https://pool.test", doc.PoolAPIURL)
		assert.Equal(t, "p", doc.Proxy.Password)
	})

	t.Run("unknown child", func(t *testing.T) {
		err := store.UpdateChildToken("nobody@mail.test", TokenSet{Csesidx: "1", SecureCSes: "s", TeamID: "t"})
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("incomplete tokens are refused", func(t *testing.T) {
		before, err := os.ReadFile(path)
		require.NoError(t, err)

		err = store.UpdateChildToken("c1@mail.test", TokenSet{Csesidx: "1", TeamID: "t"})
		assert.ErrorContains(t, err, "secure_c_ses")

		after, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestSelectChildren(t *testing.T) {
	t.Run("keeps pool settings", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), BusinessFileName, businessYAML)
		store := &BusinessStore{Path: path}

		doc, err := store.SelectChildren(ParentAccount{Email: "boss@mail.test"}, []ChildAccount{
			{Email: "c9@mail.test", AccountID: 19, Tokens: &TokenSet{Csesidx: "x"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://pool.test", doc.PoolAPIURL)

		loaded, err := store.Load()
		require.NoError(t, err)
		assert.True(t, loaded.Proxy.Enabled)
		require.Len(t, loaded.Accounts.Children, 1)
		assert.Equal(t, "c9@mail.test", loaded.Accounts.Children[0].Email)
		assert.Nil(t, loaded.Accounts.Children[0].Tokens)
	})

	t.Run("creates missing document", func(t *testing.T) {
		store := &BusinessStore{Path: filepath.Join(t.TempDir(), BusinessFileName)}
		_, err := store.SelectChildren(ParentAccount{Email: "boss@mail.test"}, nil)
		require.NoError(t, err)

		doc, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, doc.Accounts.Children)
	})
}

func TestTokenSet(t *testing.T) {
	var nilSet *TokenSet
	assert.False(t, nilSet.Complete())
	assert.Len(t, nilSet.Missing(), 3)

	assert.True(t, (&TokenSet{Csesidx: "1", SecureCSes: "s", TeamID: "t"}).Complete())
	assert.Equal(t, []string{"team_id"}, (&TokenSet{Csesidx: "1", SecureCSes: "s"}).Missing())
}

func TestProxy(t *testing.T) {
	socks := Proxy{Type: "SOCKS5", Host: "127.0.0.1", Port: 1080, Username: "u", Password: "p"}
	assert.Equal(t, "socks5://127.0.0.1:1080", socks.ServerURL())
	assert.True(t, socks.HasCredentials())
	assert.False(t, socks.NeedsPageAuth())

	plain := Proxy{Host: "proxy.test", Port: 3128}
	assert.Equal(t, "http", plain.Scheme())
	assert.False(t, plain.NeedsPageAuth())
}

func TestSplitAccounts(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("parent found", func(t *testing.T) {
		parent, children := SplitAccounts([]mailapi.Account{
			{Email: "c1@mail.test", AccountID: 11},
			{Email: "boss@mail.test", AccountID: 1, Name: "boss"},
			{Email: "c2@mail.test", AccountID: 12},
		}, "boss@mail.test", now)

		assert.Equal(t, "boss@mail.test", parent.Email)
		require.NotNil(t, parent.AccountID)
		assert.Equal(t, int64(1), *parent.AccountID)
		require.Len(t, children, 2)
		assert.Equal(t, int64(12), children[1].AccountID)
	})

	t.Run("parent synthesized", func(t *testing.T) {
		parent, children := SplitAccounts([]mailapi.Account{{Email: "c1@mail.test"}}, "boss@mail.test", now)
		assert.Equal(t, "boss@mail.test", parent.Email)
		assert.Nil(t, parent.AccountID)
		assert.Nil(t, parent.Status)
		assert.Equal(t, "2025-01-01T00:00:00Z", parent.CreateTime)
		assert.Len(t, children, 1)
	})
}
