package login

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
)

// ErrIncompleteArtifacts is returned when a mandatory token field could not
// be read from the finished session.
var ErrIncompleteArtifacts = errors.New("incomplete session artifacts")

const (
	CookieSecureCSes = "__Secure-C_SES"
	CookieHostCOses  = "__Host-C_OSES"
)

var teamPath = regexp.MustCompile(`/cid/([^/?#]+)`)

// Cookie is a name/value pair read from the browser.
type Cookie struct {
	Name  string
	Value string
}

// ExtractArtifacts reads the token set from the post-login address and
// the session cookies. __Host-C_OSES may be absent; the other three fields
// are required.
func ExtractArtifacts(location string, cookies []Cookie) (config.TokenSet, error) {
	var tokens config.TokenSet

	for _, c := range cookies {
		switch c.Name {
		case CookieSecureCSes:
			tokens.SecureCSes = c.Value
		case CookieHostCOses:
			tokens.HostCOses = c.Value
		}
	}

	if u, err := url.Parse(location); err == nil {
		tokens.Csesidx = u.Query().Get("csesidx")
		if m := teamPath.FindStringSubmatch(u.Path); m != nil {
			tokens.TeamID = m[1]
		}
	}

	if missing := tokens.Missing(); len(missing) > 0 {
		return config.TokenSet{}, fmt.Errorf("%w: missing %s", ErrIncompleteArtifacts, strings.Join(missing, ", "))
	}
	return tokens, nil
}
