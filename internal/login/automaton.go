// Package login drives the business login page in a headless browser and
// harvests the resulting session tokens.
package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/logging"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/pace"
)

// ErrRedirectTimeout is returned when the page never reached the
// post-login address.
var ErrRedirectTimeout = errors.New("timed out waiting for post-login redirect")

// DefaultLoginURL is the business login entry point.
const DefaultLoginURL = "https://auth.business.gemini.google/login?continueUrl=https://business.gemini.google/"

// Selectors locate the login page elements.
type Selectors struct {
	Identifier string
	Submit     string
	CodeInput  string
	Verify     string
}

// DefaultSelectors match the current login page markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Identifier: "#email-input",
		Submit:     "#log-in-button",
		CodeInput:  `input[name="pinInput"]`,
		Verify:     `button[aria-label="验证"]`,
	}
}

// Timings are the waits between steps. MailGrace, PostVerifySettle and
// PostRedirectSettle cover moments the page gives no signal for.
type Timings struct {
	MailGrace          time.Duration
	PostVerifySettle   time.Duration
	PostRedirectSettle time.Duration
	RedirectPoll       time.Duration
	RedirectTimeout    time.Duration
	ElementWait        time.Duration
}

// DefaultTimings returns the stock step timings.
func DefaultTimings() Timings {
	return Timings{
		MailGrace:          10 * time.Second,
		PostVerifySettle:   3 * time.Second,
		PostRedirectSettle: 10 * time.Second,
		RedirectPoll:       3 * time.Second,
		RedirectTimeout:    60 * time.Second,
		ElementWait:        30 * time.Second,
	}
}

// CodeSource fetches the one-time code out of band.
type CodeSource interface {
	WaitForCode(ctx context.Context, token string, accountID int64) (string, error)
}

// ProxyValidator decides whether the configured proxy is usable.
type ProxyValidator interface {
	Validate(ctx context.Context, p config.Proxy) bool
}

// Automaton logs one child account in. It holds no per-run state and may
// be reused sequentially.
type Automaton struct {
	Launcher  Launcher
	Codes     CodeSource
	Validator ProxyValidator
	Proxy     config.Proxy

	LoginURL  string
	Selectors Selectors
	Timings   Timings
	UserAgent string
	Headless  bool
	ExecPath  string

	Logger *slog.Logger
	Sleep  pace.SleepFunc
	Now    func() time.Time

	// OnTransition, when set, observes every state change.
	OnTransition func(from, to State)
}

type transition struct {
	from, to State
	run      func(s *session, ctx context.Context) error
}

// transitions is the happy path in order. Any error moves the session to
// StateAborted; both paths end in StateClosed.
var transitions = []transition{
	{StateInit, StateBrowserLaunched, (*session).launch},
	{StateBrowserLaunched, StateNavigated, (*session).navigate},
	{StateNavigated, StateIdentifierEntered, (*session).enterIdentifier},
	{StateIdentifierEntered, StateCodeRequested, (*session).requestCode},
	{StateCodeRequested, StateAwaitingCode, (*session).awaitCodeField},
	{StateAwaitingCode, StateCodeEntered, (*session).enterCode},
	{StateCodeEntered, StateVerified, (*session).verify},
	{StateVerified, StateRedirected, (*session).awaitRedirect},
	{StateRedirected, StateArtifactsExtracted, (*session).extract},
}

// Run performs the full login for child, using mailToken to read the
// verification mail. The browser is always closed before Run returns.
func (a *Automaton) Run(ctx context.Context, child config.ChildAccount, mailToken string) (tokens config.TokenSet, err error) {
	s := &session{
		a:         a,
		child:     child,
		mailToken: mailToken,
		state:     StateInit,
		log:       logging.Or(a.Logger).With("email", child.Email),
		sleep:     pace.Or(a.Sleep),
	}
	defer s.finish(&err)

	for _, t := range transitions {
		if s.state != t.from {
			return config.TokenSet{}, fmt.Errorf("login: cannot %s from %s", t.to, s.state)
		}
		if err := t.run(s, ctx); err != nil {
			return config.TokenSet{}, fmt.Errorf("%s: %w", t.to, err)
		}
		s.moveTo(t.to)
	}
	return s.tokens, nil
}

type session struct {
	a         *Automaton
	child     config.ChildAccount
	mailToken string

	state    State
	browser  Browser
	location string
	tokens   config.TokenSet

	log   *slog.Logger
	sleep pace.SleepFunc
}

func (s *session) moveTo(to State) {
	from := s.state
	s.state = to
	s.log.Debug("login state", "from", from.String(), "to", to.String())
	if s.a.OnTransition != nil {
		s.a.OnTransition(from, to)
	}
}

// finish releases the browser on every exit path.
func (s *session) finish(errp *error) {
	if *errp != nil {
		s.moveTo(StateAborted)
	}
	if s.browser != nil {
		if cerr := s.browser.Close(); cerr != nil {
			s.log.Warn("closing browser", "error", cerr)
		}
		s.browser = nil
	}
	s.moveTo(StateClosed)
}

func (s *session) timings() Timings {
	t := s.a.Timings
	d := DefaultTimings()
	if t.ElementWait <= 0 {
		t.ElementWait = d.ElementWait
	}
	if t.RedirectPoll <= 0 {
		t.RedirectPoll = d.RedirectPoll
	}
	if t.RedirectTimeout <= 0 {
		t.RedirectTimeout = d.RedirectTimeout
	}
	return t
}

func (s *session) selectors() Selectors {
	sel := s.a.Selectors
	if sel == (Selectors{}) {
		return DefaultSelectors()
	}
	return sel
}

func (s *session) now() time.Time {
	if s.a.Now != nil {
		return s.a.Now()
	}
	return time.Now()
}

// waitVisible bounds an element wait by ElementWait.
func (s *session) waitVisible(ctx context.Context, sel string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timings().ElementWait)
	defer cancel()
	if err := s.browser.WaitVisible(ctx, sel); err != nil {
		return fmt.Errorf("wait for %s: %w", sel, err)
	}
	return nil
}

func (s *session) launch(ctx context.Context) error {
	opts := LaunchOptions{
		UserAgent: s.a.UserAgent,
		Headless:  s.a.Headless,
		ExecPath:  s.a.ExecPath,
	}

	p := s.a.Proxy
	if p.Enabled {
		if s.a.Validator != nil && s.a.Validator.Validate(ctx, p) {
			opts.ProxyServer = p.ServerURL()
			if p.NeedsPageAuth() {
				opts.ProxyUsername = p.Username
				opts.ProxyPassword = p.Password
			}
			s.log.Info("using proxy", "proxy", opts.ProxyServer)
		} else {
			s.log.Warn("proxy validation failed, continuing with direct egress", "proxy", p.ServerURL())
		}
	}

	b, err := s.a.Launcher.Launch(ctx, opts)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	s.browser = b
	return nil
}

func (s *session) navigate(ctx context.Context) error {
	target := s.a.LoginURL
	if target == "" {
		target = DefaultLoginURL
	}
	return s.browser.Navigate(ctx, target)
}

func (s *session) enterIdentifier(ctx context.Context) error {
	sel := s.selectors().Identifier
	if err := s.waitVisible(ctx, sel); err != nil {
		return err
	}
	return s.browser.Type(ctx, sel, s.child.Email)
}

func (s *session) requestCode(ctx context.Context) error {
	return s.browser.Click(ctx, s.selectors().Submit)
}

// awaitCodeField waits for the code input, which proves the identifier was
// accepted, then gives the provider time to send the mail.
func (s *session) awaitCodeField(ctx context.Context) error {
	if err := s.waitVisible(ctx, s.selectors().CodeInput); err != nil {
		return err
	}
	s.log.Info("code requested, waiting for mail", "grace", s.timings().MailGrace)
	return s.sleep(ctx, s.timings().MailGrace)
}

func (s *session) enterCode(ctx context.Context) error {
	code, err := s.a.Codes.WaitForCode(ctx, s.mailToken, s.child.AccountID)
	if err != nil {
		return err
	}
	sel := s.selectors().CodeInput
	if err := s.browser.Click(ctx, sel); err != nil {
		return err
	}
	if err := s.browser.Clear(ctx, sel); err != nil {
		return err
	}
	return s.browser.Type(ctx, sel, code)
}

func (s *session) verify(ctx context.Context) error {
	if err := s.browser.Click(ctx, s.selectors().Verify); err != nil {
		return err
	}
	return s.sleep(ctx, s.timings().PostVerifySettle)
}

// awaitRedirect polls the address until it reaches /cid/ or the ceiling
// passes.
func (s *session) awaitRedirect(ctx context.Context) error {
	t := s.timings()
	deadline := s.now().Add(t.RedirectTimeout)

	for {
		loc, err := s.browser.Location(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// The page context is swapped out during the redirect chain.
			s.log.Debug("address not readable yet", "error", err)
		} else if strings.Contains(loc, "/cid/") {
			s.location = loc
			s.log.Info("redirected, letting page settle", "settle", t.PostRedirectSettle)
			return s.sleep(ctx, t.PostRedirectSettle)
		}
		if !s.now().Before(deadline) {
			return fmt.Errorf("%w after %s (at %s)", ErrRedirectTimeout, t.RedirectTimeout, loc)
		}
		s.log.Debug("waiting for redirect", "location", loc)
		if err := s.sleep(ctx, t.RedirectPoll); err != nil {
			return err
		}
	}
}

func (s *session) extract(ctx context.Context) error {
	cookies, err := s.browser.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("read cookies: %w", err)
	}
	// The address may have changed during the settle wait.
	if loc, err := s.browser.Location(ctx); err == nil && loc != "" {
		s.location = loc
	}

	tokens, err := ExtractArtifacts(s.location, cookies)
	if err != nil {
		return err
	}
	s.tokens = tokens
	s.log.Info("session tokens harvested", "team_id", tokens.TeamID)
	return nil
}
