package login

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/verify"
)

const finalURL = "https://business.gemini.google/home/cid/team-42?csesidx=998877"

type fakeBrowser struct {
	actions   []string
	locations []string
	cookies   []Cookie
	failOn    map[string]error
	closed    int

	// locationErrs makes the next reads of the address fail.
	locationErrs int
}

func (b *fakeBrowser) record(action string) error {
	b.actions = append(b.actions, action)
	return b.failOn[action]
}

func (b *fakeBrowser) Navigate(_ context.Context, url string) error {
	return b.record("navigate " + url)
}

func (b *fakeBrowser) WaitVisible(_ context.Context, sel string) error {
	return b.record("wait " + sel)
}

func (b *fakeBrowser) Click(_ context.Context, sel string) error {
	return b.record("click " + sel)
}

func (b *fakeBrowser) Clear(_ context.Context, sel string) error {
	return b.record("clear " + sel)
}

func (b *fakeBrowser) Type(_ context.Context, sel, text string) error {
	return b.record(fmt.Sprintf("type %s %s", sel, text))
}

// Location pops the scripted addresses, repeating the last one.
func (b *fakeBrowser) Location(context.Context) (string, error) {
	if b.locationErrs > 0 {
		b.locationErrs--
		return "", errors.New("cannot find context with specified id")
	}
	if len(b.locations) == 0 {
		return "", nil
	}
	loc := b.locations[0]
	if len(b.locations) > 1 {
		b.locations = b.locations[1:]
	}
	return loc, nil
}

func (b *fakeBrowser) Cookies(context.Context) ([]Cookie, error) {
	return b.cookies, nil
}

func (b *fakeBrowser) Close() error {
	b.closed++
	return nil
}

type fakeLauncher struct {
	browser  *fakeBrowser
	err      error
	launches []LaunchOptions
}

func (l *fakeLauncher) Launch(_ context.Context, opts LaunchOptions) (Browser, error) {
	l.launches = append(l.launches, opts)
	if l.err != nil {
		return nil, l.err
	}
	return l.browser, nil
}

type fakeCodes struct {
	code string
	err  error
	got  []int64
}

func (c *fakeCodes) WaitForCode(_ context.Context, _ string, accountID int64) (string, error) {
	c.got = append(c.got, accountID)
	return c.code, c.err
}

type fakeValidator struct {
	ok    bool
	calls int
}

func (v *fakeValidator) Validate(context.Context, config.Proxy) bool {
	v.calls++
	return v.ok
}

// fakeClock advances only when the automaton sleeps.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

type harness struct {
	automaton *Automaton
	browser   *fakeBrowser
	launcher  *fakeLauncher
	codes     *fakeCodes
	clock     *fakeClock
	states    []State
	logs      *bytes.Buffer
}

func newHarness() *harness {
	b := &fakeBrowser{
		locations: []string{
			"https://auth.business.gemini.google/verify",
			"https://business.gemini.google/loading",
			finalURL,
		},
		cookies: []Cookie{
			{Name: "NID", Value: "x"},
			{Name: CookieSecureCSes, Value: "ses-value"},
			{Name: CookieHostCOses, Value: "oses-value"},
		},
	}
	h := &harness{
		browser:  b,
		launcher: &fakeLauncher{browser: b},
		codes:    &fakeCodes{code: "K4R7T1"},
		clock:    &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		logs:     &bytes.Buffer{},
	}
	h.automaton = &Automaton{
		Launcher:  h.launcher,
		Codes:     h.codes,
		Timings:   DefaultTimings(),
		UserAgent: "test-agent",
		Headless:  true,
		Logger:    slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		Sleep:     h.clock.Sleep,
		Now:       h.clock.Now,
		OnTransition: func(_, to State) {
			h.states = append(h.states, to)
		},
	}
	return h
}

var child = config.ChildAccount{Email: "c1@mail.test", AccountID: 11}

func TestRunHappyPath(t *testing.T) {
	h := newHarness()

	tokens, err := h.automaton.Run(testContext(t), child, "mail-token")
	require.NoError(t, err)

	assert.Equal(t, config.TokenSet{
		Csesidx:    "998877",
		HostCOses:  "oses-value",
		SecureCSes: "ses-value",
		TeamID:     "team-42",
	}, tokens)

	assert.Equal(t, []State{
		StateBrowserLaunched, StateNavigated, StateIdentifierEntered, StateCodeRequested,
		StateAwaitingCode, StateCodeEntered, StateVerified, StateRedirected,
		StateArtifactsExtracted, StateClosed,
	}, h.states)

	assert.Equal(t, []string{
		"navigate " + DefaultLoginURL,
		"wait #email-input",
		"type #email-input c1@mail.test",
		"click #log-in-button",
		`wait input[name="pinInput"]`,
		`click input[name="pinInput"]`,
		`clear input[name="pinInput"]`,
		`type input[name="pinInput"] K4R7T1`,
		`click button[aria-label="验证"]`,
	}, h.browser.actions)

	assert.Equal(t, []int64{11}, h.codes.got)
	assert.Equal(t, 1, h.browser.closed)
	assert.Equal(t, []time.Duration{
		10 * time.Second, // mail grace
		3 * time.Second,  // post-verify settle
		3 * time.Second,  // redirect poll
		3 * time.Second,  // redirect poll
		10 * time.Second, // post-redirect settle
	}, h.clock.sleeps)

	require.Len(t, h.launcher.launches, 1)
	assert.Equal(t, LaunchOptions{UserAgent: "test-agent", Headless: true}, h.launcher.launches[0])
}

func TestRunFailuresAlwaysClose(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *harness)
		wantErr    error
		wantLaunch bool
	}{
		{
			name:    "code not found",
			setup:   func(h *harness) { h.codes.err = verify.ErrCodeNotFound },
			wantErr: verify.ErrCodeNotFound,
		},
		{
			name: "redirect timeout",
			setup: func(h *harness) {
				h.browser.locations = []string{"https://auth.business.gemini.google/verify"}
			},
			wantErr: ErrRedirectTimeout,
		},
		{
			name: "incomplete artifacts",
			setup: func(h *harness) {
				h.browser.cookies = []Cookie{{Name: CookieHostCOses, Value: "oses"}}
			},
			wantErr: ErrIncompleteArtifacts,
		},
		{
			name: "identifier field never appears",
			setup: func(h *harness) {
				h.browser.failOn = map[string]error{"wait #email-input": context.DeadlineExceeded}
			},
			wantErr: context.DeadlineExceeded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			tt.setup(h)

			tokens, err := h.automaton.Run(testContext(t), child, "mail-token")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, config.TokenSet{}, tokens)

			assert.Equal(t, 1, h.browser.closed)
			require.GreaterOrEqual(t, len(h.states), 2)
			assert.Equal(t, []State{StateAborted, StateClosed}, h.states[len(h.states)-2:])
		})
	}
}

func TestRunRedirectTimeoutHonoursCeiling(t *testing.T) {
	h := newHarness()
	h.browser.locations = []string{"https://auth.business.gemini.google/verify"}

	_, err := h.automaton.Run(testContext(t), child, "mail-token")
	require.ErrorIs(t, err, ErrRedirectTimeout)

	var polls int
	for _, d := range h.clock.sleeps {
		if d == 3*time.Second {
			polls++
		}
	}
	// one post-verify settle plus 20 redirect polls reach the 60s ceiling
	assert.Equal(t, 21, polls)
}

func TestRunRedirectSurvivesUnreadableAddress(t *testing.T) {
	t.Run("transient errors keep polling", func(t *testing.T) {
		h := newHarness()
		h.browser.locationErrs = 2

		tokens, err := h.automaton.Run(testContext(t), child, "mail-token")
		require.NoError(t, err)
		assert.Equal(t, "ses-value", tokens.SecureCSes)
		assert.Contains(t, h.logs.String(), "address not readable yet")
		assert.Equal(t, 1, h.browser.closed)
	})

	t.Run("persistent errors end at the ceiling", func(t *testing.T) {
		h := newHarness()
		h.browser.locationErrs = 1000

		_, err := h.automaton.Run(testContext(t), child, "mail-token")
		assert.ErrorIs(t, err, ErrRedirectTimeout)
		assert.Equal(t, 1, h.browser.closed)
	})
}

func TestRunLaunchFailure(t *testing.T) {
	h := newHarness()
	h.launcher.err = errors.New("no chrome")

	_, err := h.automaton.Run(testContext(t), child, "mail-token")
	require.ErrorContains(t, err, "no chrome")

	assert.Equal(t, []State{StateAborted, StateClosed}, h.states)
	assert.Zero(t, h.browser.closed)
	assert.Empty(t, h.codes.got)
}

func TestRunProxy(t *testing.T) {
	httpProxy := config.Proxy{Enabled: true, Type: "http", Host: "10.0.0.1", Port: 8080, Username: "u", Password: "p"}

	t.Run("validated proxy with page auth", func(t *testing.T) {
		h := newHarness()
		v := &fakeValidator{ok: true}
		h.automaton.Validator = v
		h.automaton.Proxy = httpProxy

		_, err := h.automaton.Run(testContext(t), child, "mail-token")
		require.NoError(t, err)

		opts := h.launcher.launches[0]
		assert.Equal(t, "http://10.0.0.1:8080", opts.ProxyServer)
		assert.Equal(t, "u", opts.ProxyUsername)
		assert.Equal(t, "p", opts.ProxyPassword)
	})

	t.Run("socks proxy gets no page auth", func(t *testing.T) {
		h := newHarness()
		h.automaton.Validator = &fakeValidator{ok: true}
		socks := httpProxy
		socks.Type = "socks5"
		h.automaton.Proxy = socks

		_, err := h.automaton.Run(testContext(t), child, "mail-token")
		require.NoError(t, err)

		opts := h.launcher.launches[0]
		assert.Equal(t, "socks5://10.0.0.1:8080", opts.ProxyServer)
		assert.Empty(t, opts.ProxyUsername)
	})

	t.Run("failed validation falls back to direct egress", func(t *testing.T) {
		h := newHarness()
		v := &fakeValidator{ok: false}
		h.automaton.Validator = v
		h.automaton.Proxy = httpProxy

		_, err := h.automaton.Run(testContext(t), child, "mail-token")
		require.NoError(t, err)

		assert.Equal(t, 1, v.calls)
		assert.Empty(t, h.launcher.launches[0].ProxyServer)
		assert.Contains(t, h.logs.String(), "continuing with direct egress")
	})

	t.Run("disabled proxy is not validated", func(t *testing.T) {
		h := newHarness()
		v := &fakeValidator{ok: true}
		h.automaton.Validator = v

		_, err := h.automaton.Run(testContext(t), child, "mail-token")
		require.NoError(t, err)
		assert.Zero(t, v.calls)
	})
}

func TestExtractArtifacts(t *testing.T) {
	full := []Cookie{{Name: CookieSecureCSes, Value: "ses"}, {Name: CookieHostCOses, Value: "oses"}}

	t.Run("all fields", func(t *testing.T) {
		tokens, err := ExtractArtifacts(finalURL, full)
		require.NoError(t, err)
		assert.Equal(t, "team-42", tokens.TeamID)
		assert.Equal(t, "998877", tokens.Csesidx)
	})

	t.Run("host cookie optional", func(t *testing.T) {
		tokens, err := ExtractArtifacts(finalURL, full[:1])
		require.NoError(t, err)
		assert.Empty(t, tokens.HostCOses)
	})

	tests := []struct {
		name     string
		location string
		cookies  []Cookie
		missing  string
	}{
		{"no csesidx", "https://business.gemini.google/home/cid/team-42", full, "csesidx"},
		{"no team", "https://business.gemini.google/home?csesidx=1", full, "team_id"},
		{"no session cookie", finalURL, full[1:], "secure_c_ses"},
		{"garbage address", "::not a url", full, "csesidx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := ExtractArtifacts(tt.location, tt.cookies)
			assert.ErrorIs(t, err, ErrIncompleteArtifacts)
			assert.ErrorContains(t, err, tt.missing)
			assert.Equal(t, config.TokenSet{}, tokens)
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "awaiting-code", StateAwaitingCode.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.True(t, StateClosed.Terminal())
	assert.False(t, StateAborted.Terminal())
}
