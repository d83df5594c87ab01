package login

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/logging"
)

// ChromeLauncher starts Chromium through the DevTools protocol.
type ChromeLauncher struct {
	Logger *slog.Logger
}

// Launch starts a fresh browser process with its own profile.
func (l *ChromeLauncher) Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.IgnoreCertErrors,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(1280, 900),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.ProxyServer != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.ProxyServer))
	}

	log := logging.Or(l.Logger)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		log.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
	}))

	b := &chromeBrowser{ctx: tabCtx, cancel: func() { cancelTab(); cancelAlloc() }}

	var actions []chromedp.Action
	if opts.ProxyUsername != "" {
		listenProxyAuth(tabCtx, opts.ProxyUsername, opts.ProxyPassword)
		actions = append(actions, fetch.Enable().WithHandleAuthRequests(true))
	}

	// The first Run must use the tab context itself; a derived context
	// with a deadline would tear the browser down when it expires.
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		b.cancel()
		return nil, err
	}
	return b, nil
}

// listenProxyAuth answers proxy auth challenges and lets every paused
// request continue.
func listenProxyAuth(ctx context.Context, username, password string) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *fetch.EventRequestPaused:
			go func() {
				c := chromedp.FromContext(ctx)
				_ = fetch.ContinueRequest(e.RequestID).Do(cdp.WithExecutor(ctx, c.Target))
			}()
		case *fetch.EventAuthRequired:
			go func() {
				c := chromedp.FromContext(ctx)
				resp := &fetch.AuthChallengeResponse{
					Response: fetch.AuthChallengeResponseResponseProvideCredentials,
					Username: username,
					Password: password,
				}
				_ = fetch.ContinueWithAuth(e.RequestID, resp).Do(cdp.WithExecutor(ctx, c.Target))
			}()
		}
	})
}

type chromeBrowser struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions on the tab, bounded by ctx's deadline and
// cancellation.
func (b *chromeBrowser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (b *chromeBrowser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, chromedp.Navigate(url))
}

func (b *chromeBrowser) WaitVisible(ctx context.Context, selector string) error {
	return b.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (b *chromeBrowser) Click(ctx context.Context, selector string) error {
	return b.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (b *chromeBrowser) Clear(ctx context.Context, selector string) error {
	return b.run(ctx, chromedp.SetValue(selector, "", chromedp.ByQuery))
}

func (b *chromeBrowser) Type(ctx context.Context, selector, text string) error {
	return b.run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

func (b *chromeBrowser) Location(ctx context.Context) (string, error) {
	var loc string
	err := b.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (b *chromeBrowser) Cookies(ctx context.Context) ([]Cookie, error) {
	var out []Cookie
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			out = append(out, Cookie{Name: c.Name, Value: c.Value})
		}
		return nil
	}))
	return out, err
}

func (b *chromeBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	return err
}
