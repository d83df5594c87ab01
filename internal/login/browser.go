package login

import "context"

// Browser is one isolated browser tab. Every method blocks until the
// action's effect is observable or ctx ends.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string) error
	Click(ctx context.Context, selector string) error
	Clear(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	Location(ctx context.Context) (string, error)
	Cookies(ctx context.Context) ([]Cookie, error)
	Close() error
}

// LaunchOptions configure a new browser. ProxyUsername and ProxyPassword
// are answered at the network layer when the proxy challenges.
type LaunchOptions struct {
	ProxyServer   string
	ProxyUsername string
	ProxyPassword string
	UserAgent     string
	Headless      bool
	ExecPath      string
}

// Launcher starts browsers.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}
