package business

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cliutil"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/history"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/login"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/output"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/pool"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/proxycheck"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/refresh"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/styles"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/verify"
)

// pipeline runs refresh and pool operations against one business store and
// records each run in history.
type pipeline struct {
	store     *config.BusinessStore
	refresher refresh.Refresher
	log       *slog.Logger
	quiet     bool
	poolOpts  []pool.Option
}

// newAutomaton wires the browser login for children of the given session.
func newAutomaton(s *cliutil.MailSession, proxy config.Proxy, log *slog.Logger) *login.Automaton {
	timings := login.DefaultTimings()
	timings.MailGrace = config.GetMailGrace()
	timings.PostVerifySettle = config.GetPostVerifySettle()
	timings.RedirectTimeout = config.GetRedirectTimeout()

	return &login.Automaton{
		Launcher:  &login.ChromeLauncher{Logger: log},
		Codes:     verify.NewPoller(s.Client, verify.GeminiBusiness, log),
		Validator: proxycheck.NewValidator(log),
		Proxy:     proxy,
		Timings:   timings,
		UserAgent: config.GetUserAgent(),
		Headless:  config.GetHeadless(),
		ExecPath:  config.GetBrowserPath(),
		Logger:    log,
		Sleep:     sleep,
		OnTransition: func(from, to login.State) {
			log.Debug("login state", "from", from.String(), "to", to.String())
		},
	}
}

func (p *pipeline) printf(format string, a ...interface{}) {
	if !p.quiet {
		fmt.Printf(format, a...)
	}
}

func (p *pipeline) refresh(ctx context.Context, loginEmail, mailToken string) (*refresh.Summary, error) {
	run := history.NewRun(history.KindRefresh, now())

	orch := &refresh.Orchestrator{
		Refresher: p.refresher,
		Store:     p.store,
		Sleep:     sleep,
		Logger:    p.log,
		Now:       now,
		OnStart: func(i, total int, child config.ChildAccount) {
			p.printf("%s\n", output.PrintStep(i+1, total, child.Email))
		},
		OnDone: func(i, total int, r refresh.Result) {
			if r.Success {
				p.printf("  %s %s\n", styles.FormatResult(true), cliutil.FormatDuration(r.Duration))
			} else {
				p.printf("  %s %s\n", styles.FormatResult(false), r.Error)
			}
		},
	}

	summary, err := orch.RefreshAll(ctx, loginEmail, mailToken)
	outcomes := history.FromRefresh(run, now(), summary, err)
	cliutil.RecordRun(ctx, p.log, run, outcomes)
	return summary, err
}

func (p *pipeline) poolClient(doc *config.BusinessDocument) *pool.Client {
	return pool.NewClient(doc.PoolAPIURL, doc.Password, p.poolOpts...)
}

func (p *pipeline) sync(ctx context.Context) (*pool.SyncReport, error) {
	doc, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	if err := doc.ValidatePool(); err != nil {
		return nil, err
	}

	run := history.NewRun(history.KindSync, now())
	p.printf("%s\n", output.PrintInfo(fmt.Sprintf("Syncing %d accounts to %s", len(doc.Accounts.Children), doc.PoolAPIURL)))

	s := &pool.Synchronizer{
		Pool:   p.poolClient(doc),
		Sleep:  sleep,
		Logger: p.log,
	}
	report, err := s.Synchronize(ctx, doc.Accounts.Children)
	outcomes := history.FromSync(run, now(), report, err)
	cliutil.RecordRun(ctx, p.log, run, outcomes)
	return report, err
}

func (p *pipeline) clean(ctx context.Context) (*pool.CleanReport, error) {
	doc, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	if err := doc.ValidatePool(); err != nil {
		return nil, err
	}

	run := history.NewRun(history.KindClean, now())
	c := &pool.Cleaner{
		Pool:   p.poolClient(doc),
		Sleep:  sleep,
		Logger: p.log,
	}
	report, err := c.Clean(ctx)
	outcomes := history.FromClean(run, now(), report, err)
	cliutil.RecordRun(ctx, p.log, run, outcomes)
	return report, err
}

func printSyncReport(r *pool.SyncReport) {
	box, title := styles.SummaryBox(r.FailedCount + r.RemoveFailed)
	body := fmt.Sprintf("%s\n\n%s %d (%d failed)\n%s\n%s %d",
		title.Render("Pool synchronized"),
		styles.LabelStyle.Render("Removed:"), r.Removed, r.RemoveFailed,
		output.Tally(r.AddedCount, r.FailedCount, r.SkippedCount),
		styles.LabelStyle.Render("Pool total:"), r.TotalCount,
	)
	fmt.Println(box.Render(body))
	for _, e := range r.Errors {
		fmt.Println(output.PrintError(e))
	}
}

func printRefreshSummary(s *refresh.Summary) {
	box, title := styles.SummaryBox(s.Failed)
	body := fmt.Sprintf("%s\n\n%s",
		title.Render(fmt.Sprintf("Refreshed %d accounts", s.Total)),
		output.Tally(s.Success, s.Failed, 0),
	)
	fmt.Println(box.Render(body))
	for _, r := range s.Failures() {
		fmt.Println(output.PrintError(r.Email + ": " + r.Error))
	}
}
