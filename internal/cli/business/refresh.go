package business

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cliutil"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/output"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/pool"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/refresh"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh Gemini tokens and sync them to the pool",
	Long: `Log every selected business account into Gemini Business, store the
resulting session tokens in gemini-mail.yaml, then replace the pool's
accounts with the ones that have complete tokens.

Accounts are processed one at a time. A failing account is reported and
the run moves on to the next one.

Examples:
  gbpool business refresh
  gbpool business refresh --no-sync`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

var refreshNoSync bool

func init() {
	Cmd.AddCommand(refreshCmd)

	refreshCmd.Flags().BoolVar(&refreshNoSync, "no-sync", false, "Only refresh tokens, do not touch the pool")
}

type refreshOutput struct {
	Refresh *refresh.Summary `json:"refresh"`
	Sync    *pool.SyncReport `json:"sync,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	log := cliutil.NewLogger()
	jsonMode := cliutil.GetOutput(cmd) == "json"

	store, err := config.NewBusinessStore()
	if err != nil {
		return err
	}
	doc, err := store.Load()
	if err != nil {
		return err
	}
	if !refreshNoSync {
		if err := doc.ValidatePool(); err != nil {
			return err
		}
	}

	s, err := cliutil.OpenMailSession(ctx)
	if err != nil {
		return err
	}

	p := &pipeline{
		store:     store,
		refresher: newAutomaton(s, doc.Proxy, log),
		log:       log,
		quiet:     jsonMode,
	}

	summary, report, err := p.refreshAndSync(ctx, s.Email(), s.Token, !refreshNoSync)

	if jsonMode {
		out := refreshOutput{Refresh: summary, Sync: report}
		if err != nil {
			out.Error = err.Error()
		}
		if jsonErr := cliutil.OutputJSON(out); jsonErr != nil {
			return jsonErr
		}
		return err
	}

	if summary != nil {
		printRefreshSummary(summary)
	}
	if report != nil {
		printSyncReport(report)
	}
	return err
}

// refreshAndSync runs a refresh and, when withSync is set and the refresh
// was not aborted, a pool sync.
func (p *pipeline) refreshAndSync(ctx context.Context, loginEmail, mailToken string, withSync bool) (*refresh.Summary, *pool.SyncReport, error) {
	summary, err := p.refresh(ctx, loginEmail, mailToken)
	if err != nil {
		var mismatch *refresh.MismatchError
		if errors.As(err, &mismatch) {
			return nil, nil, fmt.Errorf("%w: business document belongs to %s but logged in as %s; run 'gbpool business select' again",
				refresh.ErrParentMismatch, mismatch.Configured, mismatch.Current)
		}
		return summary, nil, err
	}
	if !withSync {
		return summary, nil, nil
	}

	p.printf("%s\n", output.PrintInfo("Refresh finished, publishing to pool"))
	report, err := p.sync(ctx)
	return summary, report, err
}
