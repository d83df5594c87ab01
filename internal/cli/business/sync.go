package business

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cliutil"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Publish stored tokens to the pool without refreshing",
	Long: `Delete every account in the pool, then add one per business account
with a complete token set. Accounts without tokens are skipped.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	Cmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	store, err := config.NewBusinessStore()
	if err != nil {
		return err
	}
	jsonMode := cliutil.GetOutput(cmd) == "json"
	p := &pipeline{store: store, log: cliutil.NewLogger(), quiet: jsonMode}

	report, err := p.sync(ctx)
	if err != nil {
		return err
	}
	if jsonMode {
		return cliutil.OutputJSON(report)
	}
	printSyncReport(report)
	return nil
}
