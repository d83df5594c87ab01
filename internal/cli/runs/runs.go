// Package runs implements the history command.
package runs

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cliutil"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/history"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/styles"
)

// Cmd is the history parent command. Without a subcommand it lists
// recent runs.
var Cmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"runs"},
	Short:   "Show past refresh, sync and clean runs",
	Long: `Every refresh, sync and clean run is recorded in a local sqlite
database. Use this command to review recent runs and per-account results.

Examples:
  gbpool history
  gbpool history --limit 50
  gbpool history show 3f2a9c1d`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var listLimit int

func init() {
	Cmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Number of runs to show")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	db, err := cliutil.OpenHistory(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	list, err := db.Recent(ctx, listLimit)
	if err != nil {
		return err
	}

	if cliutil.GetOutput(cmd) == "json" {
		return cliutil.OutputJSON(list)
	}

	if len(list) == 0 {
		fmt.Println(styles.MutedStyle.Render("No runs recorded yet."))
		return nil
	}

	table := cliutil.NewTable(
		cliutil.Column{Header: "ID", Width: 8},
		cliutil.Column{Header: "KIND", Width: 8},
		cliutil.Column{Header: "STARTED", Width: 10},
		cliutil.Column{Header: "TOOK", Width: 8},
		cliutil.Column{Header: "TOTAL", Width: 5},
		cliutil.Column{Header: "OK", Width: 4},
		cliutil.Column{Header: "FAIL", Width: 4},
		cliutil.Column{Header: "ERROR"},
	)
	table.PrintHeader()
	for _, r := range list {
		table.PrintRow(
			shortID(r.ID),
			r.Kind,
			cliutil.FormatRelativeTime(r.StartedAt),
			cliutil.FormatDuration(r.Duration()),
			fmt.Sprint(r.Total),
			fmt.Sprint(r.Success),
			fmt.Sprint(r.Failed),
			cliutil.Truncate(r.Error, 60),
		)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// runView is the JSON shape of `history show`.
type runView struct {
	history.Run
	Outcomes []history.Outcome `json:"outcomes"`
}
