package runs

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cliutil"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/history"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/output"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/styles"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run and its per-account results",
	Long: `Show a recorded run. The id may be abbreviated to any unique prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	Cmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	db, err := cliutil.OpenHistory(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.Get(ctx, args[0])
	if errors.Is(err, history.ErrNotFound) {
		return fmt.Errorf("no run matches %q", args[0])
	}
	if err != nil {
		return err
	}
	outcomes, err := db.Outcomes(ctx, run.ID)
	if err != nil {
		return err
	}

	if cliutil.GetOutput(cmd) == "json" {
		if outcomes == nil {
			outcomes = []history.Outcome{}
		}
		return cliutil.OutputJSON(runView{Run: *run, Outcomes: outcomes})
	}

	label := styles.LabelStyle
	fmt.Printf("%s %s\n", label.Render("Run:"), run.ID)
	fmt.Printf("%s %s\n", label.Render("Kind:"), run.Kind)
	fmt.Printf("%s %s\n", label.Render("Started:"), run.StartedAt.Local().Format(time.DateTime))
	fmt.Printf("%s %s\n", label.Render("Duration:"), cliutil.FormatDuration(run.Duration()))
	fmt.Printf("%s %d\n", label.Render("Total:"), run.Total)
	if run.Removed > 0 {
		fmt.Printf("%s %d\n", label.Render("Removed:"), run.Removed)
	}
	fmt.Println(output.Tally(run.Success, run.Failed, run.Skipped))
	if run.Error != "" {
		fmt.Println(output.PrintError(run.Error))
	}

	if len(outcomes) == 0 {
		return nil
	}
	table := cliutil.NewTable(
		cliutil.Column{Header: "ACTION", Width: 7},
		cliutil.Column{Header: "ACCOUNT", Width: 36},
		cliutil.Column{Header: "RESULT", Width: 6},
		cliutil.Column{Header: "ERROR"},
	)
	table.PrintHeader()
	for _, o := range outcomes {
		table.PrintRow(o.Action, o.Email, resultText(o.Success), o.Error)
	}
	return nil
}

func resultText(ok bool) string {
	if ok {
		return "ok"
	}
	return "fail"
}
