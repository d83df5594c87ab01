package business

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cliutil"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/output"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/styles"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove pool accounts that fail the pool's health test",
	Long: `Ask the pool to test each of its accounts and delete the ones that
fail. Accounts whose test cannot be run are treated as failed.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	Cmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	store, err := config.NewBusinessStore()
	if err != nil {
		return err
	}
	jsonMode := cliutil.GetOutput(cmd) == "json"
	p := &pipeline{store: store, log: cliutil.NewLogger(), quiet: jsonMode}

	report, err := p.clean(ctx)
	if err != nil {
		return err
	}
	if jsonMode {
		return cliutil.OutputJSON(report)
	}

	box, title := styles.SummaryBox(report.RemoveFailed)
	body := fmt.Sprintf("%s\n\n%s %d\n%s %d\n%s %d\n%s %d",
		title.Render("Pool cleaned"),
		styles.LabelStyle.Render("Checked:"), report.Checked,
		styles.LabelStyle.Render("Alive:"), report.Alive,
		styles.LabelStyle.Render("Removed:"), report.Removed,
		styles.LabelStyle.Render("Failed to remove:"), report.RemoveFailed,
	)
	fmt.Println(box.Render(body))
	for _, e := range report.Errors {
		fmt.Println(output.PrintError(e))
	}
	return nil
}
