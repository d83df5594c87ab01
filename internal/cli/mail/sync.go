package mail

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cliutil"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/styles"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the account snapshot from the provider",
	Long: `Fetch every mailbox owned by the parent account and rewrite the
accounts section of temp-mail.yaml. The entry matching the login address
becomes the parent; everything else is a child.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	Cmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := cliutil.OpenMailSession(ctx)
	if err != nil {
		return err
	}

	parent, children, err := syncAccounts(ctx, s)
	if err != nil {
		return err
	}

	if cliutil.GetOutput(cmd) == "json" {
		out := make([]map[string]interface{}, len(children))
		for i, c := range children {
			out[i] = cliutil.MailChildJSON(c)
		}
		return cliutil.OutputJSON(map[string]interface{}{
			"parent":      parent.Email,
			"children":    out,
			"lastUpdated": s.Doc.Accounts.LastUpdated,
		})
	}

	fmt.Println(styles.PassStyle.Render(fmt.Sprintf("✓ Synced %d child accounts", len(children))))
	fmt.Printf("%s %s\n", styles.LabelStyle.Render("Parent:"), parent.Email)
	fmt.Printf("%s %s\n", styles.LabelStyle.Render("Saved to:"), s.Doc.Path())
	printChildren(children)
	return nil
}

func printChildren(children []config.ChildAccount) {
	if len(children) == 0 {
		fmt.Println(styles.MutedStyle.Render("No child accounts."))
		return
	}
	table := cliutil.NewTable(
		cliutil.Column{Header: "#", Width: 4},
		cliutil.Column{Header: "EMAIL", Width: 36},
		cliutil.Column{Header: "ID", Width: 8},
		cliutil.Column{Header: "CREATED"},
	)
	table.PrintHeader()
	for i, c := range children {
		table.PrintRow(fmt.Sprint(i+1), c.Email, fmt.Sprint(c.AccountID), c.CreateTime)
	}
}
