package mail

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cliutil"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/styles"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List child accounts from the last sync",
	Long: `List the child mailboxes recorded in temp-mail.yaml. No network
request is made; run 'gbpool mail sync' first for a fresh snapshot.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	Cmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	doc, err := config.LoadMail()
	if err != nil {
		return err
	}
	children := doc.Accounts.Children

	if cliutil.GetOutput(cmd) == "json" {
		out := make([]map[string]interface{}, len(children))
		for i, c := range children {
			out[i] = cliutil.MailChildJSON(c)
		}
		return cliutil.OutputJSON(out)
	}

	if doc.Accounts.Parent.Email != "" {
		fmt.Printf("%s %s\n", styles.LabelStyle.Render("Parent:"), doc.Accounts.Parent.Email)
	}
	if doc.Accounts.LastUpdated != "" {
		fmt.Printf("%s %s\n", styles.LabelStyle.Render("Last synced:"), doc.Accounts.LastUpdated)
	}
	printChildren(children)
	return nil
}
