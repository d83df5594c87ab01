package business

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
	Short:   "List business accounts and their token state",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	Cmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := config.NewBusinessStore()
	if err != nil {
		return err
	}
	doc, err := store.Load()
	if err != nil {
		return err
	}
	children := doc.Accounts.Children

	if cliutil.GetOutput(cmd) == "json" {
		out := make([]map[string]interface{}, len(children))
		for i, c := range children {
			out[i] = cliutil.ChildJSON(c)
		}
		return cliutil.OutputJSON(map[string]interface{}{
			"parent":   doc.Accounts.Parent.Email,
			"children": out,
		})
	}

	fmt.Printf("%s %s\n", styles.LabelStyle.Render("Parent:"), doc.Accounts.Parent.Email)
	if len(children) == 0 {
		fmt.Println(styles.MutedStyle.Render("No business accounts. Run 'gbpool business select'."))
		return nil
	}

	table := cliutil.NewTable(
		cliutil.Column{Header: "#", Width: 4},
		cliutil.Column{Header: "EMAIL", Width: 36},
		cliutil.Column{Header: "UPDATED", Width: 22},
		cliutil.Column{Header: "TOKENS"},
	)
	table.PrintHeader()
	for i, c := range children {
		table.PrintRow(
			fmt.Sprint(i+1),
			c.Email,
			c.LastUpdated,
			styles.FormatTokenState(c.Tokens != nil, c.Tokens.Missing()),
		)
	}
	return nil
}
