package business

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cliutil"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/output"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/styles"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/tui/picker"
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Choose which mailboxes become business accounts",
	Long: `Copy chosen child mailboxes from temp-mail.yaml into gemini-mail.yaml,
replacing the previous selection. Pool settings and proxy are kept; tokens
of previously selected accounts are discarded.

Without --index an interactive picker is shown.

Examples:
  gbpool business select
  gbpool business select --index 1,3,5`,
	Args: cobra.NoArgs,
	RunE: runSelect,
}

var selectIndex string

// pick is replaced in tests.
var pick = picker.Run

func init() {
	Cmd.AddCommand(selectCmd)

	selectCmd.Flags().StringVarP(&selectIndex, "index", "i", "",
		"Comma-separated 1-based positions from 'gbpool mail list'")
}

func runSelect(cmd *cobra.Command, args []string) error {
	mailDoc, err := config.LoadMail()
	if err != nil {
		return err
	}
	children := mailDoc.Accounts.Children
	if len(children) == 0 {
		return fmt.Errorf("no child accounts in %s; run 'gbpool mail sync' first", config.MailFileName)
	}

	var indices []int
	if selectIndex != "" {
		var warnings []string
		indices, warnings, err = cliutil.ParseIndexList(selectIndex, len(children))
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Println(output.PrintWarning(w))
		}
	} else {
		indices, err = pick(children)
		if errors.Is(err, picker.ErrCancelled) {
			fmt.Println(styles.MutedStyle.Render("• Cancelled"))
			return nil
		}
		if err != nil {
			return err
		}
	}
	if len(indices) == 0 {
		return fmt.Errorf("no accounts selected")
	}
	sort.Ints(indices)

	chosen := make([]config.ChildAccount, len(indices))
	for i, idx := range indices {
		chosen[i] = children[idx]
	}

	parent := mailDoc.Accounts.Parent
	if parent.Email == "" {
		parent.Email = mailDoc.LoginEmail()
	}

	store, err := config.NewBusinessStore()
	if err != nil {
		return err
	}
	doc, err := store.SelectChildren(parent, chosen)
	if err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}

	if cliutil.GetOutput(cmd) == "json" {
		out := make([]map[string]interface{}, len(doc.Accounts.Children))
		for i, c := range doc.Accounts.Children {
			out[i] = cliutil.ChildJSON(c)
		}
		return cliutil.OutputJSON(map[string]interface{}{
			"parent":   doc.Accounts.Parent.Email,
			"children": out,
		})
	}

	fmt.Println(output.PrintSuccess(fmt.Sprintf("Selected %d business accounts", len(chosen))))
	for _, c := range chosen {
		fmt.Println(output.PrintInfo(c.Email))
	}
	if err := doc.ValidatePool(); err != nil {
		fmt.Println(output.PrintWarning("poolApiUrl and password are not set in " + config.BusinessFileName))
	}
	return nil
}
