package mail

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cliutil"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/styles"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <email|id>",
	Short: "Delete a child mailbox",
	Long: `Delete a child mailbox at the provider, then resync the account
snapshot. The mailbox is looked up by address or numeric account id in
the last synced snapshot.

Examples:
  gbpool mail delete abc123@example.com
  gbpool mail delete 42 --yes`,
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

var deleteYes bool

func init() {
	Cmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	s, err := cliutil.OpenMailSession(ctx)
	if err != nil {
		return err
	}

	child, ok := s.Doc.FindChild(args[0])
	if !ok {
		return fmt.Errorf("child account not found: %s (run 'gbpool mail sync' to refresh the snapshot)", args[0])
	}

	if !deleteYes && !cliutil.Confirm(os.Stdin, os.Stdout, fmt.Sprintf("Delete %s (id %d)?", child.Email, child.AccountID)) {
		fmt.Println(styles.MutedStyle.Render("• Cancelled"))
		return nil
	}

	if err := s.Client.DeleteAccount(ctx, s.Token, child.AccountID); err != nil {
		return fmt.Errorf("failed to delete %s: %w", child.Email, err)
	}

	_, children, err := syncAccounts(ctx, s)
	if err != nil {
		return err
	}

	if cliutil.GetOutput(cmd) == "json" {
		return cliutil.OutputJSON(map[string]interface{}{
			"deleted":  child.Email,
			"children": len(children),
		})
	}
	fmt.Println(styles.PassStyle.Render("✓ Deleted " + child.Email))
	return nil
}
