package mail

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cliutil"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/mailapi"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/styles"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a child mailbox",
	Long: `Create a child mailbox with a random 15-character name on the default
domain, then resync the account snapshot.

Examples:
  gbpool mail create
  gbpool mail create --count 5`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

var createCount int

func init() {
	Cmd.AddCommand(createCmd)

	createCmd.Flags().IntVarP(&createCount, "count", "n", 1, "Number of mailboxes to create")
}

func runCreate(cmd *cobra.Command, args []string) error {
	if createCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	ctx := commandContext(cmd)
	jsonMode := cliutil.GetOutput(cmd) == "json"

	s, err := cliutil.OpenMailSession(ctx)
	if err != nil {
		return err
	}
	if s.Doc.DefaultDomain == "" {
		return fmt.Errorf("defaultDomain is not set in temp-mail.yaml")
	}

	var created []string
	for i := 0; i < createCount; i++ {
		address, err := mailapi.NewChildAddress(s.Doc.DefaultDomain)
		if err != nil {
			return err
		}
		account, err := s.Client.CreateAccount(ctx, s.Token, address)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", address, err)
		}
		created = append(created, account.Email)
		if !jsonMode {
			fmt.Println(styles.PassStyle.Render("✓ Created " + account.Email))
		}
	}

	_, children, err := syncAccounts(ctx, s)
	if err != nil {
		return err
	}

	if jsonMode {
		return cliutil.OutputJSON(map[string]interface{}{
			"created":  created,
			"children": len(children),
		})
	}
	fmt.Println(styles.MutedStyle.Render(fmt.Sprintf("• Snapshot now has %d child accounts", len(children))))
	return nil
}
