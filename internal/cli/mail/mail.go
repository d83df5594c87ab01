package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cliutil"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
)

// Cmd is the mail parent command
var Cmd = &cobra.Command{
	Use:   "mail",
	Short: "Manage temporary-mail accounts",
	Long: `Log in to the temporary-mail provider and manage the child mailboxes
recorded in temp-mail.yaml.`,
	RunE: runMail,
}

// now is replaced in tests.
var now = time.Now

func runMail(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
	}
	return cmd.Help()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// syncAccounts replaces the document's account snapshot with the provider's
// current list and saves the document.
func syncAccounts(ctx context.Context, s *cliutil.MailSession) (config.ParentAccount, []config.ChildAccount, error) {
	list, err := s.Client.ListAccounts(ctx, s.Token)
	if err != nil {
		return config.ParentAccount{}, nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	t := now()
	parent, children := config.SplitAccounts(list, s.Email(), t)
	s.Doc.ReplaceAccounts(parent, children, t)
	if err := s.Doc.Save(); err != nil {
		return config.ParentAccount{}, nil, fmt.Errorf("failed to save %s: %w", config.MailFileName, err)
	}
	return parent, s.Doc.Accounts.Children, nil
}
