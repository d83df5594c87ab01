package business

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/pace"
)

// Cmd is the business parent command
var Cmd = &cobra.Command{
	Use:   "business",
	Short: "Refresh Gemini Business tokens and manage the pool",
	Long: `Select which mailboxes act as Gemini Business accounts, refresh their
session tokens with a headless browser, and publish them to the pool.`,
	RunE: runBusiness,
}

// Replaced in tests.
var (
	now                  = time.Now
	sleep pace.SleepFunc = pace.Sleep
)

func runBusiness(cmd *cobra.Command, args []string) error {
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
