package cli

import (
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cli/business"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cli/mail"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cli/runs"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "gbpool",
	Short: "Gemini Business token refresh and pool sync",
	Long: `gbpool keeps a pool of Gemini Business accounts supplied with fresh
session tokens.

It logs every child mailbox into Gemini Business with a headless browser,
reads the one-time code from the temporary-mail provider, stores the
resulting session tokens, and republishes them to the remote pool service.

Configuration lives in the config directory (see 'gbpool config path'):
  temp-mail.yaml    mail provider credentials and account snapshot
  gemini-mail.yaml  business accounts, tokens, pool and proxy settings
  config.yaml       optional settings (log level, browser, timings)

Examples:
  gbpool mail sync              # Fetch mailboxes from the provider
  gbpool business select        # Choose which mailboxes to refresh
  gbpool business refresh       # Refresh tokens and sync to the pool
  gbpool history                # Show recent runs`,
	Version:      Version,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"settings file (default is $HOME/.config/gbpool/config.yaml)")

	// Global output format flag
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format: pretty, json")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(mail.Cmd)
	rootCmd.AddCommand(business.Cmd)
	rootCmd.AddCommand(runs.Cmd)
}

func initConfig() {
	// A missing .env is the common case.
	_ = godotenv.Load()

	var configPath string
	if cfgFile != "" {
		configPath = cfgFile
	} else {
		dir, err := config.Dir()
		if err != nil {
			return
		}
		configPath = filepath.Join(dir, "config.yaml")
	}
	if err := config.LoadFromFile(configPath); err != nil {
		cobra.CheckErr(err)
	}
	cobra.CheckErr(config.BindFlags(rootCmd.PersistentFlags()))
}
