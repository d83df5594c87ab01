package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cliutil"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/styles"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change gbpool settings",
	Long: `Inspect the configuration files and change settings in config.yaml.

Settings can also be given as GBPOOL_<KEY> environment variables
(e.g. GBPOOL_LOG_LEVEL=debug), which take precedence over the file.

Examples:
  gbpool config show
  gbpool config path
  gbpool config set headless false
  gbpool config set mail_grace 15s`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings and document status",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file paths",
	RunE:  runConfigPath,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in config.yaml",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
}

type configPaths struct {
	Dir      string `json:"dir"`
	Settings string `json:"settings"`
	Mail     string `json:"mail"`
	Business string `json:"business"`
	History  string `json:"history"`
}

func resolvePaths() (*configPaths, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	p := &configPaths{Dir: dir}
	if p.Settings, err = config.Path(); err != nil {
		return nil, err
	}
	if p.Mail, err = config.MailPath(); err != nil {
		return nil, err
	}
	if p.Business, err = config.BusinessPath(); err != nil {
		return nil, err
	}
	if p.History, err = config.GetHistoryDB(); err != nil {
		return nil, err
	}
	return p, nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	paths, err := resolvePaths()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if cliutil.GetOutput(cmd) == "json" {
		return cliutil.OutputJSON(paths)
	}

	label := styles.LabelStyle
	fmt.Printf("%s %s\n", label.Render("Directory:"), paths.Dir)
	fmt.Printf("%s %s\n", label.Render("Settings:"), paths.Settings)
	fmt.Printf("%s %s\n", label.Render("Mail document:"), paths.Mail)
	fmt.Printf("%s %s\n", label.Render("Business document:"), paths.Business)
	fmt.Printf("%s %s\n", label.Render("History database:"), paths.History)
	return nil
}

func settingsView() map[string]interface{} {
	return map[string]interface{}{
		"log_level":          config.GetLogLevel(),
		"log_format":         config.GetLogFormat(),
		"default_output":     config.GetDefaultOutput(),
		"headless":           config.GetHeadless(),
		"browser_path":       config.GetBrowserPath(),
		"user_agent":         config.GetUserAgent(),
		"mail_grace":         config.GetMailGrace().String(),
		"post_verify_settle": config.GetPostVerifySettle().String(),
		"redirect_timeout":   config.GetRedirectTimeout().String(),
	}
}

func documentsView() map[string]interface{} {
	view := map[string]interface{}{}

	if doc, err := config.LoadMail(); err != nil {
		view["mail"] = map[string]interface{}{"error": err.Error()}
	} else {
		view["mail"] = map[string]interface{}{
			"loginEmail":  doc.LoginEmail(),
			"password":    cliutil.MaskSecret(doc.Credentials.Password),
			"emailApiUrl": doc.EmailAPIURL,
			"children":    len(doc.Accounts.Children),
			"lastUpdated": doc.Accounts.LastUpdated,
		}
	}

	store, err := config.NewBusinessStore()
	if err == nil {
		var doc *config.BusinessDocument
		if doc, err = store.Load(); err == nil {
			view["business"] = map[string]interface{}{
				"parent":       doc.Accounts.Parent.Email,
				"children":     len(doc.Accounts.Children),
				"poolApiUrl":   doc.PoolAPIURL,
				"password":     cliutil.MaskSecret(doc.Password),
				"proxyEnabled": doc.Proxy.Enabled,
				"proxy":        doc.Proxy.Address(),
			}
		}
	}
	if err != nil {
		view["business"] = map[string]interface{}{"error": err.Error()}
	}
	return view
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	settings := settingsView()
	docs := documentsView()

	if cliutil.GetOutput(cmd) == "json" {
		return cliutil.OutputJSON(map[string]interface{}{
			"settings":  settings,
			"documents": docs,
		})
	}

	label := styles.LabelStyle
	fmt.Println(styles.HeaderStyle.Render("Settings"))
	for _, key := range config.SettingKeys {
		if v, ok := settings[key]; ok {
			fmt.Printf("%s %v\n", label.Render(key+":"), v)
		}
	}

	for _, name := range []string{"mail", "business"} {
		fmt.Println()
		fmt.Println(styles.HeaderStyle.Render("Document: " + name))
		section := docs[name].(map[string]interface{})
		if msg, ok := section["error"]; ok {
			fmt.Println(styles.WarnStyle.Render(fmt.Sprint(msg)))
			continue
		}
		for k, v := range section {
			fmt.Printf("%s %v\n", label.Render(k+":"), v)
		}
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	s, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applySetting(s, key, value); err != nil {
		return err
	}
	if err := config.Save(s); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Set %s successfully\n", key)
	return nil
}

func applySetting(s *config.Settings, key, value string) error {
	duration := func(dst *string) error {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		*dst = value
		return nil
	}

	switch key {
	case "log_level":
		s.LogLevel = value
	case "log_format":
		if value != "text" && value != "json" {
			return fmt.Errorf("log_format must be text or json")
		}
		s.LogFormat = value
	case "default_output":
		if value != "pretty" && value != "json" {
			return fmt.Errorf("default_output must be pretty or json")
		}
		s.DefaultOutput = value
	case "headless":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for headless: %w", err)
		}
		s.Headless = &b
	case "browser_path":
		s.BrowserPath = value
	case "user_agent":
		s.UserAgent = value
	case "history_db":
		s.HistoryDB = value
	case "mail_grace":
		return duration(&s.MailGrace)
	case "post_verify_settle":
		return duration(&s.PostVerifySettle)
	case "redirect_timeout":
		return duration(&s.RedirectTimeout)
	default:
		return fmt.Errorf("unknown config key: %s (valid keys: %v)", key, config.SettingKeys)
	}
	return nil
}
