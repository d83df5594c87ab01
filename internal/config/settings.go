package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Settings is the on-disk shape of config.yaml.
type Settings struct {
	LogLevel         string `yaml:"log_level,omitempty"`
	LogFormat        string `yaml:"log_format,omitempty"`
	DefaultOutput    string `yaml:"default_output,omitempty"`
	Headless         *bool  `yaml:"headless,omitempty"`
	BrowserPath      string `yaml:"browser_path,omitempty"`
	UserAgent        string `yaml:"user_agent,omitempty"`
	HistoryDB        string `yaml:"history_db,omitempty"`
	MailGrace        string `yaml:"mail_grace,omitempty"`
	PostVerifySettle string `yaml:"post_verify_settle,omitempty"`
	RedirectTimeout  string `yaml:"redirect_timeout,omitempty"`
}

// DefaultUserAgent is presented by the automated browser.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Settings keys accepted by `gbpool config set`.
var SettingKeys = []string{
	"log_level", "log_format", "default_output", "headless", "browser_path",
	"user_agent", "history_db", "mail_grace", "post_verify_settle", "redirect_timeout",
}

// Package-level state
var current = newViper()

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("GBPOOL")
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("default_output", "pretty")
	v.SetDefault("headless", true)
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("mail_grace", 10*time.Second)
	v.SetDefault("post_verify_settle", 3*time.Second)
	v.SetDefault("redirect_timeout", 60*time.Second)
	return v
}

// Dir returns the gbpool config directory path.
// Respects GBPOOL_CONFIG_DIR environment variable if set.
func Dir() (string, error) {
	if dir := os.Getenv("GBPOOL_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "gbpool"), nil
}

// Path returns the settings file path (~/.config/gbpool/config.yaml)
func Path() (string, error) {
	return fileInDir("config.yaml")
}

func fileInDir(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// EnsureDir creates the config directory if it doesn't exist
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// LoadFromFile resets settings and reads them from a YAML file.
// A missing file is not an error.
func LoadFromFile(path string) error {
	current = newViper()
	current.SetConfigFile(path)
	current.SetConfigType("yaml")

	if err := current.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// BindFlags lets command-line flags take precedence over env and file values.
func BindFlags(flags *pflag.FlagSet) error {
	if f := flags.Lookup("output"); f != nil {
		if err := current.BindPFlag("default_output", f); err != nil {
			return err
		}
	}
	if f := flags.Lookup("log-level"); f != nil {
		if err := current.BindPFlag("log_level", f); err != nil {
			return err
		}
	}
	return nil
}

func GetLogLevel() string      { return current.GetString("log_level") }
func GetLogFormat() string     { return current.GetString("log_format") }
func GetDefaultOutput() string { return current.GetString("default_output") }
func GetHeadless() bool        { return current.GetBool("headless") }
func GetBrowserPath() string   { return current.GetString("browser_path") }
func GetUserAgent() string     { return current.GetString("user_agent") }

// GetMailGrace returns how long to wait after the code field appears before
// the first mailbox poll.
func GetMailGrace() time.Duration { return current.GetDuration("mail_grace") }

// GetPostVerifySettle returns the pause after clicking verify.
func GetPostVerifySettle() time.Duration { return current.GetDuration("post_verify_settle") }

// GetRedirectTimeout returns the ceiling for the post-login redirect.
func GetRedirectTimeout() time.Duration { return current.GetDuration("redirect_timeout") }

// GetHistoryDB returns the sqlite path for run history, defaulting to
// history.db in the config directory.
func GetHistoryDB() (string, error) {
	if p := current.GetString("history_db"); p != "" {
		return p, nil
	}
	return fileInDir("history.db")
}

// Load reads config.yaml into Settings.
// Returns empty Settings if the file doesn't exist.
func Load() (*Settings, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	var s Settings
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &s, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes settings to disk as YAML
func Save(s *Settings) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	path, err := Path()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
