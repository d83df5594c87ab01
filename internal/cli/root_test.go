package cli

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_E2E(t *testing.T) {
	// Build the binary once for all tests
	binPath := filepath.Join(t.TempDir(), "gbpool")
	cmd := exec.Command("go", "build", "-o", binPath, "../../cmd/gbpool")
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build binary: %s", output)

	env := func(dir string) []string {
		return append(os.Environ(), "GBPOOL_CONFIG_DIR="+dir)
	}

	t.Run("shows version with --version flag", func(t *testing.T) {
		cmd := exec.Command(binPath, "--version")
		output, err := cmd.CombinedOutput()
		assert.NoError(t, err)
		assert.Contains(t, string(output), "gbpool version")
	})

	t.Run("shows help with --help flag", func(t *testing.T) {
		cmd := exec.Command(binPath, "--help")
		output, err := cmd.CombinedOutput()
		assert.NoError(t, err)
		assert.Contains(t, string(output), "Gemini Business")
		assert.Contains(t, string(output), "business")
		assert.Contains(t, string(output), "mail")
		assert.Contains(t, string(output), "history")
	})

	t.Run("refresh without documents is a configuration error", func(t *testing.T) {
		cmd := exec.Command(binPath, "business", "refresh")
		cmd.Env = env(t.TempDir())
		output, err := cmd.CombinedOutput()
		assert.Error(t, err)
		assert.Contains(t, string(output), "configuration error")
	})

	t.Run("config path honours GBPOOL_CONFIG_DIR", func(t *testing.T) {
		dir := t.TempDir()
		cmd := exec.Command(binPath, "config", "path")
		cmd.Env = env(dir)
		output, err := cmd.CombinedOutput()
		assert.NoError(t, err)
		assert.Contains(t, string(output), filepath.Join(dir, "gemini-mail.yaml"))
		assert.Contains(t, string(output), filepath.Join(dir, "temp-mail.yaml"))
	})
}

func TestInitConfig(t *testing.T) {
	originalCfgFile := cfgFile
	t.Cleanup(func() {
		cfgFile = originalCfgFile
	})

	t.Run("uses custom config path when set", func(t *testing.T) {
		cfgFile = filepath.Join(t.TempDir(), "custom.yaml")
		assert.NotPanics(t, func() {
			initConfig()
		})
	})

	t.Run("uses default path when cfgFile empty", func(t *testing.T) {
		t.Setenv("GBPOOL_CONFIG_DIR", t.TempDir())
		cfgFile = ""
		assert.NotPanics(t, func() {
			initConfig()
		})
	})
}

func TestRootCmdStructure(t *testing.T) {
	assert.Equal(t, "gbpool", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.Equal(t, Version, rootCmd.Version)

	// Check flags exist
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("output"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))

	// Check subcommands
	cmdNames := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		cmdNames = append(cmdNames, cmd.Name())
	}
	assert.Contains(t, cmdNames, "mail")
	assert.Contains(t, cmdNames, "business")
	assert.Contains(t, cmdNames, "history")
	assert.Contains(t, cmdNames, "config")
	assert.Contains(t, cmdNames, "code")

	business, _, err := rootCmd.Find([]string{"business"})
	require.NoError(t, err)
	sub := make([]string, 0)
	for _, cmd := range business.Commands() {
		sub = append(sub, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"select", "refresh", "sync", "clean", "list"}, sub)
}
