package mail

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cliutil"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/styles"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check the parent mailbox credentials",
	Long: `Log in to the temporary-mail provider with the credentials from
temp-mail.yaml and report whether they were accepted.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	Cmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	s, err := cliutil.OpenMailSession(commandContext(cmd))
	if err != nil {
		return err
	}

	if cliutil.GetOutput(cmd) == "json" {
		return cliutil.OutputJSON(map[string]interface{}{
			"email":   s.Email(),
			"apiUrl":  s.Client.BaseURL(),
			"token":   cliutil.MaskSecret(s.Token),
			"success": true,
		})
	}

	fmt.Println(styles.PassStyle.Render("✓ Logged in as " + s.Email()))
	fmt.Printf("%s %s\n", styles.LabelStyle.Render("API:"), s.Client.BaseURL())
	fmt.Printf("%s %s\n", styles.LabelStyle.Render("Token:"), cliutil.MaskSecret(s.Token))
	return nil
}
