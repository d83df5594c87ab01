package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/cliutil"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/mailapi"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/styles"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/verify"
)

const codeLookupSize = 10

var codeCmd = &cobra.Command{
	Use:   "code <email>",
	Short: "Show the latest ChatGPT verification code for a mailbox",
	Long: `Fetch the newest messages of a child mailbox once and print the first
ChatGPT verification code found in a subject line.

Examples:
  gbpool code abc123@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runCode,
}

func init() {
	rootCmd.AddCommand(codeCmd)
}

// codeResult is the JSON shape of a lookup.
type codeResult struct {
	Email         string `json:"email"`
	Found         bool   `json:"found"`
	Code          string `json:"code,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Sender        string `json:"sender,omitempty"`
	Time          string `json:"time,omitempty"`
	LatestSubject string `json:"latestSubject,omitempty"`
}

func runCode(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := cliutil.OpenMailSession(ctx)
	if err != nil {
		return err
	}
	res, err := lookupCode(ctx, s, args[0])
	if err != nil {
		return err
	}

	if cliutil.GetOutput(cmd) == "json" {
		return cliutil.OutputJSON(res)
	}
	printCode(os.Stdout, res)
	return nil
}

// lookupCode resolves the mailbox id from the provider's account list and
// scans its newest messages.
func lookupCode(ctx context.Context, s *cliutil.MailSession, email string) (*codeResult, error) {
	accounts, err := s.Client.ListAccounts(ctx, s.Token)
	if err != nil {
		return nil, err
	}
	var target *mailapi.Account
	for i := range accounts {
		if accounts[i].Email == email {
			target = &accounts[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("mailbox not found: %s", email)
	}

	emails, err := s.Client.ListEmails(ctx, s.Token, target.AccountID, codeLookupSize)
	if err != nil {
		return nil, err
	}

	res := &codeResult{Email: email}
	if code, msg, ok := verify.ChatGPT.Find(emails); ok {
		res.Found = true
		res.Code = code
		res.Subject = msg.Subject
		res.Sender = msg.Sender()
		res.Time = msg.CreateTime
		return res, nil
	}
	if len(emails) > 0 {
		res.LatestSubject = emails[0].Subject
	}
	return res, nil
}

func printCode(w io.Writer, res *codeResult) {
	if !res.Found {
		fmt.Fprintln(w, styles.WarnStyle.Render("No ChatGPT verification code found for "+res.Email))
		if res.LatestSubject != "" {
			fmt.Fprintf(w, "%s %s\n", styles.LabelStyle.Render("Latest subject:"), res.LatestSubject)
		}
		return
	}

	fmt.Fprintln(w, styles.EmailBoxStyle.Render(res.Code))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", styles.LabelStyle.Render("Time:"), res.Time)
	fmt.Fprintf(w, "%s %s\n", styles.LabelStyle.Render("From:"), res.Sender)
	fmt.Fprintf(w, "%s %s\n", styles.LabelStyle.Render("Subject:"), res.Subject)
}
