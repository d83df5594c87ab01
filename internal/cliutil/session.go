package cliutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/history"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/logging"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/mailapi"
)

// NewLogger builds the diagnostic logger from the effective settings.
// Records go to stderr so stdout stays clean for JSON output.
func NewLogger() *slog.Logger {
	return logging.New(os.Stderr, config.GetLogLevel(), config.GetLogFormat())
}

// MailSession is a logged-in connection to the mail provider.
type MailSession struct {
	Doc    *config.MailDocument
	Client *mailapi.Client
	Token  string
}

// Email is the parent address the session logged in as.
func (s *MailSession) Email() string {
	return s.Doc.LoginEmail()
}

// OpenMailSession loads temp-mail.yaml and logs the parent in.
func OpenMailSession(ctx context.Context, opts ...mailapi.Option) (*MailSession, error) {
	doc, err := config.LoadMail()
	if err != nil {
		return nil, err
	}
	return LoginMail(ctx, doc, opts...)
}

// LoginMail validates doc before any network call, then logs in.
func LoginMail(ctx context.Context, doc *config.MailDocument, opts ...mailapi.Option) (*MailSession, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	client := mailapi.NewClient(doc.EmailAPIURL, opts...)
	token, err := client.Login(ctx, doc.LoginEmail(), doc.Credentials.Password)
	if err != nil {
		return nil, fmt.Errorf("mail login as %s: %w", doc.LoginEmail(), err)
	}
	return &MailSession{Doc: doc, Client: client, Token: token}, nil
}

// OpenHistory opens and migrates the run history database.
func OpenHistory(ctx context.Context) (*history.DB, error) {
	path, err := config.GetHistoryDB()
	if err != nil {
		return nil, err
	}
	db, err := history.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// recordTimeout bounds the history write once the run itself is over.
const recordTimeout = 10 * time.Second

// RecordRun stores a finished run. Failures are logged, never returned,
// so a broken history database cannot fail the operation it describes.
// The write outlives cancellation of ctx, so interrupted runs are recorded
// too.
func RecordRun(ctx context.Context, log *slog.Logger, run *history.Run, outcomes []history.Outcome) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	db, err := OpenHistory(ctx)
	if err != nil {
		log.Warn("run history unavailable", "error", err)
		return
	}
	defer db.Close()

	if err := db.Record(ctx, run, outcomes); err != nil {
		log.Warn("failed to record run", "run_id", run.ID, "error", err)
		return
	}
	log.Debug("run recorded", "run_id", run.ID, "kind", run.Kind)
}
