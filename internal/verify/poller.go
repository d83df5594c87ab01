package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/logging"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/mailapi"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/pace"
)

// ErrCodeNotFound is returned when every attempt came back without a code.
var ErrCodeNotFound = errors.New("verification code not found")

const (
	DefaultAttempts = 5
	DefaultDelay    = 5 * time.Second
	DefaultPageSize = 5
)

// Fetcher lists the newest messages of a mailbox. *mailapi.Client
// satisfies it.
type Fetcher interface {
	ListEmails(ctx context.Context, token string, accountID int64, size int) ([]mailapi.Email, error)
}

// Poller retries a mailbox scan on a fixed delay until a code shows up.
type Poller struct {
	Fetcher  Fetcher
	Provider Provider
	Attempts int
	Delay    time.Duration
	PageSize int
	Logger   *slog.Logger
	Sleep    pace.SleepFunc
}

// NewPoller returns a poller with the default 5 x 5s policy.
func NewPoller(f Fetcher, p Provider, logger *slog.Logger) *Poller {
	return &Poller{
		Fetcher:  f,
		Provider: p,
		Attempts: DefaultAttempts,
		Delay:    DefaultDelay,
		PageSize: DefaultPageSize,
		Logger:   logger,
	}
}

// WaitForCode polls the mailbox of accountID using the mail session token.
// Fetch failures are logged and count as an empty attempt.
func (p *Poller) WaitForCode(ctx context.Context, token string, accountID int64) (string, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	sleep := pace.Or(p.Sleep)
	log := logging.Or(p.Logger).With("account_id", accountID, "provider", p.Provider.Name)

	for i := 1; i <= attempts; i++ {
		log.Debug("fetching verification mail", "attempt", i, "of", attempts)

		emails, err := p.Fetcher.ListEmails(ctx, token, accountID, size)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Warn("mail fetch failed", "attempt", i, "error", err)
		default:
			if code, _, ok := p.Provider.Find(emails); ok {
				log.Info("verification code received", "attempt", i)
				return code, nil
			}
		}

		if i < attempts {
			if err := sleep(ctx, p.Delay); err != nil {
				return "", err
			}
		}
	}

	return "", fmt.Errorf("%w after %d attempts", ErrCodeNotFound, attempts)
}
