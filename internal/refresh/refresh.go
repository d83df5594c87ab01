// Package refresh runs the login automaton over every configured child
// account and persists the harvested tokens.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/config"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/logging"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/pace"
)

// ErrParentMismatch guards against publishing tokens under the wrong
// operator identity.
var ErrParentMismatch = errors.New("parent account mismatch")

// DefaultPacing separates consecutive account refreshes.
const DefaultPacing = 2 * time.Second

// MismatchError reports which identities disagreed.
type MismatchError struct {
	Configured string
	Current    string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: business document belongs to %q, logged in as %q", ErrParentMismatch, e.Configured, e.Current)
}

func (e *MismatchError) Unwrap() error { return ErrParentMismatch }

// Refresher logs one child in and returns its tokens. *login.Automaton
// satisfies it.
type Refresher interface {
	Run(ctx context.Context, child config.ChildAccount, mailToken string) (config.TokenSet, error)
}

// Store is the durable token holder. *config.BusinessStore satisfies it.
type Store interface {
	Load() (*config.BusinessDocument, error)
	UpdateChildToken(email string, tokens config.TokenSet) error
}

// Result is the outcome for one child account.
type Result struct {
	Email     string           `json:"email"`
	AccountID int64            `json:"accountId"`
	Success   bool             `json:"success"`
	Tokens    *config.TokenSet `json:"-"`
	Error     string           `json:"error,omitempty"`
	Duration  time.Duration    `json:"duration"`

	Err error `json:"-"`
}

// Summary aggregates a refresh run. len(Results) always equals Total.
type Summary struct {
	Total   int      `json:"total"`
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Results []Result `json:"results"`
}

// Orchestrator refreshes child accounts one at a time.
type Orchestrator struct {
	Refresher Refresher
	Store     Store
	Pacing    time.Duration
	Sleep     pace.SleepFunc
	Logger    *slog.Logger
	Now       func() time.Time

	// OnStart and OnDone, when set, observe each account.
	OnStart func(index, total int, child config.ChildAccount)
	OnDone  func(index, total int, result Result)
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// RefreshAll verifies that loginEmail owns the business document, then
// refreshes every child sequentially. A failing account never stops the
// batch. If ctx ends mid-run, the accounts not yet attempted are recorded
// as failed and ctx.Err() is returned alongside the summary.
func (o *Orchestrator) RefreshAll(ctx context.Context, loginEmail, mailToken string) (*Summary, error) {
	log := logging.Or(o.Logger)

	doc, err := o.Store.Load()
	if err != nil {
		return nil, err
	}
	if configured := doc.Accounts.Parent.Email; configured != loginEmail {
		return nil, &MismatchError{Configured: configured, Current: loginEmail}
	}
	log.Info("parent account verified", "email", loginEmail)

	children := doc.Accounts.Children
	summary := &Summary{Total: len(children), Results: make([]Result, 0, len(children))}
	if len(children) == 0 {
		log.Warn("no child accounts to refresh")
		return summary, nil
	}

	pacing := o.Pacing
	if pacing <= 0 {
		pacing = DefaultPacing
	}
	sleep := pace.Or(o.Sleep)

	var runErr error
	for i, child := range children {
		if runErr == nil {
			runErr = ctx.Err()
		}
		if runErr != nil {
			summary.add(Result{Email: child.Email, AccountID: child.AccountID, Err: runErr, Error: runErr.Error()})
			continue
		}

		if o.OnStart != nil {
			o.OnStart(i, len(children), child)
		}
		result := o.refreshOne(ctx, child, mailToken)
		summary.add(result)
		if o.OnDone != nil {
			o.OnDone(i, len(children), result)
		}

		if i < len(children)-1 {
			if err := sleep(ctx, pacing); err != nil {
				runErr = err
			}
		}
	}

	log.Info("refresh finished", "total", summary.Total, "success", summary.Success, "failed", summary.Failed)
	return summary, runErr
}

func (o *Orchestrator) refreshOne(ctx context.Context, child config.ChildAccount, mailToken string) Result {
	log := logging.Or(o.Logger).With("email", child.Email, "account_id", child.AccountID)
	start := o.now()
	result := Result{Email: child.Email, AccountID: child.AccountID}

	tokens, err := o.Refresher.Run(ctx, child, mailToken)
	if err == nil {
		err = o.Store.UpdateChildToken(child.Email, tokens)
		if err != nil {
			err = fmt.Errorf("persist tokens: %w", err)
		}
	}
	result.Duration = o.now().Sub(start)

	if err != nil {
		log.Error("refresh failed", "error", err)
		result.Err = err
		result.Error = err.Error()
		return result
	}

	log.Info("tokens refreshed")
	result.Success = true
	result.Tokens = &tokens
	return result
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	if r.Success {
		s.Success++
	} else {
		s.Failed++
	}
}

// Failures returns the unsuccessful results.
func (s *Summary) Failures() []Result {
	var out []Result
	for _, r := range s.Results {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}
