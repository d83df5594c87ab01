package pool

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

// ErrNoLocalAccounts stops a sync that would only empty the pool.
var ErrNoLocalAccounts = errors.New("no child accounts in business document")

const (
	DefaultSyncPacing  = 300 * time.Millisecond
	DefaultCleanPacing = 500 * time.Millisecond
)

// API is the subset of the pool used for reconciliation. *Client
// satisfies it.
type API interface {
	Login(ctx context.Context) (string, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	TestAccount(ctx context.Context, id AccountID) (bool, error)
	DeleteAccount(ctx context.Context, id AccountID) error
	AddAccount(ctx context.Context, req AddRequest) error
}

// Actions recorded per account.
const (
	ActionDelete = "delete"
	ActionAdd    = "add"
	ActionSkip   = "skip"
	ActionKeep   = "keep"
)

// ItemResult is what happened to one account during a sync or clean.
// Account is the child email for adds and skips, the pool id otherwise.
type ItemResult struct {
	Action  string `json:"action"`
	Account string `json:"account"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func itemResult(action, account string, err error) ItemResult {
	r := ItemResult{Action: action, Account: account, Success: err == nil}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// SyncReport tallies one synchronization run.
type SyncReport struct {
	Removed      int          `json:"removed"`
	RemoveFailed int          `json:"removeFailed"`
	AddedCount   int          `json:"addedCount"`
	SkippedCount int          `json:"skippedCount"`
	FailedCount  int          `json:"failedCount"`
	TotalCount   int          `json:"totalCount"`
	Errors       []string     `json:"errors,omitempty"`
	Results      []ItemResult `json:"results"`
}

// Synchronizer wipes the pool and rebuilds it from local token sets.
type Synchronizer struct {
	Pool      API
	UserAgent string
	Pacing    time.Duration
	Sleep     pace.SleepFunc
	Logger    *slog.Logger
}

// Synchronize deletes every pool account, then adds one per child with a
// complete token set. Children without tokens are skipped, never sent with
// empty fields. TotalCount comes from a fresh listing after the adds.
//
// Login and listing failures abort the run; individual delete and add
// failures are counted and the run continues.
func (s *Synchronizer) Synchronize(ctx context.Context, children []config.ChildAccount) (*SyncReport, error) {
	if len(children) == 0 {
		return nil, ErrNoLocalAccounts
	}
	log := logging.Or(s.Logger)
	sleep := pace.Or(s.Sleep)
	pacing := s.Pacing
	if pacing <= 0 {
		pacing = DefaultSyncPacing
	}
	ua := s.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	if _, err := s.Pool.Login(ctx); err != nil {
		return nil, err
	}

	existing, err := s.Pool.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pool accounts: %w", err)
	}
	log.Info("removing pool accounts", "count", len(existing))

	report := &SyncReport{Results: []ItemResult{}}
	for i, acc := range existing {
		err := s.Pool.DeleteAccount(ctx, acc.ID)
		if err != nil && ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Results = append(report.Results, itemResult(ActionDelete, string(acc.ID), err))
		if err != nil {
			log.Warn("delete failed", "id", acc.ID, "error", err)
			report.RemoveFailed++
			report.Errors = append(report.Errors, fmt.Sprintf("delete %s: %v", acc.ID, err))
		} else {
			report.Removed++
		}
		if i < len(existing)-1 {
			if err := sleep(ctx, pacing); err != nil {
				return report, err
			}
		}
	}

	var pending []config.ChildAccount
	for _, child := range children {
		if !child.Tokens.Complete() {
			log.Info("skipping account without tokens", "email", child.Email)
			report.SkippedCount++
			report.Results = append(report.Results, ItemResult{Action: ActionSkip, Account: child.Email, Error: "no token set"})
			continue
		}
		pending = append(pending, child)
	}

	for i, child := range pending {
		req := AddRequest{
			TeamID:     child.Tokens.TeamID,
			SecureCSes: child.Tokens.SecureCSes,
			HostCOses:  child.Tokens.HostCOses,
			Csesidx:    child.Tokens.Csesidx,
			UserAgent:  ua,
		}
		err := s.Pool.AddAccount(ctx, req)
		if err != nil && ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Results = append(report.Results, itemResult(ActionAdd, child.Email, err))
		if err != nil {
			log.Warn("add failed", "email", child.Email, "error", err)
			report.FailedCount++
			report.Errors = append(report.Errors, fmt.Sprintf("add %s: %v", child.Email, err))
		} else {
			log.Debug("account added", "email", child.Email)
			report.AddedCount++
		}
		if i < len(pending)-1 {
			if err := sleep(ctx, pacing); err != nil {
				return report, err
			}
		}
	}

	final, err := s.Pool.ListAccounts(ctx)
	if err != nil {
		return report, fmt.Errorf("recount pool accounts: %w", err)
	}
	report.TotalCount = len(final)

	log.Info("pool synchronized",
		"added", report.AddedCount, "skipped", report.SkippedCount,
		"failed", report.FailedCount, "total", report.TotalCount)
	return report, nil
}

// CleanReport tallies one cleaning run.
type CleanReport struct {
	Checked      int          `json:"checked"`
	Alive        int          `json:"alive"`
	Removed      int          `json:"removed"`
	RemoveFailed int          `json:"removeFailed"`
	Errors       []string     `json:"errors,omitempty"`
	Results      []ItemResult `json:"results"`
}

// Cleaner removes pool accounts that fail the pool's own health test.
type Cleaner struct {
	Pool   API
	Pacing time.Duration
	Sleep  pace.SleepFunc
	Logger *slog.Logger
}

// Clean tests every pool account and deletes the dead ones. A test that
// errors counts as dead.
func (c *Cleaner) Clean(ctx context.Context) (*CleanReport, error) {
	log := logging.Or(c.Logger)
	sleep := pace.Or(c.Sleep)
	pacing := c.Pacing
	if pacing <= 0 {
		pacing = DefaultCleanPacing
	}

	if _, err := c.Pool.Login(ctx); err != nil {
		return nil, err
	}
	accounts, err := c.Pool.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pool accounts: %w", err)
	}

	report := &CleanReport{Results: []ItemResult{}}
	for i, acc := range accounts {
		report.Checked++
		alive, err := c.Pool.TestAccount(ctx, acc.ID)
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if err != nil {
			log.Warn("account test failed", "id", acc.ID, "error", err)
		}

		if alive {
			report.Alive++
			report.Results = append(report.Results, itemResult(ActionKeep, string(acc.ID), nil))
		} else if err := c.Pool.DeleteAccount(ctx, acc.ID); err != nil {
			log.Warn("delete failed", "id", acc.ID, "error", err)
			report.RemoveFailed++
			report.Errors = append(report.Errors, fmt.Sprintf("delete %s: %v", acc.ID, err))
			report.Results = append(report.Results, itemResult(ActionDelete, string(acc.ID), err))
		} else {
			log.Info("removed dead account", "id", acc.ID)
			report.Removed++
			report.Results = append(report.Results, itemResult(ActionDelete, string(acc.ID), nil))
		}

		if i < len(accounts)-1 {
			if err := sleep(ctx, pacing); err != nil {
				return report, err
			}
		}
	}
	return report, nil
}
