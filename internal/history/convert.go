package history

import (
	"time"

	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/pool"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/refresh"
)

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// FromRefresh builds the record of a refresh run. summary may be nil when
// the run aborted before any account was attempted.
func FromRefresh(run *Run, finished time.Time, summary *refresh.Summary, err error) []Outcome {
	run.FinishedAt = finished.UTC()
	run.Error = errString(err)
	if summary == nil {
		return nil
	}
	run.Total = summary.Total
	run.Success = summary.Success
	run.Failed = summary.Failed

	outcomes := make([]Outcome, 0, len(summary.Results))
	for _, r := range summary.Results {
		outcomes = append(outcomes, Outcome{Action: KindRefresh, Email: r.Email, Success: r.Success, Error: r.Error})
	}
	return outcomes
}

func fromItems(items []pool.ItemResult) []Outcome {
	outcomes := make([]Outcome, 0, len(items))
	for _, it := range items {
		outcomes = append(outcomes, Outcome{Action: it.Action, Email: it.Account, Success: it.Success, Error: it.Error})
	}
	return outcomes
}

// FromSync builds the record of a pool synchronization.
func FromSync(run *Run, finished time.Time, report *pool.SyncReport, err error) []Outcome {
	run.FinishedAt = finished.UTC()
	run.Error = errString(err)
	if report == nil {
		return nil
	}
	run.Total = report.TotalCount
	run.Success = report.AddedCount
	run.Failed = report.FailedCount + report.RemoveFailed
	run.Skipped = report.SkippedCount
	run.Removed = report.Removed
	return fromItems(report.Results)
}

// FromClean builds the record of a pool cleaning.
func FromClean(run *Run, finished time.Time, report *pool.CleanReport, err error) []Outcome {
	run.FinishedAt = finished.UTC()
	run.Error = errString(err)
	if report == nil {
		return nil
	}
	run.Total = report.Checked
	run.Success = report.Alive
	run.Failed = report.RemoveFailed
	run.Removed = report.Removed
	return fromItems(report.Results)
}
