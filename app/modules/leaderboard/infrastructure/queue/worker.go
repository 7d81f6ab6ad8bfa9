package leaderboardqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	leaderboardservice "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/application"
	"github.com/Black-And-White-Club/stride-bot/app/shared/attr"
	"github.com/Black-And-White-Club/stride-bot/app/shared/clock"
	"github.com/riverqueue/river"
)

// sweepTimeout bounds a single sweep; delivery is rate limited so large
// user sets need more than River's default.
const sweepTimeout = 15 * time.Minute

// Reporter runs a weekly report sweep.
type Reporter interface {
	SendWeeklyReportAt(ctx context.Context, clk clock.Clock) (*leaderboardservice.ReportSummary, error)
}

// WeeklyReportWorker executes WeeklyReportJob.
type WeeklyReportWorker struct {
	river.WorkerDefaults[WeeklyReportJob]
	reporter Reporter
	logger   *slog.Logger
	loc      *time.Location
}

// NewWeeklyReportWorker creates the worker. Report dates are resolved in loc.
func NewWeeklyReportWorker(logger *slog.Logger, reporter Reporter, loc *time.Location) *WeeklyReportWorker {
	if loc == nil {
		loc = time.UTC
	}
	return &WeeklyReportWorker{reporter: reporter, logger: logger, loc: loc}
}

// Timeout overrides River's default job timeout.
func (w *WeeklyReportWorker) Timeout(*river.Job[WeeklyReportJob]) time.Duration {
	return sweepTimeout
}

// Work runs the sweep anchored at the job's report time. Per-user failures
// are absorbed by the sweep; a returned error makes River retry the whole job.
// A retry after an interrupted sweep sends again to users already reached, so
// reports are delivered at least once and carry a per-user, per-week ReportID.
func (w *WeeklyReportWorker) Work(ctx context.Context, job *river.Job[WeeklyReportJob]) error {
	reportAt := job.Args.ReportAt
	if reportAt.IsZero() {
		reportAt = job.CreatedAt
	}

	logger := w.logger.With(
		attr.Int64("job_id", job.ID),
		attr.Int("attempt", job.Attempt),
		attr.Time("report_at", reportAt),
	)
	logger.InfoContext(ctx, "Running weekly report job")

	summary, err := w.reporter.SendWeeklyReportAt(ctx, clock.NewAnchorClock(reportAt.In(w.loc), w.loc))
	if err != nil {
		logger.ErrorContext(ctx, "Weekly report job failed", attr.Error(err))
		return fmt.Errorf("weekly report for %s: %w", reportAt.In(w.loc).Format(time.DateOnly), err)
	}

	logger.InfoContext(ctx, "Weekly report job completed",
		attr.String("week", summary.Week.String()),
		attr.Int("delivered", summary.Delivered),
		attr.Int("failed", summary.Failed),
	)
	return nil
}
