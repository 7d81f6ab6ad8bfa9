package leaderboardservice

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	leaderboardevents "github.com/Black-And-White-Club/stride-bot/app/events/leaderboard"
	reportevents "github.com/Black-And-White-Club/stride-bot/app/events/report"
	activityservice "github.com/Black-And-White-Club/stride-bot/app/modules/activity/application"
	leaderboarddb "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/infrastructure/repositories"
	rankservice "github.com/Black-And-White-Club/stride-bot/app/modules/rank/application"
	"github.com/Black-And-White-Club/stride-bot/app/observability/metrics"
	"github.com/Black-And-White-Club/stride-bot/app/shared/attr"
	"github.com/Black-And-White-Club/stride-bot/app/shared/calendar"
	"github.com/Black-And-White-Club/stride-bot/app/shared/clock"
	"github.com/Black-And-White-Club/stride-bot/app/shared/handlerwrapper"
	"github.com/Black-And-White-Club/stride-bot/app/shared/results"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// LeaderboardService implements the Service interface.
type LeaderboardService struct {
	repo      leaderboarddb.Repository
	ledger    DailyBreakdowns
	rank      rankservice.Service
	publisher message.Publisher
	logger    *slog.Logger
	metrics   metrics.LeaderboardMetrics
	tracer    trace.Tracer
	db        *bun.DB
	clock     clock.Clock
	opts      Options
}

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(
	repo leaderboarddb.Repository,
	ledger DailyBreakdowns,
	rank rankservice.Service,
	publisher message.Publisher,
	logger *slog.Logger,
	metrics metrics.LeaderboardMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	clk clock.Clock,
	opts Options,
) *LeaderboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.NewRealClock(time.UTC)
	}
	if opts.DeliveryBurst <= 0 {
		opts.DeliveryBurst = 1
	}
	return &LeaderboardService{
		repo:      repo,
		ledger:    ledger,
		rank:      rank,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
		clock:     clk,
		opts:      opts,
	}
}

// WeeklyLeaderboard ranks the current ISO week.
func (s *LeaderboardService) WeeklyLeaderboard(ctx context.Context, limit int) (*Board, error) {
	week := calendar.WeekOf(clock.Today(s.clock))
	return s.leaderboard(ctx, "WeeklyLeaderboard", week, week, limit, false)
}

// MonthlyLeaderboard ranks the current calendar month.
func (s *LeaderboardService) MonthlyLeaderboard(ctx context.Context, limit int) (*Board, error) {
	today := clock.Today(s.clock)
	return s.leaderboard(ctx, "MonthlyLeaderboard", calendar.MonthOf(today), calendar.WeekOf(today), limit, true)
}

func (s *LeaderboardService) leaderboard(ctx context.Context, operationName string, window, week calendar.Window, limit int, monthly bool) (*Board, error) {
	boardTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*Board, error], error) {
		board, err := s.buildBoard(ctx, db, window, week, limit, monthly)
		if err != nil {
			return results.OperationResult[*Board, error]{}, err
		}
		return results.SuccessResult[*Board, error](board), nil
	}

	result, err := withTelemetry(s, ctx, operationName, window.String(), func(ctx context.Context) (results.OperationResult[*Board, error], error) {
		if limit <= 0 {
			return results.SuccessResult[*Board, error](&Board{Window: window, Entries: []Entry{}}), nil
		}
		return runInTx(s, ctx, boardTx)
	})
	if err != nil {
		return nil, err
	}
	return *result.Success, nil
}

func (s *LeaderboardService) buildBoard(ctx context.Context, db bun.IDB, window, week calendar.Window, limit int, monthly bool) (*Board, error) {
	rows, err := s.repo.WindowTotals(ctx, db, window.StartDate(), window.EndDate(), limit)
	if err != nil {
		return nil, err
	}
	sortRows(rows)
	if len(rows) > limit {
		rows = rows[:limit]
	}

	var weekly map[int64]float64
	if monthly {
		ids := make([]int64, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.UserID)
		}
		weekly, err = s.repo.UserTotals(ctx, db, ids, week.StartDate(), week.EndDate())
		if err != nil {
			return nil, err
		}
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		entry := Entry{
			Position:    i + 1,
			UserID:      row.UserID,
			DisplayName: DisplayName(row.UserID, row.DisplayName),
			Total:       row.Total,
		}
		tierTotal := row.Total
		if monthly {
			monthTotal, weekTotal := row.Total, weekly[row.UserID]
			entry.MonthlyTotal = &monthTotal
			entry.WeeklyTotal = &weekTotal
			if !s.opts.MonthlyTierFromMonthlyTotal {
				tierTotal = weekTotal
			}
		}
		entry.Tier = s.rank.DetermineRank(tierTotal).Name
		entries = append(entries, entry)
	}

	return &Board{Window: window, Entries: entries}, nil
}

// sortRows orders by total descending, then user id ascending.
func sortRows(rows []leaderboarddb.TotalRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].UserID < rows[j].UserID
	})
}

// DisplayName returns the stored name or the "Runner #id" placeholder.
func DisplayName(userID int64, name *string) string {
	if name == nil || *name == "" {
		return fmt.Sprintf("Runner #%d", userID)
	}
	return *name
}

// SendWeeklyReport runs the sweep for the current week.
func (s *LeaderboardService) SendWeeklyReport(ctx context.Context) (*ReportSummary, error) {
	return s.SendWeeklyReportAt(ctx, s.clock)
}

// SendWeeklyReportAt publishes one report per active user. A failure for one
// user is counted and the sweep moves on; only listing the users or a
// cancelled context aborts it.
func (s *LeaderboardService) SendWeeklyReportAt(ctx context.Context, clk clock.Clock) (*ReportSummary, error) {
	if clk == nil {
		clk = s.clock
	}
	week := calendar.WeekOf(clock.Today(clk))
	if attr.CorrelationIDFrom(ctx) == "" {
		ctx = attr.WithCorrelationID(ctx, uuid.NewString())
	}

	result, err := withTelemetry(s, ctx, "SendWeeklyReport", week.String(), func(ctx context.Context) (results.OperationResult[*ReportSummary, error], error) {
		summary, err := s.sweep(ctx, week)
		if err != nil {
			return results.OperationResult[*ReportSummary, error]{}, err
		}
		return results.SuccessResult[*ReportSummary, error](summary), nil
	})
	if err != nil {
		return nil, err
	}
	return *result.Success, nil
}

func (s *LeaderboardService) sweep(ctx context.Context, week calendar.Window) (*ReportSummary, error) {
	summary := &ReportSummary{Week: week}

	users, err := s.repo.ActiveUsers(ctx, nil, week.StartDate(), week.EndDate())
	if err != nil {
		return nil, err
	}

	limiter := s.newLimiter()
	for _, user := range users {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("report sweep interrupted after %d deliveries: %w", summary.Delivered, err)
		}
		if err := s.deliverUserReport(ctx, week, user); err != nil {
			summary.Failed++
			if s.metrics != nil {
				s.metrics.RecordReportFailed(ctx)
			}
			s.logger.WarnContext(ctx, "Weekly report delivery failed",
				attr.ExtractCorrelationID(ctx),
				attr.UserID(user.UserID),
				attr.Error(err),
			)
			continue
		}
		summary.Delivered++
		if s.metrics != nil {
			s.metrics.RecordReportDelivered(ctx)
		}
	}

	if err := s.publishWeeklyLeaderboard(ctx, week); err != nil {
		s.logger.WarnContext(ctx, "Weekly leaderboard broadcast failed",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
	} else {
		summary.LeaderboardPublished = true
	}

	s.logger.InfoContext(ctx, "Weekly report sweep finished",
		attr.ExtractCorrelationID(ctx),
		attr.String("week", week.String()),
		attr.Int("delivered", summary.Delivered),
		attr.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (s *LeaderboardService) newLimiter() *rate.Limiter {
	if s.opts.DeliveryRate <= 0 {
		return rate.NewLimiter(rate.Inf, s.opts.DeliveryBurst)
	}
	return rate.NewLimiter(rate.Limit(s.opts.DeliveryRate), s.opts.DeliveryBurst)
}

func (s *LeaderboardService) deliverUserReport(ctx context.Context, week calendar.Window, user leaderboarddb.TotalRow) error {
	days, err := s.ledger.DailyBreakdown(ctx, user.UserID, week)
	if err != nil {
		return fmt.Errorf("failed to load daily breakdown: %w", err)
	}
	progress, err := s.rank.Progress(user.Total)
	if err != nil {
		return fmt.Errorf("failed to compute progress: %w", err)
	}

	reportID := ReportID(week, user.UserID)
	return s.publishWithID(ctx, reportevents.WeeklyUserV1, reportID, &reportevents.WeeklyUserPayloadV1{
		ReportID:       reportID,
		UserID:         user.UserID,
		DisplayName:    DisplayName(user.UserID, user.DisplayName),
		WeekStart:      week.StartDate(),
		WeekEnd:        week.EndDate(),
		WeeklyTotal:    user.Total,
		Tier:           progress.Current.Name,
		NextTier:       progress.NextName(),
		KmRemaining:    progress.KmRemaining,
		DailyBreakdown: activityservice.DailyTotalsV1(days),
	})
}

func (s *LeaderboardService) publishWeeklyLeaderboard(ctx context.Context, week calendar.Window) error {
	board, err := s.buildBoard(ctx, nil, week, week, s.opts.ReportLimit, false)
	if err != nil {
		return err
	}
	payload := BoardPayloadV1(board)
	return s.publish(ctx, reportevents.WeeklyLeaderboardV1, &payload)
}

// reportNamespace derives per-user report ids.
var reportNamespace = uuid.MustParse("0c9d7a3e-5f1b-4d8e-b2a6-93e4c1f07d55")

// ReportID identifies the report of userID for week. It is the same on every
// sweep of that week.
func ReportID(week calendar.Window, userID int64) string {
	return uuid.NewSHA1(reportNamespace, []byte(week.StartDate()+"/"+strconv.FormatInt(userID, 10))).String()
}

func (s *LeaderboardService) publish(ctx context.Context, topic string, payload any) error {
	return s.publishWithID(ctx, topic, "", payload)
}

// publishWithID publishes payload under msgID, or a fresh UUID when msgID is "".
func (s *LeaderboardService) publishWithID(ctx context.Context, topic, msgID string, payload any) error {
	msg, err := handlerwrapper.NewMessage(ctx, handlerwrapper.Result{Topic: topic, Payload: payload})
	if err != nil {
		return err
	}
	if msgID != "" {
		msg.UUID = msgID
	}
	if err := s.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// BoardPayloadV1 converts a board to its wire form.
func BoardPayloadV1(board *Board) leaderboardevents.RetrievedPayloadV1 {
	entries := make([]leaderboardevents.EntryV1, 0, len(board.Entries))
	for _, e := range board.Entries {
		entries = append(entries, leaderboardevents.EntryV1{
			Position:     e.Position,
			UserID:       e.UserID,
			DisplayName:  e.DisplayName,
			Total:        e.Total,
			Tier:         e.Tier,
			MonthlyTotal: e.MonthlyTotal,
			WeeklyTotal:  e.WeeklyTotal,
		})
	}
	return leaderboardevents.RetrievedPayloadV1{
		Start:   board.Window.StartDate(),
		End:     board.Window.EndDate(),
		Entries: entries,
	}
}
