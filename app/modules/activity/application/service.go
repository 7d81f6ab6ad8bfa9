package activityservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	activitydb "github.com/Black-And-White-Club/stride-bot/app/modules/activity/infrastructure/repositories"
	"github.com/Black-And-White-Club/stride-bot/app/observability/metrics"
	"github.com/Black-And-White-Club/stride-bot/app/shared/attr"
	"github.com/Black-And-White-Club/stride-bot/app/shared/calendar"
	"github.com/Black-And-White-Club/stride-bot/app/shared/clock"
	"github.com/Black-And-White-Club/stride-bot/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ActivityService implements the Service interface.
type ActivityService struct {
	repo    activitydb.Repository
	logger  *slog.Logger
	metrics metrics.ActivityMetrics
	tracer  trace.Tracer
	db      *bun.DB
	clock   clock.Clock
}

// NewActivityService creates a new ActivityService.
func NewActivityService(
	repo activitydb.Repository,
	logger *slog.Logger,
	metrics metrics.ActivityMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	clk clock.Clock,
) *ActivityService {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.NewRealClock(time.UTC)
	}
	return &ActivityService{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		db:      db,
		clock:   clk,
	}
}

// EnsureUser creates the user with today's join date if absent.
func (s *ActivityService) EnsureUser(ctx context.Context, userID int64, displayName *string) error {
	ensureTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[bool, error], error) {
		if err := s.ensureUser(ctx, db, userID, displayName); err != nil {
			return results.OperationResult[bool, error]{}, err
		}
		return results.SuccessResult[bool, error](true), nil
	}

	_, err := withTelemetry(s, ctx, "EnsureUser", idString(userID), func(ctx context.Context) (results.OperationResult[bool, error], error) {
		return runInTx(s, ctx, ensureTx)
	})
	return err
}

func (s *ActivityService) ensureUser(ctx context.Context, db bun.IDB, userID int64, displayName *string) error {
	if displayName != nil && *displayName == "" {
		displayName = nil
	}
	return s.repo.EnsureUser(ctx, db, &activitydb.User{
		UserID:      userID,
		DisplayName: displayName,
		JoinedDate:  clock.Today(s.clock),
	})
}

// RecordActivity appends a record and updates the lifetime counter atomically.
// A recordID that is already stored leaves the ledger unchanged.
func (s *ActivityService) RecordActivity(ctx context.Context, recordID uuid.UUID, userID int64, distance float64) (*RecordResult, error) {
	recordTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*RecordResult, error], error) {
		return s.recordActivityLogic(ctx, db, recordID, userID, distance)
	}

	result, err := withTelemetry(s, ctx, "RecordActivity", idString(userID), func(ctx context.Context) (results.OperationResult[*RecordResult, error], error) {
		if err := ValidateDistance(distance); err != nil {
			return results.FailureResult[*RecordResult, error](err), nil
		}
		return runInTx(s, ctx, recordTx)
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}

	recorded := *result.Success
	if recorded.Duplicate {
		s.logger.InfoContext(ctx, "Record already stored",
			attr.String("record_id", recordID.String()),
			attr.Int64("user_id", userID),
		)
		return recorded, nil
	}
	if s.metrics != nil {
		s.metrics.RecordDistanceLogged(ctx, distance)
	}
	return recorded, nil
}

func (s *ActivityService) recordActivityLogic(ctx context.Context, db bun.IDB, recordID uuid.UUID, userID int64, distance float64) (results.OperationResult[*RecordResult, error], error) {
	today := clock.Today(s.clock)

	// The upsert takes the row lock that serializes concurrent records.
	if err := s.ensureUser(ctx, db, userID, nil); err != nil {
		return results.OperationResult[*RecordResult, error]{}, err
	}

	inserted, err := s.repo.InsertRecord(ctx, db, &activitydb.ActivityRecord{
		UUID:         recordID,
		UserID:       userID,
		ActivityDate: today,
		Distance:     distance,
	})
	if err != nil {
		return results.OperationResult[*RecordResult, error]{}, err
	}

	var lifetime float64
	if inserted {
		lifetime, err = s.repo.IncrementLifetime(ctx, db, userID, distance)
		if err != nil {
			return results.OperationResult[*RecordResult, error]{}, err
		}
	} else {
		user, err := s.repo.GetUser(ctx, db, userID)
		if err != nil {
			return results.OperationResult[*RecordResult, error]{}, err
		}
		lifetime = user.LifetimeTotal
	}

	week := calendar.WeekOf(today)
	weekly, err := s.repo.SumDistance(ctx, db, userID, week.StartDate(), week.EndDate())
	if err != nil {
		return results.OperationResult[*RecordResult, error]{}, err
	}

	return results.SuccessResult[*RecordResult, error](&RecordResult{
		Distance:      distance,
		WeeklyTotal:   weekly,
		LifetimeTotal: lifetime,
		Duplicate:     !inserted,
	}), nil
}

// WeekTotal sums the current ISO week. Unknown users total 0.
func (s *ActivityService) WeekTotal(ctx context.Context, userID int64) (float64, error) {
	return s.windowTotal(ctx, "WeekTotal", userID, calendar.WeekOf(clock.Today(s.clock)))
}

// MonthTotal sums the current calendar month. Unknown users total 0.
func (s *ActivityService) MonthTotal(ctx context.Context, userID int64) (float64, error) {
	return s.windowTotal(ctx, "MonthTotal", userID, calendar.MonthOf(clock.Today(s.clock)))
}

func (s *ActivityService) windowTotal(ctx context.Context, operationName string, userID int64, window calendar.Window) (float64, error) {
	result, err := withTelemetry(s, ctx, operationName, idString(userID), func(ctx context.Context) (results.OperationResult[float64, error], error) {
		total, err := s.repo.SumDistance(ctx, nil, userID, window.StartDate(), window.EndDate())
		if err != nil {
			return results.OperationResult[float64, error]{}, err
		}
		return results.SuccessResult[float64, error](total), nil
	})
	if err != nil {
		return 0, err
	}
	return *result.Success, nil
}

// LifetimeTotal reads the cached counter. Unknown users total 0.
func (s *ActivityService) LifetimeTotal(ctx context.Context, userID int64) (float64, error) {
	result, err := withTelemetry(s, ctx, "LifetimeTotal", idString(userID), func(ctx context.Context) (results.OperationResult[float64, error], error) {
		user, err := s.repo.GetUser(ctx, nil, userID)
		if err != nil {
			if errors.Is(err, activitydb.ErrNotFound) {
				return results.SuccessResult[float64, error](0), nil
			}
			return results.OperationResult[float64, error]{}, err
		}
		return results.SuccessResult[float64, error](user.LifetimeTotal), nil
	})
	if err != nil {
		return 0, err
	}
	return *result.Success, nil
}

// HasActivityThisWeek reports whether WeekTotal is positive.
func (s *ActivityService) HasActivityThisWeek(ctx context.Context, userID int64) (bool, error) {
	total, err := s.WeekTotal(ctx, userID)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// DailyBreakdown returns per-date sums within window.
func (s *ActivityService) DailyBreakdown(ctx context.Context, userID int64, window calendar.Window) ([]DailyTotal, error) {
	result, err := withTelemetry(s, ctx, "DailyBreakdown", idString(userID), func(ctx context.Context) (results.OperationResult[[]DailyTotal, error], error) {
		days, err := s.dailyBreakdown(ctx, nil, userID, window)
		if err != nil {
			return results.OperationResult[[]DailyTotal, error]{}, err
		}
		return results.SuccessResult[[]DailyTotal, error](days), nil
	})
	if err != nil {
		return nil, err
	}
	return *result.Success, nil
}

func (s *ActivityService) dailyBreakdown(ctx context.Context, db bun.IDB, userID int64, window calendar.Window) ([]DailyTotal, error) {
	rows, err := s.repo.DailyTotals(ctx, db, userID, window.StartDate(), window.EndDate())
	if err != nil {
		return nil, err
	}
	days := make([]DailyTotal, 0, len(rows))
	for _, r := range rows {
		days = append(days, DailyTotal{
			Date:  calendar.InLocation(r.Day, window.Start.Location()),
			Total: r.Total,
		})
	}
	return days, nil
}

// GetStats returns every aggregate of the user in one transaction.
func (s *ActivityService) GetStats(ctx context.Context, userID int64) (*Stats, error) {
	statsTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*Stats, error], error) {
		return s.getStatsLogic(ctx, db, userID)
	}

	result, err := withTelemetry(s, ctx, "GetStats", idString(userID), func(ctx context.Context) (results.OperationResult[*Stats, error], error) {
		return runInTx(s, ctx, statsTx)
	})
	if err != nil {
		return nil, err
	}
	return *result.Success, nil
}

func (s *ActivityService) getStatsLogic(ctx context.Context, db bun.IDB, userID int64) (results.OperationResult[*Stats, error], error) {
	today := clock.Today(s.clock)
	week := calendar.WeekOf(today)
	month := calendar.MonthOf(today)

	if err := s.ensureUser(ctx, db, userID, nil); err != nil {
		return results.OperationResult[*Stats, error]{}, err
	}
	user, err := s.repo.GetUser(ctx, db, userID)
	if err != nil {
		return results.OperationResult[*Stats, error]{}, err
	}

	weekly, err := s.repo.SumDistance(ctx, db, userID, week.StartDate(), week.EndDate())
	if err != nil {
		return results.OperationResult[*Stats, error]{}, err
	}
	monthly, err := s.repo.SumDistance(ctx, db, userID, month.StartDate(), month.EndDate())
	if err != nil {
		return results.OperationResult[*Stats, error]{}, err
	}
	days, err := s.dailyBreakdown(ctx, db, userID, week)
	if err != nil {
		return results.OperationResult[*Stats, error]{}, err
	}

	return results.SuccessResult[*Stats, error](&Stats{
		UserID:         userID,
		DisplayName:    user.DisplayName,
		WeeklyTotal:    weekly,
		MonthlyTotal:   monthly,
		LifetimeTotal:  user.LifetimeTotal,
		Week:           week,
		DailyBreakdown: days,
		JoinedDate:     calendar.InLocation(user.JoinedDate, s.clock.Location()),
	}), nil
}

func idString(userID int64) string { return strconv.FormatInt(userID, 10) }

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *ActivityService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, "ActivityService")
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, "ActivityService", time.Since(startTime))
		}
	}()

	s.logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, "ActivityService")
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, "ActivityService")
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, "ActivityService")
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *ActivityService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {

	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}
