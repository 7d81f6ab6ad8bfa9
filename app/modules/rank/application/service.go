package rankservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	rankdb "github.com/Black-And-White-Club/stride-bot/app/modules/rank/infrastructure/repositories"
	"github.com/Black-And-White-Club/stride-bot/app/observability/metrics"
	"github.com/Black-And-White-Club/stride-bot/app/shared/attr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "RankService"

// RankService implements the Service interface.
type RankService struct {
	table   *Table
	repo    rankdb.Repository
	logger  *slog.Logger
	metrics metrics.OperationMetrics
	tracer  trace.Tracer
	pick    Picker
}

// NewRankService creates a new RankService over an already loaded table.
func NewRankService(
	table *Table,
	repo rankdb.Repository,
	logger *slog.Logger,
	metrics metrics.OperationMetrics,
	tracer trace.Tracer,
	pick Picker,
) *RankService {
	if logger == nil {
		logger = slog.Default()
	}
	if pick == nil {
		pick = DefaultPicker
	}
	return &RankService{
		table:   table,
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		pick:    pick,
	}
}

// LoadTable reads the tier table once and validates it. Anomalies are logged.
func LoadTable(ctx context.Context, repo rankdb.Repository, logger *slog.Logger) (*Table, error) {
	rows, err := repo.ListTiers(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load rank tiers: %w", err)
	}

	tiers := make([]Tier, 0, len(rows))
	for _, r := range rows {
		tiers = append(tiers, Tier{Name: r.Name, Lower: r.LowerBound, Upper: r.UpperBound})
	}

	table, err := NewTable(tiers)
	if err != nil {
		return nil, err
	}

	for _, a := range table.Anomalies() {
		logger.WarnContext(ctx, "Rank tier table anomaly", attr.String("detail", a))
	}
	logger.InfoContext(ctx, "Rank tier table loaded", attr.Int("tiers", len(tiers)))
	return table, nil
}

func (s *RankService) Tiers() []Tier { return s.table.Tiers() }

func (s *RankService) DetermineRank(weeklyTotal float64) Tier {
	return s.table.DetermineRank(weeklyTotal)
}

func (s *RankService) Progress(weeklyTotal float64) (Progress, error) {
	return s.table.Progress(weeklyTotal)
}

// RandomChallenge picks a challenge for tierName.
func (s *RankService) RandomChallenge(ctx context.Context, tierName string) (string, error) {
	return s.observe(ctx, "RandomChallenge", tierName, func(ctx context.Context) (string, error) {
		pool, err := s.repo.ChallengesForTier(ctx, nil, tierName)
		if err != nil {
			return "", err
		}
		if len(pool) > 0 {
			return pickFrom(s.pick, DefaultChallenge, pool), nil
		}

		lowest := s.table.Lowest()
		if lowest.Name == tierName {
			return DefaultChallenge, nil
		}
		fallback, err := s.repo.ChallengesForTier(ctx, nil, lowest.Name)
		if err != nil {
			return "", err
		}
		return pickFrom(s.pick, DefaultChallenge, fallback), nil
	})
}

// RandomMotivation picks a motivation line.
func (s *RankService) RandomMotivation(ctx context.Context) (string, error) {
	return s.observe(ctx, "RandomMotivation", "", func(ctx context.Context) (string, error) {
		pool, err := s.repo.Motivations(ctx, nil)
		if err != nil {
			return "", err
		}
		return pickFrom(s.pick, DefaultMotivation, pool), nil
	})
}

// observe wraps a read with a span, metrics and error logging.
func (s *RankService) observe(ctx context.Context, operationName, identifier string, op func(context.Context) (string, error)) (string, error) {
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
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
		start := time.Now()
		defer func() {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(start))
		}()
	}

	out, err := op(ctx)
	if err != nil {
		wrapped := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrapped),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrapped)
		return "", wrapped
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}
	return out, nil
}
