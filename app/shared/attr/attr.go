// Package attr holds the slog attribute helpers shared by all modules.
package attr

import (
	"context"
	"log/slog"
	"time"
)

type ctxKey string

// CorrelationIDKey is the context key under which the inbound message's
// correlation id is stored.
const CorrelationIDKey ctxKey = "correlation_id"

// WithCorrelationID returns a copy of ctx carrying id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// CorrelationIDFrom returns the correlation id stored in ctx, if any.
func CorrelationIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// ExtractCorrelationID returns the correlation id stored in ctx as an attribute.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	return slog.String("correlation_id", CorrelationIDFrom(ctx))
}

func String(key, value string) slog.Attr             { return slog.String(key, value) }
func Int(key string, value int) slog.Attr            { return slog.Int(key, value) }
func Int64(key string, value int64) slog.Attr        { return slog.Int64(key, value) }
func Float64(key string, value float64) slog.Attr    { return slog.Float64(key, value) }
func Bool(key string, value bool) slog.Attr          { return slog.Bool(key, value) }
func Time(key string, value time.Time) slog.Attr     { return slog.Time(key, value) }
func Duration(key string, d time.Duration) slog.Attr { return slog.Duration(key, d) }
func Any(key string, value any) slog.Attr            { return slog.Any(key, value) }

// UserID is the attribute used for the externally assigned user identifier.
func UserID(id int64) slog.Attr { return slog.Int64("user_id", id) }

// Error renders err under the "error" key; a nil error renders as empty.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
