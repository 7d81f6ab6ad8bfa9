// Package handlerwrapper adapts typed event handlers to watermill handler funcs.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/stride-bot/app/shared/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Metadata keys understood by the wrapper and the event bus.
const (
	MetadataTopic         = "topic"
	MetadataCorrelationID = "correlation_id"
	MetadataReplyTo       = "reply_to"
)

type ctxKey string

const (
	// CtxKeyReplyTo holds the inbound reply_to metadata, when the sender set one.
	CtxKeyReplyTo ctxKey = "reply_to"
	// CtxKeyMessageID holds the inbound message UUID. It is stable across
	// broker redeliveries of the same message.
	CtxKeyMessageID ctxKey = "message_id"
)

// Result is one outgoing message produced by a handler.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// ReplyTopic returns the reply_to stored in ctx, or fallback.
func ReplyTopic(ctx context.Context, fallback string) string {
	if rt, ok := ctx.Value(CtxKeyReplyTo).(string); ok && rt != "" {
		return rt
	}
	return fallback
}

// MessageID returns the inbound message UUID stored in ctx, or "".
func MessageID(ctx context.Context) string {
	id, _ := ctx.Value(CtxKeyMessageID).(string)
	return id
}

// WrapTransformingTyped decodes the message into T, runs handler and encodes
// its results. Payloads that cannot be decoded are logged and acked.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	handler func(context.Context, *T) ([]Result, error),
) message.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx := msg.Context()

		correlationID := msg.Metadata.Get(MetadataCorrelationID)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		ctx = attr.WithCorrelationID(ctx, correlationID)
		if rt := msg.Metadata.Get(MetadataReplyTo); rt != "" {
			ctx = context.WithValue(ctx, CtxKeyReplyTo, rt)
		}
		ctx = context.WithValue(ctx, CtxKeyMessageID, msg.UUID)

		ctx, span := tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("message.uuid", msg.UUID),
			attribute.String("message.topic", msg.Metadata.Get(MetadataTopic)),
			attribute.String("correlation_id", correlationID),
		))
		defer span.End()

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.ErrorContext(ctx, "Failed to unmarshal payload",
				attr.ExtractCorrelationID(ctx),
				attr.String("handler", handlerName),
				attr.String("message_id", msg.UUID),
				attr.Error(err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "unmarshal failed")
			return nil, nil
		}

		results, err := handler(ctx, payload)
		if err != nil {
			logger.ErrorContext(ctx, "Handler returned error",
				attr.ExtractCorrelationID(ctx),
				attr.String("handler", handlerName),
				attr.String("message_id", msg.UUID),
				attr.Error(err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("%s: %w", handlerName, err)
		}

		out := make([]*message.Message, 0, len(results))
		for _, r := range results {
			m, err := NewMessage(ctx, r)
			if err != nil {
				span.RecordError(err)
				return nil, fmt.Errorf("%s: %w", handlerName, err)
			}
			out = append(out, m)
		}

		logger.DebugContext(ctx, "Handler completed",
			attr.ExtractCorrelationID(ctx),
			attr.String("handler", handlerName),
			attr.Int("results", len(out)),
		)
		return out, nil
	}
}

// NewMessage encodes r as a watermill message carrying the topic and the
// correlation id of ctx in its metadata.
func NewMessage(ctx context.Context, r Result) (*message.Message, error) {
	if r.Topic == "" {
		return nil, fmt.Errorf("result has no topic")
	}
	body, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for %s: %w", r.Topic, err)
	}

	m := message.NewMessage(watermill.NewUUID(), body)
	for k, v := range r.Metadata {
		m.Metadata.Set(k, v)
	}
	m.Metadata.Set(MetadataTopic, r.Topic)
	if cid := attr.CorrelationIDFrom(ctx); cid != "" {
		m.Metadata.Set(MetadataCorrelationID, cid)
	}
	m.SetContext(ctx)
	return m, nil
}
