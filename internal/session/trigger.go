package session

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type triggerKey struct{}

type triggerInfo struct {
	id     string
	logger *slog.Logger
}

// WithTrigger starts a trigger scope: a fresh correlation id attached to
// every log record the controller writes for it.
func WithTrigger(ctx context.Context, source string) context.Context {
	id := uuid.NewString()
	return context.WithValue(ctx, triggerKey{}, triggerInfo{
		id:     id,
		logger: slog.Default().With("trigger_id", id, "source", source),
	})
}

// TriggerID returns the correlation id of ctx, or "" outside a trigger.
func TriggerID(ctx context.Context) string {
	if info, ok := ctx.Value(triggerKey{}).(triggerInfo); ok {
		return info.id
	}
	return ""
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if info, ok := ctx.Value(triggerKey{}).(triggerInfo); ok {
		return info.logger
	}
	return slog.Default()
}
