// Package logx carries a *log.Logger through a context so request scoped
// prefixes follow the call into services and background goroutines.
package logx

import (
	"context"
	"log"
)

type ctxKey string

const loggerKey ctxKey = "logger"

func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext falls back to the standard logger when ctx carries none.
func FromContext(ctx context.Context) *log.Logger {
	if logger, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return logger
	}
	return log.Default()
}

// WithScope derives a logger writing to the same output with scope appended
// to the current prefix, e.g. "[requestId][GET:/sessions/1/watch] - [watch] ".
func WithScope(ctx context.Context, scope string) context.Context {
	parent := FromContext(ctx)
	logger := log.New(parent.Writer(), parent.Prefix()+"["+scope+"] ", parent.Flags())
	return WithLogger(ctx, logger)
}
