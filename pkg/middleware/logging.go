// Package middleware holds the cross-cutting commandbus.Middleware of the
// command layer: logging, recovery, tracing, metrics, transactions, retries
// and authorization.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/plaenen/cmscore/pkg/commandbus"
	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/observability"
)

// Logging logs command execution with timing information using slog.
// Rejected commands (validation, not found) log at warn level, everything
// else that fails at error level.
func Logging(logger *slog.Logger) commandbus.Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next commandbus.Handler) commandbus.Handler {
		return commandbus.HandlerFunc(func(ctx context.Context, cmd domain.Command) ([]domain.Event, error) {
			start := time.Now()

			attrs := []any{slog.String("command_type", cmd.CommandType())}
			if sc, ok := cmd.(domain.SiteCommand); ok {
				attrs = append(attrs, slog.String("site_id", sc.Site().String()))
			}
			if p := Principal(ctx); p != "" {
				attrs = append(attrs, slog.String("principal_id", p))
			}
			if id := observability.TraceID(ctx); id != "" {
				attrs = append(attrs, slog.String("trace_id", id))
			}

			logger.DebugContext(ctx, "Executing command", attrs...)

			events, err := next.Handle(ctx, cmd)

			attrs = append(attrs,
				slog.Int("events_count", len(events)),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			)

			if err != nil {
				attrs = append(attrs,
					slog.String("error_kind", observability.ErrorKind(err)),
					slog.String("error", err.Error()),
				)
				level := slog.LevelError
				if errors.Is(err, domain.ErrValidationFailed) || errors.Is(err, domain.ErrNotFound) {
					level = slog.LevelWarn
				}
				logger.Log(ctx, level, "Command execution failed", attrs...)
				return events, err
			}

			logger.InfoContext(ctx, "Command executed successfully", attrs...)
			return events, nil
		})
	}
}
