package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/plaenen/cmscore/pkg/commandbus"
	"github.com/plaenen/cmscore/pkg/domain"
)

// ErrPanic marks errors produced from a recovered handler panic.
var ErrPanic = errors.New("command handler panicked")

// Recovery recovers from panics in command handlers.
func Recovery(logger *slog.Logger) commandbus.Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next commandbus.Handler) commandbus.Handler {
		return commandbus.HandlerFunc(func(ctx context.Context, cmd domain.Command) (events []domain.Event, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "Command handler panicked",
						slog.String("command_type", cmd.CommandType()),
						slog.Any("panic", r),
						slog.String("stack_trace", string(debug.Stack())),
					)

					err = fmt.Errorf("%w: %v", ErrPanic, r)
					events = nil
				}
			}()

			return next.Handle(ctx, cmd)
		})
	}
}
