package middleware

import (
	"context"
	"time"

	"github.com/plaenen/cmscore/pkg/commandbus"
	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/observability"
)

// Metrics records command duration, outcome and produced events. A nil m
// disables recording.
func Metrics(m *observability.Metrics) commandbus.Middleware {
	return func(next commandbus.Handler) commandbus.Handler {
		if m == nil {
			return next
		}
		return commandbus.HandlerFunc(func(ctx context.Context, cmd domain.Command) ([]domain.Event, error) {
			start := time.Now()
			events, err := next.Handle(ctx, cmd)
			m.RecordCommand(ctx, cmd.CommandType(), time.Since(start), err)
			m.RecordEvents(ctx, events)
			return events, err
		})
	}
}
