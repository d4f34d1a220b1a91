package runner

import "context"

// Service is anything the Runner can start and stop. Start returns once
// the service is ready to use.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type HealthChecker interface {
	Service
	HealthCheck(ctx context.Context) error
}
