package runner_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plaenen/cmscore/pkg/runner"
)

type fakeService struct {
	name     string
	log      *[]string
	mu       *sync.Mutex
	startErr error
	stopErr  error
	health   error
	block    time.Duration
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) record(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	*f.log = append(*f.log, s)
}

func (f *fakeService) Start(context.Context) error {
	f.record("start " + f.name)
	return f.startErr
}

func (f *fakeService) Stop(ctx context.Context) error {
	if f.block > 0 {
		select {
		case <-time.After(f.block):
		case <-ctx.Done():
		}
	}
	f.record("stop " + f.name)
	return f.stopErr
}

func (f *fakeService) HealthCheck(context.Context) error { return f.health }

func quiet() runner.Option {
	return runner.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunStartsInOrderAndStopsInReverse(t *testing.T) {
	var (
		log []string
		mu  sync.Mutex
	)
	a := &fakeService{name: "a", log: &log, mu: &mu}
	b := &fakeService{name: "b", log: &log, mu: &mu}

	ctx, cancel := context.WithCancel(context.Background())
	r := runner.New([]runner.Service{a, b}, quiet(), runner.WithSignals())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(log) == 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	require.NoError(t, <-done)
	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, log)
}

func TestRunStopsStartedServicesOnStartFailure(t *testing.T) {
	var (
		log []string
		mu  sync.Mutex
	)
	boom := errors.New("boom")
	a := &fakeService{name: "a", log: &log, mu: &mu}
	b := &fakeService{name: "b", log: &log, mu: &mu, startErr: boom}
	c := &fakeService{name: "c", log: &log, mu: &mu}

	err := runner.New([]runner.Service{a, b, c}, quiet(), runner.WithSignals()).Run(context.Background())

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"start a", "start b", "stop a"}, log)
}

func TestShutdownTimeout(t *testing.T) {
	var (
		log []string
		mu  sync.Mutex
	)
	slow := &fakeService{name: "slow", log: &log, mu: &mu, block: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := runner.New([]runner.Service{slow}, quiet(), runner.WithSignals(),
		runner.WithShutdownTimeout(10*time.Millisecond)).Run(ctx)

	assert.ErrorIs(t, err, runner.ErrShutdownTimeout)
}

func TestHealthCheck(t *testing.T) {
	var (
		log []string
		mu  sync.Mutex
	)
	sick := errors.New("disk full")
	ok := &fakeService{name: "ok", log: &log, mu: &mu}
	bad := &fakeService{name: "bad", log: &log, mu: &mu, health: sick}

	assert.NoError(t, runner.New([]runner.Service{ok}).HealthCheck(context.Background()))

	err := runner.New([]runner.Service{ok, bad}).HealthCheck(context.Background())
	require.ErrorIs(t, err, sick)
	assert.Contains(t, err.Error(), "bad")
}
