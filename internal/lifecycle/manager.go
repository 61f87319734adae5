package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"
)

const DefaultShutdownTimeout = 5 * time.Second

type job struct {
	name string
	run  func(context.Context) error
}

// Manager runs jobs until they finish, one fails, or the context ends, then
// runs shutdown jobs in reverse registration order.
type Manager struct {
	mu              sync.Mutex
	runJobs         []job
	shutdownJobs    []job
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

func NewManager() *Manager {
	return &Manager{
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

func (m *Manager) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	m.mu.Lock()
	m.logger = logger
	m.mu.Unlock()
}

func (m *Manager) AddRun(name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.runJobs = append(m.runJobs, job{name: name, run: fn})
	m.mu.Unlock()
}

func (m *Manager) AddShutdown(name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.shutdownJobs = append(m.shutdownJobs, job{name: name, run: fn})
	m.mu.Unlock()
}

func (m *Manager) StartAndWait(parent context.Context, sig ...os.Signal) error {
	ctx := parent
	stopSignal := func() {}
	if len(sig) > 0 {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(parent, sig...)
		stopSignal = stop
	}
	defer stopSignal()

	runCtx, cancelRuns := context.WithCancel(ctx)
	defer cancelRuns()

	runJobs, shutdownJobs, logger, timeout := m.snapshot()

	errCh := make(chan error, len(runJobs))
	var wg sync.WaitGroup
	for _, j := range runJobs {
		j := j
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := j.run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("%s: %w", j.name, err)
				cancelRuns()
			}
		}()
	}

	doneCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		cancelRuns()
	case err := <-errCh:
		runErr = err
		cancelRuns()
	case <-doneCh:
	}

	<-doneCh
	if runErr == nil {
		select {
		case runErr = <-errCh:
		default:
		}
	}

	var shutdownErr error
	for i := len(shutdownJobs) - 1; i >= 0; i-- {
		j := shutdownJobs[i]
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		err := j.run(sctx)
		cancel()
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("shutdown job failed", "job", j.name, "err", err)
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("%s: %w", j.name, err))
		}
	}
	return errors.Join(runErr, shutdownErr)
}

func (m *Manager) snapshot() ([]job, []job, *slog.Logger, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	runs := make([]job, len(m.runJobs))
	copy(runs, m.runJobs)
	shutdowns := make([]job, len(m.shutdownJobs))
	copy(shutdowns, m.shutdownJobs)
	return runs, shutdowns, m.logger, m.shutdownTimeout
}
