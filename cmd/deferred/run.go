package main

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hackebrot/go-fibonacci"
	"github.com/spf13/cobra"

	"github.com/hackebrot/go-deferred-scheduler/internal/config"
	"github.com/hackebrot/go-deferred-scheduler/internal/fib"
	"github.com/hackebrot/go-deferred-scheduler/internal/telemetry"
	"github.com/hackebrot/go-deferred-scheduler/pkg/deferred"
	"github.com/hackebrot/go-deferred-scheduler/pkg/scheduler"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Schedule Fibonacci tasks and run them until done or interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg config.Config, logOutput io.Writer) error {
	level, err := telemetry.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := telemetry.SetupLogger(logOutput, level, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := telemetry.NewRegistry()
	results := &resultCollector{}

	s := deferred.New(
		deferred.WithLogger(logger),
		deferred.WithPollInterval(cfg.PollInterval),
		deferred.WithRegisterer(reg),
		deferred.WithResultHandler(results.add),
	)

	var srv *http.Server
	if cfg.MetricsAddr != "" {
		srv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           telemetry.NewMux(reg, s.IsRunning),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	var wg sync.WaitGroup
	strategy := fibonacci.NewRecursive()
	for n := 1; n <= cfg.Tasks; n++ {
		offset := randomOffset(cfg.MaxOffset)
		wg.Add(1)
		cb := fib.NewCallback(logger, n, strategy)
		id := s.ScheduleAfter(offset, func() error {
			defer wg.Done()
			return cb()
		})
		logger.Info("scheduled task", "task_id", id, "n", n, "delay", offset)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		logger.Info("all tasks executed")
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	s.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := s.Wait(shutdownCtx); err != nil {
		logger.Warn("scheduler worker did not exit in time", "error", err)
	}
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", "error", err)
		}
	}

	summarize(logger, results.all())
	return nil
}

// randomOffset returns a whole number of seconds in [0, maxOffset].
func randomOffset(maxOffset time.Duration) time.Duration {
	seconds := int64(maxOffset / time.Second)
	if seconds <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(seconds+1)) * time.Second
}

// resultCollector stores results handed over by the scheduler's worker.
type resultCollector struct {
	mu      sync.Mutex
	results []scheduler.TaskResult
}

func (c *resultCollector) add(r scheduler.TaskResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *resultCollector) all() []scheduler.TaskResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]scheduler.TaskResult(nil), c.results...)
}
