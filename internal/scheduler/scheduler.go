// Package scheduler runs the periodic import of all active feeds.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner performs one import cycle. *importer.Importer satisfies it.
type Runner interface {
	ImportAllActive(ctx context.Context) (int, error)
}

// Scheduler fires the runner on a cron schedule. A cycle still running when
// the next tick arrives causes that tick to be skipped.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	runner     Runner
	runOnStart bool
	logger     *slog.Logger
	startup    sync.WaitGroup
}

// New creates a scheduler for spec, a standard cron expression or a
// descriptor such as "@hourly" or "@every 30m".
func New(spec string, runner Runner, runOnStart bool, logger *slog.Logger) (*Scheduler, error) {
	logger = logger.With("channel", "scheduler")
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	cl := cronLogger{logger}
	return &Scheduler{
		cron:       cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		spec:       spec,
		runner:     runner,
		runOnStart: runOnStart,
		logger:     logger,
	}, nil
}

// Run starts the cron loop and blocks until ctx is cancelled, then waits for
// a running cycle to finish. It returns nil on graceful shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() { s.runCycle(ctx) })
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	entry := s.cron.Entry(id)
	s.logger.Info("starting scheduler", "schedule", s.spec, "next_run", entry.Next.Format(time.DateTime))

	if s.runOnStart {
		// Through the wrapped job so the skip guard also covers this run.
		s.startup.Add(1)
		go func() {
			defer s.startup.Done()
			entry.WrappedJob.Run()
		}()
	}

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-s.cron.Stop().Done()
	s.startup.Wait()
	return nil
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	n, err := s.runner.ImportAllActive(ctx)
	if err != nil {
		s.logger.Error("import cycle failed", "error", err)
		return
	}
	s.logger.Info("import cycle finished", "imported", n, "duration", time.Since(start).Round(time.Millisecond).String())
}

// cronLogger routes cron's own logging into slog. Routine messages go to debug.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
