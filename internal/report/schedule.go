package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// Schedule runs job on a standard five-field cron spec until ctx is done.
// A tick that fires while the previous job is still running is skipped.
// Schedule blocks and waits for a running job to finish before returning.
func Schedule(ctx context.Context, spec string, logger *slog.Logger, job func(context.Context)) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	cl := cronLogger{logger: logger}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := c.AddFunc(spec, func() { job(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule reports: %w", err)
	}

	c.Start()
	logger.Info("report schedule started", slog.String("schedule", spec))

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("report schedule stopped")
	return nil
}
