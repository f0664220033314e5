// Package scheduler runs jobs on cron schedules with a seconds field.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner wraps a cron instance and hands every job the base context.
type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

// New creates a Runner evaluating schedules in loc (UTC when nil).
func New(baseCtx context.Context, loc *time.Location, logger *zap.Logger) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cron:    cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// Add registers job under spec (six fields, seconds first).
func (r *Runner) Add(name, spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		start := time.Now()
		r.logger.Info("cron job started", zap.String("job", name))
		job(r.baseCtx)
		r.logger.Info("cron job finished", zap.String("job", name), zap.Duration("elapsed", time.Since(start)))
	})
}

// Next returns the next activation time of an entry.
func (r *Runner) Next(id cron.EntryID) time.Time {
	return r.cron.Entry(id).Next
}

// Start runs the scheduler in its own goroutine.
func (r *Runner) Start() {
	r.logger.Info("cron started")
	r.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("cron stopped")
}
