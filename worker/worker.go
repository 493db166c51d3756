package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fox-one/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Worker background job
type Worker interface {
	Run(ctx context.Context) error
}

// OnWork one round of a job
type OnWork func(ctx context.Context) error

// BaseJob runs OnWork on the cron schedule, skipping ticks while a round is
// still running
type BaseJob struct {
	Cron      *cron.Cron
	IsRunning atomic.Bool
	OnWork    func() error
}

// Start starts the schedule
func (job *BaseJob) Start() {
	job.Cron.Start()
}

// Stop stops the schedule and waits for the running round
func (job *BaseJob) Stop() {
	<-job.Cron.Stop().Done()
}

// Run one round unless another is in flight; reports whether it ran
func (job *BaseJob) Run() bool {
	if !job.IsRunning.CompareAndSwap(false, true) {
		return false
	}
	defer job.IsRunning.Store(false)

	_ = job.OnWork()
	return true
}

// Loop runs onWork once, then every interval until ctx is done. A failed
// round is logged and retried on the next tick. Intervals below a second
// are rounded up to one second by the scheduler.
func Loop(ctx context.Context, name string, interval time.Duration, onWork OnWork) error {
	log := logger.FromContext(ctx).WithField("worker", name)
	ctx = logger.WithContext(ctx, log)

	job := &BaseJob{
		Cron: cron.New(),
		OnWork: func() error {
			if ctx.Err() != nil {
				return nil
			}

			err := onWork(ctx)
			if err != nil {
				log.WithError(err).Warnln("round failed")
			}

			return err
		},
	}

	spec := fmt.Sprintf("@every %s", interval)
	if _, err := job.Cron.AddFunc(spec, func() { job.Run() }); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}

	job.Run()
	job.Start()
	defer job.Stop()

	<-ctx.Done()
	return ctx.Err()
}
