package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var rounds int32
	done := make(chan error, 1)
	go func() {
		done <- Loop(ctx, "test", time.Second, func(ctx context.Context) error {
			if atomic.AddInt32(&rounds, 1) >= 2 {
				cancel()
			}

			return errors.New("keep going")
		})
	}()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}

	assert.True(t, atomic.LoadInt32(&rounds) >= 2)
}

func TestLoopStopsBeforeFirstTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var rounds int32
	err := Loop(ctx, "test", time.Hour, func(ctx context.Context) error {
		atomic.AddInt32(&rounds, 1)
		return nil
	})

	assert.True(t, errors.Is(err, context.Canceled))
	assert.EqualValues(t, 0, atomic.LoadInt32(&rounds))
}

func TestBaseJobSkipsOverlappingRounds(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	job := &BaseJob{
		Cron: cron.New(),
		OnWork: func() error {
			close(entered)
			<-release
			return nil
		},
	}

	ran := make(chan bool, 1)
	go func() { ran <- job.Run() }()

	<-entered
	assert.False(t, job.Run(), "second round must be skipped while the first runs")

	close(release)
	require.True(t, <-ran)
	assert.False(t, job.IsRunning.Load())
}
