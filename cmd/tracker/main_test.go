package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-tracker/internal/tracker/dto"
	"stock-tracker/pkg/logger"
)

// drainingScheduler simulates a cycle that is in flight when the stop
// signal arrives and takes a while to finish afterwards.
type drainingScheduler struct {
	drainTime time.Duration
	completed atomic.Bool
}

func (s *drainingScheduler) RunOnce(ctx context.Context) (*dto.CycleReport, error) {
	return &dto.CycleReport{}, nil
}

func (s *drainingScheduler) Start(ctx context.Context) error {
	<-ctx.Done()
	time.Sleep(s.drainTime)
	s.completed.Store(true)
	return ctx.Err()
}

func TestStartSchedulerWaitsForDrain(t *testing.T) {
	log, err := logger.New("error", "json")
	require.NoError(t, err)

	scheduler := &drainingScheduler{drainTime: 50 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())

	done := startScheduler(ctx, log, scheduler)

	cancel()
	assert.False(t, scheduler.completed.Load())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not finish draining")
	}
	assert.True(t, scheduler.completed.Load())
}
