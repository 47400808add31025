package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/beans/logging"
)

func TestAddAndRemoveJobs(t *testing.T) {
	s := NewService(logging.Nop(), ServiceOptions{})

	require.NoError(t, s.AddJob("@hourly", "report", func() {}))
	require.NoError(t, s.AddJob("*/5 * * * *", "sync", func() {}))
	assert.Equal(t, 2, s.JobCount())

	s.RemoveJob("report")
	assert.Equal(t, 1, s.JobCount())

	// 未知任务的移除是空操作
	s.RemoveJob("absent")
	assert.Equal(t, 1, s.JobCount())
}

func TestInvalidSpecIsRejected(t *testing.T) {
	s := NewService(nil, ServiceOptions{})
	err := s.AddJob("not a cron spec", "broken", func() {})
	assert.Error(t, err)
	assert.Equal(t, 0, s.JobCount())
}

func TestSecondsPrecisionSpec(t *testing.T) {
	s := NewService(nil, ServiceOptions{EnableSeconds: true})
	require.NoError(t, s.AddJob("* * * * * *", "everySecond", func() {}))

	// 分钟级服务拒绝六段表达式
	minute := NewService(nil, ServiceOptions{})
	assert.Error(t, minute.AddJob("* * * * * *", "everySecond", func() {}))
}

func TestStartRunsJobsUntilCancelled(t *testing.T) {
	s := NewService(nil, ServiceOptions{EnableSeconds: true})
	var runs atomic.Int32
	require.NoError(t, s.AddJob("* * * * * *", "tick", func() {
		runs.Add(1)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	assert.Eventually(t, func() bool {
		return runs.Load() > 0
	}, 3*time.Second, 50*time.Millisecond, "job never fired")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return on cancellation")
	}
	require.NoError(t, s.Stop(context.Background()))
}

func TestBuilderCollectsJobs(t *testing.T) {
	b := NewBuilder().WithSeconds().AddJob("* * * * * *", "tick", func() {})
	assert.True(t, b.options.EnableSeconds)
	assert.Len(t, b.jobs, 1)
	assert.Equal(t, "tick", b.jobs[0].name)
}
