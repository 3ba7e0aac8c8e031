package scheduler

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhi9818/libris/internal/tasks"
)

func setupTaskClient(t *testing.T) *tasks.Client {
	t.Helper()

	cfg := tasks.DefaultConfig()
	cfg.Workers = 1

	client, err := tasks.NewClient(filepath.Join(t.TempDir(), "library.db"), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client
}

func TestBackfillSchedulerLifecycle(t *testing.T) {
	t.Run("start and stop", func(t *testing.T) {
		client := setupTaskClient(t)
		s := NewBackfillScheduler(client, "0 3 * * *", true, 30)

		require.NoError(t, s.Start(context.Background()))
		assert.True(t, s.IsRunning())
		require.NotNil(t, s.NextRunTime(), "a scheduled sweep has a next run")

		s.Stop()
		assert.False(t, s.IsRunning())
		assert.Nil(t, s.NextRunTime())
	})

	t.Run("disabled scheduler never starts", func(t *testing.T) {
		client := setupTaskClient(t)
		s := NewBackfillScheduler(client, "0 3 * * *", false, 30)

		require.NoError(t, s.Start(context.Background()))
		assert.False(t, s.IsRunning())
	})

	t.Run("rejects an invalid schedule", func(t *testing.T) {
		client := setupTaskClient(t)
		s := NewBackfillScheduler(client, "not a schedule", true, 30)

		require.Error(t, s.Start(context.Background()))
		assert.False(t, s.IsRunning())
	})

	t.Run("context cancellation stops the scheduler", func(t *testing.T) {
		client := setupTaskClient(t)
		s := NewBackfillScheduler(client, "0 3 * * *", true, 30)

		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, s.Start(ctx))
		require.True(t, s.IsRunning())

		cancel()
		assert.Eventually(t, func() bool { return !s.IsRunning() },
			2*time.Second, 10*time.Millisecond)
	})

	t.Run("stop releases the watcher goroutine", func(t *testing.T) {
		client := setupTaskClient(t)
		s := NewBackfillScheduler(client, "0 3 * * *", true, 30)

		baseline := runtime.NumGoroutine()
		require.NoError(t, s.Start(context.Background()))
		s.Stop()

		assert.Eventually(t, func() bool { return runtime.NumGoroutine() <= baseline },
			2*time.Second, 10*time.Millisecond)
	})
}

func TestRunNowQueuesSweep(t *testing.T) {
	client := setupTaskClient(t)

	backfills := make(chan tasks.BackfillTask, 1)
	cleanups := make(chan tasks.CleanupAuditTask, 1)
	client.Register(
		backlite.NewQueue(func(ctx context.Context, task tasks.BackfillTask) error {
			backfills <- task
			return nil
		}),
		backlite.NewQueue(func(ctx context.Context, task tasks.CleanupAuditTask) error {
			cleanups <- task
			return nil
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	s := NewBackfillScheduler(client, "0 3 * * *", true, 14)
	s.RunNow()

	select {
	case <-backfills:
	case <-time.After(5 * time.Second):
		t.Fatal("backfill was not queued within timeout")
	}

	select {
	case task := <-cleanups:
		assert.Equal(t, 14, task.RetentionDays)
	case <-time.After(5 * time.Second):
		t.Fatal("audit cleanup was not queued within timeout")
	}
}
