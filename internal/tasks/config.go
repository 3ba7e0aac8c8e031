package tasks

import "time"

// Config holds configuration for the task queue system.
type Config struct {
	Workers         int           // concurrent task workers
	MaxRetries      int           // maximum attempts for failed tasks
	RetryDelay      time.Duration // backoff between retries
	TaskTimeout     time.Duration // per-task execution timeout
	ReleaseAfter    time.Duration // when stuck tasks return to the queue
	CleanupInterval time.Duration // completed-task cleanup cadence
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         2,
		MaxRetries:      3,
		RetryDelay:      time.Minute,
		TaskTimeout:     5 * time.Minute,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}
}
