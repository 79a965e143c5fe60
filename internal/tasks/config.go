package tasks

import "time"

// Config holds configuration for the background job queue.
type Config struct {
	// Workers is the number of concurrent job workers. Default: 1
	Workers int

	// ReleaseAfter is when a job stuck in a crashed worker is handed out
	// again. Default: 10m
	ReleaseAfter time.Duration

	// CleanupInterval is how often finished jobs are purged. Default: 1h
	CleanupInterval time.Duration
}

// DefaultConfig returns the defaults for a single-device process.
func DefaultConfig() Config {
	return Config{
		Workers:         1,
		ReleaseAfter:    10 * time.Minute,
		CleanupInterval: time.Hour,
	}
}
