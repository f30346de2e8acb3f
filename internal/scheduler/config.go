package scheduler

import (
	"errors"
	"time"

	appconfig "github.com/smallbiznis/collecta/internal/config"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Config struct {
	// RunInterval is the pause between batch cycles in RunForever.
	RunInterval time.Duration
	// BatchSize caps how many due steps one send_reminders pass claims.
	BatchSize   int
	JobTimeout  time.Duration
	DueSoonDays int
	// EnabledJobs restricts which jobs run; empty means all (monolith mode).
	EnabledJobs []string
	// LockTTL bounds the distributed run lock when Redis is configured.
	LockTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.RunInterval <= 0 {
		c.RunInterval = 15 * time.Minute
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 2 * time.Minute
	}
	if c.DueSoonDays <= 0 {
		c.DueSoonDays = 7
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 5 * time.Minute
	}
	return c
}

func FromAppConfig(cfg appconfig.Config) Config {
	return Config{
		RunInterval: cfg.SchedulerInterval,
		BatchSize:   cfg.SchedulerBatch,
		DueSoonDays: cfg.DueSoonDays,
	}.withDefaults()
}
