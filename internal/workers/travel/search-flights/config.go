// internal/workers/travel/search-flights/config.go
package searchflights

import (
	"time"

	"travel-planner/internal/common/config"
	"travel-planner/pkg/registry"
)

const defaultTimeout = 60 * time.Second

type Config struct {
	Timeout time.Duration
	Now     func() time.Time
}

// LoadConfig prefers the worker's configured timeout over the one declared for the stage.
func LoadConfig(wcfg config.WorkerConfig, stage *registry.Stage) *Config {
	timeout := defaultTimeout
	if stage != nil {
		timeout = stage.TimeoutOr(defaultTimeout)
	}
	if wcfg.Timeout > 0 {
		timeout = time.Duration(wcfg.Timeout) * time.Millisecond
	}
	return &Config{
		Timeout: timeout,
		Now:     time.Now,
	}
}
