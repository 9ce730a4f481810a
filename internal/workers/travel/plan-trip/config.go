// internal/workers/travel/plan-trip/config.go
package plantrip

import (
	"time"

	"travel-planner/internal/common/config"
	"travel-planner/pkg/registry"
)

type Config struct {
	Timeout time.Duration
	Now     func() time.Time
}

// LoadConfig sizes the job timeout for a full pipeline run: both searches, both recommendations and the itinerary.
func LoadConfig(wcfg config.WorkerConfig, stage *registry.Stage) *Config {
	timeout := 5 * time.Minute
	if stage != nil {
		timeout = stage.TimeoutOr(timeout)
	}
	if wcfg.Timeout > 0 {
		timeout = time.Duration(wcfg.Timeout) * time.Millisecond
	}
	return &Config{
		Timeout: timeout,
		Now:     time.Now,
	}
}
