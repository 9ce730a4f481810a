// internal/workers/travel/parse-conversation/config.go
package parseconversation

import (
	"time"

	"travel-planner/internal/common/config"
	"travel-planner/pkg/registry"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wcfg config.WorkerConfig, stage *registry.Stage) *Config {
	timeout := 60 * time.Second
	if stage != nil {
		timeout = stage.TimeoutOr(timeout)
	}
	if wcfg.Timeout > 0 {
		timeout = time.Duration(wcfg.Timeout) * time.Millisecond
	}
	return &Config{Timeout: timeout}
}
