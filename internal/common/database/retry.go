// internal/common/database/retry.go
package database

import (
	"context"
	"fmt"
	"time"
)

// RetryLogger receives one warning per failed attempt.
type RetryLogger interface {
	Warn(msg string, fields map[string]interface{})
}

// RetryWithBackoff calls operation until it succeeds, doubling the delay between attempts.
func RetryWithBackoff(ctx context.Context, operationName string, maxAttempts int, initialDelay time.Duration, log RetryLogger, operation func(context.Context) error) error {
	var err error
	delay := initialDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = operation(ctx); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		log.Warn(fmt.Sprintf("%s failed, retrying", operationName), map[string]interface{}{
			"error":       err.Error(),
			"attempt":     attempt,
			"maxAttempts": maxAttempts,
			"nextRetryIn": delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", operationName, attempt, ctx.Err())
		}
		delay *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxAttempts, err)
}
