package seed

import (
	"context"
	"fmt"
	"time"
)

// RetryWithBackoff calls fn up to attempts times, sleeping base*attempt after
// each failure. The last error is returned wrapped once attempts run out.
func RetryWithBackoff(ctx context.Context, attempts int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(base * time.Duration(attempt)):
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
