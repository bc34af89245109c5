package contextutils

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ContextCheckResult represents the result of a context cancellation check
type ContextCheckResult struct {
	Cancelled bool
	Error     error
}

// CheckCancellation checks if the context is cancelled and returns appropriate result
func CheckCancellation(ctx context.Context) ContextCheckResult {
	select {
	case <-ctx.Done():
		return ContextCheckResult{
			Cancelled: true,
			Error:     ctx.Err(),
		}
	default:
		return ContextCheckResult{
			Cancelled: false,
			Error:     nil,
		}
	}
}

// CheckCancellationWithLog checks for context cancellation and logs if cancelled
func CheckCancellationWithLog(ctx context.Context, logger zerolog.Logger, operation string) ContextCheckResult {
	result := CheckCancellation(ctx)
	if result.Cancelled {
		logger.Info().Str("operation", operation).Msg("Context cancelled")
	}
	return result
}

// Sleep blocks for the given duration or until the context is cancelled.
// It returns false when the context ended the wait early.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return !CheckCancellation(ctx).Cancelled
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
