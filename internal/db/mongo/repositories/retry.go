// Package repositories contains MongoDB repository implementations.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"norelock.dev/tunegate/backend/internal/models"
	"norelock.dev/tunegate/backend/internal/utils"
)

// retryPolicy retries transient store failures with a fixed backoff. Attempts
// counts total tries, so attempts=5 means one initial try plus four retries.
type retryPolicy struct {
	attempts int
	backoff  time.Duration
	logger   *utils.Logger
}

func newRetryPolicy(attempts int, backoff time.Duration, logger *utils.Logger) retryPolicy {
	if attempts < 1 {
		attempts = 1
	}
	return retryPolicy{
		attempts: attempts,
		backoff:  backoff,
		logger:   logger,
	}
}

// do runs op until it succeeds, fails non-transiently, or attempts are
// exhausted. Non-transient errors propagate unchanged on the attempt they
// occur. Exhaustion wraps ErrStoreUnavailable so callers can report the store
// outage without inspecting driver errors.
func (p retryPolicy) do(ctx context.Context, name string, op func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}

		p.logger.Warn("Transient store failure",
			"operation", name,
			"attempt", attempt,
			"maxAttempts", p.attempts,
			"error", err.Error(),
		)

		if attempt == p.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff):
		}
	}

	return fmt.Errorf("%w: %s failed after %d attempts: %v", models.ErrStoreUnavailable, name, p.attempts, err)
}

// isTransient reports whether a store error is worth retrying. Duplicate key
// violations and context cancellation are deterministic and never retried.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return false
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorLabel("RetryableWriteError") ||
			serverErr.HasErrorLabel("TransientTransactionError")
	}

	return false
}
