package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// BroadcastPolicy is the policy for publishing moment events to the
// broadcast topic: a handful of quick attempts, then give up.
func BroadcastPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "broadcast",
		Attempts: 4,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("broadcast retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("broadcast retries exhausted", zap.Error(err))
			}
		},
	}
}
