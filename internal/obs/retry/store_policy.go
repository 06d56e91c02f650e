package retry

import (
	"errors"
	"time"

	domainauth "github.com/NordCoder/Placement/internal/domain/auth"
	"go.uber.org/zap"
)

// StoreReadPolicy retries a read-only lookup once when the store was unreachable.
// Writes must never use it.
func StoreReadPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "store_read",
		Attempts: 2,
		Backoff:  ExpoJitter{Base: 50 * time.Millisecond, Max: 200 * time.Millisecond, Jitter: 0.2},
		Retryable: func(err error) bool {
			return errors.Is(err, domainauth.ErrStoreUnavailable)
		},
		OnAttempt: func(i int, err error) {
			if log != nil && errors.Is(err, domainauth.ErrStoreUnavailable) {
				log.Warn("store read retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
	}
}
