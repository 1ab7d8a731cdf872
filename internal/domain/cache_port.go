package domain

import (
	"context"
	"time"
)

// CachePort is the optional low-latency lookup layer in front of the
// ledger. Implementations degrade to no-ops when the backend is
// unreachable: Get always misses, Set/Delete do nothing. A cache
// failure must never fail the payment lookup path.
type CachePort interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Available() bool
}
