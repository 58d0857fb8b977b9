package cache

import (
	"context"
	"errors"
	"time"
)

// ReportKeyPrefix namespaces every cached report aggregate so writers can drop
// them all at once.
const ReportKeyPrefix = "reports:"

var ErrCacheMiss = errors.New("cache: miss")

// Cache is implemented by RedisClient and by LocalCache for the memory driver.
type Cache interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}
