package cache

import (
	"context"
	"time"
)

// Cache is the realtime/cache boundary. Publish feeds the UI's realtime
// change feed; Set/Get back short-lived operational state.
type Cache interface {
	Set(ctx context.Context, key, val string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Publish(ctx context.Context, channel, payload string) error
}
