package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for driver location
// tracking.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error
	FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]DriverLocation, error)
	CountOnline(ctx context.Context) (int, error)
	RemoveLocation(ctx context.Context, driverID string) error
}

// LockStoreInterface defines the interface for driver claim locks.
type LockStoreInterface interface {
	AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error)
	ReleaseDriverLock(ctx context.Context, driverID string) error
}

// QuoteStoreInterface defines the interface for fare quote storage.
type QuoteStoreInterface interface {
	Put(ctx context.Context, quote *Quote) error
	Get(ctx context.Context, id string) (*Quote, error)
}

// ResponseCacheInterface defines the interface for idempotent response
// replay.
type ResponseCacheInterface interface {
	Get(ctx context.Context, key string) (*CachedResponse, error)
	Put(ctx context.Context, key string, response *CachedResponse) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ QuoteStoreInterface    = (*QuoteStore)(nil)
	_ ResponseCacheInterface = (*ResponseCache)(nil)
)
