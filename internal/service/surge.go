package service

import (
	"context"

	"rideshare/internal/domain"
	"rideshare/internal/redis"
	"rideshare/internal/repository"
)

// SupplyDemandSurgePolicy derives the multiplier from the ratio of open
// ride requests to online drivers near the pickup point. It falls back to
// standard pricing when either signal is unavailable.
type SupplyDemandSurgePolicy struct {
	rides     repository.RideRepository
	locations redis.LocationStoreInterface
	radiusKm  float64
}

// NewSupplyDemandSurgePolicy creates a surge policy backed by live
// supply and demand counts.
func NewSupplyDemandSurgePolicy(rides repository.RideRepository, locations redis.LocationStoreInterface, radiusKm float64) *SupplyDemandSurgePolicy {
	return &SupplyDemandSurgePolicy{
		rides:     rides,
		locations: locations,
		radiusKm:  radiusKm,
	}
}

// Multiplier compares open requests against nearby online drivers.
// demand > 2x supply yields the very high tier, demand above supply the
// high tier.
func (p *SupplyDemandSurgePolicy) Multiplier(ctx context.Context, lat, lng float64) float64 {
	nearby, err := p.locations.FindNearby(ctx, lat, lng, p.radiusKm)
	if err != nil || len(nearby) == 0 {
		return SurgeStandard
	}
	supply := len(nearby)

	all, err := p.rides.GetAll(ctx)
	if err != nil {
		return SurgeStandard
	}
	demand := 0
	for _, r := range all {
		if r.Status == domain.RideStatusRequested {
			demand++
		}
	}

	switch {
	case demand >= supply*2:
		return SurgeVeryHigh
	case demand > supply:
		return SurgeHigh
	default:
		return SurgeStandard
	}
}
