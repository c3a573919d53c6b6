package service

import (
	"context"
	"math"
	"math/rand"

	"rideshare/internal/domain"
)

// Pricing constants. Fares are itemized as base + distance + time, with
// surge applied to the subtotal.
const (
	BaseFare      = 2.50
	PerMileRate   = 1.85
	PerMinuteRate = 0.35

	SurgeStandard = 1.0
	SurgeHigh     = 1.5
	SurgeVeryHigh = 2.0

	// earthRadiusMiles is the radius used for great-circle distances.
	earthRadiusMiles = 3959
)

// ComputeFare maps distance (miles), duration (minutes), and a surge
// multiplier (>= 1) to an itemized fare. Callers validate inputs upstream.
func ComputeFare(distanceMiles, durationMinutes, surgeMultiplier float64) domain.Fare {
	distanceFare := distanceMiles * PerMileRate
	timeFare := durationMinutes * PerMinuteRate
	subtotal := BaseFare + distanceFare + timeFare
	surgeFare := subtotal * (surgeMultiplier - 1)

	return domain.Fare{
		BaseFare:     BaseFare,
		DistanceFare: distanceFare,
		TimeFare:     timeFare,
		SurgeFare:    surgeFare,
		TotalFare:    round2(subtotal + surgeFare),
		Currency:     "USD",
	}
}

// Haversine returns the great-circle distance in miles between two points,
// rounded to two decimal places.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return round2(earthRadiusMiles * c)
}

// EstimateDuration converts a distance to an expected trip duration in
// minutes, with a 5-minute floor.
func EstimateDuration(distanceMiles float64) float64 {
	return math.Max(distanceMiles*2.5, 5)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// SurgePolicy supplies the surge multiplier for a pickup location.
type SurgePolicy interface {
	Multiplier(ctx context.Context, lat, lng float64) float64
}

// RandomSurgePolicy draws from a fixed discrete distribution: standard
// pricing most of the time, high surge with probability HighProbability.
type RandomSurgePolicy struct {
	HighProbability float64
}

// NewRandomSurgePolicy returns the default surge policy (30% high tier).
func NewRandomSurgePolicy() *RandomSurgePolicy {
	return &RandomSurgePolicy{HighProbability: 0.3}
}

// Multiplier returns SurgeHigh with the configured probability, otherwise
// SurgeStandard.
func (p *RandomSurgePolicy) Multiplier(ctx context.Context, lat, lng float64) float64 {
	if rand.Float64() < p.HighProbability {
		return SurgeHigh
	}
	return SurgeStandard
}

// FixedSurgePolicy always returns the same multiplier. Useful for tests
// and for disabling surge.
type FixedSurgePolicy struct {
	Value float64
}

// Multiplier returns the fixed multiplier.
func (p *FixedSurgePolicy) Multiplier(ctx context.Context, lat, lng float64) float64 {
	return p.Value
}

// Ensure policies implement SurgePolicy.
var (
	_ SurgePolicy = (*RandomSurgePolicy)(nil)
	_ SurgePolicy = (*FixedSurgePolicy)(nil)
	_ SurgePolicy = (*SupplyDemandSurgePolicy)(nil)
)
