package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const quotePrefix = "quote:"

// Quote is a stored fare estimate that a booking may honor within the TTL
// window. After expiry the booking re-quotes at commit time.
type Quote struct {
	ID              string  `json:"id"`
	PickupLat       float64 `json:"pickup_lat"`
	PickupLng       float64 `json:"pickup_lng"`
	DestinationLat  float64 `json:"destination_lat"`
	DestinationLng  float64 `json:"destination_lng"`
	VehicleType     string  `json:"vehicle_type"`
	Distance        float64 `json:"distance"`
	Duration        float64 `json:"duration"`
	SurgeMultiplier float64 `json:"surge_multiplier"`
	BaseFare        float64 `json:"base_fare"`
	DistanceFare    float64 `json:"distance_fare"`
	TimeFare        float64 `json:"time_fare"`
	SurgeFare       float64 `json:"surge_fare"`
	TotalFare       float64 `json:"total_fare"`
	Currency        string  `json:"currency"`
}

// QuoteStore persists fare quotes in Redis with a TTL.
type QuoteStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQuoteStore creates a new QuoteStore.
func NewQuoteStore(client *redis.Client, ttl time.Duration) *QuoteStore {
	return &QuoteStore{client: client, ttl: ttl}
}

// Put stores a quote under its id for the configured TTL.
func (s *QuoteStore) Put(ctx context.Context, quote *Quote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, quotePrefix+quote.ID, data, s.ttl).Err()
}

// Get retrieves a quote by id. Returns nil if the quote expired or never
// existed.
func (s *QuoteStore) Get(ctx context.Context, id string) (*Quote, error) {
	data, err := s.client.Get(ctx, quotePrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var quote Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}
