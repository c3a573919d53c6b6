// Package memory provides mutex-guarded in-process implementations of the
// repository interfaces. It is the default backing store: the demo dataset
// lives entirely in process memory.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// RideStore is an in-memory implementation of repository.RideRepository.
type RideStore struct {
	mu      sync.RWMutex
	rides   map[string]*domain.Ride
	order   []string // creation order, for stable GetAll
	counter int
}

// Ensure RideStore implements the repository interface.
var _ repository.RideRepository = (*RideStore)(nil)

// NewRideStore creates an empty in-memory ride store.
func NewRideStore() *RideStore {
	return &RideStore{
		rides: make(map[string]*domain.Ride),
	}
}

// NextID reserves and returns the next monotonic ride id.
func (s *RideStore) NextID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return fmt.Sprintf("ride_%03d", s.counter), nil
}

// Create persists a new ride.
func (s *RideStore) Create(ctx context.Context, ride *domain.Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rides[ride.ID] = copyRide(ride)
	s.order = append(s.order, ride.ID)
	return nil
}

// GetByID retrieves a ride by ID.
func (s *RideStore) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ride, ok := s.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyRide(ride), nil
}

// GetAll retrieves all rides in creation order.
func (s *RideStore) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*domain.Ride, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, copyRide(s.rides[id]))
	}
	return result, nil
}

// GetByUser retrieves all rides where the user is passenger or driver.
func (s *RideStore) GetByUser(ctx context.Context, userID string) ([]*domain.Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*domain.Ride
	for _, id := range s.order {
		r := s.rides[id]
		if r.PassengerID == userID || r.DriverID == userID {
			result = append(result, copyRide(r))
		}
	}
	return result, nil
}

// UpdateStatus atomically moves a ride from one status to another. The
// read-check-write happens under the store lock, so a dispatch timer and a
// concurrent status update on the same ride cannot interleave.
func (s *RideStore) UpdateStatus(ctx context.Context, id string, from, to domain.RideStatus, driverID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ride, ok := s.rides[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if ride.Status != from {
		return false, nil
	}

	ride.Status = to
	if driverID != "" {
		ride.DriverID = driverID
	}
	stampTransition(ride, to, at)
	return true, nil
}

// SetRating attaches a post-trip rating to a ride.
func (s *RideStore) SetRating(ctx context.Context, id string, rating *domain.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ride, ok := s.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	r := *rating
	ride.Rating = &r
	return nil
}

// stampTransition writes the timestamp field that corresponds to the
// entered status. Each field is written at most once.
func stampTransition(ride *domain.Ride, to domain.RideStatus, at time.Time) {
	switch to {
	case domain.RideStatusAccepted:
		if ride.AcceptedAt.IsZero() {
			ride.AcceptedAt = at
		}
	case domain.RideStatusInProgress:
		if ride.StartedAt.IsZero() {
			ride.StartedAt = at
		}
	case domain.RideStatusCompleted:
		if ride.CompletedAt.IsZero() {
			ride.CompletedAt = at
		}
	case domain.RideStatusCancelled:
		if ride.CancelledAt.IsZero() {
			ride.CancelledAt = at
		}
	}
}

// copyRide returns a deep copy so callers can never mutate the canonical
// record.
func copyRide(r *domain.Ride) *domain.Ride {
	cp := *r
	if r.Rating != nil {
		rating := *r.Rating
		cp.Rating = &rating
	}
	return &cp
}
