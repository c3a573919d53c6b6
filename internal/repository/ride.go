package repository

import (
	"context"
	"time"

	"rideshare/internal/domain"
)

// RideRepository defines the persistence operations for rides. The backing
// collection is never exposed; callers always receive copies.
type RideRepository interface {
	// NextID reserves and returns the next monotonic ride id.
	NextID(ctx context.Context) (string, error)

	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetAll retrieves all rides.
	GetAll(ctx context.Context) ([]*domain.Ride, error)

	// GetByUser retrieves all rides where the user is passenger or driver.
	GetByUser(ctx context.Context, userID string) ([]*domain.Ride, error)

	// UpdateStatus atomically moves a ride from one status to another,
	// stamping the timestamp that corresponds to the new status with at,
	// and assigning driverID when non-empty. Returns false without
	// modifying anything if the ride is no longer in the from status.
	UpdateStatus(ctx context.Context, id string, from, to domain.RideStatus, driverID string, at time.Time) (bool, error)

	// SetRating attaches a post-trip rating to a ride.
	SetRating(ctx context.Context, id string, rating *domain.Rating) error
}
