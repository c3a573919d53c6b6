package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"rideshare/internal/domain"
	"rideshare/internal/redis"
	"rideshare/internal/repository"
)

// DriverService manages driver availability: location heartbeats, going
// offline, and nearby lookups. A driver is online while present in the
// geo index.
type DriverService struct {
	userRepo  repository.UserRepository
	locations redis.LocationStoreInterface
	log       *logrus.Logger
}

// NewDriverService creates a new DriverService.
func NewDriverService(userRepo repository.UserRepository, locations redis.LocationStoreInterface, log *logrus.Logger) *DriverService {
	return &DriverService{
		userRepo:  userRepo,
		locations: locations,
		log:       log,
	}
}

// UpdateLocation records a driver's position, marking them online.
func (s *DriverService) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrInvalidLocation
	}

	if err := s.requireDriver(ctx, driverID); err != nil {
		return err
	}

	if err := s.locations.UpdateLocation(ctx, driverID, lat, lng); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"driver_id": driverID,
		"lat":       lat,
		"lng":       lng,
	}).Debug("driver location updated")

	return nil
}

// GoOffline removes a driver from the geo index.
func (s *DriverService) GoOffline(ctx context.Context, driverID string) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if err := s.requireDriver(ctx, driverID); err != nil {
		return err
	}
	return s.locations.RemoveLocation(ctx, driverID)
}

// Nearby returns online drivers within radiusKm of the given point,
// nearest first.
func (s *DriverService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, ErrInvalidLocation
	}
	return s.locations.FindNearby(ctx, lat, lng, radiusKm)
}

func (s *DriverService) requireDriver(ctx context.Context, driverID string) error {
	user, err := s.userRepo.GetByID(ctx, driverID)
	if err != nil {
		return err
	}
	if user.Role != domain.RoleDriver {
		return ErrNotADriver
	}
	return nil
}
