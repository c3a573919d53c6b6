package memory

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rideshare/internal/domain"
)

// DemoPassword is the password shared by the seeded demo accounts.
const DemoPassword = "Password123!"

// Seed populates the stores with the demo dataset: three accounts
// (passenger, driver, admin) and a small ride history. Passwords are
// hashed at seed time; no plaintext credential is retained.
func Seed(users *UserStore, rides *RideStore) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	demoUsers := []*domain.User{
		{
			ID: "1", Email: "passenger@demo.com", Name: "John Passenger",
			Phone: "+1234567890", Role: domain.RolePassenger,
			IsVerified: true, CreatedAt: created, UpdatedAt: created,
		},
		{
			ID: "2", Email: "driver@demo.com", Name: "Jane Driver",
			Phone: "+1234567891", Role: domain.RoleDriver,
			IsVerified: true, CreatedAt: created, UpdatedAt: created,
		},
		{
			ID: "3", Email: "admin@demo.com", Name: "Admin User",
			Phone: "+1234567892", Role: domain.RoleAdmin,
			IsVerified: true, CreatedAt: created, UpdatedAt: created,
		},
	}

	ctx := context.Background()
	for _, u := range demoUsers {
		if err := users.Create(ctx, u, hash); err != nil {
			return err
		}
	}
	users.mu.Lock()
	users.counter = len(demoUsers)
	users.mu.Unlock()

	for _, r := range demoRides() {
		if err := rides.Create(ctx, r); err != nil {
			return err
		}
	}
	rides.mu.Lock()
	rides.counter = 3
	rides.mu.Unlock()

	return nil
}

func demoRides() []*domain.Ride {
	ts := func(value string) time.Time {
		t, _ := time.Parse(time.RFC3339, value)
		return t
	}

	return []*domain.Ride{
		{
			ID:          "ride_001",
			PassengerID: "1",
			DriverID:    "2",
			Pickup: domain.Location{
				Address: "123 Main St, New York, NY", Lat: 40.7589, Lng: -73.9851,
			},
			Destination: domain.Location{
				Address: "456 Broadway, New York, NY", Lat: 40.7505, Lng: -73.9934,
			},
			Status:      domain.RideStatusCompleted,
			VehicleType: domain.VehicleTypeStandard,
			Fare: domain.Fare{
				BaseFare: 2.50, DistanceFare: 3.70, TimeFare: 1.75,
				SurgeFare: 0, TotalFare: 7.95, Currency: "USD",
			},
			EstimatedDuration: 15,
			EstimatedDistance: 2.1,
			SurgeMultiplier:   1.0,
			RequestedAt:       ts("2024-01-15T10:30:00Z"),
			AcceptedAt:        ts("2024-01-15T10:31:00Z"),
			StartedAt:         ts("2024-01-15T10:35:00Z"),
			CompletedAt:       ts("2024-01-15T10:50:00Z"),
			Rating: &domain.Rating{
				ID: "rating_001", RideID: "ride_001", RaterID: "1",
				RaterType: domain.RaterTypePassenger, Value: 5,
				Comment:   "Great ride, very professional driver!",
				CreatedAt: ts("2024-01-15T10:52:00Z"),
			},
		},
		{
			ID:          "ride_002",
			PassengerID: "1",
			DriverID:    "2",
			Pickup: domain.Location{
				Address: "789 Central Park West, New York, NY", Lat: 40.7794, Lng: -73.9632,
			},
			Destination: domain.Location{
				Address: "321 Wall St, New York, NY", Lat: 40.7074, Lng: -74.0113,
			},
			Status:      domain.RideStatusCompleted,
			VehicleType: domain.VehicleTypePremium,
			Fare: domain.Fare{
				BaseFare: 3.50, DistanceFare: 8.25, TimeFare: 3.15,
				SurgeFare: 2.48, TotalFare: 17.38, Currency: "USD",
			},
			EstimatedDuration: 25,
			EstimatedDistance: 4.5,
			SurgeMultiplier:   1.5,
			RequestedAt:       ts("2024-01-14T14:20:00Z"),
			AcceptedAt:        ts("2024-01-14T14:21:30Z"),
			StartedAt:         ts("2024-01-14T14:28:00Z"),
			CompletedAt:       ts("2024-01-14T14:53:00Z"),
			Rating: &domain.Rating{
				ID: "rating_002", RideID: "ride_002", RaterID: "1",
				RaterType: domain.RaterTypePassenger, Value: 4,
				Comment:   "Good ride, arrived on time",
				CreatedAt: ts("2024-01-14T14:55:00Z"),
			},
		},
		{
			ID:          "ride_003",
			PassengerID: "1",
			Pickup: domain.Location{
				Address: "JFK Airport, Queens, NY", Lat: 40.6413, Lng: -73.7781,
			},
			Destination: domain.Location{
				Address: "100 Manhattan Ave, New York, NY", Lat: 40.7831, Lng: -73.9712,
			},
			Status:      domain.RideStatusRequested,
			VehicleType: domain.VehicleTypeXL,
			Fare: domain.Fare{
				BaseFare: 4.00, DistanceFare: 18.50, TimeFare: 5.25,
				SurgeFare: 0, TotalFare: 27.75, Currency: "USD",
			},
			EstimatedDuration: 45,
			EstimatedDistance: 10.2,
			SurgeMultiplier:   1.0,
			RequestedAt:       ts("2024-01-16T09:15:00Z"),
			Notes:             "Airport pickup - Terminal 4",
		},
	}
}

// DemoDriverLocations returns the seeded driver positions used to populate
// the geo index on startup. Only online drivers are indexed.
func DemoDriverLocations() map[string][2]float64 {
	return map[string][2]float64{
		"2": {40.7589, -73.9851},
		"4": {40.7505, -73.9934},
		"5": {40.7794, -73.9632},
	}
}
