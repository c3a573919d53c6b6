package tests

import (
	"context"
	"testing"
	"time"

	"rideshare/internal/domain"
)

// ──────────────────────────────────────────────
// TRIP HISTORY
// ──────────────────────────────────────────────

func completedRide(id, passengerID, driverID string, total float64, requestedAt time.Time, rating int) *domain.Ride {
	ride := &domain.Ride{
		ID:          id,
		PassengerID: passengerID,
		DriverID:    driverID,
		Status:      domain.RideStatusCompleted,
		Fare:        domain.Fare{TotalFare: total, Currency: "USD"},
		RequestedAt: requestedAt,
		CompletedAt: requestedAt.Add(20 * time.Minute),
	}
	if rating > 0 {
		ride.Rating = &domain.Rating{
			ID: "r-" + id, RideID: id, RaterID: passengerID,
			RaterType: domain.RaterTypePassenger, Value: rating,
		}
	}
	return ride
}

func TestHistory_Pagination(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	older := completedRide("ride_001", "1", "2", 7.95, base, 5)
	newer := completedRide("ride_002", "1", "2", 17.38, base.Add(24*time.Hour), 4)
	repo.AddRide(older)
	repo.AddRide(newer)

	svc := newRideService(repo, nil, nil, nil)

	history, err := svc.History(context.Background(), "1", 2, 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}

	if history.TotalTrips != 2 {
		t.Errorf("totalTrips = %d, want 2", history.TotalTrips)
	}
	if len(history.Rides) != 1 {
		t.Fatalf("page 2 with limit 1 returned %d rides, want 1", len(history.Rides))
	}
	if history.Rides[0].ID != "ride_001" {
		t.Errorf("page 2 ride = %s, want the older ride_001", history.Rides[0].ID)
	}
}

func TestHistory_PageBeyondEnd(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	repo.AddRide(completedRide("ride_001", "1", "2", 7.95, time.Now(), 0))
	svc := newRideService(repo, nil, nil, nil)

	history, err := svc.History(context.Background(), "1", 5, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history.Rides) != 0 {
		t.Errorf("got %d rides past the end, want empty page", len(history.Rides))
	}
	if history.TotalTrips != 1 {
		t.Errorf("totalTrips = %d, want 1 regardless of page", history.TotalTrips)
	}
}

func TestHistory_Aggregates(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	// As passenger: two completed rides.
	repo.AddRide(completedRide("ride_001", "1", "2", 7.95, base, 5))
	repo.AddRide(completedRide("ride_002", "1", "2", 17.38, base.Add(time.Hour), 4))
	// As driver: one completed ride earns the 80% share.
	repo.AddRide(completedRide("ride_003", "9", "1", 10.00, base.Add(2*time.Hour), 0))
	// Cancelled ride with driver assigned: excluded from every aggregate.
	repo.AddRide(&domain.Ride{
		ID: "ride_004", PassengerID: "9", DriverID: "1",
		Status:      domain.RideStatusCancelled,
		Fare:        domain.Fare{TotalFare: 99.99},
		RequestedAt: base.Add(3 * time.Hour),
		CancelledAt: base.Add(3*time.Hour + time.Minute),
	})

	svc := newRideService(repo, nil, nil, nil)

	history, err := svc.History(context.Background(), "1", 1, 20)
	if err != nil {
		t.Fatalf("history: %v", err)
	}

	if history.TotalTrips != 4 {
		t.Errorf("totalTrips = %d, want 4", history.TotalTrips)
	}
	if want := 25.33; history.TotalSpent != want {
		t.Errorf("totalSpent = %v, want %v", history.TotalSpent, want)
	}
	if want := 8.00; history.TotalEarned != want {
		t.Errorf("totalEarned = %v, want %v (80%% of 10.00)", history.TotalEarned, want)
	}
	if want := 4.5; history.AverageRating != want {
		t.Errorf("averageRating = %v, want %v", history.AverageRating, want)
	}
}

func TestHistory_NewestFirst(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	repo.AddRide(completedRide("ride_001", "1", "2", 5, base, 0))
	repo.AddRide(completedRide("ride_002", "1", "2", 5, base.Add(time.Hour), 0))
	repo.AddRide(completedRide("ride_003", "1", "2", 5, base.Add(2*time.Hour), 0))

	svc := newRideService(repo, nil, nil, nil)

	history, err := svc.History(context.Background(), "1", 1, 20)
	if err != nil {
		t.Fatalf("history: %v", err)
	}

	want := []string{"ride_003", "ride_002", "ride_001"}
	for i, id := range want {
		if history.Rides[i].ID != id {
			t.Errorf("rides[%d] = %s, want %s", i, history.Rides[i].ID, id)
		}
	}
}
