package tests

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/service"
)

// ──────────────────────────────────────────────
// DISPATCH (AUTO-ACCEPT)
// ──────────────────────────────────────────────

func newDispatcher(repo *MockRideRepository, locations *MockLocationStore, locks *MockLockStore, fallback []string) *service.Dispatcher {
	return service.NewDispatcher(
		repo, locations, locks, nil,
		time.Millisecond, time.Millisecond,
		5.0, fallback, testLogger(),
	)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func requestedRide(id string) *domain.Ride {
	return &domain.Ride{
		ID:          id,
		PassengerID: "1",
		Pickup:      timesSquare,
		Destination: brooklynBridge,
		Status:      domain.RideStatusRequested,
		RequestedAt: time.Now(),
	}
}

func TestDispatch_AutoAcceptAssignsDriver(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	locations := NewMockLocationStore()
	locks := NewMockLockStore()
	ctx := context.Background()

	_ = locations.UpdateLocation(ctx, "2", 40.7589, -73.9851)

	ride := requestedRide("ride_a")
	repo.AddRide(ride)

	d := newDispatcher(repo, locations, locks, nil)
	defer d.Stop()
	d.Schedule(ride)

	ok := waitFor(t, 2*time.Second, func() bool {
		return repo.GetRide("ride_a").Status == domain.RideStatusAccepted
	})
	if !ok {
		t.Fatal("ride never reached accepted state")
	}

	got := repo.GetRide("ride_a")
	if got.DriverID != "2" {
		t.Errorf("driver = %q, want online driver 2", got.DriverID)
	}
	if got.AcceptedAt.IsZero() {
		t.Error("acceptedAt not stamped")
	}
}

func TestDispatch_CancelledTimerNeverFires(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	locations := NewMockLocationStore()
	_ = locations.UpdateLocation(context.Background(), "2", 40.7589, -73.9851)

	ride := requestedRide("ride_b")
	repo.AddRide(ride)

	d := service.NewDispatcher(
		repo, locations, NewMockLockStore(), nil,
		50*time.Millisecond, 50*time.Millisecond,
		5.0, nil, testLogger(),
	)
	defer d.Stop()
	d.Schedule(ride)
	d.CancelTimer(ride.ID)

	time.Sleep(150 * time.Millisecond)

	if status := repo.GetRide("ride_b").Status; status != domain.RideStatusRequested {
		t.Errorf("status = %s, want requested after timer cancel", status)
	}
}

func TestDispatch_SkipsRideThatLeftRequestedState(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	locations := NewMockLocationStore()
	locks := NewMockLockStore()
	ctx := context.Background()
	_ = locations.UpdateLocation(ctx, "2", 40.7589, -73.9851)

	ride := requestedRide("ride_c")
	repo.AddRide(ride)

	// The passenger cancels between booking and the timer firing. The
	// repository-level compare-and-swap makes the late accept a no-op.
	if ok, err := repo.UpdateStatus(ctx, "ride_c",
		domain.RideStatusRequested, domain.RideStatusCancelled, "", time.Now()); err != nil || !ok {
		t.Fatalf("setup cancel failed: ok=%v err=%v", ok, err)
	}

	d := newDispatcher(repo, locations, locks, nil)
	defer d.Stop()
	d.Schedule(ride)

	waitFor(t, time.Second, func() bool {
		return atomic.LoadInt32(&locks.AcquireCallCount) > 0
	})
	time.Sleep(50 * time.Millisecond)

	got := repo.GetRide("ride_c")
	if got.Status != domain.RideStatusCancelled {
		t.Errorf("status = %s, want cancelled to stick", got.Status)
	}
	if got.DriverID != "" {
		t.Errorf("driver = %q, want none on a cancelled ride", got.DriverID)
	}

	// The claimed driver must be released for other rides.
	acquired, err := locks.AcquireDriverLock(ctx, "2", time.Minute)
	if err != nil || !acquired {
		t.Errorf("driver lock not released after skipped accept: ok=%v err=%v", acquired, err)
	}
}

func TestDispatch_ClaimedDriverNotDoubleAssigned(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	locations := NewMockLocationStore()
	locks := NewMockLockStore()
	ctx := context.Background()
	_ = locations.UpdateLocation(ctx, "2", 40.7589, -73.9851)
	_ = locations.UpdateLocation(ctx, "4", 40.7505, -73.9934)

	// Driver 2 is already claimed by another dispatch.
	locks.Lock("2")

	ride := requestedRide("ride_d")
	repo.AddRide(ride)

	d := newDispatcher(repo, locations, locks, nil)
	defer d.Stop()
	d.Schedule(ride)

	ok := waitFor(t, 2*time.Second, func() bool {
		return repo.GetRide("ride_d").Status == domain.RideStatusAccepted
	})
	if !ok {
		t.Fatal("ride never reached accepted state")
	}

	if got := repo.GetRide("ride_d").DriverID; got != "4" {
		t.Errorf("driver = %q, want unclaimed driver 4", got)
	}
}

func TestDispatch_FallbackDriverWhenIndexEmpty(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	ride := requestedRide("ride_e")
	repo.AddRide(ride)

	d := newDispatcher(repo, NewMockLocationStore(), NewMockLockStore(), []string{"2"})
	defer d.Stop()
	d.Schedule(ride)

	ok := waitFor(t, 2*time.Second, func() bool {
		return repo.GetRide("ride_e").Status == domain.RideStatusAccepted
	})
	if !ok {
		t.Fatal("ride never reached accepted state")
	}
	if got := repo.GetRide("ride_e").DriverID; got != "2" {
		t.Errorf("driver = %q, want fallback driver 2", got)
	}
}

func TestDispatch_NoDriverLeavesRideRequested(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	ride := requestedRide("ride_f")
	repo.AddRide(ride)

	d := newDispatcher(repo, NewMockLocationStore(), NewMockLockStore(), nil)
	defer d.Stop()
	d.Schedule(ride)

	time.Sleep(100 * time.Millisecond)

	if status := repo.GetRide("ride_f").Status; status != domain.RideStatusRequested {
		t.Errorf("status = %s, want requested when no driver is available", status)
	}
}
