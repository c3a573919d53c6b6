package tests

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"rideshare/internal/domain"
	"rideshare/internal/redis"
	"rideshare/internal/repository"
	"rideshare/internal/service"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newRideService(repo repository.RideRepository, quotes redis.QuoteStoreInterface, locations redis.LocationStoreInterface, surge service.SurgePolicy) *service.RideService {
	if surge == nil {
		surge = &service.FixedSurgePolicy{Value: 1.0}
	}
	return service.NewRideService(repo, quotes, locations, surge, nil, nil, 5.0, testLogger())
}

var (
	timesSquare    = domain.Location{Address: "Times Square", Lat: 40.7580, Lng: -73.9855}
	brooklynBridge = domain.Location{Address: "Brooklyn Bridge", Lat: 40.7061, Lng: -73.9969}
)

// ──────────────────────────────────────────────
// BOOKING
// ──────────────────────────────────────────────

func TestBook_InitialState(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	svc := newRideService(repo, nil, nil, nil)

	ride, err := svc.Book(context.Background(), service.BookRequest{
		PassengerID: "1",
		Pickup:      timesSquare,
		Destination: brooklynBridge,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ride.Status != domain.RideStatusRequested {
		t.Errorf("status = %s, want requested", ride.Status)
	}
	if ride.DriverID != "" {
		t.Errorf("driver id = %q, want empty before acceptance", ride.DriverID)
	}
	if ride.RequestedAt.IsZero() {
		t.Error("requestedAt not set")
	}
	if !ride.AcceptedAt.IsZero() || !ride.CompletedAt.IsZero() || !ride.CancelledAt.IsZero() {
		t.Error("later lifecycle timestamps must be unset after booking")
	}

	wantDistance := service.Haversine(timesSquare.Lat, timesSquare.Lng, brooklynBridge.Lat, brooklynBridge.Lng)
	if ride.EstimatedDistance != wantDistance {
		t.Errorf("estimated distance = %v, want %v", ride.EstimatedDistance, wantDistance)
	}

	// Defaults applied.
	if ride.VehicleType != domain.VehicleTypeStandard {
		t.Errorf("vehicle type = %s, want standard default", ride.VehicleType)
	}
	if ride.PaymentMethod != domain.PaymentMethodCreditCard {
		t.Errorf("payment method = %s, want credit_card default", ride.PaymentMethod)
	}
}

func TestBook_MatchesEstimate(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	svc := newRideService(repo, nil, nil, nil)
	ctx := context.Background()

	estimate, err := svc.Estimate(ctx, service.EstimateRequest{
		Pickup:      timesSquare,
		Destination: brooklynBridge,
	})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}

	ride, err := svc.Book(ctx, service.BookRequest{
		PassengerID: "1",
		Pickup:      timesSquare,
		Destination: brooklynBridge,
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	// Surge is fixed at 1.0, so booking must reproduce the estimate.
	if ride.EstimatedDistance != estimate.Distance {
		t.Errorf("distance = %v, estimate said %v", ride.EstimatedDistance, estimate.Distance)
	}
	if ride.Fare.TotalFare != estimate.Fare.TotalFare {
		t.Errorf("total = %v, estimate said %v", ride.Fare.TotalFare, estimate.Fare.TotalFare)
	}
}

func TestBook_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		req     service.BookRequest
		wantErr error
	}{
		{
			"missing passenger",
			service.BookRequest{Pickup: timesSquare, Destination: brooklynBridge},
			service.ErrInvalidPassengerID,
		},
		{
			"bad pickup",
			service.BookRequest{PassengerID: "1", Pickup: domain.Location{Lat: 91, Lng: 0.1}, Destination: brooklynBridge},
			service.ErrInvalidPickupLocation,
		},
		{
			"bad destination",
			service.BookRequest{PassengerID: "1", Pickup: timesSquare, Destination: domain.Location{Lat: 40.7, Lng: 181}},
			service.ErrInvalidDestinationLocation,
		},
		{
			"unknown vehicle type",
			service.BookRequest{PassengerID: "1", Pickup: timesSquare, Destination: brooklynBridge, VehicleType: "rickshaw"},
			service.ErrInvalidVehicleType,
		},
		{
			"unknown payment method",
			service.BookRequest{PassengerID: "1", Pickup: timesSquare, Destination: brooklynBridge, PaymentMethod: "barter"},
			service.ErrInvalidPaymentMethod,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := NewMockRideRepository()
			svc := newRideService(repo, nil, nil, nil)

			_, err := svc.Book(context.Background(), tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
			if repo.CreateCallCount != 0 {
				t.Error("invalid booking must not be persisted")
			}
		})
	}
}

func TestBook_HonorsFreshQuote(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	quotes := NewMockQuoteStore()
	// High surge on estimate, standard at booking time. The quote wins.
	svc := newRideService(repo, quotes, nil, &service.FixedSurgePolicy{Value: 1.5})
	ctx := context.Background()

	estimate, err := svc.Estimate(ctx, service.EstimateRequest{
		Pickup:      timesSquare,
		Destination: brooklynBridge,
	})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}

	booking := newRideService(repo, quotes, nil, &service.FixedSurgePolicy{Value: 1.0})
	ride, err := booking.Book(ctx, service.BookRequest{
		PassengerID: "1",
		Pickup:      timesSquare,
		Destination: brooklynBridge,
		QuoteID:     estimate.QuoteID,
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if ride.SurgeMultiplier != 1.5 {
		t.Errorf("surge = %v, want quoted 1.5", ride.SurgeMultiplier)
	}
	if ride.Fare.TotalFare != estimate.Fare.TotalFare {
		t.Errorf("total = %v, want quoted %v", ride.Fare.TotalFare, estimate.Fare.TotalFare)
	}
}

func TestBook_ExpiredQuoteRequotes(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	quotes := NewMockQuoteStore()
	svc := newRideService(repo, quotes, nil, &service.FixedSurgePolicy{Value: 1.5})
	ctx := context.Background()

	estimate, err := svc.Estimate(ctx, service.EstimateRequest{
		Pickup:      timesSquare,
		Destination: brooklynBridge,
	})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	quotes.Expire(estimate.QuoteID)

	booking := newRideService(repo, quotes, nil, &service.FixedSurgePolicy{Value: 1.0})
	ride, err := booking.Book(ctx, service.BookRequest{
		PassengerID: "1",
		Pickup:      timesSquare,
		Destination: brooklynBridge,
		QuoteID:     estimate.QuoteID,
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if ride.SurgeMultiplier != 1.0 {
		t.Errorf("surge = %v, want re-quoted 1.0 after expiry", ride.SurgeMultiplier)
	}
}

// ──────────────────────────────────────────────
// STATUS TRANSITIONS
// ──────────────────────────────────────────────

func addRideInStatus(repo *MockRideRepository, id string, status domain.RideStatus) {
	ride := &domain.Ride{
		ID:          id,
		PassengerID: "1",
		Pickup:      timesSquare,
		Destination: brooklynBridge,
		Status:      status,
		RequestedAt: time.Now(),
	}
	if status != domain.RideStatusRequested {
		ride.DriverID = "2"
	}
	repo.AddRide(ride)
}

func TestUpdateStatus_TransitionTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from    domain.RideStatus
		to      domain.RideStatus
		allowed bool
	}{
		{domain.RideStatusRequested, domain.RideStatusAccepted, true},
		{domain.RideStatusRequested, domain.RideStatusCancelled, true},
		{domain.RideStatusRequested, domain.RideStatusInProgress, false},
		{domain.RideStatusRequested, domain.RideStatusCompleted, false},
		{domain.RideStatusAccepted, domain.RideStatusInProgress, true},
		{domain.RideStatusAccepted, domain.RideStatusCancelled, true},
		{domain.RideStatusAccepted, domain.RideStatusCompleted, false},
		{domain.RideStatusAccepted, domain.RideStatusRequested, false},
		{domain.RideStatusInProgress, domain.RideStatusCompleted, true},
		{domain.RideStatusInProgress, domain.RideStatusCancelled, true},
		{domain.RideStatusInProgress, domain.RideStatusAccepted, false},
		{domain.RideStatusCompleted, domain.RideStatusRequested, false},
		{domain.RideStatusCompleted, domain.RideStatusCancelled, false},
		{domain.RideStatusCancelled, domain.RideStatusRequested, false},
		{domain.RideStatusCancelled, domain.RideStatusCompleted, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			t.Parallel()

			repo := NewMockRideRepository()
			addRideInStatus(repo, "ride_x", tc.from)
			svc := newRideService(repo, nil, nil, nil)

			_, err := svc.UpdateStatus(context.Background(), "ride_x", tc.to, "2")
			if tc.allowed && err != nil {
				t.Errorf("transition %s -> %s rejected: %v", tc.from, tc.to, err)
			}
			if !tc.allowed && !errors.Is(err, service.ErrInvalidStatusTransition) {
				t.Errorf("transition %s -> %s: error = %v, want ErrInvalidStatusTransition", tc.from, tc.to, err)
			}
		})
	}
}

func TestUpdateStatus_DoubleCompleteKeepsFirstTimestamp(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	addRideInStatus(repo, "ride_x", domain.RideStatusInProgress)
	svc := newRideService(repo, nil, nil, nil)
	ctx := context.Background()

	first, err := svc.UpdateStatus(ctx, "ride_x", domain.RideStatusCompleted, "")
	if err != nil {
		t.Fatalf("first complete: %v", err)
	}
	completedAt := first.CompletedAt

	_, err = svc.UpdateStatus(ctx, "ride_x", domain.RideStatusCompleted, "")
	if !errors.Is(err, service.ErrInvalidStatusTransition) {
		t.Fatalf("second complete: error = %v, want ErrInvalidStatusTransition", err)
	}

	if got := repo.GetRide("ride_x").CompletedAt; !got.Equal(completedAt) {
		t.Errorf("completedAt changed from %v to %v", completedAt, got)
	}
}

func TestUpdateStatus_UnknownRide(t *testing.T) {
	t.Parallel()

	svc := newRideService(NewMockRideRepository(), nil, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), "ride_999", domain.RideStatusAccepted, "2")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdateStatus_AcceptRequiresDriver(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	addRideInStatus(repo, "ride_x", domain.RideStatusRequested)
	svc := newRideService(repo, nil, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), "ride_x", domain.RideStatusAccepted, "")
	if !errors.Is(err, service.ErrDriverRequired) {
		t.Errorf("error = %v, want ErrDriverRequired", err)
	}
}

func TestCancel_InAcceptedState(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	acceptedAt := time.Now().Add(-time.Minute)
	repo.AddRide(&domain.Ride{
		ID:          "ride_x",
		PassengerID: "1",
		DriverID:    "2",
		Status:      domain.RideStatusAccepted,
		RequestedAt: acceptedAt.Add(-time.Minute),
		AcceptedAt:  acceptedAt,
	})
	svc := newRideService(repo, nil, nil, nil)

	ride, err := svc.Cancel(context.Background(), "ride_x")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if ride.Status != domain.RideStatusCancelled {
		t.Errorf("status = %s, want cancelled", ride.Status)
	}
	if ride.CancelledAt.IsZero() {
		t.Error("cancelledAt not set")
	}
	if !ride.AcceptedAt.Equal(acceptedAt) {
		t.Errorf("acceptedAt changed from %v to %v", acceptedAt, ride.AcceptedAt)
	}
	if !ride.CompletedAt.IsZero() {
		t.Error("completedAt must stay unset on a cancelled ride")
	}
}

// ──────────────────────────────────────────────
// RATINGS
// ──────────────────────────────────────────────

func TestRate_CompletedRideOnly(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	addRideInStatus(repo, "ride_x", domain.RideStatusInProgress)
	svc := newRideService(repo, nil, nil, nil)

	_, err := svc.Rate(context.Background(), "ride_x", "1", 5, "")
	if !errors.Is(err, service.ErrRideNotCompleted) {
		t.Errorf("error = %v, want ErrRideNotCompleted", err)
	}
}

func TestRate_Lifecycle(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	repo.AddRide(&domain.Ride{
		ID: "ride_x", PassengerID: "1", DriverID: "2",
		Status: domain.RideStatusCompleted, RequestedAt: time.Now(),
	})
	svc := newRideService(repo, nil, nil, nil)
	ctx := context.Background()

	if _, err := svc.Rate(ctx, "ride_x", "1", 6, ""); !errors.Is(err, service.ErrInvalidRating) {
		t.Errorf("out-of-range rating: error = %v, want ErrInvalidRating", err)
	}
	if _, err := svc.Rate(ctx, "ride_x", "99", 5, ""); !errors.Is(err, service.ErrNotRideParticipant) {
		t.Errorf("outsider rating: error = %v, want ErrNotRideParticipant", err)
	}

	rating, err := svc.Rate(ctx, "ride_x", "2", 4, "smooth trip")
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if rating.RaterType != domain.RaterTypeDriver {
		t.Errorf("rater type = %s, want driver", rating.RaterType)
	}

	if _, err := svc.Rate(ctx, "ride_x", "1", 5, ""); !errors.Is(err, service.ErrAlreadyRated) {
		t.Errorf("second rating: error = %v, want ErrAlreadyRated", err)
	}
}
