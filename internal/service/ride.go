package service

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rideshare/internal/domain"
	"rideshare/internal/redis"
	"rideshare/internal/repository"
)

// EstimateRequest carries the inputs for a fare estimate.
type EstimateRequest struct {
	Pickup      domain.Location
	Destination domain.Location
	VehicleType domain.VehicleType
}

// Estimate is a fare quote. The QuoteID may be presented at booking time
// to lock in the quoted surge.
type Estimate struct {
	QuoteID          string
	Distance         float64 // miles
	Duration         float64 // minutes
	Fare             domain.Fare
	SurgeMultiplier  float64
	AvailableDrivers int
	EstimatedArrival int // minutes until a driver could arrive
}

// BookRequest carries the inputs for booking a ride.
type BookRequest struct {
	PassengerID   string
	Pickup        domain.Location
	Destination   domain.Location
	VehicleType   domain.VehicleType
	PaymentMethod domain.PaymentMethod
	Notes         string
	QuoteID       string // optional, honors a prior estimate if still fresh
}

// TripHistory is a user's paginated ride history with lifetime aggregates.
// Aggregates always cover all completed rides, not just the current page.
type TripHistory struct {
	Rides         []*domain.Ride
	TotalTrips    int
	TotalSpent    float64 // completed rides as passenger
	TotalEarned   float64 // driver share of completed rides as driver
	AverageRating float64 // mean rating on completed rides, 0 when unrated
	Page          int
	Limit         int
}

// driverCommissionRate is the platform's cut of a completed fare. Drivers
// keep the remainder.
const driverCommissionRate = 0.20

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// RideService implements the ride lifecycle: estimation, booking,
// status transitions, cancellation, history, and ratings.
type RideService struct {
	rideRepo   repository.RideRepository
	quotes     redis.QuoteStoreInterface
	locations  redis.LocationStoreInterface
	surge      SurgePolicy
	dispatcher *Dispatcher
	notifier   *NotificationService
	radiusKm   float64
	log        *logrus.Logger
	now        func() time.Time
}

// NewRideService creates a new RideService. quotes and locations may be
// nil when Redis is not configured; estimation then degrades gracefully.
func NewRideService(
	rideRepo repository.RideRepository,
	quotes redis.QuoteStoreInterface,
	locations redis.LocationStoreInterface,
	surge SurgePolicy,
	dispatcher *Dispatcher,
	notifier *NotificationService,
	radiusKm float64,
	log *logrus.Logger,
) *RideService {
	return &RideService{
		rideRepo:   rideRepo,
		quotes:     quotes,
		locations:  locations,
		surge:      surge,
		dispatcher: dispatcher,
		notifier:   notifier,
		radiusKm:   radiusKm,
		log:        log,
		now:        time.Now,
	}
}

// Estimate computes a fare quote for the given trip. The quote is stored
// for later booking when a quote store is configured.
func (s *RideService) Estimate(ctx context.Context, req EstimateRequest) (*Estimate, error) {
	if !validCoordinates(req.Pickup.Lat, req.Pickup.Lng) {
		return nil, ErrInvalidPickupLocation
	}
	if !validCoordinates(req.Destination.Lat, req.Destination.Lng) {
		return nil, ErrInvalidDestinationLocation
	}
	vehicleType := req.VehicleType
	if vehicleType == "" {
		vehicleType = domain.VehicleTypeStandard
	}
	if !validVehicleType(vehicleType) {
		return nil, ErrInvalidVehicleType
	}

	distance := Haversine(req.Pickup.Lat, req.Pickup.Lng, req.Destination.Lat, req.Destination.Lng)
	duration := EstimateDuration(distance)
	surge := s.surge.Multiplier(ctx, req.Pickup.Lat, req.Pickup.Lng)
	fare := ComputeFare(distance, duration, surge)

	est := &Estimate{
		QuoteID:          uuid.New().String(),
		Distance:         distance,
		Duration:         duration,
		Fare:             fare,
		SurgeMultiplier:  surge,
		AvailableDrivers: s.availableDrivers(ctx, req.Pickup.Lat, req.Pickup.Lng),
		EstimatedArrival: 2 + rand.Intn(8),
	}

	if s.quotes != nil {
		quote := &redis.Quote{
			ID:              est.QuoteID,
			PickupLat:       req.Pickup.Lat,
			PickupLng:       req.Pickup.Lng,
			DestinationLat:  req.Destination.Lat,
			DestinationLng:  req.Destination.Lng,
			VehicleType:     string(vehicleType),
			Distance:        distance,
			Duration:        duration,
			SurgeMultiplier: surge,
			BaseFare:        fare.BaseFare,
			DistanceFare:    fare.DistanceFare,
			TimeFare:        fare.TimeFare,
			SurgeFare:       fare.SurgeFare,
			TotalFare:       fare.TotalFare,
			Currency:        fare.Currency,
		}
		if err := s.quotes.Put(ctx, quote); err != nil {
			s.log.WithError(err).Warn("failed to store fare quote")
		}
	}

	return est, nil
}

// Book creates a new ride in the requested state and schedules driver
// matching. If the request names a fresh quote for the same trip, the
// quoted fare is honored; otherwise the fare is recomputed.
func (s *RideService) Book(ctx context.Context, req BookRequest) (*domain.Ride, error) {
	if req.PassengerID == "" {
		return nil, ErrInvalidPassengerID
	}
	if !validCoordinates(req.Pickup.Lat, req.Pickup.Lng) {
		return nil, ErrInvalidPickupLocation
	}
	if !validCoordinates(req.Destination.Lat, req.Destination.Lng) {
		return nil, ErrInvalidDestinationLocation
	}
	if req.VehicleType == "" {
		req.VehicleType = domain.VehicleTypeStandard
	}
	if !validVehicleType(req.VehicleType) {
		return nil, ErrInvalidVehicleType
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentMethodCreditCard
	}
	if !validPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	distance, duration, surge, fare := s.resolveFare(ctx, req)

	id, err := s.rideRepo.NextID(ctx)
	if err != nil {
		return nil, err
	}

	ride := &domain.Ride{
		ID:                id,
		PassengerID:       req.PassengerID,
		Pickup:            req.Pickup,
		Destination:       req.Destination,
		VehicleType:       req.VehicleType,
		PaymentMethod:     req.PaymentMethod,
		Fare:              fare,
		EstimatedDistance: distance,
		EstimatedDuration: duration,
		Status:            domain.RideStatusRequested,
		SurgeMultiplier:   surge,
		Notes:             req.Notes,
		RequestedAt:       s.now(),
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"ride_id":      ride.ID,
		"passenger_id": ride.PassengerID,
		"vehicle_type": ride.VehicleType,
		"total_fare":   ride.Fare.TotalFare,
	}).Info("ride booked")

	if s.dispatcher != nil {
		s.dispatcher.Schedule(ride)
	}

	return ride, nil
}

// resolveFare returns the trip's distance, duration, surge, and fare,
// reusing a stored quote when the request names one that still matches
// the trip.
func (s *RideService) resolveFare(ctx context.Context, req BookRequest) (float64, float64, float64, domain.Fare) {
	if req.QuoteID != "" && s.quotes != nil {
		quote, err := s.quotes.Get(ctx, req.QuoteID)
		if err != nil {
			s.log.WithError(err).Warn("failed to load fare quote")
		}
		if quote != nil && quoteMatches(quote, req) {
			return quote.Distance, quote.Duration, quote.SurgeMultiplier, domain.Fare{
				BaseFare:     quote.BaseFare,
				DistanceFare: quote.DistanceFare,
				TimeFare:     quote.TimeFare,
				SurgeFare:    quote.SurgeFare,
				TotalFare:    quote.TotalFare,
				Currency:     quote.Currency,
			}
		}
	}

	distance := Haversine(req.Pickup.Lat, req.Pickup.Lng, req.Destination.Lat, req.Destination.Lng)
	duration := EstimateDuration(distance)
	surge := s.surge.Multiplier(ctx, req.Pickup.Lat, req.Pickup.Lng)
	return distance, duration, surge, ComputeFare(distance, duration, surge)
}

func quoteMatches(q *redis.Quote, req BookRequest) bool {
	return q.PickupLat == req.Pickup.Lat &&
		q.PickupLng == req.Pickup.Lng &&
		q.DestinationLat == req.Destination.Lat &&
		q.DestinationLng == req.Destination.Lng &&
		q.VehicleType == string(req.VehicleType)
}

// GetRide retrieves a ride by id.
func (s *RideService) GetRide(ctx context.Context, id string) (*domain.Ride, error) {
	if id == "" {
		return nil, ErrInvalidRideID
	}
	return s.rideRepo.GetByID(ctx, id)
}

// GetAllRides retrieves every ride, newest first.
func (s *RideService) GetAllRides(ctx context.Context) ([]*domain.Ride, error) {
	rides, err := s.rideRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sortByRequestedDesc(rides)
	return rides, nil
}

// UpdateStatus moves a ride to newStatus, enforcing the lifecycle state
// machine. driverID is required when accepting a ride that has no driver
// yet and is ignored otherwise.
func (s *RideService) UpdateStatus(ctx context.Context, rideID string, newStatus domain.RideStatus, driverID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if !newStatus.IsValid() {
		return nil, ErrInvalidStatus
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(ride.Status, newStatus) {
		return nil, ErrInvalidStatusTransition
	}

	assignDriver := ""
	if newStatus == domain.RideStatusAccepted && ride.DriverID == "" {
		if driverID == "" {
			return nil, ErrDriverRequired
		}
		assignDriver = driverID
	}

	ok, err := s.rideRepo.UpdateStatus(ctx, rideID, ride.Status, newStatus, assignDriver, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStatusConflict
	}

	// The ride left the requested state, so the pending auto-accept no
	// longer applies.
	if ride.Status == domain.RideStatusRequested && s.dispatcher != nil {
		s.dispatcher.CancelTimer(rideID)
	}

	updated, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"ride_id": rideID,
		"from":    ride.Status,
		"to":      newStatus,
	}).Info("ride status updated")

	if s.notifier != nil {
		s.notifier.NotifyStatusChanged(ctx, updated, ride.Status)
	}

	return updated, nil
}

// Cancel moves a ride to cancelled. Cancelling an already cancelled ride
// is rejected like any other invalid transition.
func (s *RideService) Cancel(ctx context.Context, rideID string) (*domain.Ride, error) {
	return s.UpdateStatus(ctx, rideID, domain.RideStatusCancelled, "")
}

// History returns a page of the user's rides, newest first, together with
// lifetime aggregates computed over the full ride set.
func (s *RideService) History(ctx context.Context, userID string, page, limit int) (*TripHistory, error) {
	if userID == "" {
		return nil, ErrInvalidPassengerID
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rides, err := s.rideRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortByRequestedDesc(rides)

	history := &TripHistory{
		TotalTrips: len(rides),
		Page:       page,
		Limit:      limit,
	}

	ratingSum, ratingCount := 0, 0
	for _, r := range rides {
		if r.Status != domain.RideStatusCompleted {
			continue
		}
		if r.PassengerID == userID {
			history.TotalSpent += r.Fare.TotalFare
		}
		if r.DriverID == userID {
			history.TotalEarned += r.Fare.TotalFare * (1 - driverCommissionRate)
		}
		if r.Rating != nil {
			ratingSum += r.Rating.Value
			ratingCount++
		}
	}
	history.TotalSpent = round2(history.TotalSpent)
	history.TotalEarned = round2(history.TotalEarned)
	if ratingCount > 0 {
		history.AverageRating = round1(float64(ratingSum) / float64(ratingCount))
	}

	start := (page - 1) * limit
	if start >= len(rides) {
		history.Rides = []*domain.Ride{}
		return history, nil
	}
	end := start + limit
	if end > len(rides) {
		end = len(rides)
	}
	history.Rides = rides[start:end]

	return history, nil
}

// Rate attaches a rating to a completed ride. Each ride takes one rating;
// the rater must be the ride's passenger or driver.
func (s *RideService) Rate(ctx context.Context, rideID, raterID string, value int, comment string) (*domain.Rating, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if value < 1 || value > 5 {
		return nil, ErrInvalidRating
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusCompleted {
		return nil, ErrRideNotCompleted
	}
	if ride.Rating != nil {
		return nil, ErrAlreadyRated
	}

	var raterType domain.RaterType
	switch raterID {
	case ride.PassengerID:
		raterType = domain.RaterTypePassenger
	case ride.DriverID:
		raterType = domain.RaterTypeDriver
	default:
		return nil, ErrNotRideParticipant
	}

	rating := &domain.Rating{
		ID:        uuid.New().String(),
		RideID:    rideID,
		RaterID:   raterID,
		RaterType: raterType,
		Value:     value,
		Comment:   comment,
		CreatedAt: s.now(),
	}

	if err := s.rideRepo.SetRating(ctx, rideID, rating); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"ride_id": rideID,
		"value":   value,
	}).Info("ride rated")

	return rating, nil
}

// availableDrivers counts drivers near the pickup, falling back to the
// total online count when none are in range.
func (s *RideService) availableDrivers(ctx context.Context, lat, lng float64) int {
	if s.locations == nil {
		return 0
	}
	nearby, err := s.locations.FindNearby(ctx, lat, lng, s.radiusKm)
	if err != nil {
		s.log.WithError(err).Warn("failed to query nearby drivers")
		return 0
	}
	if len(nearby) > 0 {
		return len(nearby)
	}
	total, err := s.locations.CountOnline(ctx)
	if err != nil {
		return 0
	}
	return total
}

func sortByRequestedDesc(rides []*domain.Ride) {
	sort.SliceStable(rides, func(i, j int) bool {
		return rides[i].RequestedAt.After(rides[j].RequestedAt)
	})
}

func validCoordinates(lat, lng float64) bool {
	if lat == 0 && lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func validVehicleType(t domain.VehicleType) bool {
	switch t {
	case domain.VehicleTypeStandard, domain.VehicleTypePremium,
		domain.VehicleTypeXL, domain.VehicleTypeLuxury:
		return true
	}
	return false
}

func validPaymentMethod(m domain.PaymentMethod) bool {
	switch m {
	case domain.PaymentMethodCreditCard, domain.PaymentMethodDebitCard,
		domain.PaymentMethodDigitalWallet, domain.PaymentMethodCash:
		return true
	}
	return false
}
