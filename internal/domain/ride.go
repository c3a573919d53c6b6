package domain

import "time"

// RideStatus represents the current lifecycle state of a ride.
type RideStatus string

const (
	RideStatusRequested  RideStatus = "requested"
	RideStatusAccepted   RideStatus = "accepted"
	RideStatusInProgress RideStatus = "in_progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
)

// allowedTransitions encodes the ride state machine:
// requested → accepted → in_progress → completed, with cancelled
// reachable from any non-terminal state.
var allowedTransitions = map[RideStatus][]RideStatus{
	RideStatusRequested:  {RideStatusAccepted, RideStatusCancelled},
	RideStatusAccepted:   {RideStatusInProgress, RideStatusCancelled},
	RideStatusInProgress: {RideStatusCompleted, RideStatusCancelled},
}

// CanTransition reports whether a ride may move from one status to another.
func CanTransition(from, to RideStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status admits no further transitions.
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// IsValid reports whether s is one of the known lifecycle states.
func (s RideStatus) IsValid() bool {
	switch s {
	case RideStatusRequested, RideStatusAccepted, RideStatusInProgress,
		RideStatusCompleted, RideStatusCancelled:
		return true
	}
	return false
}

// VehicleType represents the requested vehicle class.
type VehicleType string

const (
	VehicleTypeStandard VehicleType = "standard"
	VehicleTypePremium  VehicleType = "premium"
	VehicleTypeXL       VehicleType = "xl"
	VehicleTypeLuxury   VehicleType = "luxury"
)

// PaymentMethod represents the payment method for a ride.
type PaymentMethod string

const (
	PaymentMethodCreditCard    PaymentMethod = "credit_card"
	PaymentMethodDebitCard     PaymentMethod = "debit_card"
	PaymentMethodDigitalWallet PaymentMethod = "digital_wallet"
	PaymentMethodCash          PaymentMethod = "cash"
)

// Location is a ride endpoint: a human-readable address plus coordinates.
type Location struct {
	Address string
	Lat     float64
	Lng     float64
	PlaceID string // optional external place reference
}

// Fare is the itemized monetary breakdown of a ride's cost.
type Fare struct {
	BaseFare     float64
	DistanceFare float64
	TimeFare     float64
	SurgeFare    float64
	TotalFare    float64
	Currency     string
}

// RaterType identifies which party left a rating.
type RaterType string

const (
	RaterTypePassenger RaterType = "passenger"
	RaterTypeDriver    RaterType = "driver"
)

// Rating is a post-trip rating attached to a completed ride.
type Rating struct {
	ID        string
	RideID    string
	RaterID   string
	RaterType RaterType
	Value     int // 1-5
	Comment   string
	CreatedAt time.Time
}

// Ride represents a single passenger transport request and its full
// lifecycle record. Zero timestamps mean the transition has not happened.
type Ride struct {
	ID                string
	PassengerID       string
	DriverID          string // empty until a driver accepts
	Pickup            Location
	Destination       Location
	VehicleType       VehicleType
	PaymentMethod     PaymentMethod
	Fare              Fare
	EstimatedDistance float64 // miles
	EstimatedDuration float64 // minutes
	Status            RideStatus
	SurgeMultiplier   float64
	Notes             string
	Rating            *Rating
	RequestedAt       time.Time
	AcceptedAt        time.Time
	StartedAt         time.Time
	CompletedAt       time.Time
	CancelledAt       time.Time
}
