package service

import "errors"

// Validation and business-rule errors. Handlers map these to HTTP status
// codes; everything else surfaces as an internal error.
var (
	ErrInvalidPassengerID         = errors.New("passenger id is required")
	ErrInvalidRideID              = errors.New("ride id is required")
	ErrInvalidPickupLocation      = errors.New("pickup location is invalid")
	ErrInvalidDestinationLocation = errors.New("destination location is invalid")
	ErrInvalidVehicleType         = errors.New("vehicle type is invalid")
	ErrInvalidPaymentMethod       = errors.New("payment method is invalid")

	ErrInvalidStatus           = errors.New("ride status is invalid")
	ErrInvalidStatusTransition = errors.New("ride status transition is not allowed")
	ErrStatusConflict          = errors.New("ride status changed concurrently")
	ErrDriverRequired          = errors.New("driver id is required to accept a ride")

	ErrRideNotCompleted   = errors.New("ride is not completed")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrAlreadyRated       = errors.New("ride has already been rated")
	ErrNotRideParticipant = errors.New("rater is not a participant of the ride")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("an account with this email already exists")
	ErrInvalidEmail       = errors.New("email address is invalid")
	ErrWeakPassword       = errors.New("password must be 8-128 characters with upper, lower and digit")
	ErrInvalidName        = errors.New("name must be 2-50 letters")
	ErrInvalidPhone       = errors.New("phone number is invalid")
	ErrInvalidRole        = errors.New("role is invalid")
	ErrInvalidToken       = errors.New("token is invalid or expired")

	ErrInvalidDriverID = errors.New("driver id is required")
	ErrNotADriver      = errors.New("user is not a driver")
	ErrInvalidLocation = errors.New("location coordinates are invalid")
)
