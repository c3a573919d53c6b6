package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/repository"
	"rideshare/internal/service"
)

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// Envelope wraps every response: {success, data} on success,
// {success:false, error} on failure.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// respondData sends a success envelope with the given status code.
func respondData(c *gin.Context, code int, data any) {
	c.JSON(code, Envelope{Success: true, Data: data})
}

// respondError maps err to an HTTP status and error code and sends an
// error envelope.
func respondError(c *gin.Context, err error) {
	status, code := mapError(err)
	respondErrorCode(c, status, code, err.Error())
}

// respondErrorCode sends an error envelope with an explicit status and
// code.
func respondErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, Envelope{
		Success: false,
		Error: &ErrorBody{
			Message:   message,
			Code:      code,
			Timestamp: time.Now().UTC(),
		},
	})
}

// mapError maps service/repository errors to an HTTP status and a stable
// error code.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidPassengerID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidPickupLocation),
		errors.Is(err, service.ErrInvalidDestinationLocation),
		errors.Is(err, service.ErrInvalidVehicleType),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidLocation):
		return http.StatusBadRequest, "VALIDATION_ERROR"

	// Signup field validation
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidPhone),
		errors.Is(err, service.ErrInvalidRole):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR"

	// Lifecycle conflicts
	case errors.Is(err, service.ErrInvalidStatusTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, service.ErrStatusConflict):
		return http.StatusConflict, "STATUS_CONFLICT"
	case errors.Is(err, service.ErrDriverRequired):
		return http.StatusConflict, "DRIVER_REQUIRED"
	case errors.Is(err, service.ErrRideNotCompleted):
		return http.StatusConflict, "RIDE_NOT_COMPLETED"
	case errors.Is(err, service.ErrAlreadyRated):
		return http.StatusConflict, "ALREADY_RATED"

	case errors.Is(err, service.ErrNotRideParticipant),
		errors.Is(err, service.ErrNotADriver):
		return http.StatusForbidden, "FORBIDDEN"

	// Auth
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest, "INVALID_CREDENTIALS"
	case errors.Is(err, service.ErrEmailExists):
		return http.StatusBadRequest, "USER_EXISTS"
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, "UNAUTHORIZED"

	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
