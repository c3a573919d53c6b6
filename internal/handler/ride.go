package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/middleware"
	"rideshare/internal/service"
)

// RideHandler handles HTTP requests for the ride lifecycle.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// LocationPayload is the wire form of a ride endpoint.
type LocationPayload struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	PlaceID string  `json:"placeId,omitempty"`
}

// FarePayload is the wire form of an itemized fare.
type FarePayload struct {
	BaseFare     float64 `json:"baseFare"`
	DistanceFare float64 `json:"distanceFare"`
	TimeFare     float64 `json:"timeFare"`
	SurgeFare    float64 `json:"surgeFare"`
	TotalFare    float64 `json:"totalFare"`
	Currency     string  `json:"currency"`
}

// RatingPayload is the wire form of a post-trip rating.
type RatingPayload struct {
	ID        string    `json:"id"`
	RaterID   string    `json:"raterId"`
	RaterType string    `json:"raterType"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RideResponse is the wire form of a ride.
type RideResponse struct {
	ID                string          `json:"id"`
	PassengerID       string          `json:"passengerId"`
	DriverID          string          `json:"driverId,omitempty"`
	Pickup            LocationPayload `json:"pickup"`
	Destination       LocationPayload `json:"destination"`
	VehicleType       string          `json:"vehicleType"`
	PaymentMethod     string          `json:"paymentMethod"`
	Fare              FarePayload     `json:"fare"`
	EstimatedDistance float64         `json:"estimatedDistance"`
	EstimatedDuration float64         `json:"estimatedDuration"`
	Status            string          `json:"status"`
	SurgeMultiplier   float64         `json:"surgeMultiplier"`
	Notes             string          `json:"notes,omitempty"`
	Rating            *RatingPayload  `json:"rating,omitempty"`
	RequestedAt       time.Time       `json:"requestedAt"`
	AcceptedAt        *time.Time      `json:"acceptedAt,omitempty"`
	StartedAt         *time.Time      `json:"startedAt,omitempty"`
	CompletedAt       *time.Time      `json:"completedAt,omitempty"`
	CancelledAt       *time.Time      `json:"cancelledAt,omitempty"`
}

// EstimateRequest is the HTTP request body for a fare estimate.
type EstimateRequest struct {
	Pickup      LocationPayload `json:"pickup"`
	Destination LocationPayload `json:"destination"`
	VehicleType string          `json:"vehicleType,omitempty"`
}

// EstimateResponse is the HTTP response for a fare estimate.
type EstimateResponse struct {
	QuoteID          string      `json:"quoteId"`
	Distance         float64     `json:"distance"`
	Duration         float64     `json:"duration"`
	Fare             FarePayload `json:"fare"`
	SurgeMultiplier  float64     `json:"surgeMultiplier"`
	AvailableDrivers int         `json:"availableDrivers"`
	EstimatedArrival int         `json:"estimatedArrival"`
}

// BookRideRequest is the HTTP request body for booking a ride.
type BookRideRequest struct {
	PassengerID   string          `json:"passengerId,omitempty"`
	Pickup        LocationPayload `json:"pickup"`
	Destination   LocationPayload `json:"destination"`
	VehicleType   string          `json:"vehicleType,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	QuoteID       string          `json:"quoteId,omitempty"`
}

// UpdateStatusRequest is the HTTP request body for a status transition.
type UpdateStatusRequest struct {
	Status   string `json:"status"`
	DriverID string `json:"driverId,omitempty"`
}

// RateRideRequest is the HTTP request body for rating a ride.
type RateRideRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// HistoryResponse is the HTTP response for trip history.
type HistoryResponse struct {
	Rides         []RideResponse `json:"rides"`
	TotalTrips    int            `json:"totalTrips"`
	TotalSpent    float64        `json:"totalSpent"`
	TotalEarned   float64        `json:"totalEarned"`
	AverageRating float64        `json:"averageRating"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
}

// Estimate handles POST /v1/rides/estimate
func (h *RideHandler) Estimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	estimate, err := h.rideService.Estimate(c.Request.Context(), service.EstimateRequest{
		Pickup:      toLocation(req.Pickup),
		Destination: toLocation(req.Destination),
		VehicleType: domain.VehicleType(req.VehicleType),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, EstimateResponse{
		QuoteID:          estimate.QuoteID,
		Distance:         estimate.Distance,
		Duration:         estimate.Duration,
		Fare:             toFarePayload(estimate.Fare),
		SurgeMultiplier:  estimate.SurgeMultiplier,
		AvailableDrivers: estimate.AvailableDrivers,
		EstimatedArrival: estimate.EstimatedArrival,
	})
}

// Book handles POST /v1/rides
func (h *RideHandler) Book(c *gin.Context) {
	var req BookRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	passengerID := req.PassengerID
	if passengerID == "" {
		if user, ok := middleware.CurrentUser(c); ok {
			passengerID = user.ID
		}
	}

	ride, err := h.rideService.Book(c.Request.Context(), service.BookRequest{
		PassengerID:   passengerID,
		Pickup:        toLocation(req.Pickup),
		Destination:   toLocation(req.Destination),
		VehicleType:   domain.VehicleType(req.VehicleType),
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
		QuoteID:       req.QuoteID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, toRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toRideResponse(ride))
}

// GetAll handles GET /v1/rides
func (h *RideHandler) GetAll(c *gin.Context) {
	rides, err := h.rideService.GetAllRides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		response = append(response, toRideResponse(r))
	}
	respondData(c, http.StatusOK, response)
}

// UpdateStatus handles PATCH /v1/rides/:id/status
func (h *RideHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	ride, err := h.rideService.UpdateStatus(c.Request.Context(),
		c.Param("id"), domain.RideStatus(req.Status), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toRideResponse(ride))
}

// Cancel handles POST /v1/rides/:id/cancel
func (h *RideHandler) Cancel(c *gin.Context) {
	ride, err := h.rideService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toRideResponse(ride))
}

// Rate handles POST /v1/rides/:id/rating
func (h *RideHandler) Rate(c *gin.Context) {
	var req RateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	rating, err := h.rideService.Rate(c.Request.Context(), c.Param("id"), user.ID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, toRatingPayload(rating))
}

// History handles GET /v1/users/:id/rides
func (h *RideHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	history, err := h.rideService.History(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	rides := make([]RideResponse, 0, len(history.Rides))
	for _, r := range history.Rides {
		rides = append(rides, toRideResponse(r))
	}

	respondData(c, http.StatusOK, HistoryResponse{
		Rides:         rides,
		TotalTrips:    history.TotalTrips,
		TotalSpent:    history.TotalSpent,
		TotalEarned:   history.TotalEarned,
		AverageRating: history.AverageRating,
		Page:          history.Page,
		Limit:         history.Limit,
	})
}

func toLocation(p LocationPayload) domain.Location {
	return domain.Location{
		Address: p.Address,
		Lat:     p.Lat,
		Lng:     p.Lng,
		PlaceID: p.PlaceID,
	}
}

func toFarePayload(f domain.Fare) FarePayload {
	return FarePayload{
		BaseFare:     f.BaseFare,
		DistanceFare: f.DistanceFare,
		TimeFare:     f.TimeFare,
		SurgeFare:    f.SurgeFare,
		TotalFare:    f.TotalFare,
		Currency:     f.Currency,
	}
}

func toRatingPayload(r *domain.Rating) *RatingPayload {
	if r == nil {
		return nil
	}
	return &RatingPayload{
		ID:        r.ID,
		RaterID:   r.RaterID,
		RaterType: string(r.RaterType),
		Rating:    r.Value,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

func toRideResponse(r *domain.Ride) RideResponse {
	return RideResponse{
		ID:          r.ID,
		PassengerID: r.PassengerID,
		DriverID:    r.DriverID,
		Pickup: LocationPayload{
			Address: r.Pickup.Address,
			Lat:     r.Pickup.Lat,
			Lng:     r.Pickup.Lng,
			PlaceID: r.Pickup.PlaceID,
		},
		Destination: LocationPayload{
			Address: r.Destination.Address,
			Lat:     r.Destination.Lat,
			Lng:     r.Destination.Lng,
			PlaceID: r.Destination.PlaceID,
		},
		VehicleType:       string(r.VehicleType),
		PaymentMethod:     string(r.PaymentMethod),
		Fare:              toFarePayload(r.Fare),
		EstimatedDistance: r.EstimatedDistance,
		EstimatedDuration: r.EstimatedDuration,
		Status:            string(r.Status),
		SurgeMultiplier:   r.SurgeMultiplier,
		Notes:             r.Notes,
		Rating:            toRatingPayload(r.Rating),
		RequestedAt:       r.RequestedAt,
		AcceptedAt:        timePtr(r.AcceptedAt),
		StartedAt:         timePtr(r.StartedAt),
		CompletedAt:       timePtr(r.CompletedAt),
		CancelledAt:       timePtr(r.CancelledAt),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
