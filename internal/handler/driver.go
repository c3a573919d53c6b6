package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rideshare/internal/service"
)

// DriverHandler handles driver availability endpoints.
type DriverHandler struct {
	driverService *service.DriverService
	radiusKm      float64
}

// NewDriverHandler creates a new DriverHandler. radiusKm is the default
// search radius for nearby queries.
func NewDriverHandler(driverService *service.DriverService, radiusKm float64) *DriverHandler {
	return &DriverHandler{driverService: driverService, radiusKm: radiusKm}
}

// UpdateLocationRequest is the HTTP request body for a location heartbeat.
type UpdateLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NearbyDriverPayload is the wire form of a nearby driver.
type NearbyDriverPayload struct {
	DriverID   string  `json:"driverId"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	DistanceKm float64 `json:"distanceKm"`
}

// UpdateLocation handles POST /v1/drivers/:id/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.driverService.UpdateLocation(c.Request.Context(), c.Param("id"), req.Lat, req.Lng); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"online": true})
}

// GoOffline handles POST /v1/drivers/:id/offline
func (h *DriverHandler) GoOffline(c *gin.Context) {
	if err := h.driverService.GoOffline(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"online": false})
}

// Nearby handles GET /v1/drivers/nearby
func (h *DriverHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "lat and lng are required")
		return
	}

	radius := h.radiusKm
	if v := c.Query("radius"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			radius = parsed
		}
	}

	drivers, err := h.driverService.Nearby(c.Request.Context(), lat, lng, radius)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]NearbyDriverPayload, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, NearbyDriverPayload{
			DriverID:   d.DriverID,
			Lat:        d.Lat,
			Lng:        d.Lng,
			DistanceKm: d.DistanceKm,
		})
	}
	respondData(c, http.StatusOK, response)
}
