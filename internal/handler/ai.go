package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/ai"
)

// AIHandler proxies AI feature requests to the upstream model.
type AIHandler struct {
	client *ai.Client
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(client *ai.Client) *AIHandler {
	return &AIHandler{client: client}
}

// AIRequest is the HTTP request body for POST /v1/ai. The action selects
// the feature; the remaining fields depend on the action.
type AIRequest struct {
	Action string `json:"action"`

	// route-optimization
	Origin      *ai.Point            `json:"origin,omitempty"`
	Destination *ai.Point            `json:"destination,omitempty"`
	Preferences *ai.RoutePreferences `json:"preferences,omitempty"`

	// customer-support
	Prompt  string         `json:"prompt,omitempty"`
	Context map[string]any `json:"context,omitempty"`

	// demand-prediction
	Location    *ai.Point `json:"location,omitempty"`
	TimeContext string    `json:"timeContext,omitempty"`
}

// HealthPayload is the GET /v1/ai?action=health response body.
type HealthPayload struct {
	Service   string    `json:"service"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Features  []string  `json:"features"`
}

// Proxy handles POST /v1/ai
func (h *AIHandler) Proxy(c *gin.Context) {
	var req AIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	switch req.Action {
	case "route-optimization":
		if req.Origin == nil || req.Destination == nil {
			respondErrorCode(c, http.StatusBadRequest, "MISSING_PARAMETERS",
				"Origin and destination are required")
			return
		}
		prefs := ai.RoutePreferences{OptimizeFor: "time"}
		if req.Preferences != nil {
			prefs = *req.Preferences
		}
		route, err := h.client.OptimizeRoute(c.Request.Context(), *req.Origin, *req.Destination, prefs)
		if err != nil {
			respondAIError(c, err)
			return
		}
		respondData(c, http.StatusOK, route)

	case "customer-support":
		if req.Prompt == "" {
			respondErrorCode(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR",
				"prompt is required")
			return
		}
		reply, err := h.client.CustomerSupport(c.Request.Context(), req.Prompt, req.Context)
		if err != nil {
			respondAIError(c, err)
			return
		}
		respondData(c, http.StatusOK, reply)

	case "demand-prediction":
		if req.Location == nil {
			respondErrorCode(c, http.StatusBadRequest, "MISSING_PARAMETERS",
				"Location is required for demand prediction")
			return
		}
		timeContext := req.TimeContext
		if timeContext == "" {
			timeContext = time.Now().UTC().Format(time.RFC3339)
		}
		prediction, err := h.client.PredictDemand(c.Request.Context(), *req.Location, timeContext)
		if err != nil {
			respondAIError(c, err)
			return
		}
		respondData(c, http.StatusOK, prediction)

	default:
		respondErrorCode(c, http.StatusBadRequest, "INVALID_ACTION", "Invalid action")
	}
}

// Health handles GET /v1/ai
func (h *AIHandler) Health(c *gin.Context) {
	if c.Query("action") != "health" {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_ACTION", "Invalid action")
		return
	}

	respondData(c, http.StatusOK, HealthPayload{
		Service:   "AI API",
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Features: []string{
			"route-optimization",
			"customer-support",
			"demand-prediction",
		},
	})
}

func respondAIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ai.ErrBadPayload):
		respondErrorCode(c, http.StatusBadGateway, "PARSE_ERROR", err.Error())
	case errors.Is(err, ai.ErrNoContent):
		respondErrorCode(c, http.StatusBadGateway, "NO_CONTENT", err.Error())
	default:
		respondErrorCode(c, http.StatusBadGateway, "API_ERROR", err.Error())
	}
}
