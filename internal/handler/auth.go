package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/service"
)

// AuthHandler handles login and signup.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// AuthRequest is the HTTP request body for POST /v1/auth. The action
// selects login or signup; the remaining fields depend on the action.
type AuthRequest struct {
	Action   string `json:"action"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
}

// UserPayload is the wire form of a user account.
type UserPayload struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone,omitempty"`
	Role           string    `json:"role"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	IsVerified     bool      `json:"isVerified"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AuthResponse is the success payload for login and signup.
type AuthResponse struct {
	User         UserPayload `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
}

// Authenticate handles POST /v1/auth
func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	switch req.Action {
	case "login":
		result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, toAuthResponse(result))

	case "signup":
		result, err := h.authService.Signup(c.Request.Context(), service.SignupRequest{
			Email:    req.Email,
			Password: req.Password,
			Name:     req.Name,
			Phone:    req.Phone,
			Role:     domain.Role(req.Role),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusCreated, toAuthResponse(result))

	default:
		respondErrorCode(c, http.StatusBadRequest, "INVALID_ACTION", "invalid action")
	}
}

func toAuthResponse(result *service.AuthResult) AuthResponse {
	return AuthResponse{
		User:         toUserPayload(result.User),
		Token:        result.Token,
		RefreshToken: result.RefreshToken,
	}
}

func toUserPayload(u *domain.User) UserPayload {
	return UserPayload{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Phone:          u.Phone,
		Role:           string(u.Role),
		ProfilePicture: u.ProfilePicture,
		IsVerified:     u.IsVerified,
		CreatedAt:      u.CreatedAt,
	}
}
