package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rideshare/internal/config"
	"rideshare/internal/repository/memory"
	"rideshare/internal/service"
)

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := memory.NewUserStore()
	if err := memory.Seed(users, memory.NewRideStore()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	authService := service.NewAuthService(users, config.JWTConfig{
		Secret:        "test-secret",
		Issuer:        "rideshare-test",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	}, log)

	router := gin.New()
	router.POST("/v1/auth", NewAuthHandler(authService).Authenticate)
	return router
}

func postAuth(t *testing.T, router *gin.Engine, body map[string]any) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var envelope Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not an envelope: %v", err)
	}
	return w, envelope
}

func TestAuthenticate_LoginSuccess(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t)
	w, envelope := postAuth(t, router, map[string]any{
		"action":   "login",
		"email":    "passenger@demo.com",
		"password": memory.DemoPassword,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !envelope.Success {
		t.Fatal("success = false on valid login")
	}

	data, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %T, want object", envelope.Data)
	}
	if tok, _ := data["token"].(string); tok == "" {
		t.Error("expected access token in response")
	}
	if tok, _ := data["refreshToken"].(string); tok == "" {
		t.Error("expected refresh token in response")
	}
	user := data["user"].(map[string]any)
	if user["role"] != "passenger" {
		t.Errorf("role = %v, want passenger", user["role"])
	}
}

func TestAuthenticate_LoginFailureEnvelope(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t)
	w, envelope := postAuth(t, router, map[string]any{
		"action":   "login",
		"email":    "passenger@demo.com",
		"password": "wrong",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if envelope.Success {
		t.Fatal("success = true on failed login")
	}
	if envelope.Error == nil {
		t.Fatal("error body missing")
	}
	if envelope.Error.Code != "INVALID_CREDENTIALS" {
		t.Errorf("code = %q, want INVALID_CREDENTIALS", envelope.Error.Code)
	}
	if envelope.Error.Timestamp.IsZero() {
		t.Error("error timestamp missing")
	}
}

func TestAuthenticate_SignupCreated(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t)
	w, envelope := postAuth(t, router, map[string]any{
		"action":   "signup",
		"email":    "rider@example.com",
		"password": "Sup3rSecret",
		"name":     "New Rider",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if !envelope.Success {
		t.Fatal("success = false on valid signup")
	}
}

func TestAuthenticate_InvalidAction(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t)
	w, envelope := postAuth(t, router, map[string]any{"action": "logout"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if envelope.Error == nil || envelope.Error.Code != "INVALID_ACTION" {
		t.Errorf("error = %+v, want INVALID_ACTION", envelope.Error)
	}
}

func TestAuthenticate_WeakPasswordUnprocessable(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t)
	w, envelope := postAuth(t, router, map[string]any{
		"action":   "signup",
		"email":    "rider@example.com",
		"password": "short",
		"name":     "New Rider",
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	if envelope.Error == nil || envelope.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", envelope.Error)
	}
}
