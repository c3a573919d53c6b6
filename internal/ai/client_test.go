package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"rideshare/internal/config"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.AIConfig{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		CustomerID: "cus_test",
		Model:      "openrouter/claude-sonnet-4",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	}, testLogger())
	client.retry.baseDelay = time.Millisecond
	return client, server
}

func completionWith(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(body)
}

func TestOptimizeRoute(t *testing.T) {
	t.Parallel()

	var gotRequest chatRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		if got := r.Header.Get("customerId"); got != "cus_test" {
			t.Errorf("customerId header = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotRequest)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionWith(
			`{"distance": 3.8, "duration": 14, "route": [{"lat": 40.7, "lng": -73.9}], "instructions": ["Head south"], "estimatedFuel": 0.2}`,
		))
	})

	route, err := client.OptimizeRoute(context.Background(),
		Point{Lat: 40.7580, Lng: -73.9855},
		Point{Lat: 40.7061, Lng: -73.9969},
		RoutePreferences{},
	)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}

	if route.Distance != 3.8 || route.Duration != 14 {
		t.Errorf("route = %+v, wrong distance/duration", route)
	}
	if len(route.Instructions) != 1 || route.Instructions[0] != "Head south" {
		t.Errorf("instructions = %v", route.Instructions)
	}
	if gotRequest.Model != "openrouter/claude-sonnet-4" {
		t.Errorf("model = %q", gotRequest.Model)
	}
	if len(gotRequest.Messages) != 2 || gotRequest.Messages[0].Role != "system" {
		t.Errorf("messages = %+v, want system + user pair", gotRequest.Messages)
	}
}

func TestCustomerSupport(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, completionWith("You can cancel from the ride screen."))
	})

	reply, err := client.CustomerSupport(context.Background(), "How do I cancel?", nil)
	if err != nil {
		t.Fatalf("support: %v", err)
	}
	if reply != "You can cancel from the ride screen." {
		t.Errorf("reply = %q", reply)
	}
}

func TestPredictDemand_FencedJSON(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, completionWith("```json\n{\"demandLevel\": \"high\", \"suggestedSurge\": 1.5}\n```"))
	})

	prediction, err := client.PredictDemand(context.Background(), Point{Lat: 40.7, Lng: -73.9}, "2024-01-16T09:00:00Z")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if prediction.DemandLevel != "high" || prediction.SuggestedSurge != 1.5 {
		t.Errorf("prediction = %+v", prediction)
	}
}

func TestPredictDemand_UnparseableReply(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, completionWith("demand is probably high today"))
	})

	_, err := client.PredictDemand(context.Background(), Point{Lat: 40.7, Lng: -73.9}, "now")
	if !errors.Is(err, ErrBadPayload) {
		t.Errorf("error = %v, want ErrBadPayload", err)
	}
}

func TestComplete_RetriesUpstreamFailures(t *testing.T) {
	t.Parallel()

	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "upstream busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, completionWith("recovered"))
	})

	reply, err := client.CustomerSupport(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("support after retries: %v", err)
	}
	if reply != "recovered" {
		t.Errorf("reply = %q", reply)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("upstream called %d times, want 3", got)
	}
}

func TestComplete_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := client.CustomerSupport(context.Background(), "hello", nil)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	// MaxRetries 2 means one initial attempt plus two retries.
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("upstream called %d times, want 3", got)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices": []}`)
	})

	_, err := client.CustomerSupport(context.Background(), "hello", nil)
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("error = %v, want ErrNoContent wrapped", err)
	}
}
