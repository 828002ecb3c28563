package notify

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWSRegistryPublishWithoutSession(t *testing.T) {
	r := NewWSRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := r.Publish("p1", EventRideAssigned, nil); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestWebhookChannelPostsEnvelope(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer k1" {
			t.Errorf("unexpected auth header %q", auth)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, "k1")
	if err := ch.Publish("p1", EventRideAssigned, map[string]string{"driver_id": "d1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got["target"] != "p1" || got["event"] != EventRideAssigned {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestWebhookChannelSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, "")
	if err := ch.Publish("p1", EventRideAssigned, nil); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
