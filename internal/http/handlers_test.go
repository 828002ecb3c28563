package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/example/takataka/internal/broadcast"
	"github.com/example/takataka/internal/dispatch"
	"github.com/example/takataka/internal/geo"
	"github.com/example/takataka/internal/models"
	"github.com/example/takataka/internal/notify"
	"github.com/example/takataka/internal/observability"
	"github.com/example/takataka/internal/storage"
)

func newTestServer(t *testing.T, store storage.ReservationStore) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	passengers := notify.NewWSRegistry(logger)
	drivers := notify.NewWSRegistry(logger)
	idx := geo.NewIndex()
	return NewServer(Deps{
		Logger:     logger,
		Store:      store,
		Handshake:  dispatch.NewHandshake(store, passengers, logger),
		Broadcast:  &broadcast.Service{Geo: idx, Drivers: drivers, Logger: logger, DefaultSpeedMps: 10, TopN: 4},
		Geo:        idx,
		Passengers: passengers,
		Drivers:    drivers,
	})
}

func seedSearching(t *testing.T, store storage.ReservationStore, id string) {
	t.Helper()
	now := time.Now()
	err := store.Create(context.Background(), &models.Reservation{
		ID:          id,
		PassengerID: "p1",
		Origin:      models.Address{Label: "Cocody", Coord: models.Coord{Lat: 5.36, Lon: -3.99}},
		Destination: models.Address{Label: "Yopougon", Coord: models.Coord{Lat: 5.34, Lon: -4.07}},
		Status:      models.StatusSearching,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func errorKind(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var out struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return out.Error.Kind
}

func TestAcceptHappyPath(t *testing.T) {
	store := storage.NewMemoryStore()
	srv := newTestServer(t, store)
	seedSearching(t, store, "r1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/r1/accept", nil)
	req.Header.Set("X-Driver-ID", "d1")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res models.Reservation
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Status != models.StatusAssigned || res.DriverID != "d1" {
		t.Fatalf("unexpected body: %+v", res)
	}
}

func TestAcceptSecondDriverGetsConflict(t *testing.T) {
	store := storage.NewMemoryStore()
	srv := newTestServer(t, store)
	seedSearching(t, store, "r1")

	first := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/r1/accept", nil)
	first.Header.Set("X-Driver-ID", "d1")
	srv.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/r1/accept", nil)
	second.Header.Set("X-Driver-ID", "d2")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, second)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if kind := errorKind(t, rec.Body); kind != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %s", kind)
	}

	final, _ := store.Get(context.Background(), "r1")
	if final.DriverID != "d1" {
		t.Fatalf("winner overwritten: %s", final.DriverID)
	}
}

func TestAcceptUnknownReservationIsNotFound(t *testing.T) {
	srv := newTestServer(t, storage.NewMemoryStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/r-nonexistent/accept", nil)
	req.Header.Set("X-Driver-ID", "d3")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if kind := errorKind(t, rec.Body); kind != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %s", kind)
	}
}

func TestAcceptWithoutDriverIdentity(t *testing.T) {
	store := storage.NewMemoryStore()
	srv := newTestServer(t, store)
	seedSearching(t, store, "r1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/r1/accept", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	final, _ := store.Get(context.Background(), "r1")
	if final.Status != models.StatusSearching {
		t.Fatalf("reservation mutated without identity: %s", final.Status)
	}
}

func TestCreateReservationStartsSearching(t *testing.T) {
	store := storage.NewMemoryStore()
	srv := newTestServer(t, store)

	body, _ := json.Marshal(models.ReservationRequest{
		PassengerID: "p9",
		Origin:      models.Address{Label: "Marcory", Coord: models.Coord{Lat: 5.3, Lon: -3.98}},
		Destination: models.Address{Label: "Adjame", Coord: models.Coord{Lat: 5.37, Lon: -4.03}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Reservation models.Reservation `json:"reservation"`
		Notified    int                `json:"drivers_notified"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Reservation.Status != models.StatusSearching {
		t.Fatalf("expected SEARCHING, got %s", out.Reservation.Status)
	}
	stored, err := store.Get(context.Background(), out.Reservation.ID)
	if err != nil {
		t.Fatalf("reservation not persisted: %v", err)
	}
	if stored.PassengerID != "p9" {
		t.Fatalf("unexpected passenger %s", stored.PassengerID)
	}
}

func TestCreateReservationRequiresPassenger(t *testing.T) {
	srv := newTestServer(t, storage.NewMemoryStore())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetReservation(t *testing.T) {
	store := storage.NewMemoryStore()
	srv := newTestServer(t, store)
	seedSearching(t, store, "r7")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reservations/r7", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reservations/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDriverLocationUpdatesGeo(t *testing.T) {
	store := storage.NewMemoryStore()
	srv := newTestServer(t, store)

	body, _ := json.Marshal(models.Driver{ID: "d5", Loc: models.Coord{Lat: 5.33, Lon: -4.0}, Rating: 4.7})
	before := testutil.ToFloat64(observability.LocationReports)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/internal/driver/locations", bytes.NewReader(body)))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	}

	near := srv.geo.Nearby(5.33, -4.0, 5)
	if len(near) != 1 || near[0].ID != "d5" {
		t.Fatalf("driver not indexed: %+v", near)
	}
	// repeat reports from one driver count as reports, nothing pretends to
	// track distinct online drivers
	if got := testutil.ToFloat64(observability.LocationReports) - before; got != 2 {
		t.Fatalf("expected 2 location reports counted, got %v", got)
	}
}
