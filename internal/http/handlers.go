package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/takataka/internal/models"
	"github.com/example/takataka/internal/observability"
	"github.com/example/takataka/internal/storage"
)

// Error kinds surfaced to clients. NOT_FOUND means stale data (refresh);
// CONFLICT means another driver won (drop the ride from the list).
const (
	kindNotFound = "NOT_FOUND"
	kindConflict = "CONFLICT"
	kindBadInput = "BAD_REQUEST"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]errorBody{"error": {Kind: kind, Message: msg}})
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req models.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, kindBadInput, err.Error())
		return
	}
	if strings.TrimSpace(req.PassengerID) == "" {
		writeError(w, http.StatusBadRequest, kindBadInput, "passenger_id is required")
		return
	}
	now := time.Now()
	res := &models.Reservation{
		ID:          newID(),
		PassengerID: req.PassengerID,
		Origin:      req.Origin,
		Destination: req.Destination,
		Status:      models.StatusSearching,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(r.Context(), res); err != nil {
		s.logger.Error("create reservation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "could not create reservation")
		return
	}
	observability.ReservationsCreated.Inc()

	notified := s.broadcast.Announce(res)
	writeJSON(w, http.StatusCreated, map[string]any{
		"reservation":      res,
		"drivers_notified": notified,
	})
}

func (s *Server) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	res, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, kindNotFound, "no such reservation")
			return
		}
		s.logger.Error("get reservation failed", "reservation_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleAccept is the driver-accept entry point. The driver identity comes
// from the session layer upstream; here it arrives as X-Driver-ID, already
// authenticated.
func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	driverID := strings.TrimSpace(r.Header.Get("X-Driver-ID"))
	if driverID == "" {
		writeError(w, http.StatusBadRequest, kindBadInput, "missing driver identity")
		return
	}

	res, err := s.handshake.Accept(r.Context(), id, driverID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, kindNotFound, "no such reservation")
	case errors.Is(err, storage.ErrAlreadyClaimed):
		writeError(w, http.StatusConflict, kindConflict, "ride no longer available")
	case err != nil:
		s.logger.Error("accept failed", "reservation_id", id, "driver_id", driverID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "accept failed")
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleDriverLocation(w http.ResponseWriter, r *http.Request) {
	var d models.Driver
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, kindBadInput, err.Error())
		return
	}
	if d.ID == "" {
		writeError(w, http.StatusBadRequest, kindBadInput, "driver id is required")
		return
	}
	d.Online = true
	if s.kafka != nil {
		if err := s.kafka.PublishLocation(r.Context(), d); err != nil {
			s.logger.Warn("location publish failed", "driver_id", d.ID, "error", err)
		}
	}
	s.geo.Upsert(d)
	observability.LocationReports.Inc()
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{}

func (s *Server) handlePassengerWS(w http.ResponseWriter, r *http.Request) {
	s.serveWS(w, r, s.passengers, mux.Vars(r)["passenger_id"])
}

func (s *Server) handleDriverWS(w http.ResponseWriter, r *http.Request) {
	s.serveWS(w, r, s.drivers, mux.Vars(r)["driver_id"])
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request, reg interface {
	Add(string, *websocket.Conn)
	Remove(string, *websocket.Conn)
}, id string) {
	if id == "" {
		writeError(w, http.StatusBadRequest, kindBadInput, "missing client id")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		return
	}
	reg.Add(id, conn)
	// Read loop detects the peer going away; inbound frames are ignored.
	go func() {
		defer reg.Remove(id, conn)
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
