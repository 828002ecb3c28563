package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/takataka/internal/broadcast"
	"github.com/example/takataka/internal/dispatch"
	"github.com/example/takataka/internal/geo"
	"github.com/example/takataka/internal/ingest"
	"github.com/example/takataka/internal/notify"
	"github.com/example/takataka/internal/storage"
)

// Server is the HTTP surface of the dispatch core. All collaborators are
// injected; only Kafka is optional (nil disables location publishing).
type Server struct {
	logger     *slog.Logger
	store      storage.ReservationStore
	handshake  *dispatch.Handshake
	broadcast  *broadcast.Service
	geo        geo.Geo
	kafka      *ingest.LocationProducer
	passengers *notify.WSRegistry
	drivers    *notify.WSRegistry
	mux        *mux.Router
}

type Deps struct {
	Logger     *slog.Logger
	Store      storage.ReservationStore
	Handshake  *dispatch.Handshake
	Broadcast  *broadcast.Service
	Geo        geo.Geo
	Kafka      *ingest.LocationProducer
	Passengers *notify.WSRegistry
	Drivers    *notify.WSRegistry
}

func NewServer(d Deps) *Server {
	s := &Server{
		logger:     d.Logger,
		store:      d.Store,
		handshake:  d.Handshake,
		broadcast:  d.Broadcast,
		geo:        d.Geo,
		kafka:      d.Kafka,
		passengers: d.Passengers,
		drivers:    d.Drivers,
		mux:        mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/reservations", s.handleCreateReservation).Methods("POST")
	s.mux.HandleFunc("/api/v1/reservations/{id}", s.handleGetReservation).Methods("GET")
	s.mux.HandleFunc("/api/v1/reservations/{id}/accept", s.handleAccept).Methods("POST")
	s.mux.HandleFunc("/internal/driver/locations", s.handleDriverLocation).Methods("POST")
	s.mux.HandleFunc("/ws/passengers/{passenger_id}", s.handlePassengerWS)
	s.mux.HandleFunc("/ws/drivers/{driver_id}", s.handleDriverWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func newID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
