package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/takataka/internal/models"
)

var (
	// ErrNotFound means the reservation does not exist; the caller holds
	// stale data and should refresh.
	ErrNotFound = errors.New("reservation not found")
	// ErrAlreadyClaimed means the reservation exists but is not claimable;
	// another driver got there first (or the ride was cancelled).
	ErrAlreadyClaimed = errors.New("reservation already claimed")
)

// ReservationStore defines persistence operations for reservations.
//
// Claim is the only write path for the status/driver pair once a reservation
// is searching: it must check the precondition and apply the update as one
// atomic unit, so that of N concurrent attempts exactly one succeeds.
type ReservationStore interface {
	Create(ctx context.Context, r *models.Reservation) error
	Get(ctx context.Context, id string) (*models.Reservation, error)
	Claim(ctx context.Context, id, driverID string) (*models.Reservation, error)
}

// MemoryStore keeps reservations in a map guarded by a mutex. The mutex is
// what makes Claim's check-and-set atomic; it is the local-run and test
// stand-in for the Postgres conditional UPDATE.
type MemoryStore struct {
	mu           sync.RWMutex
	reservations map[string]*models.Reservation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reservations: make(map[string]*models.Reservation)}
}

func (m *MemoryStore) Create(ctx context.Context, r *models.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.reservations[r.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) Claim(ctx context.Context, id, driverID string) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.Status != models.StatusSearching {
		return nil, ErrAlreadyClaimed
	}
	r.Status = models.StatusAssigned
	r.DriverID = driverID
	r.UpdatedAt = time.Now()
	cp := *r
	return &cp, nil
}
