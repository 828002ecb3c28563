package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/takataka/internal/models"
)

func searching(id, passenger string) *models.Reservation {
	now := time.Now()
	return &models.Reservation{
		ID:          id,
		PassengerID: passenger,
		Origin:      models.Address{Label: "12 Rue du Marche", Coord: models.Coord{Lat: 5.35, Lon: -4.02}},
		Destination: models.Address{Label: "Aeroport FHB", Coord: models.Coord{Lat: 5.26, Lon: -3.93}},
		Status:      models.StatusSearching,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestClaimAssignsDriverOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Create(ctx, searching("r1", "p1")); err != nil {
		t.Fatal(err)
	}

	got, err := s.Claim(ctx, "r1", "d1")
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if got.Status != models.StatusAssigned || got.DriverID != "d1" {
		t.Fatalf("unexpected claim result: %+v", got)
	}

	if _, err := s.Claim(ctx, "r1", "d2"); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
	// the winner repeating itself is rejected too
	if _, err := s.Claim(ctx, "r1", "d1"); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed for repeat winner, got %v", err)
	}

	stored, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if stored.DriverID != "d1" {
		t.Fatalf("driver overwritten: %s", stored.DriverID)
	}
}

func TestClaimMissingReservation(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Claim(context.Background(), "nope", "d1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentClaimsExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Create(ctx, searching("r2", "p2")); err != nil {
		t.Fatal(err)
	}

	const drivers = 32
	var wg sync.WaitGroup
	winners := make(chan string, drivers)
	conflicts := make(chan error, drivers)
	for i := 0; i < drivers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%26))
			res, err := s.Claim(ctx, "r2", "driver-"+id)
			if err != nil {
				conflicts <- err
				return
			}
			winners <- res.DriverID
		}(i)
	}
	wg.Wait()
	close(winners)
	close(conflicts)

	var won []string
	for w := range winners {
		won = append(won, w)
	}
	if len(won) != 1 {
		t.Fatalf("expected exactly one winner, got %d", len(won))
	}
	for err := range conflicts {
		if !errors.Is(err, ErrAlreadyClaimed) {
			t.Fatalf("loser got unexpected error: %v", err)
		}
	}

	final, err := s.Get(ctx, "r2")
	if err != nil {
		t.Fatal(err)
	}
	if final.DriverID != won[0] {
		t.Fatalf("stored driver %s does not match winner %s", final.DriverID, won[0])
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Create(ctx, searching("r3", "p3")); err != nil {
		t.Fatal(err)
	}
	a, _ := s.Get(ctx, "r3")
	a.Status = models.StatusCancelled
	b, _ := s.Get(ctx, "r3")
	if b.Status != models.StatusSearching {
		t.Fatal("mutation through Get leaked into the store")
	}
}
