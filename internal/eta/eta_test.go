package eta

import (
	"testing"
	"time"

	"github.com/example/takataka/internal/models"
)

func TestEstimateSecondsZeroDistance(t *testing.T) {
	c := models.Coord{Lat: 5.35, Lon: -4.02}
	if got := EstimateSeconds(c, c, 10); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
}

func TestEstimateSecondsDefaultsSpeed(t *testing.T) {
	a := models.Coord{Lat: 0, Lon: 0}
	b := models.Coord{Lat: 0, Lon: 0.01}
	if EstimateSeconds(a, b, 0) <= 0 {
		t.Fatal("expected positive ETA with defaulted speed")
	}
}

func TestCacheHitAndExpiry(t *testing.T) {
	a := models.Coord{Lat: 1, Lon: 2}
	b := models.Coord{Lat: 3, Lon: 4}

	c := NewCache(50 * time.Millisecond)
	if _, ok := c.Get(a, b); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	c.Set(a, b, 120)
	if v, ok := c.Get(a, b); !ok || v != 120 {
		t.Fatalf("expected hit with 120, got %v %v", v, ok)
	}
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get(a, b); ok {
		t.Fatal("expected entry to expire")
	}
}
