package geo

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/example/takataka/internal/models"
)

// Geo is the driver-presence index consumed by the broadcaster and the
// location endpoint.
type Geo interface {
	Nearby(lat, lon float64, limit int) []models.Driver
	Upsert(d models.Driver)
}

// maxLocationAge filters out drivers whose last report is too old to be
// worth offering a ride to.
const maxLocationAge = 5 * time.Minute

// Index is the in-memory fallback when no Redis address is configured.
type Index struct {
	mu      sync.RWMutex
	drivers map[string]models.Driver
}

func NewIndex() *Index {
	return &Index{drivers: make(map[string]models.Driver)}
}

func (g *Index) Upsert(d models.Driver) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d.Updated = time.Now()
	g.drivers[d.ID] = d
}

// Nearby scans all drivers and returns the closest online ones. Linear scan
// is fine at this scale; the Redis backend handles anything bigger.
func (g *Index) Nearby(lat, lon float64, limit int) []models.Driver {
	g.mu.RLock()
	defer g.mu.RUnlock()
	type candidate struct {
		d    models.Driver
		dist float64
	}
	cands := make([]candidate, 0, len(g.drivers))
	now := time.Now()
	for _, d := range g.drivers {
		if !d.Online || now.Sub(d.Updated) > maxLocationAge {
			continue
		}
		cands = append(cands, candidate{d, Haversine(lat, lon, d.Loc.Lat, d.Loc.Lon)})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	if limit > len(cands) {
		limit = len(cands)
	}
	out := make([]models.Driver, 0, limit)
	for _, c := range cands[:limit] {
		out = append(out, c.d)
	}
	return out
}

// Haversine distance in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return R * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
