// Package broadcast announces a searching reservation to nearby online
// drivers over their live sessions.
package broadcast

import (
	"log/slog"
	"sort"

	"github.com/example/takataka/internal/eta"
	"github.com/example/takataka/internal/models"
	"github.com/example/takataka/internal/notify"
	"github.com/example/takataka/internal/observability"
)

type Geo interface {
	Nearby(lat, lon float64, limit int) []models.Driver
}

type Service struct {
	Geo             Geo
	Drivers         notify.Channel
	Logger          *slog.Logger
	DefaultSpeedMps float64
	TopN            int
	ETAClient       eta.Client // optional routing backend
	ETACache        *eta.Cache // optional ETA cache
}

// Announce pushes a ride offer to up to TopN nearby drivers, closest
// effective candidates first, and returns how many pushes were delivered.
// Delivery is best-effort per driver; a driver without a live session is
// skipped.
func (s *Service) Announce(r *models.Reservation) int {
	// Announce runs on concurrent request goroutines; never write fields.
	topN := s.TopN
	if topN <= 0 {
		topN = 10
	}
	cands := s.Geo.Nearby(r.Origin.Coord.Lat, r.Origin.Coord.Lon, topN)
	if len(cands) == 0 {
		return 0
	}
	type scored struct {
		d      models.Driver
		etaSec float64
		cost   float64
	}
	scoredList := make([]scored, 0, len(cands))
	for _, d := range cands {
		etaSec := s.pickupETA(d.Loc, r.Origin.Coord)
		cost := etaSec + 30.0*(5.0-d.Rating) // closer and better-rated first
		scoredList = append(scoredList, scored{d, etaSec, cost})
	}
	sort.Slice(scoredList, func(i, j int) bool { return scoredList[i].cost < scoredList[j].cost })

	delivered := 0
	for _, c := range scoredList {
		offer := models.RideOffer{
			ReservationID: r.ID,
			Pickup:        r.Origin,
			Dropoff:       r.Destination,
			PickupETA:     c.etaSec,
		}
		if err := s.Drivers.Publish(c.d.ID, notify.EventRideOffer, offer); err != nil {
			continue
		}
		observability.OffersBroadcast.Inc()
		delivered++
	}
	if delivered == 0 {
		s.Logger.Info("no drivers reachable for reservation", "reservation_id", r.ID, "candidates", len(cands))
	}
	return delivered
}

func (s *Service) pickupETA(from, to models.Coord) float64 {
	if s.ETACache != nil {
		if v, ok := s.ETACache.Get(from, to); ok {
			return v
		}
	}
	if s.ETAClient != nil {
		if v, err := s.ETAClient.EstimateSeconds(from, to); err == nil {
			if s.ETACache != nil {
				s.ETACache.Set(from, to, v)
			}
			return v
		}
	}
	return eta.EstimateSeconds(from, to, s.DefaultSpeedMps)
}
