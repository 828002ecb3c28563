package geo

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/takataka/internal/models"
)

// RedisGeo implements Geo with Redis GEO commands plus a metadata hash per
// driver. The same keys are written by the location consumer binary.
type RedisGeo struct {
	client *redis.Client
	key    string
	radius float64 // meters
}

func NewRedisGeo(addr, password, key string, radiusMeters float64) *RedisGeo {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if radiusMeters <= 0 {
		radiusMeters = 5000
	}
	return &RedisGeo{client: c, key: key, radius: radiusMeters}
}

func (r *RedisGeo) Upsert(d models.Driver) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _ = r.client.GeoAdd(ctx, r.key, &redis.GeoLocation{Longitude: d.Loc.Lon, Latitude: d.Loc.Lat, Name: d.ID}).Result()
	_ = r.client.HSet(ctx, metaKey(d.ID), map[string]interface{}{
		"rating":  strconv.FormatFloat(d.Rating, 'f', -1, 64),
		"online":  strconv.FormatBool(d.Online),
		"updated": time.Now().Format(time.RFC3339),
	}).Err()
}

func (r *RedisGeo) Nearby(lat, lon float64, limit int) []models.Driver {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := r.client.GeoRadius(ctx, r.key, lon, lat, &redis.GeoRadiusQuery{
		Radius: r.radius, Unit: "m", WithCoord: true, WithDist: true, Count: limit, Sort: "ASC",
	}).Result()
	if err != nil {
		return nil
	}
	out := make([]models.Driver, 0, len(res))
	for _, g := range res {
		meta, err := r.client.HGetAll(ctx, metaKey(g.Name)).Result()
		if err != nil {
			meta = nil
		}
		d, ok := driverFromMeta(g.Name, models.Coord{Lat: g.Latitude, Lon: g.Longitude}, meta)
		if !ok {
			continue
		}
		out = append(out, d)
	}
	return out
}

// driverFromMeta rebuilds a driver from the metadata hash and reports
// whether the driver is offerable: online and recently heard from, the
// same filter Index.Nearby applies.
func driverFromMeta(id string, loc models.Coord, meta map[string]string) (models.Driver, bool) {
	d := models.Driver{ID: id, Loc: loc}
	if v, ok := meta["rating"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			d.Rating = f
		}
	}
	if v, ok := meta["online"]; ok {
		d.Online = v == "true"
	}
	if v, ok := meta["updated"]; ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			d.Updated = ts
		}
	}
	if !d.Online || time.Since(d.Updated) > maxLocationAge {
		return d, false
	}
	return d, true
}

func metaKey(id string) string { return "driver:meta:" + id }
