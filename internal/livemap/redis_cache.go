package livemap

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/carpool/internal/models"
)

const geoKey = "rides_geo"

// RedisCache keeps the last-known position of every tracked ride in
// Redis: a GEO set for map-style queries plus a per-ride hash with the
// raw report.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string) *RedisCache {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisCache{client: c}
}

func (r *RedisCache) Publish(ctx context.Context, rpt models.PositionReport) error {
	if _, err := r.client.GeoAdd(ctx, geoKey, &redis.GeoLocation{Longitude: rpt.Lng, Latitude: rpt.Lat, Name: rpt.RideID}).Result(); err != nil {
		return err
	}
	return r.client.HSet(ctx, posKey(rpt.RideID), map[string]interface{}{
		"lat":         strconv.FormatFloat(rpt.Lat, 'f', -1, 64),
		"lng":         strconv.FormatFloat(rpt.Lng, 'f', -1, 64),
		"reported_at": rpt.ReportedAt.Format(time.RFC3339Nano),
	}).Err()
}

func (r *RedisCache) Lookup(ctx context.Context, rideID string) (models.PositionReport, bool, error) {
	m, err := r.client.HGetAll(ctx, posKey(rideID)).Result()
	if err != nil {
		return models.PositionReport{}, false, err
	}
	if len(m) == 0 {
		return models.PositionReport{}, false, nil
	}
	rpt := models.PositionReport{RideID: rideID}
	if v, ok := m["lat"]; ok {
		rpt.Lat, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["lng"]; ok {
		rpt.Lng, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["reported_at"]; ok {
		rpt.ReportedAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	return rpt, true, nil
}

func (r *RedisCache) Close() error { return r.client.Close() }

// Ping is used by readiness probes.
func (r *RedisCache) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func posKey(id string) string { return "ride:pos:" + id }
