package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/config"
	"github.com/travigo/transittracker/pkg/geo"
	"github.com/travigo/transittracker/pkg/realtime"
)

type publishedPosition struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PublishedAt int64   `json:"publishedAt"`
}

// ChangeDetector remembers the last published position of each vehicle so that
// stationary vehicles are only republished every MaxTimeBetweenPublishes
type ChangeDetector struct {
	cache *cache.Cache[string]

	minLocationChange       float64
	maxTimeBetweenPublishes time.Duration
}

func NewChangeDetector(client *redis.Client, changeDetection config.ChangeDetection) *ChangeDetector {
	expiration := 2 * changeDetection.MaxTimeBetweenPublishes()
	if expiration <= 0 {
		expiration = 30 * time.Minute
	}

	redisStore := redisstore.NewRedis(client, store.WithExpiration(expiration))

	return &ChangeDetector{
		cache:                   cache.New[string](redisStore),
		minLocationChange:       changeDetection.MinLocationChangeMeters,
		maxTimeBetweenPublishes: changeDetection.MaxTimeBetweenPublishes(),
	}
}

func cacheKey(vehicleID string) string {
	return fmt.Sprintf("transittracker/published/%s", vehicleID)
}

// Changed reports whether the position should be published. Cache failures
// count as changed.
func (d *ChangeDetector) Changed(ctx context.Context, position realtime.VehiclePosition, now time.Time) bool {
	cached, err := d.cache.Get(ctx, cacheKey(position.VehicleID))
	if err != nil {
		if !errors.Is(err, store.NotFound{}) {
			log.Debug().Err(err).Str("vehicle", position.VehicleID).Msg("Change detection lookup failed")
		}
		return true
	}

	var previous publishedPosition
	if err := json.Unmarshal([]byte(cached), &previous); err != nil {
		return true
	}

	if now.Unix()-previous.PublishedAt >= int64(d.maxTimeBetweenPublishes/time.Second) {
		return true
	}

	moved := geo.Distance(previous.Latitude, previous.Longitude, position.Latitude, position.Longitude)

	return moved >= d.minLocationChange
}

func (d *ChangeDetector) Remember(ctx context.Context, position realtime.VehiclePosition, now time.Time) error {
	encoded, err := json.Marshal(publishedPosition{
		Latitude:    position.Latitude,
		Longitude:   position.Longitude,
		PublishedAt: now.Unix(),
	})
	if err != nil {
		return err
	}

	return d.cache.Set(ctx, cacheKey(position.VehicleID), string(encoded))
}
