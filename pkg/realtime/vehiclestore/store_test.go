package vehiclestore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/transittracker/pkg/realtime"
)

func position(vehicleID string, routeID string, timestamp int64) realtime.VehiclePosition {
	return realtime.VehiclePosition{
		VehicleID: vehicleID,
		RouteID:   realtime.String(routeID),
		Latitude:  49.28,
		Longitude: -123.12,
		Timestamp: timestamp,
	}
}

func TestPutReplaces(t *testing.T) {
	store := New()

	first := position("V1", "R1", 100)
	second := position("V1", "R1", 200)
	second.Latitude = 49.3

	store.Put(first)
	store.Put(second)

	assert.Equal(t, 1, store.Len())

	stored, exists := store.Get("V1")
	require.True(t, exists)
	assert.Equal(t, second, stored)
}

func TestPutIgnoresOlderPosition(t *testing.T) {
	store := New()

	newer := position("V1", "R1", 200)
	older := position("V1", "R1", 100)
	older.Latitude = 49.3

	assert.True(t, store.Put(newer))
	assert.False(t, store.Put(older))

	stored, _ := store.Get("V1")
	assert.Equal(t, newer, stored)

	sameTime := position("V1", "R2", 200)
	assert.True(t, store.Put(sameTime))

	stored, _ = store.Get("V1")
	assert.Equal(t, "R2", stored.GetRouteID())
}

func TestAllIsACopy(t *testing.T) {
	store := New()
	store.Put(position("V1", "R1", 100))

	all := store.All()
	all[0].Latitude = 0

	stored, _ := store.Get("V1")
	assert.Equal(t, 49.28, stored.Latitude)
}

func TestByRoute(t *testing.T) {
	store := New()
	store.Put(position("V1", "R1", 100))
	store.Put(position("V2", "R2", 100))
	store.Put(position("V3", "R1", 100))
	store.Put(realtime.VehiclePosition{VehicleID: "V4", Timestamp: 100})

	assert.Len(t, store.ByRoute("R1"), 2)
	assert.Len(t, store.ByRoute("R2"), 1)
	assert.Empty(t, store.ByRoute(""))
	assert.Empty(t, store.ByRoute("R3"))
}

func TestStats(t *testing.T) {
	store := New()
	fixed := time.Date(2025, time.July, 4, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	store.Put(position("V1", "R1", 100))
	store.Put(position("V2", "R2", 100))
	store.Put(position("V3", "R1", 100))

	assert.Equal(t, Stats{TotalVehicles: 3, LastUpdateTime: fixed, UniqueRoutes: 2}, store.Stats())
}

func TestEvictOlderThan(t *testing.T) {
	store := New()
	store.Put(position("OLD", "R1", 1_000))
	store.Put(position("NEW", "R1", 5_000))

	evicted := store.EvictOlderThan(time.Unix(2_000, 0))

	assert.Equal(t, 1, evicted)
	_, exists := store.Get("OLD")
	assert.False(t, exists)
	_, exists = store.Get("NEW")
	assert.True(t, exists)
}

func TestJanitor(t *testing.T) {
	store := New()
	store.now = func() time.Time { return time.Unix(100_000, 0) }
	store.Put(position("OLD", "R1", 1_000))
	store.Put(position("NEW", "R1", 99_990))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go store.StartJanitor(ctx, time.Hour, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, 5*time.Millisecond)
	_, exists := store.Get("NEW")
	assert.True(t, exists)
}

func TestConcurrentAccess(t *testing.T) {
	store := New()

	var wg sync.WaitGroup
	for worker := 0; worker < 4; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				store.Put(position(fmt.Sprintf("V%d", i), "R1", int64(worker)))
				store.All()
				store.ByRoute("R1")
			}
		}(worker)
	}
	wg.Wait()

	assert.Equal(t, 100, store.Len())
}
