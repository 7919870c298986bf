package correlation

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/transittracker/pkg/eta"
	"github.com/travigo/transittracker/pkg/gtfs"
	"github.com/travigo/transittracker/pkg/gtfsindex"
	"github.com/travigo/transittracker/pkg/realtime"
	"golang.org/x/exp/slices"
)

const (
	DefaultMaxDistanceMeters = 3000.0
	DefaultFreshness         = 300 * time.Second
)

// VehicleSource is the read side of the vehicle store
type VehicleSource interface {
	All() []realtime.VehiclePosition
}

type Config struct {
	MaxDistanceMeters float64
	Freshness         time.Duration
	MaxGoroutines     int
}

type ApproachingVehicle struct {
	Vehicle      realtime.VehiclePosition
	Stop         gtfs.Stop
	ETA          eta.Result
	CalculatedAt time.Time
}

type VehicleStats struct {
	TotalVehicles   int `json:"totalVehicles"`
	FreshVehicles   int `json:"freshVehicles"`
	Direction0Count int `json:"direction0Count"`
	Direction1Count int `json:"direction1Count"`
}

// Correlator matches live vehicles on a route and direction to a stop
type Correlator struct {
	repository gtfsindex.Repository
	vehicles   VehicleSource
	engine     *eta.Engine

	maxDistanceMeters float64
	freshness         time.Duration
	maxGoroutines     int
}

func NewCorrelator(repository gtfsindex.Repository, vehicles VehicleSource, engine *eta.Engine, config Config) *Correlator {
	if config.MaxDistanceMeters <= 0 {
		config.MaxDistanceMeters = DefaultMaxDistanceMeters
	}
	if config.Freshness <= 0 {
		config.Freshness = DefaultFreshness
	}
	if config.MaxGoroutines <= 0 {
		config.MaxGoroutines = 16
	}

	return &Correlator{
		repository:        repository,
		vehicles:          vehicles,
		engine:            engine,
		maxDistanceMeters: config.MaxDistanceMeters,
		freshness:         config.Freshness,
		maxGoroutines:     config.MaxGoroutines,
	}
}

// VehiclesApproaching returns fresh vehicles of the route and direction within range of
// the stop, nearest first. An unknown stop gives an empty list.
func (c *Correlator) VehiclesApproaching(routeID string, directionID int, stopID string, now time.Time) []ApproachingVehicle {
	stop, exists := c.repository.Stop(stopID)
	if !exists {
		return []ApproachingVehicle{}
	}

	allVehicles := c.vehicles.All()

	candidates := []realtime.VehiclePosition{}
	for _, vehicle := range allVehicles {
		if vehicle.GetRouteID() != routeID || vehicle.RouteID == nil {
			continue
		}
		if !vehicle.HasDirection(directionID) {
			continue
		}
		if !vehicle.IsFresh(now, c.freshness) {
			log.Debug().Str("vehicle", vehicle.VehicleID).Int64("age", vehicle.Age(now)).Msg("Ignoring stale vehicle")
			continue
		}

		candidates = append(candidates, vehicle)
	}

	p := pool.NewWithResults[*ApproachingVehicle]().WithMaxGoroutines(c.maxGoroutines)

	for _, vehicle := range candidates {
		vehicle := vehicle
		p.Go(func() *ApproachingVehicle {
			result := c.engine.Calculate(&vehicle, stop)
			if result.DistanceMeters > c.maxDistanceMeters {
				return nil
			}

			return &ApproachingVehicle{
				Vehicle:      vehicle,
				Stop:         stop,
				ETA:          result,
				CalculatedAt: now,
			}
		})
	}

	approaching := []ApproachingVehicle{}
	for _, result := range p.Wait() {
		if result != nil {
			approaching = append(approaching, *result)
		}
	}

	slices.SortFunc(approaching, func(a, b ApproachingVehicle) int {
		if a.ETA.DistanceMeters < b.ETA.DistanceMeters {
			return -1
		} else if a.ETA.DistanceMeters > b.ETA.DistanceMeters {
			return 1
		}
		return strings.Compare(a.Vehicle.VehicleID, b.Vehicle.VehicleID)
	})

	log.Debug().
		Str("route", routeID).
		Int("direction", directionID).
		Str("stop", stopID).
		Int("vehicles", len(allVehicles)).
		Int("candidates", len(candidates)).
		Int("approaching", len(approaching)).
		Msg("Correlated vehicles")

	return approaching
}

func (c *Correlator) VehicleStats(routeID string, now time.Time) VehicleStats {
	stats := VehicleStats{}

	for _, vehicle := range c.vehicles.All() {
		if vehicle.RouteID == nil || *vehicle.RouteID != routeID {
			continue
		}
		stats.TotalVehicles++

		if !vehicle.IsFresh(now, c.freshness) {
			continue
		}
		stats.FreshVehicles++

		if vehicle.HasDirection(0) {
			stats.Direction0Count++
		} else if vehicle.HasDirection(1) {
			stats.Direction1Count++
		}
	}

	return stats
}
