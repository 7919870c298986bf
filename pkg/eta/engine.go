package eta

import (
	"math"

	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/geo"
	"github.com/travigo/transittracker/pkg/gtfs"
	"github.com/travigo/transittracker/pkg/gtfsindex"
	"github.com/travigo/transittracker/pkg/realtime"
)

type Method string

const (
	MethodShape        Method = "shape"
	MethodStraightLine Method = "straight_line"
)

type Config struct {
	AverageSpeedKmh float64
	Buffer          float64
	MinETASeconds   int
	OffRouteMeters  float64
}

func DefaultConfig() Config {
	return Config{
		AverageSpeedKmh: 35,
		Buffer:          1.2,
		MinETASeconds:   30,
		OffRouteMeters:  DefaultOffRouteMeters,
	}
}

type Result struct {
	DistanceMeters float64
	Seconds        int
	Minutes        int
	Method         Method
}

// Engine estimates arrival times from distance and an assumed average speed
type Engine struct {
	repository gtfsindex.Repository
	shapes     *ShapeCalculator

	speedMetersPerSecond float64
	buffer               float64
	minETASeconds        int
}

func NewEngine(repository gtfsindex.Repository, config Config) *Engine {
	defaults := DefaultConfig()
	if config.AverageSpeedKmh <= 0 {
		config.AverageSpeedKmh = defaults.AverageSpeedKmh
	}
	if config.Buffer <= 0 {
		config.Buffer = defaults.Buffer
	}
	if config.MinETASeconds < 0 {
		config.MinETASeconds = defaults.MinETASeconds
	}

	return &Engine{
		repository:           repository,
		shapes:               NewShapeCalculator(repository, config.OffRouteMeters),
		speedMetersPerSecond: config.AverageSpeedKmh / 3.6,
		buffer:               config.Buffer,
		minETASeconds:        config.MinETASeconds,
	}
}

// Calculate prefers the along-shape distance and falls back to the straight line
func (e *Engine) Calculate(vehicle *realtime.VehiclePosition, stop gtfs.Stop) Result {
	distance, method := e.distance(vehicle, stop)
	seconds := e.Seconds(distance)

	return Result{
		DistanceMeters: distance,
		Seconds:        seconds,
		Minutes:        Minutes(seconds),
		Method:         method,
	}
}

func (e *Engine) distance(vehicle *realtime.VehiclePosition, stop gtfs.Stop) (float64, Method) {
	location := vehicle.Location()

	if tripID := vehicle.GetTripID(); tripID != "" {
		if trip, exists := e.repository.Trip(tripID); exists && trip.HasShape() {
			if result, ok := e.shapes.Distance(location, trip, stop); ok {
				return result.RouteDistance, MethodShape
			}
		}
	}

	straightLine := geo.Distance(location.Latitude, location.Longitude, stop.Latitude, stop.Longitude)
	log.Debug().Str("vehicle", vehicle.VehicleID).Float64("distance", straightLine).Msg("Using straight line distance")

	return straightLine, MethodStraightLine
}

// Seconds converts a distance to a buffered travel time, never below the minimum
func (e *Engine) Seconds(distanceMeters float64) int {
	if distanceMeters <= 0 {
		return 0
	}

	seconds := int(math.Round(e.buffer * distanceMeters / e.speedMetersPerSecond))
	if seconds < e.minETASeconds {
		return e.minETASeconds
	}

	return seconds
}

func Minutes(seconds int) int {
	return int(math.Round(float64(seconds) / 60))
}
