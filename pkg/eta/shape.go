package eta

import (
	"math"

	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/geo"
	"github.com/travigo/transittracker/pkg/gtfs"
	"github.com/travigo/transittracker/pkg/gtfsindex"
)

const DefaultOffRouteMeters = 500.0

// ShapeResult is the along-route distance from a vehicle to a stop
type ShapeResult struct {
	RouteDistance  float64
	VehicleArc     float64
	StopArc        float64
	TotalArc       float64
	ProgressPct    float64
	Passed         bool
	OffRouteMeters float64
}

type projection struct {
	arc            float64
	distanceToLine float64
	segment        int
}

// ShapeCalculator snaps vehicles and stops onto a trip's shape polyline
type ShapeCalculator struct {
	repository     gtfsindex.Repository
	offRouteMeters float64
}

func NewShapeCalculator(repository gtfsindex.Repository, offRouteMeters float64) *ShapeCalculator {
	if offRouteMeters <= 0 {
		offRouteMeters = DefaultOffRouteMeters
	}

	return &ShapeCalculator{
		repository:     repository,
		offRouteMeters: offRouteMeters,
	}
}

// Distance returns false when the trip has no usable shape or the vehicle is off-route
func (c *ShapeCalculator) Distance(vehicle geo.Point, trip gtfs.Trip, stop gtfs.Stop) (ShapeResult, bool) {
	if !trip.HasShape() {
		return ShapeResult{}, false
	}

	points := c.repository.ShapePoints(trip.ShapeID)
	if len(points) == 0 {
		log.Warn().Str("shape", trip.ShapeID).Msg("No shape points for shape")
		return ShapeResult{}, false
	}

	polyline := make([]geo.Point, len(points))
	for i, point := range points {
		polyline[i] = point.Location()
	}
	arcs := cumulativeArcs(polyline)

	vehicleProjection := project(vehicle, polyline, arcs)
	if vehicleProjection.distanceToLine > c.offRouteMeters {
		log.Debug().
			Str("trip", trip.ID).
			Float64("distance", vehicleProjection.distanceToLine).
			Msg("Vehicle off route")
		return ShapeResult{}, false
	}

	stopProjection := project(stop.Location(), polyline, arcs)
	total := arcs[len(arcs)-1]

	result := ShapeResult{
		VehicleArc:     vehicleProjection.arc,
		StopArc:        stopProjection.arc,
		TotalArc:       total,
		OffRouteMeters: vehicleProjection.distanceToLine,
	}

	if stopProjection.arc >= vehicleProjection.arc {
		result.RouteDistance = stopProjection.arc - vehicleProjection.arc
	} else {
		result.Passed = true
	}

	if total > 0 {
		result.ProgressPct = 100 * vehicleProjection.arc / total
	}

	return result, true
}

// cumulativeArcs holds the along-shape distance of every polyline vertex
func cumulativeArcs(polyline []geo.Point) []float64 {
	arcs := make([]float64, len(polyline))
	for i := 1; i < len(polyline); i++ {
		arcs[i] = arcs[i-1] + polyline[i-1].DistanceTo(polyline[i])
	}

	return arcs
}

func project(p geo.Point, polyline []geo.Point, arcs []float64) projection {
	if len(polyline) == 1 {
		return projection{arc: 0, distanceToLine: p.DistanceTo(polyline[0]), segment: -1}
	}

	best := projection{distanceToLine: math.MaxFloat64, segment: -1}

	for i := 0; i < len(polyline)-1; i++ {
		t, distance := geo.ProjectOntoSegment(p, polyline[i], polyline[i+1])

		if distance < best.distanceToLine {
			best = projection{
				arc:            arcs[i] + t*(arcs[i+1]-arcs[i]),
				distanceToLine: distance,
				segment:        i,
			}
		}
	}

	return best
}
