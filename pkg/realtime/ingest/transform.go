package ingest

import (
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/realtime"
)

// Transform converts every entity carrying a vehicle with a position. Optional
// fields are only set when present in the feed and a missing timestamp becomes now.
func Transform(feed *gtfs.FeedMessage, now time.Time) []realtime.VehiclePosition {
	positions := make([]realtime.VehiclePosition, 0, len(feed.GetEntity()))
	withTrip := 0

	for _, entity := range feed.GetEntity() {
		vehicle := entity.GetVehicle()
		if vehicle == nil || vehicle.GetPosition() == nil {
			continue
		}

		position := transformVehicle(entity, vehicle, now)
		if position.TripID != nil {
			withTrip++
		}

		positions = append(positions, position)
	}

	log.Info().
		Int("vehicles", len(positions)).
		Int("withtrip", withTrip).
		Int("total", len(feed.GetEntity())).
		Msg("Transformed vehicle positions")

	return positions
}

func transformVehicle(entity *gtfs.FeedEntity, vehicle *gtfs.VehiclePosition, now time.Time) realtime.VehiclePosition {
	position := realtime.VehiclePosition{
		VehicleID: vehicle.GetVehicle().GetId(),
		Latitude:  float64(vehicle.GetPosition().GetLatitude()),
		Longitude: float64(vehicle.GetPosition().GetLongitude()),
		Timestamp: now.Unix(),
	}

	// Feeds without a vehicle descriptor still have a unique entity id
	if position.VehicleID == "" {
		position.VehicleID = entity.GetId()
	}

	if trip := vehicle.GetTrip(); trip != nil {
		if trip.TripId != nil {
			position.TripID = realtime.String(trip.GetTripId())
		}
		if trip.RouteId != nil {
			position.RouteID = realtime.String(trip.GetRouteId())
		}
		if trip.DirectionId != nil {
			position.DirectionID = realtime.Int(int(trip.GetDirectionId()))
		}
	}

	if vehicle.Position.Bearing != nil {
		position.Bearing = realtime.Float32(vehicle.Position.GetBearing())
	}
	if vehicle.Position.Speed != nil {
		position.Speed = realtime.Float32(vehicle.Position.GetSpeed())
	}

	if vehicle.StopId != nil {
		position.StopID = realtime.String(vehicle.GetStopId())
	}

	if vehicle.CurrentStatus != nil {
		position.CurrentStatus = realtime.String(vehicle.GetCurrentStatus().String())
	}

	if vehicle.Timestamp != nil {
		position.Timestamp = int64(vehicle.GetTimestamp())
	}

	return position
}
