package realtime

import (
	"time"

	"github.com/travigo/transittracker/pkg/geo"
)

// VehiclePosition is the event published on the vehicle-positions topic.
// Optional fields are nil when the feed did not carry them.
type VehiclePosition struct {
	VehicleID     string   `json:"vehicleId"`
	TripID        *string  `json:"tripId"`
	RouteID       *string  `json:"routeId"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	Bearing       *float32 `json:"bearing"`
	Speed         *float32 `json:"speed"`
	StopID        *string  `json:"stopId"`
	CurrentStatus *string  `json:"currentStatus"`
	Timestamp     int64    `json:"timestamp"`
	DirectionID   *int     `json:"directionId"`
}

func (v *VehiclePosition) Location() geo.Point {
	return geo.NewPoint(v.Latitude, v.Longitude)
}

func (v *VehiclePosition) GetTripID() string {
	return stringValue(v.TripID)
}

func (v *VehiclePosition) GetRouteID() string {
	return stringValue(v.RouteID)
}

func (v *VehiclePosition) GetCurrentStatus() string {
	return stringValue(v.CurrentStatus)
}

// HasDirection reports whether the vehicle carries the given direction id
func (v *VehiclePosition) HasDirection(directionID int) bool {
	return v.DirectionID != nil && *v.DirectionID == directionID
}

func (v *VehiclePosition) Time() time.Time {
	return time.Unix(v.Timestamp, 0)
}

// Age is how old the position is relative to now, in whole seconds
func (v *VehiclePosition) Age(now time.Time) int64 {
	return now.Unix() - v.Timestamp
}

// IsFresh reports whether the position is at most maxAge old
func (v *VehiclePosition) IsFresh(now time.Time, maxAge time.Duration) bool {
	return v.Age(now) <= int64(maxAge/time.Second)
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}

	return *value
}

// String returns a pointer to value, for building positions field by field
func String(value string) *string {
	return &value
}

func Int(value int) *int {
	return &value
}

func Float32(value float32) *float32 {
	return &value
}
