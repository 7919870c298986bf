package gtfs

import (
	"fmt"
	"time"

	"github.com/travigo/transittracker/pkg/geo"
)

// BusRouteType is the only route_type the tracker keeps
const BusRouteType = 3

type Route struct {
	ID        string `json:"routeId"`
	ShortName string `json:"routeShortName"`
	LongName  string `json:"routeLongName"`
	Type      int    `json:"routeType"`
}

func (r Route) String() string {
	return fmt.Sprintf("Route{id=%s, shortName=%s, longName=%s}", r.ID, r.ShortName, r.LongName)
}

type Stop struct {
	ID        string  `json:"stopId"`
	Name      string  `json:"stopName"`
	Latitude  float64 `json:"stopLat"`
	Longitude float64 `json:"stopLon"`
}

func (s Stop) Location() geo.Point {
	return geo.NewPoint(s.Latitude, s.Longitude)
}

// DistanceTo returns the haversine distance from the stop to a lat/lon in metres
func (s Stop) DistanceTo(latitude, longitude float64) float64 {
	return geo.Distance(s.Latitude, s.Longitude, latitude, longitude)
}

type Trip struct {
	ID          string `json:"tripId"`
	RouteID     string `json:"routeId"`
	ServiceID   string `json:"serviceId"`
	ShapeID     string `json:"shapeId,omitempty"`
	DirectionID int    `json:"directionId"`
	Headsign    string `json:"tripHeadsign,omitempty"`
}

func (t Trip) HasShape() bool {
	return t.ShapeID != ""
}

type StopTime struct {
	TripID        string    `json:"tripId"`
	StopID        string    `json:"stopId"`
	ArrivalTime   TimeOfDay `json:"arrivalTime"`
	DepartureTime TimeOfDay `json:"departureTime"`
	StopSequence  int       `json:"stopSequence"`
}

type ShapePoint struct {
	ShapeID   string  `json:"shapeId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Sequence  int     `json:"sequence"`
}

func (p ShapePoint) Location() geo.Point {
	return geo.NewPoint(p.Latitude, p.Longitude)
}

// DirectionName is the agency supplied friendly name of a route direction,
// keyed on the public route short name rather than the route id
type DirectionName struct {
	RouteShortName string `json:"routeShortName"`
	DirectionID    int    `json:"directionId"`
	Name           string `json:"directionName"`
	Do             string `json:"directionDo,omitempty"`
}

func (d DirectionName) Key() string {
	return DirectionKey(d.RouteShortName, d.DirectionID)
}

func DirectionKey(routeShortName string, directionID int) string {
	return fmt.Sprintf("%s:%d", routeShortName, directionID)
}

type Calendar struct {
	ServiceID string
	StartDate Date
	EndDate   Date

	// Indexed by time.Weekday, Sunday first
	Days [7]bool
}

func (c Calendar) RunsOn(weekday time.Weekday) bool {
	return c.Days[weekday]
}

// ActiveOn reports whether the regular weekly pattern covers date
func (c Calendar) ActiveOn(date Date) bool {
	if date.Before(c.StartDate) || date.After(c.EndDate) {
		return false
	}

	return c.RunsOn(date.Weekday())
}

func (c Calendar) GetRunningDays() []string {
	days := []string{}

	for _, weekday := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday} {
		if c.Days[weekday] {
			days = append(days, weekday.String())
		}
	}

	return days
}

type ExceptionType int

const (
	ServiceAdded   ExceptionType = 1
	ServiceRemoved ExceptionType = 2
)

func (e ExceptionType) String() string {
	switch e {
	case ServiceAdded:
		return "Service Added"
	case ServiceRemoved:
		return "Service Removed"
	default:
		return fmt.Sprintf("ExceptionType(%d)", int(e))
	}
}

type CalendarDate struct {
	ServiceID     string
	Date          Date
	ExceptionType ExceptionType
}

func (c CalendarDate) IsServiceAdded() bool {
	return c.ExceptionType == ServiceAdded
}

func (c CalendarDate) IsServiceRemoved() bool {
	return c.ExceptionType == ServiceRemoved
}
