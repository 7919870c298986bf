package gtfsindex

import (
	"time"

	"github.com/travigo/transittracker/pkg/gtfs"
)

// Repository is the read side of the static schedule. Returned slices are shared
// with the index and must not be modified.
type Repository interface {
	Route(routeID string) (gtfs.Route, bool)
	Routes() []gtfs.Route
	RoutesByShortName(shortName string) []gtfs.Route
	SearchRoutes(query string) []gtfs.Route

	Stop(stopID string) (gtfs.Stop, bool)
	SearchStopsByName(query string) []gtfs.Stop

	Trip(tripID string) (gtfs.Trip, bool)
	TripsByRoute(routeID string) []gtfs.Trip
	TripsByRouteAndDirection(routeID string, directionID int) []gtfs.Trip
	RepresentativeTrip(routeID string, directionID int) (gtfs.Trip, bool)

	StopTimesByTrip(tripID string) []gtfs.StopTime
	StopTimesByStop(stopID string) []gtfs.StopTime
	StopTime(tripID string, stopID string) (gtfs.StopTime, bool)
	StopsForDirection(routeID string, directionID int) []gtfs.Stop

	ShapePoints(shapeID string) []gtfs.ShapePoint

	DirectionName(routeShortName string, directionID int) (gtfs.DirectionName, bool)
	DirectionNamesByRoute(routeShortName string) []gtfs.DirectionName

	Calendar(serviceID string) (gtfs.Calendar, bool)
	Calendars() []gtfs.Calendar
	CalendarDate(serviceID string, date gtfs.Date) (gtfs.CalendarDate, bool)
	CalendarDatesOn(date gtfs.Date) []gtfs.CalendarDate

	LastLoadTime() time.Time
	Stats() Stats
}

type Stats struct {
	Routes         int       `json:"routes"`
	Stops          int       `json:"stops"`
	Trips          int       `json:"trips"`
	StopTimes      int       `json:"stopTimes"`
	Shapes         int       `json:"shapes"`
	ShapePoints    int       `json:"shapePoints"`
	DirectionNames int       `json:"directionNames"`
	Calendars      int       `json:"calendars"`
	CalendarDates  int       `json:"calendarDates"`
	LastLoadTime   time.Time `json:"lastLoadTime"`
}
