package gtfsindex

import (
	"sort"
	"time"

	"github.com/travigo/transittracker/pkg/gtfs"
)

type routeDirection struct {
	RouteID     string
	DirectionID int
}

// snapshot is one immutable generation of the index. Loads build a new snapshot
// and publish it in a single pointer swap.
type snapshot struct {
	routesByID map[string]gtfs.Route
	routeOrder []string
	stopsByID  map[string]gtfs.Stop
	stopOrder  []string
	trips      []gtfs.Trip
	tripsByID  map[string]gtfs.Trip

	stopTimeCount   int
	stopTimesByTrip map[string][]gtfs.StopTime
	stopTimesByStop map[string][]gtfs.StopTime

	shapePointCount    int
	shapePointsByShape map[string][]gtfs.ShapePoint

	directionNames map[string]gtfs.DirectionName

	calendars         map[string]gtfs.Calendar
	calendarOrder     []string
	calendarDates     map[string]map[gtfs.Date]gtfs.CalendarDate
	calendarDateCount int

	// Derived
	routesByShortName     map[string][]gtfs.Route
	tripsByRoute          map[string][]gtfs.Trip
	tripsByRouteDirection map[routeDirection][]gtfs.Trip
	directionNamesByRoute map[string][]gtfs.DirectionName

	lastLoadTime time.Time
}

func emptySnapshot() *snapshot {
	s := &snapshot{}
	s.setRoutes(nil)
	s.setStops(nil)
	s.setTrips(nil)
	s.setStopTimes(nil)
	s.setShapePoints(nil)
	s.setDirectionNames(nil)
	s.setCalendars(nil)
	s.setCalendarDates(nil)

	return s
}

func (s *snapshot) clone() *snapshot {
	copied := *s
	return &copied
}

func (s *snapshot) setRoutes(routes []gtfs.Route) {
	s.routesByID = make(map[string]gtfs.Route, len(routes))
	s.routesByShortName = map[string][]gtfs.Route{}

	for _, route := range routes {
		s.routesByID[route.ID] = route
	}

	s.routeOrder = sortedKeys(s.routesByID)
	for _, routeID := range s.routeOrder {
		route := s.routesByID[routeID]
		s.routesByShortName[route.ShortName] = append(s.routesByShortName[route.ShortName], route)
	}
}

func (s *snapshot) setStops(stops []gtfs.Stop) {
	s.stopsByID = make(map[string]gtfs.Stop, len(stops))

	for _, stop := range stops {
		s.stopsByID[stop.ID] = stop
	}

	s.stopOrder = sortedKeys(s.stopsByID)
}

func (s *snapshot) setTrips(trips []gtfs.Trip) {
	s.tripsByID = make(map[string]gtfs.Trip, len(trips))
	s.trips = make([]gtfs.Trip, 0, len(trips))
	s.tripsByRoute = map[string][]gtfs.Trip{}
	s.tripsByRouteDirection = map[routeDirection][]gtfs.Trip{}

	for _, trip := range trips {
		if _, exists := s.tripsByID[trip.ID]; exists {
			continue
		}

		s.tripsByID[trip.ID] = trip
		s.trips = append(s.trips, trip)

		s.tripsByRoute[trip.RouteID] = append(s.tripsByRoute[trip.RouteID], trip)

		key := routeDirection{RouteID: trip.RouteID, DirectionID: trip.DirectionID}
		s.tripsByRouteDirection[key] = append(s.tripsByRouteDirection[key], trip)
	}
}

func (s *snapshot) setStopTimes(stopTimes []gtfs.StopTime) {
	s.stopTimesByTrip = map[string][]gtfs.StopTime{}
	s.stopTimesByStop = map[string][]gtfs.StopTime{}
	s.stopTimeCount = 0

	seen := map[[2]string]bool{}

	for _, stopTime := range stopTimes {
		key := [2]string{stopTime.TripID, stopTime.StopID}
		if seen[key] {
			continue
		}
		seen[key] = true
		s.stopTimeCount++

		s.stopTimesByTrip[stopTime.TripID] = append(s.stopTimesByTrip[stopTime.TripID], stopTime)
		s.stopTimesByStop[stopTime.StopID] = append(s.stopTimesByStop[stopTime.StopID], stopTime)
	}

	for _, tripStopTimes := range s.stopTimesByTrip {
		sort.SliceStable(tripStopTimes, func(i, j int) bool {
			return tripStopTimes[i].StopSequence < tripStopTimes[j].StopSequence
		})
	}
}

func (s *snapshot) setShapePoints(points []gtfs.ShapePoint) {
	s.shapePointsByShape = map[string][]gtfs.ShapePoint{}
	s.shapePointCount = len(points)

	for _, point := range points {
		s.shapePointsByShape[point.ShapeID] = append(s.shapePointsByShape[point.ShapeID], point)
	}

	for _, shape := range s.shapePointsByShape {
		sort.SliceStable(shape, func(i, j int) bool {
			return shape[i].Sequence < shape[j].Sequence
		})
	}
}

func (s *snapshot) setDirectionNames(directionNames []gtfs.DirectionName) {
	s.directionNames = make(map[string]gtfs.DirectionName, len(directionNames))
	s.directionNamesByRoute = map[string][]gtfs.DirectionName{}

	for _, directionName := range directionNames {
		s.directionNames[directionName.Key()] = directionName
	}

	for _, key := range sortedKeys(s.directionNames) {
		directionName := s.directionNames[key]
		s.directionNamesByRoute[directionName.RouteShortName] = append(s.directionNamesByRoute[directionName.RouteShortName], directionName)
	}
}

func (s *snapshot) setCalendars(calendars []gtfs.Calendar) {
	s.calendars = make(map[string]gtfs.Calendar, len(calendars))

	for _, calendar := range calendars {
		s.calendars[calendar.ServiceID] = calendar
	}

	s.calendarOrder = sortedKeys(s.calendars)
}

func (s *snapshot) setCalendarDates(calendarDates []gtfs.CalendarDate) {
	s.calendarDates = map[string]map[gtfs.Date]gtfs.CalendarDate{}
	s.calendarDateCount = 0

	for _, calendarDate := range calendarDates {
		dates, exists := s.calendarDates[calendarDate.ServiceID]
		if !exists {
			dates = map[gtfs.Date]gtfs.CalendarDate{}
			s.calendarDates[calendarDate.ServiceID] = dates
		}
		if _, exists := dates[calendarDate.Date]; !exists {
			s.calendarDateCount++
		}
		dates[calendarDate.Date] = calendarDate
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}
