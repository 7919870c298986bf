package gtfsindex

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/gtfs"
)

// MaxStopSearchCandidates caps SearchStopsByName
const MaxStopSearchCandidates = 50

// Index is the in-memory Repository. Readers never block; loads copy the current
// snapshot, replace the affected maps and publish the result atomically.
type Index struct {
	current atomic.Pointer[snapshot]

	writeMutex sync.Mutex
	now        func() time.Time
}

var _ Repository = (*Index)(nil)

func New() *Index {
	index := &Index{now: time.Now}
	index.current.Store(emptySnapshot())

	return index
}

func (i *Index) load(name string, count int, apply func(s *snapshot)) {
	i.writeMutex.Lock()
	defer i.writeMutex.Unlock()

	next := i.current.Load().clone()
	apply(next)
	next.lastLoadTime = i.now()

	i.current.Store(next)

	log.Info().Str("entity", name).Int("count", count).Msg("Loaded into index")
}

func (i *Index) LoadRoutes(routes []gtfs.Route) {
	i.load("routes", len(routes), func(s *snapshot) { s.setRoutes(routes) })
}

func (i *Index) LoadStops(stops []gtfs.Stop) {
	i.load("stops", len(stops), func(s *snapshot) { s.setStops(stops) })
}

func (i *Index) LoadTrips(trips []gtfs.Trip) {
	i.load("trips", len(trips), func(s *snapshot) { s.setTrips(trips) })
}

func (i *Index) LoadStopTimes(stopTimes []gtfs.StopTime) {
	i.load("stop_times", len(stopTimes), func(s *snapshot) { s.setStopTimes(stopTimes) })
}

func (i *Index) LoadShapePoints(points []gtfs.ShapePoint) {
	i.load("shapes", len(points), func(s *snapshot) { s.setShapePoints(points) })
}

func (i *Index) LoadDirectionNames(directionNames []gtfs.DirectionName) {
	i.load("direction_names", len(directionNames), func(s *snapshot) { s.setDirectionNames(directionNames) })
}

func (i *Index) LoadCalendars(calendars []gtfs.Calendar) {
	i.load("calendars", len(calendars), func(s *snapshot) { s.setCalendars(calendars) })
}

func (i *Index) LoadCalendarDates(calendarDates []gtfs.CalendarDate) {
	i.load("calendar_dates", len(calendarDates), func(s *snapshot) { s.setCalendarDates(calendarDates) })
}

// LoadDataset replaces the whole index with the contents of one archive in a single step
func (i *Index) LoadDataset(dataset *gtfs.Dataset) {
	next := &snapshot{}
	next.setRoutes(dataset.Routes)
	next.setStops(dataset.Stops)
	next.setTrips(dataset.Trips)
	next.setStopTimes(dataset.StopTimes)
	next.setShapePoints(dataset.ShapePoints)
	next.setDirectionNames(dataset.DirectionNames)
	next.setCalendars(dataset.Calendars)
	next.setCalendarDates(dataset.CalendarDates)

	i.writeMutex.Lock()
	next.lastLoadTime = i.now()
	i.current.Store(next)
	i.writeMutex.Unlock()

	stats := i.Stats()
	log.Info().
		Int("routes", stats.Routes).
		Int("stops", stats.Stops).
		Int("trips", stats.Trips).
		Int("stoptimes", stats.StopTimes).
		Int("shapes", stats.Shapes).
		Int("calendars", stats.Calendars).
		Int("calendardates", stats.CalendarDates).
		Msg("Index loaded")
}

func (i *Index) view() *snapshot {
	return i.current.Load()
}

func (i *Index) Route(routeID string) (gtfs.Route, bool) {
	route, exists := i.view().routesByID[routeID]
	return route, exists
}

func (i *Index) Routes() []gtfs.Route {
	s := i.view()

	routes := make([]gtfs.Route, 0, len(s.routeOrder))
	for _, routeID := range s.routeOrder {
		routes = append(routes, s.routesByID[routeID])
	}

	return routes
}

func (i *Index) RoutesByShortName(shortName string) []gtfs.Route {
	return i.view().routesByShortName[shortName]
}

// SearchRoutes returns routes whose short or long name contains query, ignoring case
func (i *Index) SearchRoutes(query string) []gtfs.Route {
	s := i.view()
	query = strings.ToLower(strings.TrimSpace(query))

	var routes []gtfs.Route
	for _, routeID := range s.routeOrder {
		route := s.routesByID[routeID]

		if strings.Contains(strings.ToLower(route.ShortName), query) || strings.Contains(strings.ToLower(route.LongName), query) {
			routes = append(routes, route)
		}
	}

	return routes
}

func (i *Index) Stop(stopID string) (gtfs.Stop, bool) {
	stop, exists := i.view().stopsByID[stopID]
	return stop, exists
}

// SearchStopsByName returns up to MaxStopSearchCandidates stops whose name contains query, ignoring case
func (i *Index) SearchStopsByName(query string) []gtfs.Stop {
	s := i.view()
	query = strings.ToLower(strings.TrimSpace(query))

	var stops []gtfs.Stop
	for _, stopID := range s.stopOrder {
		stop := s.stopsByID[stopID]

		if strings.Contains(strings.ToLower(stop.Name), query) {
			stops = append(stops, stop)

			if len(stops) >= MaxStopSearchCandidates {
				break
			}
		}
	}

	return stops
}

func (i *Index) Trip(tripID string) (gtfs.Trip, bool) {
	trip, exists := i.view().tripsByID[tripID]
	return trip, exists
}

func (i *Index) TripsByRoute(routeID string) []gtfs.Trip {
	return i.view().tripsByRoute[routeID]
}

func (i *Index) TripsByRouteAndDirection(routeID string, directionID int) []gtfs.Trip {
	return i.view().tripsByRouteDirection[routeDirection{RouteID: routeID, DirectionID: directionID}]
}

// RepresentativeTrip picks the first trip of the route/direction that has stop times,
// falling back to the first trip at all
func (i *Index) RepresentativeTrip(routeID string, directionID int) (gtfs.Trip, bool) {
	s := i.view()
	trips := s.tripsByRouteDirection[routeDirection{RouteID: routeID, DirectionID: directionID}]

	for _, trip := range trips {
		if len(s.stopTimesByTrip[trip.ID]) > 0 {
			return trip, true
		}
	}

	if len(trips) > 0 {
		return trips[0], true
	}

	return gtfs.Trip{}, false
}

func (i *Index) StopTimesByTrip(tripID string) []gtfs.StopTime {
	return i.view().stopTimesByTrip[tripID]
}

func (i *Index) StopTimesByStop(stopID string) []gtfs.StopTime {
	return i.view().stopTimesByStop[stopID]
}

func (i *Index) StopTime(tripID string, stopID string) (gtfs.StopTime, bool) {
	for _, stopTime := range i.view().stopTimesByTrip[tripID] {
		if stopTime.StopID == stopID {
			return stopTime, true
		}
	}

	return gtfs.StopTime{}, false
}

// StopsForDirection walks the representative trip in stop sequence order.
// Stop times pointing at unknown stops are dropped.
func (i *Index) StopsForDirection(routeID string, directionID int) []gtfs.Stop {
	trip, exists := i.RepresentativeTrip(routeID, directionID)
	if !exists {
		return nil
	}

	s := i.view()

	var stops []gtfs.Stop
	for _, stopTime := range s.stopTimesByTrip[trip.ID] {
		if stop, exists := s.stopsByID[stopTime.StopID]; exists {
			stops = append(stops, stop)
		}
	}

	return stops
}

// ShapePoints returns the polyline in shape_pt_sequence order
func (i *Index) ShapePoints(shapeID string) []gtfs.ShapePoint {
	return i.view().shapePointsByShape[shapeID]
}

func (i *Index) DirectionName(routeShortName string, directionID int) (gtfs.DirectionName, bool) {
	directionName, exists := i.view().directionNames[gtfs.DirectionKey(routeShortName, directionID)]
	return directionName, exists
}

func (i *Index) DirectionNamesByRoute(routeShortName string) []gtfs.DirectionName {
	return i.view().directionNamesByRoute[routeShortName]
}

func (i *Index) Calendar(serviceID string) (gtfs.Calendar, bool) {
	calendar, exists := i.view().calendars[serviceID]
	return calendar, exists
}

func (i *Index) Calendars() []gtfs.Calendar {
	s := i.view()

	calendars := make([]gtfs.Calendar, 0, len(s.calendarOrder))
	for _, serviceID := range s.calendarOrder {
		calendars = append(calendars, s.calendars[serviceID])
	}

	return calendars
}

func (i *Index) CalendarDate(serviceID string, date gtfs.Date) (gtfs.CalendarDate, bool) {
	calendarDate, exists := i.view().calendarDates[serviceID][date]
	return calendarDate, exists
}

func (i *Index) CalendarDatesOn(date gtfs.Date) []gtfs.CalendarDate {
	s := i.view()

	var calendarDates []gtfs.CalendarDate
	for _, serviceID := range sortedKeys(s.calendarDates) {
		if calendarDate, exists := s.calendarDates[serviceID][date]; exists {
			calendarDates = append(calendarDates, calendarDate)
		}
	}

	return calendarDates
}

func (i *Index) LastLoadTime() time.Time {
	return i.view().lastLoadTime
}

func (i *Index) Stats() Stats {
	s := i.view()

	return Stats{
		Routes:         len(s.routesByID),
		Stops:          len(s.stopsByID),
		Trips:          len(s.tripsByID),
		StopTimes:      s.stopTimeCount,
		Shapes:         len(s.shapePointsByShape),
		ShapePoints:    s.shapePointCount,
		DirectionNames: len(s.directionNames),
		Calendars:      len(s.calendars),
		CalendarDates:  s.calendarDateCount,
		LastLoadTime:   s.lastLoadTime,
	}
}
