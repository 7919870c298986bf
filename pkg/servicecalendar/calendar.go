package servicecalendar

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/gtfs"
	"github.com/travigo/transittracker/pkg/gtfsindex"
)

// Service answers whether a GTFS service runs on a given date. Dates are
// evaluated in the agency time zone, never the host zone.
type Service struct {
	repository gtfsindex.Repository
	location   *time.Location
	clock      func() time.Time
}

type Stats struct {
	TotalServices    int `json:"totalServices"`
	ActiveServices   int `json:"activeServices"`
	InactiveServices int `json:"inactiveServices"`
	ExceptionsToday  int `json:"exceptionsToday"`
}

func New(repository gtfsindex.Repository, location *time.Location) *Service {
	return &Service{
		repository: repository,
		location:   location,
		clock:      time.Now,
	}
}

// WithClock replaces the clock used by Today, mostly for tests
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

func (s *Service) Location() *time.Location {
	return s.location
}

// Today is the current calendar date in the agency time zone
func (s *Service) Today() gtfs.Date {
	return s.DateOf(s.clock())
}

// DateOf converts an instant to the agency-local calendar date
func (s *Service) DateOf(t time.Time) gtfs.Date {
	return gtfs.DateOf(t.In(s.location))
}

// IsServiceActive checks calendar_dates exceptions first, then the weekly calendar.
// A service with neither is inactive.
func (s *Service) IsServiceActive(serviceID string, date gtfs.Date) bool {
	if exception, exists := s.repository.CalendarDate(serviceID, date); exists {
		log.Debug().
			Str("service", serviceID).
			Str("date", date.String()).
			Str("exception", exception.ExceptionType.String()).
			Msg("Service exception applied")

		return exception.IsServiceAdded()
	}

	if calendar, exists := s.repository.Calendar(serviceID); exists {
		return calendar.ActiveOn(date)
	}

	log.Debug().Str("service", serviceID).Msg("No calendar data for service")
	return false
}

func (s *Service) IsServiceActiveToday(serviceID string) bool {
	return s.IsServiceActive(serviceID, s.Today())
}

// FilterActiveTripIDs keeps the trips whose service runs on date. Unknown trips are dropped.
func (s *Service) FilterActiveTripIDs(tripIDs []string, date gtfs.Date) []string {
	active := newActiveCache(s, date)

	filtered := []string{}
	for _, tripID := range tripIDs {
		if active.trip(tripID) {
			filtered = append(filtered, tripID)
		}
	}

	return filtered
}

// FilterActiveStopTimes keeps the stop times whose trip's service runs on date
func (s *Service) FilterActiveStopTimes(stopTimes []gtfs.StopTime, date gtfs.Date) []gtfs.StopTime {
	active := newActiveCache(s, date)

	filtered := []gtfs.StopTime{}
	for _, stopTime := range stopTimes {
		if active.trip(stopTime.TripID) {
			filtered = append(filtered, stopTime)
		}
	}

	return filtered
}

func (s *Service) Stats(date gtfs.Date) Stats {
	stats := Stats{}

	for _, calendar := range s.repository.Calendars() {
		stats.TotalServices++

		if s.IsServiceActive(calendar.ServiceID, date) {
			stats.ActiveServices++
		} else {
			stats.InactiveServices++
		}
	}

	stats.ExceptionsToday = len(s.repository.CalendarDatesOn(date))

	return stats
}

// activeCache memoises service decisions for one date while filtering large lists
type activeCache struct {
	service  *Service
	date     gtfs.Date
	services map[string]bool
}

func newActiveCache(service *Service, date gtfs.Date) *activeCache {
	return &activeCache{
		service:  service,
		date:     date,
		services: map[string]bool{},
	}
}

func (c *activeCache) trip(tripID string) bool {
	trip, exists := c.service.repository.Trip(tripID)
	if !exists {
		return false
	}

	active, cached := c.services[trip.ServiceID]
	if !cached {
		active = c.service.IsServiceActive(trip.ServiceID, c.date)
		c.services[trip.ServiceID] = active
	}

	return active
}
