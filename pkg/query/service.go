package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/travigo/transittracker/pkg/correlation"
	"github.com/travigo/transittracker/pkg/gtfs"
	"github.com/travigo/transittracker/pkg/gtfsindex"
	"github.com/travigo/transittracker/pkg/servicecalendar"
	"golang.org/x/exp/slices"
)

const (
	scheduledWindow       = time.Hour
	maxScheduledArrivals  = 20
	minutesPerDay         = 24 * 60
	maxScheduledETAMinute = 60
)

// Service answers the rider-facing questions: which routes, directions and stops
// exist and what is arriving at a stop
type Service struct {
	repository gtfsindex.Repository
	calendar   *servicecalendar.Service
	correlator *correlation.Correlator
	scheduled  *correlation.ScheduledCorrelator

	clock func() time.Time
}

func NewService(repository gtfsindex.Repository, calendar *servicecalendar.Service, correlator *correlation.Correlator) *Service {
	return &Service{
		repository: repository,
		calendar:   calendar,
		correlator: correlator,
		scheduled:  correlation.NewScheduledCorrelator(repository),
		clock:      time.Now,
	}
}

func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// ListRoutes sorts numerically when both short names are numbers, lexicographically otherwise
func (s *Service) ListRoutes() []Route {
	routes := s.repository.Routes()

	result := make([]Route, 0, len(routes))
	for _, route := range routes {
		result = append(result, Route{
			RouteID:        route.ID,
			RouteShortName: route.ShortName,
			RouteLongName:  route.LongName,
		})
	}

	slices.SortStableFunc(result, func(a, b Route) int {
		return compareShortNames(a.RouteShortName, b.RouteShortName)
	})

	return result
}

func compareShortNames(a, b string) int {
	numberA, errA := strconv.Atoi(a)
	numberB, errB := strconv.Atoi(b)

	if errA == nil && errB == nil {
		return numberA - numberB
	}

	return strings.Compare(a, b)
}

func (s *Service) route(routeID string) (gtfs.Route, error) {
	route, exists := s.repository.Route(routeID)
	if !exists {
		return gtfs.Route{}, fmt.Errorf("%w: route %s", ErrNotFound, routeID)
	}

	return route, nil
}

func (s *Service) directionName(route gtfs.Route, directionID int) string {
	if directionName, exists := s.repository.DirectionName(route.ShortName, directionID); exists {
		return directionName.Name
	}

	return fmt.Sprintf("Direction %d", directionID)
}

// DirectionsOf lists the distinct directions of the route's trips in ascending order
func (s *Service) DirectionsOf(routeID string) ([]Direction, error) {
	route, err := s.route(routeID)
	if err != nil {
		return nil, err
	}

	headsigns := map[int]string{}
	directionIDs := []int{}

	for _, trip := range s.repository.TripsByRoute(routeID) {
		if _, seen := headsigns[trip.DirectionID]; seen {
			continue
		}

		headsigns[trip.DirectionID] = trip.Headsign
		directionIDs = append(directionIDs, trip.DirectionID)
	}

	slices.Sort(directionIDs)

	directions := make([]Direction, 0, len(directionIDs))
	for _, directionID := range directionIDs {
		directions = append(directions, Direction{
			DirectionID:   directionID,
			DirectionName: s.directionName(route, directionID),
			TripHeadsign:  headsigns[directionID],
		})
	}

	return directions, nil
}

// StopsOf numbers the stops of the representative trip from 1
func (s *Service) StopsOf(routeID string, directionID int) ([]Stop, error) {
	if _, err := s.route(routeID); err != nil {
		return nil, err
	}

	if len(s.repository.TripsByRouteAndDirection(routeID, directionID)) == 0 {
		return nil, fmt.Errorf("%w: route %s has no trips in direction %d", ErrNotFound, routeID, directionID)
	}

	stops := s.repository.StopsForDirection(routeID, directionID)
	if len(stops) == 0 {
		return nil, fmt.Errorf("%w: route %s has no stops in direction %d", ErrNotFound, routeID, directionID)
	}

	result := make([]Stop, 0, len(stops))
	for i, stop := range stops {
		result = append(result, Stop{
			StopID:       stop.ID,
			StopName:     stop.Name,
			StopSequence: i + 1,
			Latitude:     stop.Latitude,
			Longitude:    stop.Longitude,
		})
	}

	return result, nil
}

func (s *Service) VehicleStats(routeID string) (correlation.VehicleStats, error) {
	if _, err := s.route(routeID); err != nil {
		return correlation.VehicleStats{}, err
	}

	return s.correlator.VehicleStats(routeID, s.clock()), nil
}

// SearchRoutes scores every route whose short or long name contains the query
func (s *Service) SearchRoutes(query string, limit int) ([]RouteSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrBadRequest)
	}

	normalizedQuery := strings.ToUpper(query)

	results := []RouteSearchResult{}
	for _, route := range s.repository.SearchRoutes(query) {
		score := ScoreRoute(route.ShortName, route.LongName, normalizedQuery)
		if score <= 0 {
			continue
		}

		results = append(results, RouteSearchResult{
			RouteID:        route.ID,
			RouteShortName: route.ShortName,
			RouteLongName:  route.LongName,
			RelevanceScore: score,
		})
	}

	slices.SortStableFunc(results, func(a, b RouteSearchResult) int {
		return compareScores(a.RelevanceScore, b.RelevanceScore)
	})

	return truncate(results, searchLimit(limit, DefaultRouteSearchLimit)), nil
}

// SearchStops only considers the stops served by the route in the given direction
func (s *Service) SearchStops(query string, routeID string, directionID int, limit int) ([]StopSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrBadRequest)
	}

	if _, err := s.route(routeID); err != nil {
		return nil, err
	}

	stops := s.repository.StopsForDirection(routeID, directionID)
	if len(stops) == 0 {
		return nil, fmt.Errorf("%w: route %s has no stops in direction %d", ErrNotFound, routeID, directionID)
	}

	normalizedQuery := strings.ToLower(query)

	results := []StopSearchResult{}
	for _, stop := range stops {
		score := ScoreStop(stop.Name, normalizedQuery)
		if score <= 0 {
			continue
		}

		results = append(results, StopSearchResult{
			StopID:         stop.ID,
			StopName:       stop.Name,
			StopLat:        stop.Latitude,
			StopLon:        stop.Longitude,
			RelevanceScore: score,
		})
	}

	slices.SortStableFunc(results, func(a, b StopSearchResult) int {
		return compareScores(a.RelevanceScore, b.RelevanceScore)
	})

	return truncate(results, searchLimit(limit, DefaultStopSearchLimit)), nil
}

// compareScores orders by descending score
func compareScores(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

func truncate[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}

	return items
}
