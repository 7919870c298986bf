package query

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/correlation"
	"github.com/travigo/transittracker/pkg/gtfs"
	"golang.org/x/exp/slices"
)

// Arrivals validates route, direction, stop and that the stop is served in that
// direction, in that order, then combines live vehicles with the timetable
func (s *Service) Arrivals(routeID string, directionID int, stopID string) (*Arrivals, error) {
	now := s.clock()

	route, err := s.route(routeID)
	if err != nil {
		return nil, err
	}

	if len(s.repository.TripsByRouteAndDirection(routeID, directionID)) == 0 {
		return nil, fmt.Errorf("%w: route %s has no trips in direction %d", ErrNotFound, routeID, directionID)
	}

	stop, exists := s.repository.Stop(stopID)
	if !exists {
		return nil, fmt.Errorf("%w: stop %s", ErrNotFound, stopID)
	}

	served := slices.ContainsFunc(s.repository.StopsForDirection(routeID, directionID), func(candidate gtfs.Stop) bool {
		return candidate.ID == stopID
	})
	if !served {
		return nil, fmt.Errorf("%w: stop %s is not served by route %s in direction %d", ErrNotFound, stopID, routeID, directionID)
	}

	arrivals := &Arrivals{
		Route: RouteInfo{
			RouteShortName: route.ShortName,
			DirectionName:  s.directionName(route, directionID),
		},
		Stop: StopInfo{
			StopID:   stop.ID,
			StopName: stop.Name,
		},
		RealTimeBuses:  s.realTimeBuses(routeID, directionID, stopID, now),
		ScheduledBuses: s.scheduledNextHour(stopID, now),
	}

	log.Debug().
		Str("route", route.ShortName).
		Int("direction", directionID).
		Str("stop", stop.Name).
		Int("realtime", len(arrivals.RealTimeBuses)).
		Int("scheduled", len(arrivals.ScheduledBuses)).
		Msg("Composed arrivals")

	return arrivals, nil
}

func (s *Service) realTimeBuses(routeID string, directionID int, stopID string, now time.Time) []RealTimeBus {
	clockTime := gtfs.TimeOfDayOf(now.In(s.calendar.Location()))

	approaching := s.correlator.VehiclesApproaching(routeID, directionID, stopID, now)

	buses := make([]RealTimeBus, 0, len(approaching))
	for _, vehicle := range approaching {
		bus := RealTimeBus{
			VehicleID:      vehicle.Vehicle.VehicleID,
			TripID:         vehicle.Vehicle.TripID,
			ETAMinutes:     vehicle.ETA.Minutes,
			ETASeconds:     vehicle.ETA.Seconds,
			DistanceMeters: vehicle.ETA.DistanceMeters,
			CurrentStatus:  vehicle.Vehicle.CurrentStatus,
			LastUpdated:    vehicle.CalculatedAt.UTC(),
		}

		if tripID := vehicle.Vehicle.GetTripID(); tripID != "" {
			if scheduled, exists := s.scheduled.ScheduledArrival(tripID, stopID); exists {
				delay := correlation.CalculateDelay(scheduled.Time, vehicle.ETA.Seconds, clockTime)

				scheduledArrival := scheduled.Time.String()
				delayStatus := delay.Status.DisplayName()

				bus.ScheduledArrival = &scheduledArrival
				bus.DelayMinutes = &delay.Minutes
				bus.DelayStatus = &delayStatus
			}
		}

		buses = append(buses, bus)
	}

	return buses
}

// ScheduledNextHour lists timetabled arrivals at the stop within the next hour for
// services running today, soonest first
func (s *Service) ScheduledNextHour(routeID string, directionID int, stopID string) ([]ScheduledBus, error) {
	if _, err := s.route(routeID); err != nil {
		return nil, err
	}
	if _, exists := s.repository.Stop(stopID); !exists {
		return nil, fmt.Errorf("%w: stop %s", ErrNotFound, stopID)
	}

	return s.scheduledNextHour(stopID, s.clock()), nil
}

func (s *Service) scheduledNextHour(stopID string, now time.Time) []ScheduledBus {
	today := s.calendar.DateOf(now)
	from := gtfs.TimeOfDayOf(now.In(s.calendar.Location()))
	to := from.Add(scheduledWindow)

	stopTimes := s.repository.StopTimesByStop(stopID)
	active := s.calendar.FilterActiveStopTimes(stopTimes, today)

	buses := []ScheduledBus{}
	for _, stopTime := range active {
		if !correlation.InWindow(stopTime.ArrivalTime, from, to) {
			continue
		}

		etaMinutes := (stopTime.ArrivalTime.Seconds() - from.Seconds()) / 60
		if etaMinutes < 0 {
			etaMinutes += minutesPerDay
		}
		if etaMinutes < 0 || etaMinutes > maxScheduledETAMinute {
			continue
		}

		buses = append(buses, ScheduledBus{
			ScheduledArrival: stopTime.ArrivalTime.String(),
			ETAMinutes:       etaMinutes,
			IsRealTime:       false,
		})
	}

	slices.SortStableFunc(buses, func(a, b ScheduledBus) int {
		return a.ETAMinutes - b.ETAMinutes
	})

	log.Debug().
		Str("stop", stopID).
		Int("stoptimes", len(stopTimes)).
		Int("active", len(active)).
		Int("nexthour", len(buses)).
		Msg("Scheduled arrivals")

	return truncate(buses, maxScheduledArrivals)
}
