package correlation

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/gtfs"
	"github.com/travigo/transittracker/pkg/gtfsindex"
	"golang.org/x/exp/slices"
)

type DelayStatus string

const (
	DelayStatusOnTime  DelayStatus = "ON_TIME"
	DelayStatusDelayed DelayStatus = "DELAYED"
	DelayStatusEarly   DelayStatus = "EARLY"
)

func (s DelayStatus) DisplayName() string {
	switch s {
	case DelayStatusOnTime:
		return "On Time"
	case DelayStatusDelayed:
		return "Delayed"
	case DelayStatusEarly:
		return "Early"
	default:
		return string(s)
	}
}

const secondsPerDay = 24 * 60 * 60

// Arrival is the timetabled arrival of a trip at a stop
type Arrival struct {
	TripID       string
	StopID       string
	Time         gtfs.TimeOfDay
	StopSequence int
}

// Delay compares a predicted arrival against the timetable. Positive minutes are late.
type Delay struct {
	Scheduled gtfs.TimeOfDay
	Predicted gtfs.TimeOfDay
	Minutes   int
	Status    DelayStatus
}

type ScheduledCorrelator struct {
	repository gtfsindex.Repository
}

func NewScheduledCorrelator(repository gtfsindex.Repository) *ScheduledCorrelator {
	return &ScheduledCorrelator{repository: repository}
}

func (c *ScheduledCorrelator) ScheduledArrival(tripID string, stopID string) (Arrival, bool) {
	stopTime, exists := c.repository.StopTime(tripID, stopID)
	if !exists {
		log.Debug().Str("trip", tripID).Str("stop", stopID).Msg("No scheduled stop time")
		return Arrival{}, false
	}

	return Arrival{
		TripID:       tripID,
		StopID:       stopID,
		Time:         stopTime.ArrivalTime,
		StopSequence: stopTime.StopSequence,
	}, true
}

// ArrivalsForStop lists timetabled arrivals at stopID between from and to, ordered by time
func (c *ScheduledCorrelator) ArrivalsForStop(stopID string, from gtfs.TimeOfDay, to gtfs.TimeOfDay) []Arrival {
	arrivals := []Arrival{}

	for _, stopTime := range c.repository.StopTimesByStop(stopID) {
		if !InWindow(stopTime.ArrivalTime, from, to) {
			continue
		}

		arrivals = append(arrivals, Arrival{
			TripID:       stopTime.TripID,
			StopID:       stopTime.StopID,
			Time:         stopTime.ArrivalTime,
			StopSequence: stopTime.StopSequence,
		})
	}

	sortArrivals(arrivals)

	return arrivals
}

// CalculateDelay predicts arrival as now plus etaSeconds and classifies it against scheduled.
// Differences beyond twelve hours are treated as crossing midnight.
func CalculateDelay(scheduled gtfs.TimeOfDay, etaSeconds int, now gtfs.TimeOfDay) Delay {
	predicted := now.Add(time.Duration(etaSeconds) * time.Second)

	difference := predicted.Seconds() - scheduled.Seconds()
	if difference > secondsPerDay/2 {
		difference -= secondsPerDay
	} else if difference < -secondsPerDay/2 {
		difference += secondsPerDay
	}

	minutes := difference / 60

	status := DelayStatusOnTime
	if minutes > 1 {
		status = DelayStatusDelayed
	} else if minutes < -1 {
		status = DelayStatusEarly
	}

	return Delay{
		Scheduled: scheduled,
		Predicted: predicted,
		Minutes:   minutes,
		Status:    status,
	}
}

// InWindow reports whether t lies in [from, to] on a 24 hour clock.
// When to is not after from the window wraps past midnight.
func InWindow(t gtfs.TimeOfDay, from gtfs.TimeOfDay, to gtfs.TimeOfDay) bool {
	if from.Before(to) {
		return !t.Before(from) && !t.After(to)
	}

	return !t.Before(from) || !t.After(to)
}

func sortArrivals(arrivals []Arrival) {
	slices.SortFunc(arrivals, func(a, b Arrival) int {
		if a.Time != b.Time {
			return int(a.Time) - int(b.Time)
		}
		return strings.Compare(a.TripID, b.TripID)
	})
}
