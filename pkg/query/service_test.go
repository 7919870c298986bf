package query

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/transittracker/pkg/correlation"
	"github.com/travigo/transittracker/pkg/eta"
	"github.com/travigo/transittracker/pkg/gtfs"
	"github.com/travigo/transittracker/pkg/gtfsindex"
	"github.com/travigo/transittracker/pkg/realtime"
	"github.com/travigo/transittracker/pkg/realtime/vehiclestore"
	"github.com/travigo/transittracker/pkg/servicecalendar"
)

type fixture struct {
	service  *Service
	vehicles *vehiclestore.Store
	location *time.Location
}

func weekdays() [7]bool {
	var days [7]bool
	for weekday := time.Monday; weekday <= time.Friday; weekday++ {
		days[weekday] = true
	}
	return days
}

func weekend() [7]bool {
	var days [7]bool
	days[time.Saturday] = true
	days[time.Sunday] = true
	return days
}

func stopTime(tripID string, stopID string, sequence int, hours, minutes int) gtfs.StopTime {
	arrival := gtfs.NewTimeOfDay(hours, minutes, 0)
	return gtfs.StopTime{TripID: tripID, StopID: stopID, ArrivalTime: arrival, DepartureTime: arrival, StopSequence: sequence}
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	location, err := time.LoadLocation("America/Vancouver")
	require.NoError(t, err)

	index := gtfsindex.New()
	index.LoadDataset(&gtfs.Dataset{
		Routes: []gtfs.Route{
			{ID: "6635", ShortName: "049", LongName: "Metrotown Station / UBC"},
			{ID: "6636", ShortName: "2", LongName: "Macdonald / Downtown"},
			{ID: "6637", ShortName: "002", LongName: "Burrard Station"},
			{ID: "6638", ShortName: "R4", LongName: "41st Ave"},
			{ID: "6639", ShortName: "10", LongName: "Granville / Downtown"},
		},
		Stops: []gtfs.Stop{
			{ID: "S1", Name: "Main St @ 1st Ave", Latitude: 49.280, Longitude: -123.12},
			{ID: "S2", Name: "Main St @ 2nd Ave", Latitude: 49.285, Longitude: -123.12},
			{ID: "S3", Name: "Central Station", Latitude: 49.290, Longitude: -123.12},
			{ID: "S4", Name: "Far Away Loop", Latitude: 49.100, Longitude: -122.80},
		},
		Trips: []gtfs.Trip{
			{ID: "T0", RouteID: "6636", ServiceID: "WEEKDAY", DirectionID: 0, Headsign: "Downtown"},
			{ID: "T1", RouteID: "6636", ServiceID: "WEEKDAY", DirectionID: 0, Headsign: "Downtown", ShapeID: "SH1"},
			{ID: "T3", RouteID: "6636", ServiceID: "WEEKDAY", DirectionID: 1, Headsign: "Marpole"},
			{ID: "T4", RouteID: "6636", ServiceID: "WEEKDAY", DirectionID: 0, Headsign: "Downtown"},
			{ID: "T6", RouteID: "6636", ServiceID: "WEEKEND", DirectionID: 0, Headsign: "Downtown"},
			{ID: "T9", RouteID: "6638", ServiceID: "WEEKDAY", DirectionID: 0, Headsign: "UBC"},
		},
		StopTimes: []gtfs.StopTime{
			stopTime("T1", "S3", 3, 8, 10),
			stopTime("T1", "S1", 1, 8, 0),
			stopTime("T1", "S2", 2, 8, 5),
			stopTime("T3", "S3", 1, 8, 30),
			stopTime("T3", "S2", 2, 8, 35),
			stopTime("T3", "S1", 3, 8, 40),
			stopTime("T4", "S1", 1, 23, 45),
			stopTime("T4", "S2", 2, 0, 10),
			stopTime("T6", "S2", 2, 8, 20),
		},
		ShapePoints: []gtfs.ShapePoint{
			{ShapeID: "SH1", Latitude: 49.28, Longitude: -123.12, Sequence: 1},
			{ShapeID: "SH1", Latitude: 49.29, Longitude: -123.12, Sequence: 2},
		},
		DirectionNames: []gtfs.DirectionName{
			{RouteShortName: "2", DirectionID: 0, Name: "To Downtown"},
		},
		Calendars: []gtfs.Calendar{
			{ServiceID: "WEEKDAY", StartDate: gtfs.NewDate(2025, time.January, 1), EndDate: gtfs.NewDate(2025, time.December, 31), Days: weekdays()},
			{ServiceID: "WEEKEND", StartDate: gtfs.NewDate(2025, time.January, 1), EndDate: gtfs.NewDate(2025, time.December, 31), Days: weekend()},
		},
	})

	clock := func() time.Time { return now }

	vehicles := vehiclestore.New()
	calendar := servicecalendar.New(index, location).WithClock(clock)
	engine := eta.NewEngine(index, eta.DefaultConfig())
	correlator := correlation.NewCorrelator(index, vehicles, engine, correlation.Config{})

	return &fixture{
		service:  NewService(index, calendar, correlator).WithClock(clock),
		vehicles: vehicles,
		location: location,
	}
}

func thursdayAt(t *testing.T, hours, minutes int) time.Time {
	t.Helper()

	location, err := time.LoadLocation("America/Vancouver")
	require.NoError(t, err)

	return time.Date(2025, time.July, 3, hours, minutes, 0, 0, location)
}

func TestListRoutesOrdersNumerically(t *testing.T) {
	f := newFixture(t, thursdayAt(t, 8, 0))

	var shortNames []string
	for _, route := range f.service.ListRoutes() {
		shortNames = append(shortNames, route.RouteShortName)
	}

	assert.Equal(t, []string{"2", "002", "10", "049", "R4"}, shortNames)
}

func TestDirectionsOf(t *testing.T) {
	f := newFixture(t, thursdayAt(t, 8, 0))

	directions, err := f.service.DirectionsOf("6636")
	require.NoError(t, err)

	assert.Equal(t, []Direction{
		{DirectionID: 0, DirectionName: "To Downtown", TripHeadsign: "Downtown"},
		{DirectionID: 1, DirectionName: "Direction 1", TripHeadsign: "Marpole"},
	}, directions)

	_, err = f.service.DirectionsOf("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStopsOfUsesRepresentativeTrip(t *testing.T) {
	f := newFixture(t, thursdayAt(t, 8, 0))

	stops, err := f.service.StopsOf("6636", 0)
	require.NoError(t, err)

	require.Len(t, stops, 3)
	assert.Equal(t, "S1", stops[0].StopID)
	assert.Equal(t, 1, stops[0].StopSequence)
	assert.Equal(t, "S2", stops[1].StopID)
	assert.Equal(t, "S3", stops[2].StopID)
	assert.Equal(t, 3, stops[2].StopSequence)

	_, err = f.service.StopsOf("6636", 5)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.service.StopsOf("6635", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchRoutesNormalisesShortNames(t *testing.T) {
	f := newFixture(t, thursdayAt(t, 8, 0))

	results, err := f.service.SearchRoutes("2", 10)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(results), 2)
	assert.Equal(t, "2", results[0].RouteShortName)
	assert.Equal(t, "002", results[1].RouteShortName)
	assert.Equal(t, results[0].RelevanceScore, results[1].RelevanceScore)

	results, err = f.service.SearchRoutes("49", 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "049", results[0].RouteShortName)
	assert.Equal(t, 110.0, results[0].RelevanceScore)
}

func TestSearchRoutesLongNameAndLimit(t *testing.T) {
	f := newFixture(t, thursdayAt(t, 8, 0))

	results, err := f.service.SearchRoutes("downtown", 0)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, 50.0, results[0].RelevanceScore)

	results, err = f.service.SearchRoutes("downtown", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchNonPositiveLimitUsesDefault(t *testing.T) {
	f := newFixture(t, thursdayAt(t, 8, 0))

	for _, limit := range []int{0, -1} {
		routes, err := f.service.SearchRoutes("2", limit)
		require.NoError(t, err)
		assert.Len(t, routes, 2, "limit %d", limit)

		stops, err := f.service.SearchStops("main", "6636", 0, limit)
		require.NoError(t, err)
		assert.Len(t, stops, 2, "limit %d", limit)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	f := newFixture(t, thursdayAt(t, 8, 0))

	_, err := f.service.SearchRoutes("  ", 10)
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = f.service.SearchStops("", "6636", 0, 10)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestSearchStopsWithinDirection(t *testing.T) {
	f := newFixture(t, thursdayAt(t, 8, 0))

	results, err := f.service.SearchStops("main", "6636", 0, 0)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "S1", results[0].StopID)
	assert.Equal(t, "S2", results[1].StopID)

	results, err = f.service.SearchStops("loop", "6636", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = f.service.SearchStops("main", "6636", 7, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.service.SearchStops("main", "nope", 0, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArrivalsValidation(t *testing.T) {
	f := newFixture(t, thursdayAt(t, 8, 0))

	tests := []struct {
		name        string
		routeID     string
		directionID int
		stopID      string
	}{
		{"unknown route", "nope", 0, "S1"},
		{"unknown direction", "6636", 4, "S1"},
		{"unknown stop", "6636", 0, "S99"},
		{"stop not served", "6636", 0, "S4"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := f.service.Arrivals(test.routeID, test.directionID, test.stopID)
			assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
		})
	}
}

func TestArrivalsCombinesLiveAndScheduled(t *testing.T) {
	now := thursdayAt(t, 8, 0)
	f := newFixture(t, now)

	f.vehicles.Put(realtime.VehiclePosition{
		VehicleID:     "V1",
		TripID:        realtime.String("T1"),
		RouteID:       realtime.String("6636"),
		DirectionID:   realtime.Int(0),
		Latitude:      49.28,
		Longitude:     -123.12,
		CurrentStatus: realtime.String("IN_TRANSIT_TO"),
		Timestamp:     now.Unix() - 10,
	})
	f.vehicles.Put(realtime.VehiclePosition{
		VehicleID:   "STALE",
		RouteID:     realtime.String("6636"),
		DirectionID: realtime.Int(0),
		Latitude:    49.281,
		Longitude:   -123.12,
		Timestamp:   now.Unix() - 3600,
	})

	arrivals, err := f.service.Arrivals("6636", 0, "S2")
	require.NoError(t, err)

	assert.Equal(t, RouteInfo{RouteShortName: "2", DirectionName: "To Downtown"}, arrivals.Route)
	assert.Equal(t, StopInfo{StopID: "S2", StopName: "Main St @ 2nd Ave"}, arrivals.Stop)

	require.Len(t, arrivals.RealTimeBuses, 1)
	bus := arrivals.RealTimeBuses[0]
	assert.Equal(t, "V1", bus.VehicleID)
	assert.InDelta(t, 556, bus.DistanceMeters, 2)
	assert.Equal(t, 1, bus.ETAMinutes)
	require.NotNil(t, bus.ScheduledArrival)
	assert.Equal(t, "08:05:00", *bus.ScheduledArrival)
	require.NotNil(t, bus.DelayMinutes)
	assert.Equal(t, -3, *bus.DelayMinutes)
	require.NotNil(t, bus.DelayStatus)
	assert.Equal(t, "Early", *bus.DelayStatus)
	assert.Equal(t, now.UTC(), bus.LastUpdated)

	assert.Equal(t, []ScheduledBus{
		{ScheduledArrival: "08:05:00", ETAMinutes: 5},
		{ScheduledArrival: "08:35:00", ETAMinutes: 35},
	}, arrivals.ScheduledBuses)
}

func TestArrivalsWithoutTripHasNoDelay(t *testing.T) {
	now := thursdayAt(t, 8, 0)
	f := newFixture(t, now)

	f.vehicles.Put(realtime.VehiclePosition{
		VehicleID:   "V2",
		RouteID:     realtime.String("6636"),
		DirectionID: realtime.Int(0),
		Latitude:    49.282,
		Longitude:   -123.12,
		Timestamp:   now.Unix(),
	})

	arrivals, err := f.service.Arrivals("6636", 0, "S2")
	require.NoError(t, err)

	require.Len(t, arrivals.RealTimeBuses, 1)
	assert.Nil(t, arrivals.RealTimeBuses[0].ScheduledArrival)
	assert.Nil(t, arrivals.RealTimeBuses[0].DelayMinutes)
	assert.Nil(t, arrivals.RealTimeBuses[0].DelayStatus)
}

func TestScheduledNextHourWrapsMidnight(t *testing.T) {
	f := newFixture(t, thursdayAt(t, 23, 30))

	scheduled, err := f.service.ScheduledNextHour("6636", 0, "S2")
	require.NoError(t, err)

	assert.Equal(t, []ScheduledBus{
		{ScheduledArrival: "00:10:00", ETAMinutes: 40},
	}, scheduled)
}

func TestScheduledNextHourSkipsInactiveServices(t *testing.T) {
	saturday := thursdayAt(t, 8, 0).AddDate(0, 0, 2)
	f := newFixture(t, saturday)

	scheduled, err := f.service.ScheduledNextHour("6636", 0, "S2")
	require.NoError(t, err)

	assert.Equal(t, []ScheduledBus{
		{ScheduledArrival: "08:20:00", ETAMinutes: 20},
	}, scheduled)
}

func TestVehicleStats(t *testing.T) {
	now := thursdayAt(t, 8, 0)
	f := newFixture(t, now)

	f.vehicles.Put(realtime.VehiclePosition{VehicleID: "A", RouteID: realtime.String("6636"), DirectionID: realtime.Int(0), Timestamp: now.Unix()})
	f.vehicles.Put(realtime.VehiclePosition{VehicleID: "B", RouteID: realtime.String("6636"), DirectionID: realtime.Int(1), Timestamp: now.Unix() - 1000})
	f.vehicles.Put(realtime.VehiclePosition{VehicleID: "C", RouteID: realtime.String("6638"), Timestamp: now.Unix()})

	stats, err := f.service.VehicleStats("6636")
	require.NoError(t, err)

	assert.Equal(t, correlation.VehicleStats{TotalVehicles: 2, FreshVehicles: 1, Direction0Count: 1}, stats)

	_, err = f.service.VehicleStats("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
