package gtfs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/transittracker/pkg/geo"
)

func TestLoad(t *testing.T) {
	archive := buildArchive(t, sampleFiles())

	dataset, err := NewLoader(geo.Bounds{}).Load(archive, archive.Size())
	require.NoError(t, err)

	t.Run("RoutesFilteredToBus", func(t *testing.T) {
		require.Len(t, dataset.Routes, 2)
		for _, route := range dataset.Routes {
			assert.Equal(t, BusRouteType, route.Type)
		}
		assert.Equal(t, 1, dataset.Skipped[RoutesFile])
	})

	t.Run("BadRowsSkipped", func(t *testing.T) {
		assert.Len(t, dataset.Stops, 3)
		assert.Equal(t, 1, dataset.Skipped[StopsFile])

		assert.Len(t, dataset.Trips, 2)
		assert.Equal(t, 1, dataset.Skipped[TripsFile])

		assert.Len(t, dataset.Calendars, 1)
		assert.Equal(t, 2, dataset.Skipped[CalendarFile])

		assert.Len(t, dataset.CalendarDates, 2)
		assert.Equal(t, 1, dataset.Skipped[CalendarDatesFile])
	})

	t.Run("StopTimes", func(t *testing.T) {
		require.Len(t, dataset.StopTimes, 3)

		byStop := map[string]StopTime{}
		for _, stopTime := range dataset.StopTimes {
			byStop[stopTime.StopID] = stopTime
		}

		assert.Equal(t, "00:05:00", byStop["101"].ArrivalTime.String())
		assert.Equal(t, byStop["101"].ArrivalTime, byStop["101"].DepartureTime)
		assert.Equal(t, "01:10:30", byStop["102"].ArrivalTime.String())
		assert.Equal(t, "01:11:00", byStop["102"].DepartureTime.String())

		for _, stopTime := range dataset.StopTimes {
			assert.False(t, stopTime.DepartureTime.Before(stopTime.ArrivalTime))
		}
	})

	t.Run("Calendar", func(t *testing.T) {
		calendar := dataset.Calendars[0]
		assert.Equal(t, "WKDY", calendar.ServiceID)
		assert.Equal(t, NewDate(2025, time.January, 1), calendar.StartDate)
		assert.Equal(t, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}, calendar.GetRunningDays())
	})

	t.Run("DirectionNamesWithBOM", func(t *testing.T) {
		require.Len(t, dataset.DirectionNames, 2)
		assert.Equal(t, "049", dataset.DirectionNames[0].RouteShortName)
		assert.Equal(t, "To Metrotown", dataset.DirectionNames[0].Name)
		assert.Equal(t, "East", dataset.DirectionNames[0].Do)
	})

	t.Run("Shapes", func(t *testing.T) {
		assert.Len(t, dataset.ShapePoints, 2)
	})
}

func TestLoadBounds(t *testing.T) {
	archive := buildArchive(t, sampleFiles())

	// excludes the Metrotown stop
	bounds := geo.Bounds{MinLatitude: 49.23, MaxLatitude: 49.5, MinLongitude: -123.5, MaxLongitude: -122.0}

	dataset, err := NewLoader(bounds).Load(archive, archive.Size())
	require.NoError(t, err)

	assert.Len(t, dataset.Stops, 2)
	assert.Equal(t, 2, dataset.Skipped[StopsFile])
}

func TestLoadMissingRequiredFile(t *testing.T) {
	files := sampleFiles()
	delete(files, StopTimesFile)

	archive := buildArchive(t, files)
	_, err := NewLoader(geo.Bounds{}).Load(archive, archive.Size())

	var loadError *LoadError
	require.True(t, errors.As(err, &loadError))
	assert.Equal(t, StopTimesFile, loadError.File)
	assert.ErrorIs(t, err, ErrRequiredFileMissing)
}

func TestLoadMissingCalendars(t *testing.T) {
	files := sampleFiles()
	delete(files, CalendarFile)
	delete(files, CalendarDatesFile)

	archive := buildArchive(t, files)
	_, err := NewLoader(geo.Bounds{}).Load(archive, archive.Size())

	assert.ErrorIs(t, err, ErrRequiredFileMissing)
}

func TestLoadOptionalFilesAbsent(t *testing.T) {
	files := sampleFiles()
	delete(files, ShapesFile)
	delete(files, DirectionNamesFile)

	archive := buildArchive(t, files)
	dataset, err := NewLoader(geo.Bounds{}).Load(archive, archive.Size())
	require.NoError(t, err)

	assert.Empty(t, dataset.ShapePoints)
	assert.Empty(t, dataset.DirectionNames)
}

func TestLoadEmptyRoutes(t *testing.T) {
	files := sampleFiles()
	files[RoutesFile] = []string{"route_id,agency_id,route_short_name,route_long_name,route_type"}

	archive := buildArchive(t, files)
	_, err := NewLoader(geo.Bounds{}).Load(archive, archive.Size())

	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestLoadZipNotFound(t *testing.T) {
	_, err := NewLoader(geo.Bounds{}).LoadZip("does-not-exist.zip")

	var loadError *LoadError
	require.True(t, errors.As(err, &loadError))
	assert.Equal(t, "does-not-exist.zip", loadError.File)
}
