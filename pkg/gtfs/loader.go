package gtfs

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/transittracker/pkg/geo"
)

const (
	RoutesFile         = "routes.txt"
	StopsFile          = "stops.txt"
	TripsFile          = "trips.txt"
	StopTimesFile      = "stop_times.txt"
	ShapesFile         = "shapes.txt"
	CalendarFile       = "calendar.txt"
	CalendarDatesFile  = "calendar_dates.txt"
	DirectionNamesFile = "direction_names_exceptions.txt"
)

var requiredFiles = []string{RoutesFile, StopsFile, TripsFile, StopTimesFile}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var setupCSVReader sync.Once

// Dataset is everything read out of one static GTFS archive
type Dataset struct {
	Routes         []Route
	Stops          []Stop
	Trips          []Trip
	StopTimes      []StopTime
	ShapePoints    []ShapePoint
	DirectionNames []DirectionName
	Calendars      []Calendar
	CalendarDates  []CalendarDate

	// Rows rejected per file
	Skipped map[string]int
}

func (d *Dataset) Summary() map[string]int {
	return map[string]int{
		"routes":         len(d.Routes),
		"stops":          len(d.Stops),
		"trips":          len(d.Trips),
		"stopTimes":      len(d.StopTimes),
		"shapePoints":    len(d.ShapePoints),
		"directionNames": len(d.DirectionNames),
		"calendars":      len(d.Calendars),
		"calendarDates":  len(d.CalendarDates),
	}
}

type Loader struct {
	// Stops outside of the bounds are rejected, zero value disables the check
	Bounds geo.Bounds

	// Maximum number of files parsed at once
	Concurrency int
}

func NewLoader(bounds geo.Bounds) *Loader {
	return &Loader{Bounds: bounds, Concurrency: 4}
}

// LoadZip reads a static GTFS archive from disk
func (l *Loader) LoadZip(zipPath string) (*Dataset, error) {
	archive, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, &LoadError{File: zipPath, Cause: err}
	}
	defer archive.Close()

	return l.load(&archive.Reader)
}

// Load reads a static GTFS archive held in memory or any other io.ReaderAt
func (l *Loader) Load(reader io.ReaderAt, size int64) (*Dataset, error) {
	archive, err := zip.NewReader(reader, size)
	if err != nil {
		return nil, &LoadError{File: "archive", Cause: err}
	}

	return l.load(archive)
}

func (l *Loader) load(archive *zip.Reader) (*Dataset, error) {
	setupCSVReader.Do(func() {
		// Allow us to ignore those naughty records that have missing columns
		gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
			r := csv.NewReader(in)
			r.FieldsPerRecord = -1
			r.LazyQuotes = true
			return r
		})
	})

	startTime := time.Now()

	files := map[string]*zip.File{}
	for _, zipFile := range archive.File {
		files[path.Base(zipFile.Name)] = zipFile
	}

	for _, name := range requiredFiles {
		if _, exists := files[name]; !exists {
			return nil, &LoadError{File: name, Cause: ErrRequiredFileMissing}
		}
	}
	_, hasCalendar := files[CalendarFile]
	_, hasCalendarDates := files[CalendarDatesFile]
	if !hasCalendar && !hasCalendarDates {
		return nil, &LoadError{File: CalendarFile, Cause: ErrRequiredFileMissing}
	}

	dataset := &Dataset{Skipped: map[string]int{}}
	var skippedMutex sync.Mutex

	concurrency := l.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	p := pool.New().WithErrors().WithMaxGoroutines(concurrency)

	parse := func(name string, parser func(io.Reader) (int, error)) {
		zipFile, exists := files[name]
		if !exists {
			log.Info().Str("file", name).Msg("Optional file not present")
			return
		}

		p.Go(func() error {
			file, err := zipFile.Open()
			if err != nil {
				return &LoadError{File: name, Cause: err}
			}
			defer file.Close()

			log.Info().Str("file", name).Msg("Loading file")

			skipped, err := parser(stripBOM(file))
			if err != nil {
				return &LoadError{File: name, Cause: err}
			}

			if skipped > 0 {
				log.Warn().Str("file", name).Int("skipped", skipped).Msg("Skipped invalid records")
			}

			skippedMutex.Lock()
			dataset.Skipped[name] = skipped
			skippedMutex.Unlock()

			return nil
		})
	}

	parse(RoutesFile, func(r io.Reader) (int, error) {
		return readRecords(RoutesFile, r, func(record routeRecord) (bool, error) {
			route, err := record.toRoute()
			if err != nil {
				return false, err
			}
			if route.Type != BusRouteType {
				return false, nil
			}
			dataset.Routes = append(dataset.Routes, route)
			return true, nil
		})
	})
	parse(StopsFile, func(r io.Reader) (int, error) {
		return readRecords(StopsFile, r, func(record stopRecord) (bool, error) {
			stop, err := record.toStop()
			if err != nil {
				return false, err
			}
			if !l.Bounds.Contains(stop.Location()) {
				return false, fmt.Errorf("stop %s at %f,%f is outside of the agency bounds", stop.ID, stop.Latitude, stop.Longitude)
			}
			dataset.Stops = append(dataset.Stops, stop)
			return true, nil
		})
	})
	parse(TripsFile, func(r io.Reader) (int, error) {
		return readRecords(TripsFile, r, func(record tripRecord) (bool, error) {
			trip, err := record.toTrip()
			if err != nil {
				return false, err
			}
			dataset.Trips = append(dataset.Trips, trip)
			return true, nil
		})
	})
	parse(StopTimesFile, func(r io.Reader) (int, error) {
		return readRecords(StopTimesFile, r, func(record stopTimeRecord) (bool, error) {
			stopTime, err := record.toStopTime()
			if err != nil {
				return false, err
			}
			dataset.StopTimes = append(dataset.StopTimes, stopTime)
			return true, nil
		})
	})
	parse(ShapesFile, func(r io.Reader) (int, error) {
		return readRecords(ShapesFile, r, func(record shapeRecord) (bool, error) {
			point, err := record.toShapePoint()
			if err != nil {
				return false, err
			}
			dataset.ShapePoints = append(dataset.ShapePoints, point)
			return true, nil
		})
	})
	parse(CalendarFile, func(r io.Reader) (int, error) {
		return readRecords(CalendarFile, r, func(record calendarRecord) (bool, error) {
			calendar, err := record.toCalendar()
			if err != nil {
				return false, err
			}
			dataset.Calendars = append(dataset.Calendars, calendar)
			return true, nil
		})
	})
	parse(CalendarDatesFile, func(r io.Reader) (int, error) {
		return readRecords(CalendarDatesFile, r, func(record calendarDateRecord) (bool, error) {
			calendarDate, err := record.toCalendarDate()
			if err != nil {
				return false, err
			}
			dataset.CalendarDates = append(dataset.CalendarDates, calendarDate)
			return true, nil
		})
	})
	parse(DirectionNamesFile, func(r io.Reader) (int, error) {
		return readRecords(DirectionNamesFile, r, func(record directionNameRecord) (bool, error) {
			directionName, err := record.toDirectionName()
			if err != nil {
				return false, err
			}
			dataset.DirectionNames = append(dataset.DirectionNames, directionName)
			return true, nil
		})
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}

	switch {
	case len(dataset.Routes) == 0:
		return nil, &LoadError{File: RoutesFile, Cause: ErrEmptyDataset}
	case len(dataset.Stops) == 0:
		return nil, &LoadError{File: StopsFile, Cause: ErrEmptyDataset}
	case len(dataset.Trips) == 0:
		return nil, &LoadError{File: TripsFile, Cause: ErrEmptyDataset}
	}

	summary := log.Info().Str("duration", time.Since(startTime).String())
	for name, count := range dataset.Summary() {
		summary = summary.Int(name, count)
	}
	summary.Msg("Loaded GTFS dataset")

	return dataset, nil
}

// readRecords streams every row of a CSV file into handle. A handler error rejects
// that row only, returning false without an error filters the row silently.
func readRecords[T any](file string, reader io.Reader, handle func(T) (bool, error)) (int, error) {
	skipped := 0
	row := 1

	err := gocsv.UnmarshalToCallback(reader, func(record T) {
		row++

		if _, err := handle(record); err != nil {
			skipped++
			log.Warn().Err(err).Str("file", file).Int("row", row).Msg("Failed to parse record")
		}
	})

	if errors.Is(err, io.EOF) {
		// header-less file, nothing to read
		return skipped, nil
	}

	return skipped, err
}

func stripBOM(reader io.Reader) io.Reader {
	buffered := bufio.NewReader(reader)

	if prefix, err := buffered.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		buffered.Discard(len(utf8BOM))
	}

	return buffered
}
