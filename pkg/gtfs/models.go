package gtfs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Raw CSV rows. Every column is read as a string so a malformed value only
// rejects its own row instead of the whole file.

type routeRecord struct {
	ID        string `csv:"route_id"`
	AgencyID  string `csv:"agency_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
	Type      string `csv:"route_type"`
}

type stopRecord struct {
	ID        string `csv:"stop_id"`
	Code      string `csv:"stop_code"`
	Name      string `csv:"stop_name"`
	Latitude  string `csv:"stop_lat"`
	Longitude string `csv:"stop_lon"`
}

type tripRecord struct {
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	ID          string `csv:"trip_id"`
	Headsign    string `csv:"trip_headsign"`
	DirectionID string `csv:"direction_id"`
	ShapeID     string `csv:"shape_id"`
}

type stopTimeRecord struct {
	TripID        string `csv:"trip_id"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
	StopID        string `csv:"stop_id"`
	StopSequence  string `csv:"stop_sequence"`
}

type shapeRecord struct {
	ID        string `csv:"shape_id"`
	Latitude  string `csv:"shape_pt_lat"`
	Longitude string `csv:"shape_pt_lon"`
	Sequence  string `csv:"shape_pt_sequence"`
}

type calendarRecord struct {
	ServiceID string `csv:"service_id"`
	Monday    string `csv:"monday"`
	Tuesday   string `csv:"tuesday"`
	Wednesday string `csv:"wednesday"`
	Thursday  string `csv:"thursday"`
	Friday    string `csv:"friday"`
	Saturday  string `csv:"saturday"`
	Sunday    string `csv:"sunday"`
	Start     string `csv:"start_date"`
	End       string `csv:"end_date"`
}

type calendarDateRecord struct {
	ServiceID     string `csv:"service_id"`
	Date          string `csv:"date"`
	ExceptionType string `csv:"exception_type"`
}

// TransLink specific file, not part of the GTFS reference
type directionNameRecord struct {
	RouteName     string `csv:"route_name"`
	DirectionID   string `csv:"direction_id"`
	DirectionName string `csv:"direction_name"`
	DirectionDo   string `csv:"direction_do"`
}

var errMissingField = errors.New("missing required field")

func required(name string, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s", errMissingField, name)
	}

	return value, nil
}

func parseDirection(value string) (int, error) {
	direction, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid direction_id %q: %w", value, err)
	}
	if direction != 0 && direction != 1 {
		return 0, fmt.Errorf("direction_id out of range: %d", direction)
	}

	return direction, nil
}

func parseFloat(name string, value string) (float64, error) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}

	return parsed, nil
}

func parseSequence(name string, value string) (int, error) {
	sequence, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if sequence < 0 {
		return 0, fmt.Errorf("%s must be non-negative: %d", name, sequence)
	}

	return sequence, nil
}

func (r routeRecord) toRoute() (Route, error) {
	id, err := required("route_id", r.ID)
	if err != nil {
		return Route{}, err
	}

	routeType, err := strconv.Atoi(strings.TrimSpace(r.Type))
	if err != nil {
		return Route{}, fmt.Errorf("invalid route_type %q: %w", r.Type, err)
	}

	return Route{
		ID:        id,
		ShortName: strings.TrimSpace(r.ShortName),
		LongName:  strings.TrimSpace(r.LongName),
		Type:      routeType,
	}, nil
}

func (r stopRecord) toStop() (Stop, error) {
	id, err := required("stop_id", r.ID)
	if err != nil {
		return Stop{}, err
	}
	latitude, err := parseFloat("stop_lat", r.Latitude)
	if err != nil {
		return Stop{}, err
	}
	longitude, err := parseFloat("stop_lon", r.Longitude)
	if err != nil {
		return Stop{}, err
	}

	return Stop{
		ID:        id,
		Name:      strings.TrimSpace(r.Name),
		Latitude:  latitude,
		Longitude: longitude,
	}, nil
}

func (r tripRecord) toTrip() (Trip, error) {
	id, err := required("trip_id", r.ID)
	if err != nil {
		return Trip{}, err
	}
	routeID, err := required("route_id", r.RouteID)
	if err != nil {
		return Trip{}, err
	}
	serviceID, err := required("service_id", r.ServiceID)
	if err != nil {
		return Trip{}, err
	}
	direction, err := parseDirection(r.DirectionID)
	if err != nil {
		return Trip{}, err
	}

	return Trip{
		ID:          id,
		RouteID:     routeID,
		ServiceID:   serviceID,
		ShapeID:     strings.TrimSpace(r.ShapeID),
		DirectionID: direction,
		Headsign:    strings.TrimSpace(r.Headsign),
	}, nil
}

func (r stopTimeRecord) toStopTime() (StopTime, error) {
	tripID, err := required("trip_id", r.TripID)
	if err != nil {
		return StopTime{}, err
	}
	stopID, err := required("stop_id", r.StopID)
	if err != nil {
		return StopTime{}, err
	}
	arrival, err := ParseTime(r.ArrivalTime)
	if err != nil {
		return StopTime{}, fmt.Errorf("arrival_time: %w", err)
	}

	departure := arrival
	if strings.TrimSpace(r.DepartureTime) != "" {
		departure, err = ParseTime(r.DepartureTime)
		if err != nil {
			return StopTime{}, fmt.Errorf("departure_time: %w", err)
		}
	}
	// a dwell that crosses midnight folds to an earlier time of day
	if departure.Before(arrival) {
		departure = arrival
	}

	sequence, err := parseSequence("stop_sequence", r.StopSequence)
	if err != nil {
		return StopTime{}, err
	}

	return StopTime{
		TripID:        tripID,
		StopID:        stopID,
		ArrivalTime:   arrival,
		DepartureTime: departure,
		StopSequence:  sequence,
	}, nil
}

func (r shapeRecord) toShapePoint() (ShapePoint, error) {
	id, err := required("shape_id", r.ID)
	if err != nil {
		return ShapePoint{}, err
	}
	latitude, err := parseFloat("shape_pt_lat", r.Latitude)
	if err != nil {
		return ShapePoint{}, err
	}
	longitude, err := parseFloat("shape_pt_lon", r.Longitude)
	if err != nil {
		return ShapePoint{}, err
	}
	sequence, err := parseSequence("shape_pt_sequence", r.Sequence)
	if err != nil {
		return ShapePoint{}, err
	}

	return ShapePoint{ShapeID: id, Latitude: latitude, Longitude: longitude, Sequence: sequence}, nil
}

func (r calendarRecord) toCalendar() (Calendar, error) {
	serviceID, err := required("service_id", r.ServiceID)
	if err != nil {
		return Calendar{}, err
	}
	start, err := ParseDate(r.Start)
	if err != nil {
		return Calendar{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := ParseDate(r.End)
	if err != nil {
		return Calendar{}, fmt.Errorf("end_date: %w", err)
	}
	if start.After(end) {
		return Calendar{}, fmt.Errorf("start_date %s is after end_date %s", start, end)
	}

	calendar := Calendar{ServiceID: serviceID, StartDate: start, EndDate: end}

	columns := map[time.Weekday]string{
		time.Monday:    r.Monday,
		time.Tuesday:   r.Tuesday,
		time.Wednesday: r.Wednesday,
		time.Thursday:  r.Thursday,
		time.Friday:    r.Friday,
		time.Saturday:  r.Saturday,
		time.Sunday:    r.Sunday,
	}
	for weekday, value := range columns {
		runs, err := ParseBool(value)
		if err != nil {
			return Calendar{}, fmt.Errorf("%s: %w", strings.ToLower(weekday.String()), err)
		}
		calendar.Days[weekday] = runs
	}

	return calendar, nil
}

func (r calendarDateRecord) toCalendarDate() (CalendarDate, error) {
	serviceID, err := required("service_id", r.ServiceID)
	if err != nil {
		return CalendarDate{}, err
	}
	date, err := ParseDate(r.Date)
	if err != nil {
		return CalendarDate{}, err
	}

	exception, err := strconv.Atoi(strings.TrimSpace(r.ExceptionType))
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid exception_type %q: %w", r.ExceptionType, err)
	}
	if ExceptionType(exception) != ServiceAdded && ExceptionType(exception) != ServiceRemoved {
		return CalendarDate{}, fmt.Errorf("unknown exception_type: %d", exception)
	}

	return CalendarDate{ServiceID: serviceID, Date: date, ExceptionType: ExceptionType(exception)}, nil
}

func (r directionNameRecord) toDirectionName() (DirectionName, error) {
	routeName, err := required("route_name", r.RouteName)
	if err != nil {
		return DirectionName{}, err
	}
	name, err := required("direction_name", r.DirectionName)
	if err != nil {
		return DirectionName{}, err
	}
	direction, err := parseDirection(r.DirectionID)
	if err != nil {
		return DirectionName{}, err
	}

	return DirectionName{
		RouteShortName: routeName,
		DirectionID:    direction,
		Name:           name,
		Do:             strings.TrimSpace(r.DirectionDo),
	}, nil
}
