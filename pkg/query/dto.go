package query

import "time"

type Route struct {
	RouteID        string `json:"routeId"`
	RouteShortName string `json:"routeShortName"`
	RouteLongName  string `json:"routeLongName"`
}

type Direction struct {
	DirectionID   int    `json:"directionId"`
	DirectionName string `json:"directionName"`
	TripHeadsign  string `json:"tripHeadsign"`
}

type Stop struct {
	StopID       string  `json:"stopId"`
	StopName     string  `json:"stopName"`
	StopSequence int     `json:"stopSequence"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type RouteInfo struct {
	RouteShortName string `json:"routeShortName"`
	DirectionName  string `json:"directionName"`
}

type StopInfo struct {
	StopID   string `json:"stopId"`
	StopName string `json:"stopName"`
}

type Arrivals struct {
	Route          RouteInfo      `json:"route"`
	Stop           StopInfo       `json:"stop"`
	RealTimeBuses  []RealTimeBus  `json:"realTimeBuses"`
	ScheduledBuses []ScheduledBus `json:"scheduledBuses"`
}

// RealTimeBus is a live vehicle approaching the stop. The schedule fields are nil
// when the vehicle's trip does not call at the stop.
type RealTimeBus struct {
	VehicleID        string    `json:"vehicleId"`
	TripID           *string   `json:"tripId"`
	ETAMinutes       int       `json:"etaMinutes"`
	ETASeconds       int       `json:"etaSeconds"`
	DistanceMeters   float64   `json:"distanceMeters"`
	CurrentStatus    *string   `json:"currentStatus"`
	LastUpdated      time.Time `json:"lastUpdated"`
	ScheduledArrival *string   `json:"scheduledArrival"`
	DelayMinutes     *int      `json:"delayMinutes"`
	DelayStatus      *string   `json:"delayStatus"`
}

type ScheduledBus struct {
	ScheduledArrival string `json:"scheduledArrival"`
	ETAMinutes       int    `json:"etaMinutes"`
	IsRealTime       bool   `json:"isRealTime"`
}

type RouteSearchResult struct {
	RouteID        string  `json:"routeId"`
	RouteShortName string  `json:"routeShortName"`
	RouteLongName  string  `json:"routeLongName"`
	RelevanceScore float64 `json:"relevanceScore"`
}

type StopSearchResult struct {
	StopID         string  `json:"stopId"`
	StopName       string  `json:"stopName"`
	StopLat        float64 `json:"stopLat"`
	StopLon        float64 `json:"stopLon"`
	RelevanceScore float64 `json:"relevanceScore"`
}
