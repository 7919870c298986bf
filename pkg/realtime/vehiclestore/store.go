package vehiclestore

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/realtime"
)

// Store keeps the latest position of every vehicle. Of two positions with the same
// timestamp the last written wins.
type Store struct {
	mutex          sync.RWMutex
	vehicles       map[string]realtime.VehiclePosition
	lastUpdateTime time.Time

	now func() time.Time
}

type Stats struct {
	TotalVehicles  int       `json:"totalVehicles"`
	LastUpdateTime time.Time `json:"lastUpdateTime"`
	UniqueRoutes   int       `json:"uniqueRoutes"`
}

func New() *Store {
	return &Store{
		vehicles: map[string]realtime.VehiclePosition{},
		now:      time.Now,
	}
}

// Put stores vehicle unless a position with a later timestamp is already held for it.
// It reports whether the position was stored.
func (s *Store) Put(vehicle realtime.VehiclePosition) bool {
	s.mutex.Lock()
	if current, exists := s.vehicles[vehicle.VehicleID]; exists && vehicle.Timestamp < current.Timestamp {
		s.mutex.Unlock()
		return false
	}

	s.vehicles[vehicle.VehicleID] = vehicle
	s.lastUpdateTime = s.now()
	size := len(s.vehicles)
	s.mutex.Unlock()

	if size%50 == 0 {
		log.Debug().Int("vehicles", size).Msg("Vehicle store size")
	}

	return true
}

func (s *Store) Get(vehicleID string) (realtime.VehiclePosition, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	vehicle, exists := s.vehicles[vehicleID]
	return vehicle, exists
}

// All returns a point-in-time copy of every stored position
func (s *Store) All() []realtime.VehiclePosition {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	vehicles := make([]realtime.VehiclePosition, 0, len(s.vehicles))
	for _, vehicle := range s.vehicles {
		vehicles = append(vehicles, vehicle)
	}

	return vehicles
}

func (s *Store) ByRoute(routeID string) []realtime.VehiclePosition {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	vehicles := []realtime.VehiclePosition{}
	for _, vehicle := range s.vehicles {
		if vehicle.GetRouteID() == routeID && vehicle.RouteID != nil {
			vehicles = append(vehicles, vehicle)
		}
	}

	return vehicles
}

func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.vehicles)
}

func (s *Store) Stats() Stats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	routes := map[string]bool{}
	for _, vehicle := range s.vehicles {
		routes[vehicle.GetRouteID()] = true
	}

	return Stats{
		TotalVehicles:  len(s.vehicles),
		LastUpdateTime: s.lastUpdateTime,
		UniqueRoutes:   len(routes),
	}
}

// EvictOlderThan drops positions whose timestamp is before cutoff and returns how many went
func (s *Store) EvictOlderThan(cutoff time.Time) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	evicted := 0
	for vehicleID, vehicle := range s.vehicles {
		if vehicle.Timestamp < cutoff.Unix() {
			delete(s.vehicles, vehicleID)
			evicted++
		}
	}

	return evicted
}
