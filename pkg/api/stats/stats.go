package stats

import (
	"github.com/travigo/transittracker/pkg/gtfsindex"
	"github.com/travigo/transittracker/pkg/realtime/vehiclestore"
	"github.com/travigo/transittracker/pkg/servicecalendar"
)

type RecordsStats struct {
	Polling         any                   `json:"polling,omitempty"`
	Repository      gtfsindex.Stats       `json:"repository"`
	ServiceCalendar servicecalendar.Stats `json:"serviceCalendar"`
	Vehicles        vehiclestore.Stats    `json:"vehicles"`
}

// Sources is everything the tracker reports on. Polling is nil when the process
// does not run the poller.
type Sources struct {
	Repository gtfsindex.Repository
	Calendar   *servicecalendar.Service
	Vehicles   *vehiclestore.Store
	Polling    func() any
}

func (s Sources) Current() RecordsStats {
	stats := RecordsStats{
		Repository:      s.Repository.Stats(),
		ServiceCalendar: s.Calendar.Stats(s.Calendar.Today()),
		Vehicles:        s.Vehicles.Stats(),
	}

	if s.Polling != nil {
		stats.Polling = s.Polling()
	}

	return stats
}
