package vehiclestore

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartJanitor evicts positions older than retention every interval until ctx is done.
// A zero retention disables eviction.
func (s *Store) StartJanitor(ctx context.Context, retention time.Duration, interval time.Duration) {
	if retention <= 0 {
		return
	}

	log.Info().Dur("retention", retention).Msg("Starting vehicle store janitor")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := s.EvictOlderThan(s.now().Add(-retention))

			if evicted != 0 {
				log.Info().Int("evicted", evicted).Msg("Evicted stale vehicles")
			}
		}
	}
}
