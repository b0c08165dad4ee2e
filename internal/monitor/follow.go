package monitor

import (
	"context"

	"homedash/internal/dashboard"
)

// EnabledSource exposes the monitoring switch and its change feed.
type EnabledSource interface {
	MonitoringEnabled() bool
	Subscribe() (<-chan dashboard.Change, func())
}

// Follow keeps s running while src reports monitoring as enabled. Every change
// re-reads the flag; Start and Stop are no-ops when the state already matches,
// so app list changes never reset the timer. Follow stops the scheduler and
// returns when ctx ends.
func Follow(ctx context.Context, s *Scheduler, src EnabledSource) {
	changes, cancel := src.Subscribe()
	defer cancel()
	defer s.Stop()

	apply := func() {
		if src.MonitoringEnabled() {
			s.Start()
		} else {
			s.Stop()
		}
	}
	apply()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			apply()
		}
	}
}
