package history

import (
	"slices"
	"sync"

	"homedash/internal/models"
)

// DefaultRetention keeps a day of samples at the default five minute period.
const DefaultRetention = 288

// Recorder keeps the most recent check results per app and for the general
// internet check. It satisfies monitor.Observer.
type Recorder struct {
	mu        sync.RWMutex
	retention int
	apps      map[string][]models.AppStatus
	general   []models.GeneralSample
}

// NewRecorder keeps at most retention samples per series.
func NewRecorder(retention int) *Recorder {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Recorder{
		retention: retention,
		apps:      make(map[string][]models.AppStatus),
	}
}

// ObserveApp appends status to the app's series.
func (r *Recorder) ObserveApp(id string, status models.AppStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[id] = trim(append(r.apps[id], status), r.retention)
}

// ObserveGeneral appends an internet check result.
func (r *Recorder) ObserveGeneral(status models.GeneralStatus) {
	if status.LastCheckedAt == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.general = trim(append(r.general, models.GeneralSample{
		Online:    status.IsOnline,
		CheckedAt: *status.LastCheckedAt,
	}), r.retention)
}

// Retain drops the series of apps not in ids.
func (r *Recorder) Retain(ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.apps {
		if !slices.Contains(ids, id) {
			delete(r.apps, id)
		}
	}
}

// Apps returns a copy of every app series.
func (r *Recorder) Apps() map[string][]models.AppStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]models.AppStatus, len(r.apps))
	for id, samples := range r.apps {
		out[id] = slices.Clone(samples)
	}
	return out
}

// General returns a copy of the internet check series.
func (r *Recorder) General() []models.GeneralSample {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.general)
}

func trim[T any](samples []T, limit int) []T {
	if len(samples) <= limit {
		return samples
	}
	return slices.Clone(samples[len(samples)-limit:])
}
