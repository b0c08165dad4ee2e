package monitor

import (
	"maps"
	"sync"
	"time"

	"homedash/internal/connectivity"
	"homedash/internal/models"
)

// Observer is told about every write to a StatusBoard.
type Observer interface {
	ObserveApp(id string, status models.AppStatus)
	ObserveGeneral(status models.GeneralStatus)
	Retain(ids []string)
}

// StatusBoard holds the latest reachability verdict per app plus the general
// internet flag. Every write replaces the previous value for its key.
type StatusBoard struct {
	mu      sync.RWMutex
	apps    map[string]models.AppStatus
	general models.GeneralStatus

	observers []Observer

	watchMu  sync.Mutex
	watchers map[int]chan struct{}
	nextID   int
}

// NewStatusBoard returns an empty board that forwards writes to observers.
func NewStatusBoard(observers ...Observer) *StatusBoard {
	return &StatusBoard{
		apps:      make(map[string]models.AppStatus),
		observers: observers,
		watchers:  make(map[int]chan struct{}),
	}
}

// SetApp records result as the status of app id.
func (b *StatusBoard) SetApp(id string, result connectivity.Result, checkedAt time.Time) {
	status := models.AppStatus{
		Reachable: result.IsReachable,
		Method:    string(result.Method),
		Protocol:  string(result.Protocol),
		Error:     result.Error,
		CheckedAt: checkedAt.UTC(),
	}

	b.mu.Lock()
	b.apps[id] = status
	b.mu.Unlock()

	for _, o := range b.observers {
		o.ObserveApp(id, status)
	}
	b.notify()
}

// SetGeneral records the general internet flag.
func (b *StatusBoard) SetGeneral(online bool, checkedAt time.Time) {
	at := checkedAt.UTC()

	general := models.GeneralStatus{IsOnline: online, LastCheckedAt: &at}

	b.mu.Lock()
	b.general = general
	b.mu.Unlock()

	for _, o := range b.observers {
		o.ObserveGeneral(general)
	}
	b.notify()
}

// Retain drops every app status whose id is not in ids.
func (b *StatusBoard) Retain(ids []string) {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}

	b.mu.Lock()
	maps.DeleteFunc(b.apps, func(id string, _ models.AppStatus) bool {
		_, ok := keep[id]
		return !ok
	})
	b.mu.Unlock()

	for _, o := range b.observers {
		o.Retain(ids)
	}
}

// App returns the status of a single app.
func (b *StatusBoard) App(id string) (models.AppStatus, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	status, ok := b.apps[id]
	return status, ok
}

// Apps returns a copy of every app status.
func (b *StatusBoard) Apps() map[string]models.AppStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return maps.Clone(b.apps)
}

// Reachability returns the plain app id to reachable map.
func (b *StatusBoard) Reachability() map[string]bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]bool, len(b.apps))
	for id, status := range b.apps {
		out[id] = status.Reachable
	}
	return out
}

// General returns the general internet flag.
func (b *StatusBoard) General() models.GeneralStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.general
}

// Subscribe returns a channel that receives a signal after board writes.
// Signals coalesce; slow readers see at least one pending signal.
func (b *StatusBoard) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	b.watchMu.Lock()
	id := b.nextID
	b.nextID++
	b.watchers[id] = ch
	b.watchMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.watchMu.Lock()
			delete(b.watchers, id)
			b.watchMu.Unlock()
		})
	}
}

func (b *StatusBoard) notify() {
	b.watchMu.Lock()
	defer b.watchMu.Unlock()

	for _, ch := range b.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
