package dashboard

import (
	"sync"
	"time"
)

// ChangeKind names what part of the configuration changed.
type ChangeKind string

const (
	ChangeApps     ChangeKind = "apps"
	ChangeSettings ChangeKind = "settings"
)

// Change is delivered to subscribers after a mutation has been persisted.
type Change struct {
	Kind ChangeKind
	At   time.Time
}

const subscriberBuffer = 16

// Subscribe registers for change notifications. Delivery never blocks the
// writer; a subscriber that falls behind by more than a small buffer misses
// changes. The returned func unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, subscriberBuffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			close(ch)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) publish(kind ChangeKind) {
	change := Change{Kind: kind, At: s.clock.Now()}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- change:
		default:
			s.logger.Debug("subscriber behind, dropping change", "kind", kind)
		}
	}
}
