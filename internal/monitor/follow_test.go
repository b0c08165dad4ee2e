package monitor_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/filecoin-project/go-clock"
	"github.com/stretchr/testify/require"

	"homedash/internal/dashboard"
	"homedash/internal/monitor"
)

type switchSource struct {
	enabled atomic.Bool
	changes chan dashboard.Change
}

func (s *switchSource) MonitoringEnabled() bool { return s.enabled.Load() }

func (s *switchSource) Subscribe() (<-chan dashboard.Change, func()) {
	return s.changes, func() {}
}

func (s *switchSource) flip(enabled bool) {
	s.enabled.Store(enabled)
	s.changes <- dashboard.Change{Kind: dashboard.ChangeSettings, At: time.Now()}
}

func TestFollowTracksMonitoringFlag(t *testing.T) {
	t.Parallel()

	s := newScheduler(t, monitor.Dependencies{Apps: &staticApps{}, Clock: clock.NewMock()})
	src := &switchSource{changes: make(chan dashboard.Change)}
	src.enabled.Store(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Follow(ctx, s, src)
		close(done)
	}()

	require.Eventually(t, s.Running, time.Second, 5*time.Millisecond)

	src.flip(false)
	require.Eventually(t, func() bool { return !s.Running() }, time.Second, 5*time.Millisecond)

	src.flip(true)
	require.Eventually(t, s.Running, time.Second, 5*time.Millisecond)

	src.changes <- dashboard.Change{Kind: dashboard.ChangeApps, At: time.Now()}
	require.Never(t, func() bool { return !s.Running() }, 30*time.Millisecond, 5*time.Millisecond)

	cancel()
	<-done
	require.False(t, s.Running())
}

func TestFollowStartsStoppedWhenDisabled(t *testing.T) {
	t.Parallel()

	s := newScheduler(t, monitor.Dependencies{Apps: &staticApps{}, Clock: clock.NewMock()})
	src := &switchSource{changes: make(chan dashboard.Change)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Follow(ctx, s, src)

	require.Never(t, s.Running, 50*time.Millisecond, 5*time.Millisecond)
	close(src.changes)
}
