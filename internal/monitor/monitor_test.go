package monitor_test

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/filecoin-project/go-clock"
	"github.com/stretchr/testify/require"

	"homedash/internal/connectivity"
	"homedash/internal/models"
	"homedash/internal/monitor"
)

type staticApps struct {
	mu   sync.Mutex
	apps []models.App
}

func (s *staticApps) Apps() []models.App {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.App(nil), s.apps...)
}

func (s *staticApps) set(apps ...models.App) {
	s.mu.Lock()
	s.apps = apps
	s.mu.Unlock()
}

type checkerFunc func(ctx context.Context, rawURL string) connectivity.Result

func (f checkerFunc) Check(ctx context.Context, rawURL string) connectivity.Result {
	return f(ctx, rawURL)
}

type internetFunc func(ctx context.Context) bool

func (f internetFunc) Online(ctx context.Context) bool { return f(ctx) }

func reachable(context.Context, string) connectivity.Result {
	return connectivity.Result{IsReachable: true, Method: connectivity.MethodFetch}
}

func online(context.Context) bool { return true }

func newScheduler(t *testing.T, deps monitor.Dependencies) *monitor.Scheduler {
	t.Helper()

	if deps.Board == nil {
		deps.Board = monitor.NewStatusBoard()
	}
	if deps.Checker == nil {
		deps.Checker = checkerFunc(reachable)
	}
	if deps.Internet == nil {
		deps.Internet = internetFunc(online)
	}
	s, err := monitor.New(deps, monitor.DefaultInterval)
	require.NoError(t, err)
	t.Cleanup(s.Stop)
	return s
}

func TestNewValidatesDependencies(t *testing.T) {
	t.Parallel()

	_, err := monitor.New(monitor.Dependencies{}, 0)
	require.Error(t, err)
	require.ErrorContains(t, err, "app source is required")
	require.ErrorContains(t, err, "status board is required")
}

func TestSchedulerStartsStopped(t *testing.T) {
	t.Parallel()

	s := newScheduler(t, monitor.Dependencies{Apps: &staticApps{}, Clock: clock.NewMock()})
	require.False(t, s.Running())
	require.Zero(t, s.Cycles())
}

func TestSchedulerCadence(t *testing.T) {
	t.Parallel()

	mock := clock.NewMock()
	apps := &staticApps{}
	apps.set(models.App{ID: "nas", URL: "http://nas.local"})
	s := newScheduler(t, monitor.Dependencies{Apps: apps, Clock: mock})

	s.Start()
	s.Start()
	require.True(t, s.Running())
	require.Eventually(t, func() bool { return s.Cycles() == 1 }, time.Second, 5*time.Millisecond)

	mock.Add(monitor.DefaultInterval - time.Second)
	require.Never(t, func() bool { return s.Cycles() > 1 }, 50*time.Millisecond, 5*time.Millisecond)

	mock.Add(time.Second)
	require.Eventually(t, func() bool { return s.Cycles() == 2 }, time.Second, 5*time.Millisecond)

	apps.set(models.App{ID: "nas", URL: "http://nas.local"}, models.App{ID: "tv", URL: "http://10.0.0.9"})
	require.Never(t, func() bool { return s.Cycles() > 2 }, 50*time.Millisecond, 5*time.Millisecond)

	s.Stop()
	require.False(t, s.Running())
	mock.Add(3 * monitor.DefaultInterval)
	require.Never(t, func() bool { return s.Cycles() > 2 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestIntervalIsClampedToOneMinute(t *testing.T) {
	t.Parallel()

	mock := clock.NewMock()
	s, err := monitor.New(monitor.Dependencies{
		Apps:     &staticApps{},
		Checker:  checkerFunc(reachable),
		Internet: internetFunc(online),
		Board:    monitor.NewStatusBoard(),
		Clock:    mock,
	}, time.Second)
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	s.Start()
	require.Eventually(t, func() bool { return s.Cycles() == 1 }, time.Second, 5*time.Millisecond)
	mock.Add(30 * time.Second)
	require.Never(t, func() bool { return s.Cycles() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	mock.Add(30 * time.Second)
	require.Eventually(t, func() bool { return s.Cycles() == 2 }, time.Second, 5*time.Millisecond)
}

func TestRunOnceChecksEnabledAppsOnly(t *testing.T) {
	t.Parallel()

	disabled := false
	apps := &staticApps{}
	apps.set(
		models.App{ID: "router", URL: "http://192.168.1.1"},
		models.App{ID: "blank", URL: "   "},
		models.App{ID: "off", URL: "http://10.0.0.7", NetworkCheckEnabled: &disabled},
		models.App{ID: "cloud", URL: "https://example.com"},
	)

	var mu sync.Mutex
	checked := map[string]bool{}
	board := monitor.NewStatusBoard()
	s := newScheduler(t, monitor.Dependencies{
		Apps:  apps,
		Board: board,
		Checker: checkerFunc(func(_ context.Context, raw string) connectivity.Result {
			mu.Lock()
			checked[raw] = true
			mu.Unlock()
			return connectivity.Result{IsReachable: raw == "http://192.168.1.1", Method: connectivity.MethodFetch}
		}),
		Internet: internetFunc(func(context.Context) bool { return false }),
	})

	snap := s.RunOnce(context.Background())

	require.Equal(t, map[string]bool{"http://192.168.1.1": true, "https://example.com": true}, checked)
	require.Equal(t, map[string]bool{"router": true, "cloud": false}, board.Reachability())
	require.False(t, snap.General.IsOnline)
	require.NotNil(t, snap.General.LastCheckedAt)
	require.False(t, snap.MonitoringEnabled)
	require.Len(t, snap.Apps, 2)
}

func TestRemovedAppsLeaveTheBoard(t *testing.T) {
	t.Parallel()

	apps := &staticApps{}
	apps.set(models.App{ID: "a", URL: "http://10.0.0.1"}, models.App{ID: "b", URL: "http://10.0.0.2"})
	board := monitor.NewStatusBoard()
	s := newScheduler(t, monitor.Dependencies{Apps: apps, Board: board})

	s.RunOnce(context.Background())
	require.Len(t, board.Apps(), 2)

	apps.set(models.App{ID: "b", URL: "http://10.0.0.2"})
	s.RunOnce(context.Background())
	require.Equal(t, map[string]bool{"b": true}, board.Reachability())
}

func TestLateResultsAreDiscardedAfterStop(t *testing.T) {
	t.Parallel()

	apps := &staticApps{}
	apps.set(models.App{ID: "slow", URL: "http://10.0.0.3"})
	board := monitor.NewStatusBoard()

	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	s := newScheduler(t, monitor.Dependencies{
		Apps:  apps,
		Board: board,
		Clock: clock.NewMock(),
		Checker: checkerFunc(func(context.Context, string) connectivity.Result {
			close(started)
			<-release
			finished.Store(true)
			return connectivity.Result{IsReachable: true, Method: connectivity.MethodFetch}
		}),
		Internet: internetFunc(func(context.Context) bool {
			<-release
			return true
		}),
	})

	s.Start()
	<-started
	s.Stop()
	close(release)

	require.Eventually(t, finished.Load, time.Second, 5*time.Millisecond)
	require.Never(t, func() bool {
		_, ok := board.App("slow")
		return ok || board.General().LastCheckedAt != nil
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestOrchestratedCheckFeedsBoard(t *testing.T) {
	t.Parallel()

	never := connectivity.StrategyFunc(func(context.Context, *url.URL, time.Duration) bool { return false })
	always := connectivity.StrategyFunc(func(context.Context, *url.URL, time.Duration) bool { return true })
	checker := connectivity.NewChecker(nil,
		connectivity.WithStrategies(never, always, never),
		connectivity.WithDefaults(connectivity.Options{Timeout: time.Second, RetryDelay: time.Millisecond}),
	)

	apps := &staticApps{}
	apps.set(models.App{ID: "a", URL: "http://10.0.0.5"})
	board := monitor.NewStatusBoard()
	s := newScheduler(t, monitor.Dependencies{Apps: apps, Board: board, Checker: checker})

	s.RunOnce(context.Background())

	status, ok := board.App("a")
	require.True(t, ok)
	require.True(t, status.Reachable)
	require.Equal(t, string(connectivity.MethodImage), status.Method)
	require.Equal(t, map[string]bool{"a": true}, board.Reachability())
}

type blockingObserver struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (o *blockingObserver) ObserveApp(string, models.AppStatus) {
	o.once.Do(func() { close(o.entered) })
	<-o.release
}

func (o *blockingObserver) ObserveGeneral(models.GeneralStatus) {}

func (o *blockingObserver) Retain([]string) {}

func TestStopWaitsForBoardWriteInProgress(t *testing.T) {
	t.Parallel()

	apps := &staticApps{}
	apps.set(models.App{ID: "nas", URL: "http://nas.local"})
	observer := &blockingObserver{entered: make(chan struct{}), release: make(chan struct{})}
	board := monitor.NewStatusBoard(observer)
	s := newScheduler(t, monitor.Dependencies{Apps: apps, Board: board, Clock: clock.NewMock()})

	s.Start()
	<-observer.entered

	var stopped atomic.Bool
	go func() {
		s.Stop()
		stopped.Store(true)
	}()
	require.Never(t, stopped.Load, 50*time.Millisecond, 5*time.Millisecond)

	close(observer.release)
	require.Eventually(t, stopped.Load, time.Second, 5*time.Millisecond)
	require.False(t, s.Running())

	_, ok := board.App("nas")
	require.True(t, ok)
}

func TestRestartDoesNotOverlapCycles(t *testing.T) {
	t.Parallel()

	apps := &staticApps{}
	apps.set(models.App{ID: "nas", URL: "http://nas.local"})

	var (
		mu       sync.Mutex
		inFlight int
		peak     int
		calls    int
	)
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	s := newScheduler(t, monitor.Dependencies{
		Apps:  apps,
		Clock: clock.NewMock(),
		Checker: checkerFunc(func(context.Context, string) connectivity.Result {
			mu.Lock()
			inFlight++
			calls++
			peak = max(peak, inFlight)
			mu.Unlock()
			entered <- struct{}{}

			<-release

			mu.Lock()
			inFlight--
			mu.Unlock()
			return connectivity.Result{IsReachable: true, Method: connectivity.MethodFetch}
		}),
	})

	s.Start()
	<-entered
	s.Stop()
	s.Start()
	require.True(t, s.Running())

	require.Never(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls > 1
	}, 50*time.Millisecond, 5*time.Millisecond)

	close(release)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return s.Cycles() == 2 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, peak)
}
