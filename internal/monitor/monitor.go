package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/filecoin-project/go-clock"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"homedash/internal/connectivity"
	"homedash/internal/models"
)

// DefaultInterval is the polling period used when none is configured.
const DefaultInterval = 5 * time.Minute

// AppSource yields the apps configured at the moment of the call.
type AppSource interface {
	Apps() []models.App
}

// TargetChecker runs an orchestrated check against one URL.
type TargetChecker interface {
	Check(ctx context.Context, rawURL string) connectivity.Result
}

// InternetChecker reports general internet reachability.
type InternetChecker interface {
	Online(ctx context.Context) bool
}

// Dependencies are the collaborators a Scheduler needs.
type Dependencies struct {
	Logger   hclog.Logger
	Apps     AppSource
	Checker  TargetChecker
	Internet InternetChecker
	Board    *StatusBoard
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

// Validate ensures the required dependencies are set.
func (d Dependencies) Validate() error {
	var errs []error
	if d.Apps == nil {
		errs = append(errs, errors.New("app source is required"))
	}
	if d.Checker == nil {
		errs = append(errs, errors.New("target checker is required"))
	}
	if d.Internet == nil {
		errs = append(errs, errors.New("internet checker is required"))
	}
	if d.Board == nil {
		errs = append(errs, errors.New("status board is required"))
	}
	return errors.Join(errs...)
}

// Scheduler periodically checks the general internet and every enabled app.
// It is stopped until Start is called.
type Scheduler struct {
	logger   hclog.Logger
	interval time.Duration
	apps     AppSource
	checker  TargetChecker
	internet InternetChecker
	board    *StatusBoard
	clock    clock.Clock

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	// doneCh is closed once the latest run goroutine has returned.
	doneCh chan struct{}

	// generation changes on every Start and Stop; cycles from an older
	// generation drop their results. Board writes hold commitMu for reading,
	// generation changes hold it for writing.
	commitMu   sync.RWMutex
	generation atomic.Uint64
	cycles     atomic.Uint64
}

// New creates a scheduler polling at interval.
func New(deps Dependencies, interval time.Duration) (*Scheduler, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = hclog.NewNullLogger()
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if interval < time.Minute {
		interval = time.Minute
	}

	return &Scheduler{
		logger:   deps.Logger.Named("scheduler"),
		interval: interval,
		apps:     deps.Apps,
		checker:  deps.Checker,
		internet: deps.Internet,
		board:    deps.Board,
		clock:    deps.Clock,
	}, nil
}

// Start runs one cycle straight away and then one per interval. Calling
// Start on a running scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	prev := s.doneCh
	s.doneCh = make(chan struct{})
	gen := s.bump()
	ticker := s.clock.Ticker(s.interval)

	go s.run(ticker, s.stopCh, s.doneCh, prev, gen)
	s.logger.Info("monitoring started", "interval", s.interval)
}

// Stop cancels the timer. Checks already in flight are left to finish but
// their results are discarded. Stop does not wait for them, only for a board
// write that is already under way.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	s.bump()
	close(s.stopCh)
	s.logger.Info("monitoring stopped")
}

// Running reports whether the timer is armed.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Cycles returns how many check cycles have been started.
func (s *Scheduler) Cycles() uint64 {
	return s.cycles.Load()
}

// RunOnce executes a single cycle outside the timer and returns the
// resulting board contents.
func (s *Scheduler) RunOnce(ctx context.Context) models.StatusSnapshot {
	s.runCycle(ctx, s.generation.Load())
	return models.StatusSnapshot{
		GeneratedAt:       s.clock.Now().UTC(),
		MonitoringEnabled: s.Running(),
		General:           s.board.General(),
		Apps:              s.board.Apps(),
	}
}

// run waits for the previous run to drain before its first cycle so that a
// quick Stop and Start never overlaps two cycles.
func (s *Scheduler) run(ticker *clock.Ticker, stopCh <-chan struct{}, done chan<- struct{}, prev <-chan struct{}, gen uint64) {
	defer close(done)
	defer ticker.Stop()

	if prev != nil {
		select {
		case <-prev:
		case <-stopCh:
			return
		}
	}

	s.runCycle(context.Background(), gen)

	for {
		select {
		case <-ticker.C:
			s.runCycle(context.Background(), gen)
		case <-stopCh:
			return
		}
	}
}

func (s *Scheduler) current(gen uint64) bool {
	return s.generation.Load() == gen
}

func (s *Scheduler) bump() uint64 {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	return s.generation.Add(1)
}

// commit runs write only while gen is still current.
func (s *Scheduler) commit(gen uint64, write func()) bool {
	s.commitMu.RLock()
	defer s.commitMu.RUnlock()

	if !s.current(gen) {
		return false
	}
	write()
	return true
}

func (s *Scheduler) runCycle(ctx context.Context, gen uint64) {
	if !s.current(gen) {
		return
	}
	s.cycles.Add(1)
	started := s.clock.Now()

	apps := checkable(s.apps.Apps())
	ids := make([]string, 0, len(apps))
	for _, app := range apps {
		ids = append(ids, app.ID)
	}
	if !s.commit(gen, func() { s.board.Retain(ids) }) {
		return
	}

	var g errgroup.Group
	g.Go(func() error {
		online := s.internet.Online(ctx)
		s.commit(gen, func() { s.board.SetGeneral(online, s.clock.Now()) })
		return nil
	})
	for _, app := range apps {
		app := app
		g.Go(func() error {
			result := s.checker.Check(ctx, app.URL)
			if !s.commit(gen, func() { s.board.SetApp(app.ID, result, s.clock.Now()) }) {
				s.logger.Trace("discarding late result", "app", app.ID)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Debug("check cycle complete", "apps", len(apps), "duration", s.clock.Since(started))
}

func checkable(apps []models.App) []models.App {
	out := make([]models.App, 0, len(apps))
	for _, app := range apps {
		if strings.TrimSpace(app.URL) == "" || !app.CheckEnabled() {
			continue
		}
		out = append(out, app)
	}
	return out
}
