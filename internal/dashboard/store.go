package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/filecoin-project/go-clock"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"homedash/internal/models"
	"homedash/internal/storage"
)

var (
	// ErrAppNotFound is returned when an app id is unknown.
	ErrAppNotFound = errors.New("app not found")
	// ErrInvalidConfig wraps every validation failure of app input or imports.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnsupportedFormat is returned for export/import formats other than json and yaml.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Store is the single source of truth for apps and dashboard settings. Every
// mutation is persisted through the backend before it becomes visible.
type Store struct {
	logger  hclog.Logger
	backend storage.Backend
	clock   clock.Clock

	mu       sync.RWMutex
	apps     []models.App
	settings models.Settings

	subMu   sync.Mutex
	subs    map[int]chan Change
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewStore creates a store over backend. Call Load before use.
func NewStore(logger hclog.Logger, backend storage.Backend, opts ...Option) *Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := &Store{
		logger:  logger.Named("dashboard"),
		backend: backend,
		clock:   clock.New(),
		subs:    make(map[int]chan Change),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.apps = DefaultApps()
	s.settings = DefaultSettings(s.clock.Now())
	return s
}

// Load reads apps and settings from the backend. Stored apps missing an id or
// a name are dropped; when none survive the defaults are used.
func (s *Store) Load(ctx context.Context) error {
	stored, found, err := s.backend.LoadApps(ctx)
	if err != nil {
		return fmt.Errorf("load apps: %w", err)
	}
	apps := DefaultApps()
	if found {
		valid := slices.DeleteFunc(slices.Clone(stored), func(app models.App) bool {
			return validateApp(app) != nil
		})
		if dropped := len(stored) - len(valid); dropped > 0 {
			s.logger.Warn("dropping invalid stored apps", "count", dropped)
		}
		if len(valid) > 0 {
			apps = valid
		}
	}

	settings, found, err := s.backend.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if found {
		settings = withDefaultMetadata(settings, s.clock.Now())
	} else {
		settings = DefaultSettings(s.clock.Now())
	}

	s.mu.Lock()
	s.apps = apps
	s.settings = settings
	s.mu.Unlock()

	s.logger.Info("configuration loaded", "apps", len(apps), "monitoring", settings.NetworkCheckEnabled)
	return nil
}

// Apps returns a copy of the configured apps in display order.
func (s *Store) Apps() []models.App {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.apps)
}

// App returns the app with id.
func (s *Store) App(id string) (models.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.App{}, fmt.Errorf("%w: %s", ErrAppNotFound, id)
	}
	return s.apps[i], nil
}

// AppsByCategory returns the apps whose specification category equals category.
func (s *Store) AppsByCategory(category string) []models.App {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.App, 0)
	for _, app := range s.apps {
		if app.Specification.Category == category {
			out = append(out, app)
		}
	}
	return out
}

// Categories returns the distinct app categories in first-seen order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.apps))
	out := make([]string, 0)
	for _, app := range s.apps {
		c := app.Specification.Category
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Settings returns the dashboard settings.
func (s *Store) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// MonitoringEnabled reports the process-wide connectivity monitoring switch.
func (s *Store) MonitoringEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.NetworkCheckEnabled
}

// AppInput carries the user-editable fields of a new app.
type AppInput struct {
	Name                string               `json:"name"`
	Description         string               `json:"description"`
	Icon                string               `json:"icon"`
	AccentColor         string               `json:"accentColor"`
	URL                 string               `json:"url"`
	NetworkCheckEnabled *bool                `json:"networkCheckEnabled,omitempty"`
	Specification       models.Specification `json:"specification"`
	ColorScheme         *models.ColorScheme  `json:"colorScheme,omitempty"`
}

// AddApp appends a custom app and returns its generated id.
func (s *Store) AddApp(ctx context.Context, in AppInput) (string, error) {
	app := models.App{
		ID:                  "app-" + uuid.NewString(),
		Name:                strings.TrimSpace(in.Name),
		Description:         in.Description,
		Icon:                in.Icon,
		AccentColor:         in.AccentColor,
		URL:                 strings.TrimSpace(in.URL),
		NetworkCheckEnabled: in.NetworkCheckEnabled,
		Specification:       in.Specification,
		ColorScheme:         in.ColorScheme,
		LastModified:        models.Timestamp(s.clock.Now()),
		IsCustom:            true,
	}
	if err := validateApp(app); err != nil {
		return "", err
	}

	err := s.mutateApps(ctx, func(apps []models.App) ([]models.App, error) {
		return append(apps, app), nil
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("app added", "id", app.ID, "name", app.Name)
	return app.ID, nil
}

// AppPatch lists the fields to change on an app; nil fields are left alone.
type AppPatch struct {
	Name                *string               `json:"name,omitempty"`
	Description         *string               `json:"description,omitempty"`
	Icon                *string               `json:"icon,omitempty"`
	AccentColor         *string               `json:"accentColor,omitempty"`
	URL                 *string               `json:"url,omitempty"`
	NetworkCheckEnabled *bool                 `json:"networkCheckEnabled,omitempty"`
	Specification       *models.Specification `json:"specification,omitempty"`
	ColorScheme         *models.ColorScheme   `json:"colorScheme,omitempty"`
}

func (p AppPatch) apply(app models.App) models.App {
	if p.Name != nil {
		app.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		app.Description = *p.Description
	}
	if p.Icon != nil {
		app.Icon = *p.Icon
	}
	if p.AccentColor != nil {
		app.AccentColor = *p.AccentColor
	}
	if p.URL != nil {
		app.URL = strings.TrimSpace(*p.URL)
	}
	if p.NetworkCheckEnabled != nil {
		enabled := *p.NetworkCheckEnabled
		app.NetworkCheckEnabled = &enabled
	}
	if p.Specification != nil {
		app.Specification = *p.Specification
	}
	if p.ColorScheme != nil {
		scheme := *p.ColorScheme
		app.ColorScheme = &scheme
	}
	return app
}

// UpdateApp applies patch to the app with id and returns the result.
func (s *Store) UpdateApp(ctx context.Context, id string, patch AppPatch) (models.App, error) {
	var updated models.App
	err := s.mutateApps(ctx, func(apps []models.App) ([]models.App, error) {
		i := slices.IndexFunc(apps, func(app models.App) bool { return app.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrAppNotFound, id)
		}
		next := patch.apply(apps[i])
		next.LastModified = models.Timestamp(s.clock.Now())
		if err := validateApp(next); err != nil {
			return nil, err
		}
		apps[i] = next
		updated = next
		return apps, nil
	})
	if err != nil {
		return models.App{}, err
	}
	s.logger.Info("app updated", "id", id)
	return updated, nil
}

// DeleteApp removes the app with id.
func (s *Store) DeleteApp(ctx context.Context, id string) error {
	err := s.mutateApps(ctx, func(apps []models.App) ([]models.App, error) {
		i := slices.IndexFunc(apps, func(app models.App) bool { return app.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrAppNotFound, id)
		}
		return slices.Delete(apps, i, i+1), nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("app deleted", "id", id)
	return nil
}

// ResetApps restores the default app list.
func (s *Store) ResetApps(ctx context.Context) error {
	return s.mutateApps(ctx, func([]models.App) ([]models.App, error) {
		return DefaultApps(), nil
	})
}

// SettingsPatch lists the settings to change; nil fields are left alone.
type SettingsPatch struct {
	Title               *string       `json:"title,omitempty"`
	Subtitle            *string       `json:"subtitle,omitempty"`
	Footer              *string       `json:"footer,omitempty"`
	NetworkCheckEnabled *bool         `json:"networkCheckEnabled,omitempty"`
	Theme               *models.Theme `json:"theme,omitempty"`
}

// UpdateSettings applies patch and stamps the settings as modified.
func (s *Store) UpdateSettings(ctx context.Context, patch SettingsPatch) (models.Settings, error) {
	s.mu.Lock()
	next := s.settings
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Subtitle != nil {
		next.Subtitle = *patch.Subtitle
	}
	if patch.Footer != nil {
		next.Footer = *patch.Footer
	}
	if patch.NetworkCheckEnabled != nil {
		next.NetworkCheckEnabled = *patch.NetworkCheckEnabled
	}
	if patch.Theme != nil {
		theme := *patch.Theme
		next.Theme = &theme
	}
	next = touch(next, s.clock.Now())

	if err := s.backend.SaveSettings(ctx, next); err != nil {
		s.mu.Unlock()
		return models.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.settings = next
	s.mu.Unlock()

	s.publish(ChangeSettings)
	return next, nil
}

// ResetSettings restores the default dashboard settings.
func (s *Store) ResetSettings(ctx context.Context) error {
	s.mu.Lock()
	next := DefaultSettings(s.clock.Now())
	if err := s.backend.SaveSettings(ctx, next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save settings: %w", err)
	}
	s.settings = next
	s.mu.Unlock()

	s.publish(ChangeSettings)
	return nil
}

// ResetAll restores default apps and settings.
func (s *Store) ResetAll(ctx context.Context) error {
	if err := s.ResetApps(ctx); err != nil {
		return err
	}
	return s.ResetSettings(ctx)
}

// replace swaps apps and settings wholesale.
func (s *Store) replace(ctx context.Context, apps []models.App, settings models.Settings) error {
	s.mu.Lock()
	if err := s.backend.SaveApps(ctx, apps); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save apps: %w", err)
	}
	if err := s.backend.SaveSettings(ctx, settings); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save settings: %w", err)
	}
	s.apps = slices.Clone(apps)
	s.settings = settings
	s.mu.Unlock()

	s.publish(ChangeApps)
	s.publish(ChangeSettings)
	return nil
}

func (s *Store) mutateApps(ctx context.Context, fn func([]models.App) ([]models.App, error)) error {
	s.mu.Lock()
	next, err := fn(slices.Clone(s.apps))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.backend.SaveApps(ctx, next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save apps: %w", err)
	}
	s.apps = next
	s.mu.Unlock()

	s.publish(ChangeApps)
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.apps, func(app models.App) bool { return app.ID == id })
}

func validateApp(app models.App) error {
	var errs []error
	if strings.TrimSpace(app.ID) == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if strings.TrimSpace(app.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: app %q: %w", ErrInvalidConfig, app.ID, err)
	}
	return nil
}

func withDefaultMetadata(settings models.Settings, now time.Time) models.Settings {
	if settings.Metadata == nil {
		settings.Metadata = &models.SettingsMetadata{
			ConfigVersion: models.ConfigVersion,
			LastModified:  models.Timestamp(now),
		}
	}
	if settings.Metadata.ConfigVersion == "" {
		meta := *settings.Metadata
		meta.ConfigVersion = models.ConfigVersion
		settings.Metadata = &meta
	}
	return settings
}

func touch(settings models.Settings, now time.Time) models.Settings {
	settings = withDefaultMetadata(settings, now)
	meta := *settings.Metadata
	meta.LastModified = models.Timestamp(now)
	settings.Metadata = &meta
	return settings
}
