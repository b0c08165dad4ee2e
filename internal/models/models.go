package models

import (
	"time"
)

// ConfigVersion is stamped into settings metadata and exported bundles.
const ConfigVersion = "1.0.0"

// App defines a launchable dashboard shortcut.
type App struct {
	ID                  string        `json:"id" yaml:"id"`
	Name                string        `json:"name" yaml:"name"`
	Description         string        `json:"description" yaml:"description"`
	Icon                string        `json:"icon" yaml:"icon"`
	AccentColor         string        `json:"accentColor" yaml:"accentColor"`
	URL                 string        `json:"url" yaml:"url"`
	NetworkCheckEnabled *bool         `json:"networkCheckEnabled,omitempty" yaml:"networkCheckEnabled,omitempty"`
	Specification       Specification `json:"specification" yaml:"specification"`
	ColorScheme         *ColorScheme  `json:"colorScheme,omitempty" yaml:"colorScheme,omitempty"`
	LastModified        string        `json:"lastModified,omitempty" yaml:"lastModified,omitempty"`
	IsCustom            bool          `json:"isCustom,omitempty" yaml:"isCustom,omitempty"`
}

// CheckEnabled reports whether the app takes part in connectivity polling.
// A missing flag counts as enabled.
func (a App) CheckEnabled() bool {
	return a.NetworkCheckEnabled == nil || *a.NetworkCheckEnabled
}

// Specification carries descriptive app metadata.
type Specification struct {
	Category string         `json:"category" yaml:"category"`
	Vendor   string         `json:"vendor" yaml:"vendor"`
	Type     string         `json:"type" yaml:"type"`
	Protocol string         `json:"protocol" yaml:"protocol"`
	Port     *int           `json:"port,omitempty" yaml:"port,omitempty"`
	Version  string         `json:"version,omitempty" yaml:"version,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ColorScheme is an optional extended palette for an app card.
type ColorScheme struct {
	Primary    string `json:"primary" yaml:"primary"`
	Secondary  string `json:"secondary,omitempty" yaml:"secondary,omitempty"`
	Background string `json:"background,omitempty" yaml:"background,omitempty"`
	Text       string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Settings holds dashboard chrome and the monitoring switch.
type Settings struct {
	Title               string            `json:"title" yaml:"title"`
	Subtitle            string            `json:"subtitle" yaml:"subtitle"`
	Footer              string            `json:"footer" yaml:"footer"`
	NetworkCheckEnabled bool              `json:"networkCheckEnabled" yaml:"networkCheckEnabled"`
	Theme               *Theme            `json:"theme,omitempty" yaml:"theme,omitempty"`
	Metadata            *SettingsMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Theme captures display preferences.
type Theme struct {
	ColorScheme  string            `json:"colorScheme,omitempty" yaml:"colorScheme,omitempty"`
	CustomColors map[string]string `json:"customColors,omitempty" yaml:"customColors,omitempty"`
}

// SettingsMetadata tracks settings versioning.
type SettingsMetadata struct {
	ConfigVersion string         `json:"configVersion" yaml:"configVersion"`
	LastModified  string         `json:"lastModified" yaml:"lastModified"`
	Preferences   map[string]any `json:"preferences,omitempty" yaml:"preferences,omitempty"`
}

// Bundle is the export/import document.
type Bundle struct {
	Apps      []App          `json:"apps" yaml:"apps"`
	Dashboard Settings       `json:"dashboard" yaml:"dashboard"`
	Metadata  BundleMetadata `json:"metadata" yaml:"metadata"`
}

// BundleMetadata stamps a bundle with version and transfer times.
type BundleMetadata struct {
	ConfigVersion string `json:"configVersion" yaml:"configVersion"`
	LastExport    string `json:"lastExport,omitempty" yaml:"lastExport,omitempty"`
	LastImport    string `json:"lastImport,omitempty" yaml:"lastImport,omitempty"`
}

// Timestamp formats t the way app and settings records store it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
