package models

import "time"

// AppStatus is the last known reachability of one app.
type AppStatus struct {
	Reachable bool      `json:"reachable"`
	Method    string    `json:"method,omitempty"`
	Protocol  string    `json:"protocol,omitempty"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// GeneralStatus captures the general internet reachability flag.
type GeneralStatus struct {
	IsOnline      bool       `json:"is_online"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
}

// StatusSnapshot is a point-in-time copy of every status the dashboard shows.
type StatusSnapshot struct {
	GeneratedAt       time.Time            `json:"generated_at"`
	MonitoringEnabled bool                 `json:"monitoring_enabled"`
	General           GeneralStatus        `json:"general"`
	Apps              map[string]AppStatus `json:"apps"`
}
