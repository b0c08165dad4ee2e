package models

import "time"

// TimelinePoint is one bucket of a reachability timeline.
type TimelinePoint struct {
	ClassName string           `json:"className"`
	Label     string           `json:"label"`
	Start     time.Time        `json:"start"`
	End       time.Time        `json:"end"`
	Details   []TimelineDetail `json:"details,omitempty"`
}

// TimelineDetail describes a failed check inside a bucket.
type TimelineDetail struct {
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// AppTimeline is the bucketed history of one app.
type AppTimeline struct {
	AppID    string          `json:"app_id"`
	AppName  string          `json:"app_name"`
	Timeline []TimelinePoint `json:"timeline"`
}

// GeneralSample is one recorded internet check.
type GeneralSample struct {
	Online    bool      `json:"online"`
	CheckedAt time.Time `json:"checked_at"`
}
