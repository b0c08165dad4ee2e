package metrics

import (
	"math"
	"sort"
	"time"

	"homedash/internal/models"
)

// AppUptime summarises the recorded reachability of one app.
type AppUptime struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	UptimePercent float64 `json:"uptime_percent"`
	TotalChecks   int     `json:"total_checks"`
	Reachable     int     `json:"reachable"`
	Unreachable   int     `json:"unreachable"`
	LastMethod    string  `json:"last_method,omitempty"`
	LastUpdated   string  `json:"last_updated,omitempty"`
}

// ComputeAppUptime aggregates uptime statistics per configured app from
// recorded samples. Apps are ordered by id.
func ComputeAppUptime(samples map[string][]models.AppStatus, apps []models.App) []AppUptime {
	if len(apps) == 0 {
		return nil
	}
	sorted := append([]models.App(nil), apps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	results := make([]AppUptime, 0, len(sorted))
	for _, app := range sorted {
		result := AppUptime{ID: app.ID, Name: app.Name}

		var lastTime time.Time
		for _, s := range samples[app.ID] {
			if s.Reachable {
				result.Reachable++
			} else {
				result.Unreachable++
			}
			if !s.CheckedAt.Before(lastTime) {
				lastTime = s.CheckedAt
				result.LastMethod = s.Method
			}
		}

		result.TotalChecks = result.Reachable + result.Unreachable
		if result.TotalChecks > 0 {
			result.UptimePercent = round2(float64(result.Reachable) / float64(result.TotalChecks) * 100)
		}
		if !lastTime.IsZero() {
			result.LastUpdated = lastTime.UTC().Format(time.RFC3339)
		}
		results = append(results, result)
	}
	return results
}

// CategorySummary counts the apps of one category by their latest status.
type CategorySummary struct {
	Category      string  `json:"category"`
	Total         int     `json:"total"`
	Online        int     `json:"online"`
	Offline       int     `json:"offline"`
	Unchecked     int     `json:"unchecked"`
	OnlinePercent float64 `json:"online_percent"`
}

// SummarizeCategories groups apps by specification category, in first-seen
// order. Apps without a status count as unchecked and are left out of the
// percentage.
func SummarizeCategories(apps []models.App, statuses map[string]models.AppStatus) []CategorySummary {
	index := make(map[string]int)
	out := make([]CategorySummary, 0)

	for _, app := range apps {
		category := app.Specification.Category
		if category == "" {
			category = "Uncategorized"
		}
		i, ok := index[category]
		if !ok {
			i = len(out)
			index[category] = i
			out = append(out, CategorySummary{Category: category})
		}

		summary := &out[i]
		summary.Total++
		status, checked := statuses[app.ID]
		switch {
		case !checked:
			summary.Unchecked++
		case status.Reachable:
			summary.Online++
		default:
			summary.Offline++
		}
	}

	for i := range out {
		if checked := out[i].Online + out[i].Offline; checked > 0 {
			out[i].OnlinePercent = round2(float64(out[i].Online) / float64(checked) * 100)
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
