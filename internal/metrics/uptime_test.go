package metrics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"homedash/internal/metrics"
	"homedash/internal/models"
)

func TestComputeAppUptime(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	samples := map[string][]models.AppStatus{
		"nas": {
			{Reachable: true, Method: "fetch", CheckedAt: at},
			{Reachable: false, Method: "fallback", CheckedAt: at.Add(time.Minute)},
			{Reachable: true, Method: "image", CheckedAt: at.Add(2 * time.Minute)},
		},
	}
	apps := []models.App{{ID: "tv", Name: "TV"}, {ID: "nas", Name: "NAS"}}

	got := metrics.ComputeAppUptime(samples, apps)
	require.Equal(t, []metrics.AppUptime{
		{
			ID:            "nas",
			Name:          "NAS",
			UptimePercent: 66.67,
			TotalChecks:   3,
			Reachable:     2,
			Unreachable:   1,
			LastMethod:    "image",
			LastUpdated:   "2024-06-01T12:02:00Z",
		},
		{ID: "tv", Name: "TV"},
	}, got)

	require.Nil(t, metrics.ComputeAppUptime(samples, nil))
}

func TestSummarizeCategories(t *testing.T) {
	t.Parallel()

	apps := []models.App{
		{ID: "router", Specification: models.Specification{Category: "Network"}},
		{ID: "ap", Specification: models.Specification{Category: "Network"}},
		{ID: "switch", Specification: models.Specification{Category: "Network"}},
		{ID: "misc"},
	}
	statuses := map[string]models.AppStatus{
		"router": {Reachable: true},
		"ap":     {Reachable: false},
	}

	require.Equal(t, []metrics.CategorySummary{
		{Category: "Network", Total: 3, Online: 1, Offline: 1, Unchecked: 1, OnlinePercent: 50},
		{Category: "Uncategorized", Total: 1, Unchecked: 1},
	}, metrics.SummarizeCategories(apps, statuses))

	require.Empty(t, metrics.SummarizeCategories(nil, nil))
}
