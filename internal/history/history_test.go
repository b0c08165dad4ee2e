package history_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"homedash/internal/history"
	"homedash/internal/models"
)

var base = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func status(reachable bool, offset time.Duration) models.AppStatus {
	s := models.AppStatus{Reachable: reachable, Method: "fetch", CheckedAt: base.Add(offset)}
	if !reachable {
		s.Method = "fallback"
		s.Error = "All connectivity methods failed"
	}
	return s
}

func TestRecorderKeepsBoundedSeries(t *testing.T) {
	t.Parallel()

	r := history.NewRecorder(3)
	for i := 0; i < 5; i++ {
		r.ObserveApp("nas", status(i%2 == 0, time.Duration(i)*time.Minute))
	}

	samples := r.Apps()["nas"]
	require.Len(t, samples, 3)
	require.Equal(t, base.Add(2*time.Minute), samples[0].CheckedAt)
	require.Equal(t, base.Add(4*time.Minute), samples[2].CheckedAt)

	at := base
	r.ObserveGeneral(models.GeneralStatus{IsOnline: true, LastCheckedAt: &at})
	r.ObserveGeneral(models.GeneralStatus{IsOnline: false})
	require.Equal(t, []models.GeneralSample{{Online: true, CheckedAt: base}}, r.General())

	r.ObserveApp("tv", status(true, 0))
	r.Retain([]string{"tv"})
	require.NotContains(t, r.Apps(), "nas")
	require.Contains(t, r.Apps(), "tv")
}

func TestBuildAppTimelines(t *testing.T) {
	t.Parallel()

	samples := map[string][]models.AppStatus{
		"nas": {
			status(true, 10*time.Minute),
			status(false, 70*time.Minute),
			status(true, 80*time.Minute),
			status(false, 130*time.Minute),
		},
	}
	apps := []models.App{{ID: "nas", Name: "NAS"}, {ID: "cam", Name: "Camera"}}

	timelines := history.BuildAppTimelines(samples, apps, base, base.Add(4*time.Hour), 4)
	require.Len(t, timelines, 2)
	require.Equal(t, "cam", timelines[0].AppID)
	require.Equal(t, "nas", timelines[1].AppID)

	nas := timelines[1].Timeline
	require.Len(t, nas, 4)
	require.Equal(t, "state-success", nas[0].ClassName)
	require.Equal(t, "state-warning", nas[1].ClassName)
	require.Len(t, nas[1].Details, 1)
	require.Equal(t, "state-error", nas[2].ClassName)
	require.Equal(t, "state-missing", nas[3].ClassName)
	require.Equal(t, base.Add(4*time.Hour), nas[3].End)

	for _, point := range timelines[0].Timeline {
		require.Equal(t, "state-missing", point.ClassName)
	}

	require.Nil(t, history.BuildAppTimelines(samples, nil, base, base.Add(time.Hour), 4))
}

func TestBuildGeneralTimelineCarriesRecentState(t *testing.T) {
	t.Parallel()

	samples := []models.GeneralSample{
		{Online: true, CheckedAt: base.Add(-5 * time.Minute)},
		{Online: true, CheckedAt: base.Add(1 * time.Minute)},
		{Online: false, CheckedAt: base.Add(12 * time.Minute)},
	}

	points := history.BuildGeneralTimeline(samples, base, base.Add(60*time.Minute), 6)
	require.Len(t, points, 6)
	require.Equal(t, "state-success", points[0].ClassName)
	require.Equal(t, "state-error", points[1].ClassName)
	require.Len(t, points[1].Details, 1)
	require.Equal(t, "state-error", points[2].ClassName)
	require.Empty(t, points[2].Details)
	require.Equal(t, "state-missing", points[4].ClassName)
	require.Equal(t, "state-missing", points[5].ClassName)
}
