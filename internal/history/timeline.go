package history

import (
	"sort"
	"strings"
	"time"

	"homedash/internal/models"
)

const (
	// DefaultTimelinePoints controls how many dots we generate per app.
	DefaultTimelinePoints = 48
	maxDetailsPerPoint    = 4
)

// BuildAppTimelines converts recorded samples into compact per-app timelines.
// Apps with no samples still get a timeline of empty buckets.
func BuildAppTimelines(
	samples map[string][]models.AppStatus,
	apps []models.App,
	start, end time.Time,
	points int,
) []models.AppTimeline {
	if points <= 0 {
		points = DefaultTimelinePoints
	}
	if !end.After(start) {
		end = start.Add(time.Minute)
	}

	names := make(map[string]string, len(apps))
	for _, app := range apps {
		name := app.Name
		if name == "" {
			name = app.ID
		}
		names[app.ID] = name
	}
	if len(names) == 0 {
		return nil
	}

	ids := make([]string, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return strings.ToLower(names[ids[i]]) < strings.ToLower(names[ids[j]])
	})

	result := make([]models.AppTimeline, 0, len(ids))
	for _, id := range ids {
		result = append(result, models.AppTimeline{
			AppID:    id,
			AppName:  names[id],
			Timeline: buildTimeline(samples[id], start, end, points),
		})
	}
	return result
}

func buildTimeline(samples []models.AppStatus, start, end time.Time, points int) []models.TimelinePoint {
	sorted := append([]models.AppStatus(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CheckedAt.Before(sorted[j].CheckedAt)
	})

	output := make([]models.TimelinePoint, 0, points)
	bucketDuration := bucketSize(start, end, points)

	cursor := 0
	for i := 0; i < points; i++ {
		bucketStart, bucketEnd := bucketBounds(start, end, bucketDuration, i, points)
		var bucket []models.AppStatus
		bucket, cursor = collectBucket(sorted, bucketStart, bucketEnd, cursor)
		class, label, details := evaluateBucket(bucket)
		output = append(output, models.TimelinePoint{
			ClassName: class,
			Label:     label,
			Start:     bucketStart,
			End:       bucketEnd,
			Details:   details,
		})
	}
	return output
}

func bucketSize(start, end time.Time, points int) time.Duration {
	d := end.Sub(start) / time.Duration(points)
	if d <= 0 {
		return time.Minute
	}
	return d
}

func bucketBounds(start, end time.Time, d time.Duration, i, points int) (time.Time, time.Time) {
	bucketStart := start.Add(time.Duration(i) * d)
	bucketEnd := bucketStart.Add(d)
	if i == points-1 {
		bucketEnd = end
	}
	return bucketStart, bucketEnd
}

func collectBucket(samples []models.AppStatus, start, end time.Time, cursor int) ([]models.AppStatus, int) {
	i := cursor
	for i < len(samples) && samples[i].CheckedAt.Before(start) {
		i++
	}
	j := i
	for j < len(samples) && samples[j].CheckedAt.Before(end) {
		j++
	}
	return samples[i:j], j
}

func evaluateBucket(samples []models.AppStatus) (className, label string, details []models.TimelineDetail) {
	if len(samples) == 0 {
		return "state-missing", "No data", nil
	}

	var up, down int
	for _, s := range samples {
		if s.Reachable {
			up++
			continue
		}
		down++
		if len(details) < maxDetailsPerPoint {
			details = append(details, models.TimelineDetail{
				Timestamp: s.CheckedAt,
				Method:    s.Method,
				Error:     s.Error,
			})
		}
	}

	switch {
	case down == 0:
		return "state-success", "Reachable", nil
	case up == 0:
		return "state-error", "Unreachable", details
	default:
		return "state-warning", "Intermittent", details
	}
}

// BuildGeneralTimeline reduces internet check samples into timeline points.
// A bucket without samples inherits the previous result while it is recent
// enough relative to the observed check period.
func BuildGeneralTimeline(samples []models.GeneralSample, start, end time.Time, points int) []models.TimelinePoint {
	if points <= 0 {
		points = DefaultTimelinePoints
	}
	if !end.After(start) {
		end = start.Add(time.Minute)
	}

	sorted := make([]models.GeneralSample, 0, len(samples))
	for _, s := range samples {
		if !s.CheckedAt.IsZero() {
			sorted = append(sorted, s)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CheckedAt.Before(sorted[j].CheckedAt)
	})

	bucketDuration := bucketSize(start, end, points)
	gapThreshold := deriveGap(sorted)

	result := make([]models.TimelinePoint, 0, points)
	idx := 0
	var last models.GeneralSample
	var haveLast bool
	for idx < len(sorted) && sorted[idx].CheckedAt.Before(start) {
		last = sorted[idx]
		haveLast = true
		idx++
	}

	for i := 0; i < points; i++ {
		bucketStart, bucketEnd := bucketBounds(start, end, bucketDuration, i, points)
		point := models.TimelinePoint{
			ClassName: "state-missing",
			Label:     "No data",
			Start:     bucketStart,
			End:       bucketEnd,
		}

		var inBucket []models.GeneralSample
		for idx < len(sorted) && sorted[idx].CheckedAt.Before(bucketEnd) {
			last = sorted[idx]
			haveLast = true
			inBucket = append(inBucket, last)
			idx++
		}

		switch {
		case len(inBucket) > 0:
			point.ClassName, point.Label = generalClass(inBucket[len(inBucket)-1])
			for _, s := range inBucket {
				if !s.Online && len(point.Details) < maxDetailsPerPoint {
					point.Details = append(point.Details, models.TimelineDetail{Timestamp: s.CheckedAt, Error: "offline"})
				}
			}
		case haveLast && bucketStart.Sub(last.CheckedAt) <= gapThreshold:
			point.ClassName, point.Label = generalClass(last)
		}

		result = append(result, point)
	}
	return result
}

func deriveGap(samples []models.GeneralSample) time.Duration {
	const defaultGap = 10 * time.Minute
	if len(samples) < 2 {
		return defaultGap
	}
	diffs := make([]time.Duration, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		if d := samples[i].CheckedAt.Sub(samples[i-1].CheckedAt); d > 0 {
			diffs = append(diffs, d)
		}
	}
	if len(diffs) == 0 {
		return defaultGap
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i] < diffs[j] })

	gap := diffs[len(diffs)/2] * 2
	if gap < time.Minute {
		return time.Minute
	}
	if gap > 2*time.Hour {
		return 2 * time.Hour
	}
	return gap
}

func generalClass(s models.GeneralSample) (className, label string) {
	if s.Online {
		return "state-success", "Online"
	}
	return "state-error", "Offline"
}
