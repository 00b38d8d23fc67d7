// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package insights

import (
	"fmt"
	"sort"
	"time"

	"github.com/vishnugarg323/PlayMetric/internal/analytics"
	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/stats"
)

// Session buckets in display order.
var sessionBuckets = []string{"marathon", "standard", "quick", "micro"}

// Lifecycle stages used by the behavior section.
var lifecycleStages = []string{"new", "active", "established", "at_risk", "churned"}

// unknownLastSeen stands in for users that never reported activity.
const unknownLastSeen = 999

const atRiskWarningPercent = 20

func sessionBucket(minutes float64) string {
	switch {
	case minutes > 30:
		return "marathon"
	case minutes > 10:
		return "standard"
	case minutes > 5:
		return "quick"
	default:
		return "micro"
	}
}

// Behavior analyzes session shapes, hourly activity, lifecycle mix and
// event velocity.
func Behavior(snap models.Snapshot, now time.Time) models.BehaviorAnalysis {
	out := models.BehaviorAnalysis{
		SessionPatterns:       SessionPatterns(snap.Events),
		PeakActivityHours:     PeakActivity(snap.Events),
		LifecycleDistribution: Lifecycle(snap.Users, now),
		EngagementVelocity:    Velocity(snap.Users, now),
		KeyFindings:           []string{},
	}

	if dominant, share, ok := dominantSession(out.SessionPatterns); ok {
		out.KeyFindings = append(out.KeyFindings,
			fmt.Sprintf("Dominant session type: %s (%.1f%% of sessions)", dominant, share))
	}
	if out.PeakActivityHours.PeakHourActivity > 0 {
		out.KeyFindings = append(out.KeyFindings,
			fmt.Sprintf("Peak activity at %02d:00 with %d events",
				out.PeakActivityHours.PeakHour, out.PeakActivityHours.PeakHourActivity))
	}
	if atRisk := out.LifecycleDistribution["at_risk"].Percentage; atRisk > atRiskWarningPercent {
		out.KeyFindings = append(out.KeyFindings,
			fmt.Sprintf("Warning: %.1f%% of users are at risk of churning", atRisk))
	}
	return out
}

// SessionPatterns buckets reported session lengths.
func SessionPatterns(events []models.Event) models.SessionPatterns {
	var minutes []float64
	for _, e := range events {
		if p, ok := e.Payload.(models.SessionEnd); ok && p.DurationMs > 0 {
			minutes = append(minutes, float64(p.DurationMs)/60000)
		}
	}

	counts := make(map[string]int, len(sessionBuckets))
	for _, m := range minutes {
		counts[sessionBucket(m)]++
	}
	dist := make(map[string]models.SegmentCount, len(sessionBuckets))
	for _, b := range sessionBuckets {
		dist[b] = models.SegmentCount{
			Count:      counts[b],
			Percentage: stats.Round(stats.SafeDiv(float64(counts[b]), float64(len(minutes)))*100, 2),
		}
	}

	return models.SessionPatterns{
		Distribution:          dist,
		AvgDurationMinutes:    stats.Round(stats.Mean(minutes), 2),
		MedianDurationMinutes: stats.Round(stats.Median(minutes), 2),
		StdDevMinutes:         stats.Round(stats.StdDev(minutes), 2),
	}
}

func dominantSession(p models.SessionPatterns) (string, float64, bool) {
	best, bestCount := "", 0
	for _, b := range sessionBuckets {
		if c := p.Distribution[b].Count; c > bestCount {
			best, bestCount = b, c
		}
	}
	if bestCount == 0 {
		return "", 0, false
	}
	return best, p.Distribution[best].Percentage, true
}

// PeakActivity counts events per UTC hour. Events without a timestamp are
// ignored.
func PeakActivity(events []models.Event) models.PeakHours {
	hourly := make(map[int]int)
	var total int
	for _, e := range events {
		if e.Timestamp.IsZero() {
			continue
		}
		hourly[e.Timestamp.UTC().Hour()]++
		total++
	}

	hours := make([]models.HourActivity, 0, len(hourly))
	for h, c := range hourly {
		hours = append(hours, models.HourActivity{
			Hour:          h,
			ActivityCount: c,
			Percentage:    stats.Round(stats.SafeDiv(float64(c), float64(total))*100, 2),
		})
	}
	sort.Slice(hours, func(i, j int) bool {
		if hours[i].ActivityCount != hours[j].ActivityCount {
			return hours[i].ActivityCount > hours[j].ActivityCount
		}
		return hours[i].Hour < hours[j].Hour
	})
	if len(hours) > 5 {
		hours = hours[:5]
	}

	out := models.PeakHours{TopHours: hours, HourlyDistribution: hourly}
	if len(hours) > 0 {
		out.PeakHour = hours[0].Hour
		out.PeakHourActivity = hours[0].ActivityCount
	}
	return out
}

func lifecycleStage(u models.UserProfile, now time.Time) string {
	sinceLast := unknownLastSeen
	if !u.LastSeen.IsZero() {
		sinceLast = analytics.DaysBetween(u.LastSeen, now)
	}
	sinceJoin := analytics.DaysBetween(u.FirstSeen, now)

	switch {
	case sinceLast > 14:
		return "churned"
	case sinceLast > 7:
		return "at_risk"
	case sinceJoin < 7:
		return "new"
	case sinceJoin < 30:
		return "active"
	default:
		return "established"
	}
}

// Lifecycle distributes users over lifecycle stages.
func Lifecycle(users []models.UserProfile, now time.Time) map[string]models.SegmentCount {
	counts := make(map[string]int, len(lifecycleStages))
	for _, u := range users {
		counts[lifecycleStage(u, now)]++
	}
	out := make(map[string]models.SegmentCount, len(lifecycleStages))
	for _, s := range lifecycleStages {
		out[s] = models.SegmentCount{
			Count:      counts[s],
			Percentage: stats.Round(stats.SafeDiv(float64(counts[s]), float64(len(users)))*100, 2),
		}
	}
	return out
}

// eventsPerDay is the lifetime event rate of a user, counting the join day.
func eventsPerDay(u models.UserProfile, now time.Time) float64 {
	return float64(u.TotalEvents) / float64(analytics.DaysBetween(u.FirstSeen, now)+1)
}

// Velocity summarizes per-user event rates.
func Velocity(users []models.UserProfile, now time.Time) models.EngagementVelocity {
	if len(users) == 0 {
		return models.EngagementVelocity{}
	}
	rates := make([]float64, len(users))
	for i, u := range users {
		rates[i] = eventsPerDay(u, now)
	}
	p75 := stats.Percentile(rates, 75)
	p25 := stats.Percentile(rates, 25)

	out := models.EngagementVelocity{
		AvgEventsPerDay:    stats.Round(stats.Mean(rates), 2),
		MedianEventsPerDay: stats.Round(stats.Median(rates), 2),
	}
	for _, r := range rates {
		if r > p75 {
			out.HighVelocityUsers++
		}
		if r < p25 {
			out.LowVelocityUsers++
		}
	}
	return out
}
