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

const (
	minSegmentationUsers = 5
	maxClusters          = 4

	retainedWithinDays = 14
	driverRatio        = 1.5
)

// Cluster feature columns.
const (
	colSessions = iota
	colEvents
	colSpend
	colDaily
	numCols
)

func profileName(sessions, spend, daily float64) string {
	switch {
	case spend > 10:
		return "Whales (High Spenders)"
	case daily > 50:
		return "Super Engaged"
	case sessions > 15:
		return "Engaged Players"
	case sessions > 5:
		return "Casual Players"
	default:
		return "New/Inactive"
	}
}

// Segment clusters users with k-means over standardized sessions, events,
// spend and daily event rate, then names each cluster by its raw averages.
func Segment(snap models.Snapshot, now time.Time) models.MLSegmentation {
	if len(snap.Users) < minSegmentationUsers {
		return models.MLSegmentation{Status: models.StatusInsufficientData, MinRequired: minSegmentationUsers}
	}

	spend := analytics.UserSpend(snap.Events)
	raw := make([][]float64, len(snap.Users))
	for i, u := range snap.Users {
		row := make([]float64, numCols)
		row[colSessions] = float64(u.TotalSessions)
		row[colEvents] = float64(u.TotalEvents)
		row[colSpend] = spend[u.UserID]
		row[colDaily] = eventsPerDay(u, now)
		raw[i] = row
	}

	var scaler stats.StandardScaler
	res := KMeans(scaler.FitTransform(raw), DefaultKMeansParams(min(maxClusters, len(raw))))

	members := make(map[int][]int)
	for i, c := range res.Labels {
		members[c] = append(members[c], i)
	}

	profiles := make([]models.SegmentProfile, 0, len(members))
	for _, idx := range members {
		var sums [numCols]float64
		ids := make([]string, 0, len(idx))
		for _, i := range idx {
			for c := range sums {
				sums[c] += raw[i][c]
			}
			ids = append(ids, snap.Users[i].UserID)
		}
		n := float64(len(idx))
		sort.Strings(ids)
		profiles = append(profiles, models.SegmentProfile{
			Name:             profileName(sums[colSessions]/n, sums[colSpend]/n, sums[colDaily]/n),
			Size:             len(idx),
			AvgSessions:      stats.Round(sums[colSessions]/n, 2),
			AvgEvents:        stats.Round(sums[colEvents]/n, 2),
			AvgSpending:      stats.Round(sums[colSpend]/n, 2),
			AvgDailyActivity: stats.Round(sums[colDaily]/n, 2),
			UserIDs:          ids,
		})
	}
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].Size != profiles[j].Size {
			return profiles[i].Size > profiles[j].Size
		}
		if profiles[i].Name != profiles[j].Name {
			return profiles[i].Name < profiles[j].Name
		}
		return profiles[i].UserIDs[0] < profiles[j].UserIDs[0]
	})

	return models.MLSegmentation{
		Status:    models.StatusSuccess,
		NSegments: len(profiles),
		Segments:  profiles,
	}
}

func impact(retained, churned []float64) models.ImpactComparison {
	r, c := stats.Mean(retained), stats.Mean(churned)
	return models.ImpactComparison{
		RetainedAvg: stats.Round(r, 2),
		ChurnedAvg:  stats.Round(c, 2),
		Difference:  stats.Round(r-c, 2),
	}
}

// RetentionDrivers contrasts users active in the last two weeks with the
// rest. Users that never reported activity count as churned.
func RetentionDrivers(users []models.UserProfile, now time.Time) models.RetentionDrivers {
	cutoff := now.Add(-retainedWithinDays * 24 * time.Hour)

	var retained, churned []models.UserProfile
	for _, u := range users {
		if u.LastSeen.After(cutoff) {
			retained = append(retained, u)
		} else {
			churned = append(churned, u)
		}
	}
	out := models.RetentionDrivers{
		RetainedUsers: len(retained),
		ChurnedUsers:  len(churned),
		KeyDrivers:    []string{},
	}
	if len(retained) == 0 || len(churned) == 0 {
		out.Status = models.StatusInsufficientData
		return out
	}
	out.Status = models.StatusSuccess

	sessions := func(us []models.UserProfile) []float64 {
		xs := make([]float64, len(us))
		for i, u := range us {
			xs[i] = float64(u.TotalSessions)
		}
		return xs
	}
	events := func(us []models.UserProfile) []float64 {
		xs := make([]float64, len(us))
		for i, u := range us {
			xs[i] = float64(u.TotalEvents)
		}
		return xs
	}
	out.SessionImpact = impact(sessions(retained), sessions(churned))
	out.EventImpact = impact(events(retained), events(churned))

	rs, cs := stats.Mean(sessions(retained)), stats.Mean(sessions(churned))
	switch {
	case cs > 0 && rs > cs*driverRatio:
		out.KeyDrivers = append(out.KeyDrivers, fmt.Sprintf(
			"Session frequency strongly correlated with retention (retained users have %.0f%% more sessions)",
			(rs/cs-1)*100))
	case cs == 0 && rs > 0:
		out.KeyDrivers = append(out.KeyDrivers,
			"Session frequency strongly correlated with retention (churned users recorded no sessions)")
	}

	if platform, ratio, ok := bestPlatform(retained, churned); ok {
		out.KeyDrivers = append(out.KeyDrivers, fmt.Sprintf(
			"Platform '%s' shows higher retention (%.1fx better than others)", platform, ratio))
	}

	if len(out.KeyDrivers) == 0 {
		out.KeyDrivers = append(out.KeyDrivers, "Need more data to identify specific drivers")
	}
	return out
}

// bestPlatform finds the platform whose retained to churned ratio is highest
// among platforms present on both sides.
func bestPlatform(retained, churned []models.UserProfile) (string, float64, bool) {
	count := func(us []models.UserProfile) map[string]int {
		m := make(map[string]int)
		for _, u := range us {
			if u.Platform != "" {
				m[u.Platform]++
			}
		}
		return m
	}
	r, c := count(retained), count(churned)

	names := make([]string, 0, len(r))
	for p := range r {
		if c[p] > 0 {
			names = append(names, p)
		}
	}
	sort.Strings(names)

	best, bestRatio := "", 0.0
	for _, p := range names {
		if ratio := float64(r[p]) / float64(c[p]); ratio > bestRatio {
			best, bestRatio = p, ratio
		}
	}
	if best == "" || bestRatio <= driverRatio {
		return "", 0, false
	}
	return best, bestRatio, true
}
