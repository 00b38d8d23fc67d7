// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package analytics

import (
	"sort"
	"time"

	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/stats"
)

// Segmentation thresholds.
const (
	WhaleSpendThreshold = 50.0
	NewUserTenureDays   = 7
	DormantAfterDays    = 14
	AtRiskAfterDays     = 7
	EngagedMinSessions  = 20
)

// ClassifyUser assigns additive tags and exactly one lifecycle stage.
// Tags (whale, new) may co-occur with each other and with any stage.
func ClassifyUser(u models.UserProfile, spend float64, now time.Time) models.UserSegment {
	seg := models.UserSegment{UserID: u.UserID, Tags: []models.SegmentTag{}}

	if spend > WhaleSpendThreshold {
		seg.Tags = append(seg.Tags, models.TagWhale)
	}
	if !u.FirstSeen.IsZero() && DaysBetween(u.FirstSeen, now) <= NewUserTenureDays {
		seg.Tags = append(seg.Tags, models.TagNew)
	}

	inactive := DaysBetween(u.LastSeen, now)
	switch {
	case inactive > DormantAfterDays:
		seg.Stage = models.StageDormant
	case inactive > AtRiskAfterDays:
		seg.Stage = models.StageAtRisk
	case u.TotalSessions > EngagedMinSessions:
		seg.Stage = models.StageEngaged
	case u.TotalSessions > 0:
		seg.Stage = models.StageCasual
	default:
		seg.Stage = models.StageUnclassified
	}
	return seg
}

// Segments classifies every user in the snapshot, ordered by user ID.
func Segments(snap models.Snapshot, now time.Time) []models.UserSegment {
	spend := UserSpend(snap.Events)
	out := make([]models.UserSegment, 0, len(snap.Users))
	for _, u := range snap.Users {
		out = append(out, ClassifyUser(u, spend[u.UserID], now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// SegmentReport summarizes tag and stage membership. Tag percentages are
// independent of each other and need not sum to 100.
func SegmentReport(snap models.Snapshot, now time.Time) models.SegmentReport {
	segs := Segments(snap, now)
	r := models.SegmentReport{
		TotalUsers: len(segs),
		Tags: map[models.SegmentTag]models.SegmentCount{
			models.TagWhale: {},
			models.TagNew:   {},
		},
		Stages: map[models.LifecycleStage]models.SegmentCount{
			models.StageDormant:      {},
			models.StageAtRisk:       {},
			models.StageEngaged:      {},
			models.StageCasual:       {},
			models.StageUnclassified: {},
		},
	}
	tagCounts := make(map[models.SegmentTag]int)
	stageCounts := make(map[models.LifecycleStage]int)
	for _, s := range segs {
		for _, t := range s.Tags {
			tagCounts[t]++
		}
		stageCounts[s.Stage]++
	}
	total := float64(len(segs))
	for t := range r.Tags {
		r.Tags[t] = models.SegmentCount{
			Count:      tagCounts[t],
			Percentage: stats.Round(stats.SafeDiv(float64(tagCounts[t]), total)*100, 2),
		}
	}
	for st := range r.Stages {
		r.Stages[st] = models.SegmentCount{
			Count:      stageCounts[st],
			Percentage: stats.Round(stats.SafeDiv(float64(stageCounts[st]), total)*100, 2),
		}
	}
	return r
}
