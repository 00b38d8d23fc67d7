// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package churn

import (
	"math"
	"time"

	"github.com/vishnugarg323/PlayMetric/internal/models"
)

// Feature indexes into a Features vector.
const (
	FeatureDaysSinceLast = iota
	FeatureTotalSessions
	FeatureAvgSessionSeconds
	FeatureLevelCompletionRate
	FeatureTotalEvents
	FeatureDaysSinceRegistration
	FeatureTotalPurchases
	FeaturePurchaseAmount
	FeatureEngagementTrend
	FeatureRecentActivityScore

	NumFeatures
)

// FeatureNames labels each column, in index order. Stored with model
// artifacts so a mismatched layout is rejected on load.
var FeatureNames = [NumFeatures]string{
	"days_since_last_session",
	"total_sessions",
	"avg_session_duration",
	"level_completion_rate",
	"total_events",
	"days_since_registration",
	"total_purchases",
	"purchase_amount",
	"engagement_trend",
	"recent_activity_score",
}

const (
	day            = 24 * time.Hour
	trendWindow    = 7 * day
	activityDecayD = 7.0
)

// Features is the per-user model input.
type Features [NumFeatures]float64

// Slice returns the vector as a slice.
func (f Features) Slice() []float64 {
	return f[:]
}

// ExtractFeatures builds the feature vector for one user from the profile
// and that user's events. Missing timestamps are treated as now, so their
// ages are 0.
func ExtractFeatures(u models.UserProfile, events []models.Event, now time.Time) Features {
	var f Features

	f[FeatureDaysSinceLast] = float64(wholeDays(orNow(u.LastSeen, now), now))
	f[FeatureDaysSinceRegistration] = float64(wholeDays(orNow(u.FirstSeen, now), now) + 1)
	f[FeatureTotalSessions] = float64(u.TotalSessions)
	f[FeatureTotalEvents] = float64(u.TotalEvents)

	var (
		sessionMs           []float64
		completes, outcomes int
		purchases           int
		amount              float64
		recent, previous    int
		activity            float64
	)
	recentStart := now.Add(-trendWindow)
	previousStart := now.Add(-2 * trendWindow)

	for _, e := range events {
		switch p := e.Payload.(type) {
		case models.SessionEnd:
			if p.DurationMs > 0 {
				sessionMs = append(sessionMs, float64(p.DurationMs))
			}
		case models.LevelComplete:
			completes++
			outcomes++
		case models.LevelFail:
			outcomes++
		case models.Purchase:
			purchases++
			if p.RealMoneyValue > 0 {
				amount += p.RealMoneyValue
			}
		}

		ts := e.TimeOr(now)
		switch {
		case ts.After(recentStart):
			recent++
		case ts.After(previousStart):
			previous++
		}
		activity += math.Exp(-float64(wholeDays(ts, now)) / activityDecayD)
	}

	if len(sessionMs) > 0 {
		var sum float64
		for _, ms := range sessionMs {
			sum += ms
		}
		f[FeatureAvgSessionSeconds] = sum / float64(len(sessionMs)) / 1000
	}
	if outcomes > 0 {
		f[FeatureLevelCompletionRate] = float64(completes) / float64(outcomes)
	}
	f[FeatureTotalPurchases] = float64(purchases)
	f[FeaturePurchaseAmount] = amount
	f[FeatureEngagementTrend] = EngagementTrend(recent, previous)
	f[FeatureRecentActivityScore] = activity
	return f
}

// EngagementTrend is the relative change between the two most recent
// seven-day windows. With no previous activity it is 1 if anything happened
// recently, else 0.
func EngagementTrend(recent, previous int) float64 {
	if previous == 0 {
		if recent == 0 {
			return 0
		}
		return 1
	}
	return float64(recent-previous) / float64(previous)
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}

// wholeDays is the floor of the day count from t to now. Future timestamps
// yield negative values, matching floor division.
func wholeDays(t, now time.Time) int {
	return int(math.Floor(now.Sub(t).Hours() / 24))
}
