// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package insights

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/stats"
)

// Price buckets in ascending order.
var priceBuckets = []string{"micro", "small", "medium", "large", "whale"}

const (
	whaleCandidateSessions = 20
	whaleCandidateEvents   = 500
	maxWhaleCandidates     = 10
	lowConversionRate      = 0.05
)

func priceBucket(v float64) string {
	switch {
	case v < 1:
		return "micro"
	case v < 5:
		return "small"
	case v < 20:
		return "medium"
	case v < 50:
		return "large"
	default:
		return "whale"
	}
}

type paidPurchase struct {
	userID string
	value  float64
	at     time.Time
}

func paidPurchases(events []models.Event) []paidPurchase {
	var out []paidPurchase
	for _, e := range events {
		if p, ok := e.Payload.(models.Purchase); ok && p.RealMoneyValue > 0 {
			out = append(out, paidPurchase{userID: e.UserID, value: p.RealMoneyValue, at: e.Timestamp})
		}
	}
	return out
}

func hasPurchaseEvents(events []models.Event) bool {
	for _, e := range events {
		if e.Kind() == models.KindPurchase {
			return true
		}
	}
	return false
}

// payers returns the users with at least one paid purchase.
func payers(events []models.Event) map[string]bool {
	out := make(map[string]bool)
	for _, p := range paidPurchases(events) {
		out[p.userID] = true
	}
	return out
}

// Revenue analyzes conversion, price points and likely future spenders. An
// event set without purchases yields an empty section.
func Revenue(snap models.Snapshot) models.RevenueOpportunities {
	out := models.RevenueOpportunities{
		PricePointPerformance: map[string]models.PriceBucketStats{},
		WhaleCandidates:       []models.WhaleCandidate{},
		Recommendations:       []string{},
	}
	if !hasPurchaseEvents(snap.Events) {
		return out
	}

	purchases := paidPurchases(snap.Events)
	paying := payers(snap.Events)

	total := decimal.Zero
	revenue := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, p := range purchases {
		v := decimal.NewFromFloat(p.value)
		total = total.Add(v)
		b := priceBucket(p.value)
		revenue[b] = revenue[b].Add(v)
		counts[b]++
	}
	for b, c := range counts {
		out.PricePointPerformance[b] = models.PriceBucketStats{
			Count:   c,
			Revenue: stats.Round(revenue[b].InexactFloat64(), 2),
		}
	}

	conversion := stats.SafeDiv(float64(len(paying)), float64(len(snap.Users)))
	out.ConversionRate = stats.Round(conversion*100, 2)
	out.TotalPayers = len(paying)
	if len(purchases) > 0 {
		out.AvgTransactionValue = stats.Round(total.InexactFloat64()/float64(len(purchases)), 2)
	}
	out.WhaleCandidates = WhaleCandidates(snap.Users, paying)

	if conversion < lowConversionRate {
		out.Recommendations = append(out.Recommendations, fmt.Sprintf(
			"Low conversion rate (%.1f%%). Consider: 1) Better onboarding, 2) Early value demonstration, 3) First-purchase incentive",
			conversion*100))
	}
	if len(out.WhaleCandidates) > 5 {
		out.Recommendations = append(out.Recommendations, fmt.Sprintf(
			"Found %d high-engagement non-payers. Target with: 1) Exclusive offers, 2) Premium features trial, 3) VIP status benefits",
			len(out.WhaleCandidates)))
	}
	if best := bestPriceBucket(out.PricePointPerformance); best != "" {
		out.Recommendations = append(out.Recommendations, fmt.Sprintf(
			"Most revenue from '%s' price point. Consider expanding offerings in this range", best))
	}
	return out
}

func bestPriceBucket(perf map[string]models.PriceBucketStats) string {
	best, bestRevenue := "", math.Inf(-1)
	for _, b := range priceBuckets {
		s, ok := perf[b]
		if ok && s.Revenue > bestRevenue {
			best, bestRevenue = b, s.Revenue
		}
	}
	return best
}

// WhaleCandidates ranks heavily engaged non-payers by engagement score.
func WhaleCandidates(users []models.UserProfile, paying map[string]bool) []models.WhaleCandidate {
	out := []models.WhaleCandidate{}
	for _, u := range users {
		if paying[u.UserID] || u.TotalSessions <= whaleCandidateSessions || u.TotalEvents <= whaleCandidateEvents {
			continue
		}
		out = append(out, models.WhaleCandidate{
			UserID:          u.UserID,
			Sessions:        u.TotalSessions,
			Events:          u.TotalEvents,
			EngagementScore: stats.Round(0.3*float64(u.TotalSessions)+0.001*float64(u.TotalEvents), 3),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EngagementScore != out[j].EngagementScore {
			return out[i].EngagementScore > out[j].EngagementScore
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > maxWhaleCandidates {
		out = out[:maxWhaleCandidates]
	}
	return out
}

// Monetization describes purchase timing and repeat buying.
func Monetization(snap models.Snapshot) models.MonetizationPatterns {
	purchases := paidPurchases(snap.Events)
	if len(purchases) == 0 {
		return models.MonetizationPatterns{}
	}

	perUser := make(map[string]int)
	first := make(map[string]time.Time)
	for _, p := range purchases {
		perUser[p.userID]++
		if p.at.IsZero() {
			continue
		}
		if t, ok := first[p.userID]; !ok || p.at.Before(t) {
			first[p.userID] = p.at
		}
	}

	var delays []float64
	for _, u := range snap.Users {
		t, ok := first[u.UserID]
		if !ok || u.FirstSeen.IsZero() {
			continue
		}
		delays = append(delays, math.Floor(t.Sub(u.FirstSeen).Hours()/24))
	}

	var repeat int
	for _, n := range perUser {
		if n > 1 {
			repeat++
		}
	}

	return models.MonetizationPatterns{
		AvgDaysToFirstPurchase: stats.Round(stats.Mean(delays), 2),
		RepeatPurchaserRate:    stats.Round(float64(repeat)/float64(len(perUser)), 3),
		TotalPurchasingUsers:   len(perUser),
		AvgPurchasesPerPayer:   stats.Round(float64(len(purchases))/float64(len(perUser)), 2),
	}
}
