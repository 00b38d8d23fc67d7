// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

// Package analytics computes snapshot-wide product metrics: active users,
// sessions, level outcomes, revenue, platform mix, cohort retention and
// user segmentation. Every function takes the reference time explicitly.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/stats"
)

const day = 24 * time.Hour

const unknownCurrency = "unknown"

// retentionHorizons are the day offsets reported by RetentionRates.
var retentionHorizons = []int{1, 7, 30}

// Overview computes the product metrics for a snapshot relative to now.
// An empty snapshot yields zero values throughout.
func Overview(snap models.Snapshot, now time.Time) models.Overview {
	return models.Overview{
		UserMetrics:          UserMetrics(snap, now),
		SessionMetrics:       SessionMetrics(snap.Events),
		LevelMetrics:         LevelSummary(snap.Events),
		RevenueMetrics:       RevenueMetrics(snap.Events),
		PlatformDistribution: PlatformDistribution(snap.Users),
		RetentionRates:       Retention(snap, now),
		TotalEventsTracked:   len(snap.Events),
		GeneratedAt:          now,
	}
}

// UserMetrics counts active and new users over trailing windows.
func UserMetrics(snap models.Snapshot, now time.Time) models.UserMetrics {
	m := models.UserMetrics{TotalUsers: len(snap.Users)}
	if m.TotalUsers == 0 {
		return m
	}

	var sessions, events int
	for _, u := range snap.Users {
		if seenWithin(u.LastSeen, now, day) {
			m.DAU++
		}
		if seenWithin(u.LastSeen, now, 7*day) {
			m.WAU++
		}
		if seenWithin(u.LastSeen, now, 30*day) {
			m.MAU++
		}
		if seenWithin(u.FirstSeen, now, day) {
			m.NewUsersToday++
		}
		if seenWithin(u.FirstSeen, now, 7*day) {
			m.NewUsersWeek++
		}
		sessions += u.TotalSessions
		events += u.TotalEvents
	}

	n := float64(m.TotalUsers)
	m.AvgSessionsPerUser = stats.Round(float64(sessions)/n, 2)
	m.AvgEventsPerUser = stats.Round(float64(events)/n, 2)
	m.DAUMAURatio = stats.Round(stats.SafeDiv(float64(m.DAU), float64(m.MAU)), 3)
	return m
}

// seenWithin reports whether t falls inside the window (now-window, now].
func seenWithin(t, now time.Time, window time.Duration) bool {
	if t.IsZero() {
		return false
	}
	return t.After(now.Add(-window))
}

// SessionMetrics counts distinct session identifiers on session start and
// end events and derives durations from session-end events.
func SessionMetrics(events []models.Event) models.SessionMetrics {
	ids := make(map[string]struct{})
	var minutes []float64
	for _, e := range events {
		switch p := e.Payload.(type) {
		case models.SessionStart:
		case models.SessionEnd:
			if p.DurationMs > 0 {
				minutes = append(minutes, float64(p.DurationMs)/60000)
			}
		default:
			continue
		}
		if e.SessionID != "" {
			ids[e.SessionID] = struct{}{}
		}
	}

	m := models.SessionMetrics{TotalSessions: len(ids)}
	if len(minutes) == 0 {
		return m
	}
	m.AvgSessionDurationMinutes = stats.Round(stats.Mean(minutes), 2)
	m.MedianSessionDurationMinutes = stats.Round(stats.Median(minutes), 2)
	m.LongestSessionMinutes = stats.Round(stats.Max(minutes), 2)
	m.TotalPlaytimeHours = stats.Round(stats.Sum(minutes)/60, 2)
	return m
}

// LevelSummary aggregates level outcome events by level number.
func LevelSummary(events []models.Event) models.LevelSummary {
	plays := make(map[int]int)
	var s models.LevelSummary
	for _, e := range events {
		var num int
		switch p := e.Payload.(type) {
		case models.LevelComplete:
			num = p.LevelNumber
			s.TotalCompletions++
		case models.LevelFail:
			num = p.LevelNumber
		default:
			continue
		}
		s.TotalAttempts++
		if num > 0 {
			plays[num]++
			if num > s.MaxLevelReached {
				s.MaxLevelReached = num
			}
		}
	}

	s.CompletionRate = stats.Round(stats.SafeDiv(float64(s.TotalCompletions), float64(s.TotalAttempts)), 3)
	s.UniqueLevels = len(plays)
	s.MostPlayedLevels = make([]models.LevelPlayCount, 0, len(plays))
	for num, n := range plays {
		s.MostPlayedLevels = append(s.MostPlayedLevels, models.LevelPlayCount{LevelNumber: num, Plays: n})
	}
	sort.Slice(s.MostPlayedLevels, func(i, j int) bool {
		a, b := s.MostPlayedLevels[i], s.MostPlayedLevels[j]
		if a.Plays != b.Plays {
			return a.Plays > b.Plays
		}
		return a.LevelNumber < b.LevelNumber
	})
	if len(s.MostPlayedLevels) > 5 {
		s.MostPlayedLevels = s.MostPlayedLevels[:5]
	}
	return s
}

// RevenueMetrics sums purchases carrying real money. Every purchase is also
// tallied per currency type, with an empty type bucketed as "unknown".
func RevenueMetrics(events []models.Event) models.RevenueMetrics {
	total := decimal.Zero
	payers := make(map[string]struct{})
	m := models.RevenueMetrics{VirtualCurrency: make(map[string]models.CurrencyStats)}

	for _, e := range events {
		p, ok := e.Payload.(models.Purchase)
		if !ok {
			continue
		}
		currency := p.CurrencyType
		if currency == "" {
			currency = unknownCurrency
		}
		cs := m.VirtualCurrency[currency]
		cs.Transactions++
		cs.TotalAmount += p.Amount
		m.VirtualCurrency[currency] = cs

		if p.RealMoneyValue <= 0 {
			continue
		}
		total = total.Add(decimal.NewFromFloat(p.RealMoneyValue))
		m.TotalTransactions++
		payers[e.UserID] = struct{}{}
	}

	m.PayingUsers = len(payers)
	m.TotalRevenue = total.Round(2).InexactFloat64()
	if m.TotalTransactions > 0 {
		m.AvgTransactionValue = total.Div(decimal.NewFromInt(int64(m.TotalTransactions))).Round(2).InexactFloat64()
	}
	if m.PayingUsers > 0 {
		m.RevenuePerPayingUser = total.Div(decimal.NewFromInt(int64(m.PayingUsers))).Round(2).InexactFloat64()
	}
	for k, cs := range m.VirtualCurrency {
		cs.TotalAmount = stats.Round(cs.TotalAmount, 2)
		m.VirtualCurrency[k] = cs
	}
	return m
}

// PlatformDistribution counts users per platform.
func PlatformDistribution(users []models.UserProfile) map[string]models.PlatformShare {
	counts := make(map[string]int)
	for _, u := range users {
		p := u.Platform
		if p == "" {
			p = "unknown"
		}
		counts[p]++
	}
	out := make(map[string]models.PlatformShare, len(counts))
	for p, n := range counts {
		out[p] = models.PlatformShare{
			Count:      n,
			Percentage: stats.Round(float64(n)/float64(len(users))*100, 2),
		}
	}
	return out
}

// Retention reports day 1/7/30 retention over the cohort of users whose
// tenure is at least 30 days. A user counts as retained at day d when any of
// their events lands within one day of first_seen + d.
func Retention(snap models.Snapshot, now time.Time) models.RetentionRates {
	byUser := snap.EventsByUser()
	retained := make(map[int]int, len(retentionHorizons))
	cohort := 0

	for _, u := range snap.Users {
		if u.FirstSeen.IsZero() || now.Sub(u.FirstSeen) < 30*day {
			continue
		}
		cohort++
		for _, d := range retentionHorizons {
			target := u.FirstSeen.Add(time.Duration(d) * day)
			for _, e := range byUser[u.UserID] {
				if e.Timestamp.IsZero() {
					continue
				}
				delta := e.Timestamp.Sub(target)
				if delta >= -day && delta <= day {
					retained[d]++
					break
				}
			}
		}
	}

	r := models.RetentionRates{CohortSize: cohort}
	if cohort == 0 {
		return r
	}
	pct := func(d int) float64 {
		return stats.Round(float64(retained[d])/float64(cohort)*100, 2)
	}
	r.Day1, r.Day7, r.Day30 = pct(1), pct(7), pct(30)
	return r
}

// UserSpend sums positive real-money purchases per user.
func UserSpend(events []models.Event) map[string]float64 {
	totals := make(map[string]decimal.Decimal)
	for _, e := range events {
		if p, ok := e.Payload.(models.Purchase); ok && p.RealMoneyValue > 0 {
			totals[e.UserID] = totals[e.UserID].Add(decimal.NewFromFloat(p.RealMoneyValue))
		}
	}
	out := make(map[string]float64, len(totals))
	for id, v := range totals {
		out[id] = v.InexactFloat64()
	}
	return out
}

// DaysBetween returns whole days elapsed from t to now, 0 when t is zero or
// in the future.
func DaysBetween(t, now time.Time) int {
	if t.IsZero() || !now.After(t) {
		return 0
	}
	return int(now.Sub(t) / day)
}

// DataStats reports record counts for the snapshot.
func DataStats(snap models.Snapshot) models.DataStats {
	return models.DataStats{
		TotalUsers:  len(snap.Users),
		TotalEvents: len(snap.Events),
		EventCounts: snap.EventCounts(),
	}
}
