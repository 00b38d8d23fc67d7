// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

// Package recommend turns analysis outputs into prioritized, actionable
// recommendations for game teams.
//
// # Rules
//
// Each Rule inspects the same immutable Input and independently emits zero
// or more findings. Rules never see each other's output, so registration
// order only affects ordering among equal priority scores.
//
// # Buckets
//
// Findings land in one of the critical, high, medium, low and positive
// buckets. Within a bucket they are sorted by PriorityScore, which is the
// bucket floor plus bonuses for a stated impact, an expected improvement
// and the number of players affected.
//
// # Usage
//
//	engine := recommend.NewEngine(logger)
//	report := engine.Generate(recommend.Input{
//	    Overview: overview,
//	    Levels:   levelAnalysis,
//	    Churn:    predictions,
//	    Segments: segmentReport,
//	}, now)
package recommend

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/metrics"
	"github.com/vishnugarg323/PlayMetric/internal/models"
)

// Input is the analysis bundle rules evaluate.
type Input struct {
	Overview models.Overview
	Levels   models.LevelAnalysis
	Churn    []models.ChurnPrediction
	Segments models.SegmentReport
}

// Result is what one rule produced.
type Result struct {
	Recommendations []models.Recommendation
	Positives       []models.PositiveInsight
}

// Rule is one independent recommendation check.
type Rule interface {
	// Name identifies the rule in logs.
	Name() string

	// Evaluate inspects the input. It must not modify it.
	Evaluate(in *Input) Result
}

// Base scores per bucket.
var baseScores = map[models.Priority]int{
	models.PriorityCritical: 100,
	models.PriorityHigh:     70,
	models.PriorityMedium:   40,
	models.PriorityLow:      10,
	models.PriorityPositive: 0,
}

const (
	impactBonus          = 10
	expectedImprovement  = 15
	playersAffectedScale = 10
	playersAffectedCap   = 20
)

// PriorityScore computes the sort key of a recommendation.
func PriorityScore(r *models.Recommendation) int {
	score := baseScores[r.Priority]
	if r.Impact != "" {
		score += impactBonus
	}
	if r.ExpectedImprovement != "" {
		score += expectedImprovement
	}
	if r.PlayersAffected > 0 {
		score += min(r.PlayersAffected/playersAffectedScale, playersAffectedCap)
	}
	return score
}

// Engine evaluates registered rules. It is safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	rules  []Rule
	logger zerolog.Logger
}

// NewEngine creates an engine with the default rule set registered.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(logger zerolog.Logger) *Engine {
	e := &Engine{logger: logger.With().Str("component", "recommend").Logger()}
	for _, r := range DefaultRules() {
		e.RegisterRule(r)
	}
	return e
}

// RegisterRule adds a rule to the engine.
func (e *Engine) RegisterRule(rule Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rules = append(e.rules, rule)
	e.logger.Debug().Str("rule", rule.Name()).Msg("registered rule")
}

// Rules returns the registered rule names in registration order.
func (e *Engine) Rules() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Generate evaluates every rule and assembles the bucketed report.
func (e *Engine) Generate(in Input, now time.Time) models.RecommendationReport {
	e.mu.RLock()
	rules := append([]Rule(nil), e.rules...)
	e.mu.RUnlock()

	start := time.Now()
	report := Generate(rules, &in, now)
	metrics.RecordAnalysis("recommendations", time.Since(start), nil)
	metrics.RecordRecommendations(map[string]int{
		string(models.PriorityCritical): report.Summary.CriticalCount,
		string(models.PriorityHigh):     report.Summary.HighCount,
		string(models.PriorityMedium):   report.Summary.MediumCount,
		string(models.PriorityLow):      report.Summary.LowCount,
		string(models.PriorityPositive): report.Summary.PositiveCount,
	})

	e.logger.Debug().
		Int("rules", len(rules)).
		Int("critical", report.Summary.CriticalCount).
		Int("total", report.Summary.Total).
		Msg("recommendations generated")
	return report
}

// Generate evaluates rules against in without logging or metrics.
func Generate(rules []Rule, in *Input, now time.Time) models.RecommendationReport {
	report := models.RecommendationReport{
		Critical:         []models.Recommendation{},
		HighPriority:     []models.Recommendation{},
		MediumPriority:   []models.Recommendation{},
		LowPriority:      []models.Recommendation{},
		PositiveInsights: []models.PositiveInsight{},
		GeneratedAt:      now,
	}

	for _, rule := range rules {
		res := rule.Evaluate(in)
		for _, r := range res.Recommendations {
			r.PriorityScore = PriorityScore(&r)
			switch r.Priority {
			case models.PriorityCritical:
				report.Critical = append(report.Critical, r)
			case models.PriorityHigh:
				report.HighPriority = append(report.HighPriority, r)
			case models.PriorityMedium:
				report.MediumPriority = append(report.MediumPriority, r)
			default:
				r.Priority = models.PriorityLow
				r.PriorityScore = PriorityScore(&r)
				report.LowPriority = append(report.LowPriority, r)
			}
		}
		for _, p := range res.Positives {
			p.PriorityScore = baseScores[models.PriorityPositive]
			report.PositiveInsights = append(report.PositiveInsights, p)
		}
	}

	for _, bucket := range [][]models.Recommendation{
		report.Critical, report.HighPriority, report.MediumPriority, report.LowPriority,
	} {
		sort.SliceStable(bucket, func(i, j int) bool { return bucket[i].PriorityScore > bucket[j].PriorityScore })
	}

	report.Summary = models.RecommendationSummary{
		CriticalCount: len(report.Critical),
		HighCount:     len(report.HighPriority),
		MediumCount:   len(report.MediumPriority),
		LowCount:      len(report.LowPriority),
		PositiveCount: len(report.PositiveInsights),
	}
	report.Summary.Total = report.Summary.CriticalCount + report.Summary.HighCount +
		report.Summary.MediumCount + report.Summary.LowCount
	return report
}
