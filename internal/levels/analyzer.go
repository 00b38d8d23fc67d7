// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

// Package levels computes per-level difficulty diagnostics: completion and
// attempt statistics, a composite difficulty score, drop-off and bottleneck
// detection, the progression funnel and duration outliers.
//
// Results are cached by a fingerprint of the level events so repeated calls
// over an unchanged snapshot within the TTL skip recomputation.
package levels

import (
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/cache"
	"github.com/vishnugarg323/PlayMetric/internal/metrics"
	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/stats"
)

// DefaultCacheTTL is the staleness window for cached analyses.
const DefaultCacheTTL = 5 * time.Minute

// Difficulty score weights. They sum to 100.
const (
	WeightCompletion = 40.0
	WeightAttempts   = 30.0
	WeightDuration   = 20.0
	WeightPerfect    = 10.0

	attemptsCeiling = 10.0
	durationCeiling = 600.0 // seconds
)

// Report limits.
const (
	maxDropOffs        = 15
	bottleneckPool     = 20
	maxBottlenecks     = 10
	maxRanked          = 10
	maxTimeOutliers    = 10
	maxFailReasons     = 5
	shortDurationFloor = 10.0 // seconds
)

// Analyzer produces LevelAnalysis results. It is safe for concurrent use.
type Analyzer struct {
	cache  *cache.Cache
	logger zerolog.Logger
}

// Option configures an Analyzer.
type Option func(*analyzerOptions)

type analyzerOptions struct {
	ttl   time.Duration
	clock cache.Clock
}

// WithCacheTTL overrides the result staleness window.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *analyzerOptions) { o.ttl = ttl }
}

// WithClock injects the cache time source.
func WithClock(clock cache.Clock) Option {
	return func(o *analyzerOptions) { o.clock = clock }
}

// NewAnalyzer creates an Analyzer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAnalyzer(logger zerolog.Logger, opts ...Option) *Analyzer {
	o := analyzerOptions{ttl: DefaultCacheTTL}
	for _, opt := range opts {
		opt(&o)
	}
	return &Analyzer{
		cache:  cache.New(o.ttl, cache.WithClock(o.clock)),
		logger: logger.With().Str("component", "levels").Logger(),
	}
}

// Analyze returns the level analysis for events. Non-level events are
// ignored. A cached result is stamped with now. Its slices and maps are
// shared with the cache and must be treated as read-only.
func (a *Analyzer) Analyze(events []models.Event, now time.Time) models.LevelAnalysis {
	levelEvents := filterLevelEvents(events)
	key := cacheKey(levelEvents)

	if cached, ok := a.cache.Get(key); ok {
		metrics.RecordLevelCache(true)
		result := cached.(models.LevelAnalysis)
		result.GeneratedAt = now
		return result
	}
	metrics.RecordLevelCache(false)

	start := time.Now()
	result := Analyze(levelEvents, now)
	a.cache.Set(key, result)

	a.logger.Debug().
		Int("levels", result.TotalLevels).
		Int("events", len(levelEvents)).
		Dur("duration", time.Since(start)).
		Msg("level analysis computed")
	return result
}

// Invalidate drops every cached analysis.
func (a *Analyzer) Invalidate() {
	a.cache.Clear()
}

// CacheStats exposes cache counters.
func (a *Analyzer) CacheStats() cache.Stats {
	return a.cache.GetStats()
}

func cacheKey(events []models.Event) string {
	records := make([]models.EventRecord, len(events))
	for i := range events {
		records[i] = models.EncodeEvent(events[i])
	}
	return "levels:" + cache.Fingerprint(records)
}

func filterLevelEvents(events []models.Event) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if _, _, ok := models.LevelRef(e); ok {
			out = append(out, e)
		}
	}
	return out
}

// levelAccumulator gathers raw observations for one level.
type levelAccumulator struct {
	id          string
	number      int
	players     map[string]struct{}
	completers  map[string]struct{}
	completions int
	failures    int
	perfect     int
	durations   []float64
	scores      []float64
	stars       []float64
	failReasons map[string]int
	// attempts counts outcome events per user until their first completion.
	attempts      map[string]int
	firstComplete map[string]int
}

func newAccumulator(id string, number int) *levelAccumulator {
	return &levelAccumulator{
		id:            id,
		number:        number,
		players:       make(map[string]struct{}),
		completers:    make(map[string]struct{}),
		failReasons:   make(map[string]int),
		attempts:      make(map[string]int),
		firstComplete: make(map[string]int),
	}
}

// Analyze computes a LevelAnalysis without caching.
func Analyze(events []models.Event, now time.Time) models.LevelAnalysis {
	result := models.EmptyLevelAnalysis(now)

	accs := make(map[string]*levelAccumulator)
	for _, e := range sortedByTime(events) {
		id, num, ok := models.LevelRef(e)
		if !ok {
			continue
		}
		if id == "" {
			id = levelIDFromNumber(num)
		}
		acc := accs[id]
		if acc == nil {
			acc = newAccumulator(id, num)
			accs[id] = acc
		}
		if num > acc.number {
			acc.number = num
		}
		acc.players[e.UserID] = struct{}{}

		switch p := e.Payload.(type) {
		case models.LevelComplete:
			acc.completions++
			acc.completers[e.UserID] = struct{}{}
			if p.Perfect {
				acc.perfect++
			}
			if p.DurationMs > 0 {
				acc.durations = append(acc.durations, float64(p.DurationMs)/1000)
			}
			acc.scores = append(acc.scores, p.Score)
			acc.stars = append(acc.stars, float64(p.Stars))
			if _, done := acc.firstComplete[e.UserID]; !done {
				acc.attempts[e.UserID]++
				acc.firstComplete[e.UserID] = acc.attempts[e.UserID]
			}
		case models.LevelFail:
			acc.failures++
			if p.DurationMs > 0 {
				acc.durations = append(acc.durations, float64(p.DurationMs)/1000)
			}
			if p.FailReason != "" {
				acc.failReasons[p.FailReason]++
			}
			if _, done := acc.firstComplete[e.UserID]; !done {
				acc.attempts[e.UserID]++
			}
		}
	}
	if len(accs) == 0 {
		return result
	}

	for id, acc := range accs {
		ls := acc.stats()
		result.LevelStats[id] = ls
		result.DifficultyScores[id] = ls.DifficultyScore
		if len(acc.durations) > 0 {
			result.TimeAnalysis.PerLevel[id] = timeStats(acc.durations)
		}
	}
	result.TotalLevels = len(result.LevelStats)

	all := sortedStats(result.LevelStats)
	result.DropOffLevels = DropOffs(all)
	result.BottleneckLevels = Bottlenecks(all)
	result.HardestLevels, result.EasiestLevels = RankByDifficulty(all)
	result.ProgressionFunnel = Funnel(events)
	result.TimeAnalysis = TimeOutliers(result.TimeAnalysis.PerLevel)
	return result
}

func (acc *levelAccumulator) stats() models.LevelStats {
	unique := len(acc.players)
	ls := models.LevelStats{
		LevelID:          acc.id,
		LevelNumber:      acc.number,
		UniquePlayers:    unique,
		PlayersCompleted: len(acc.completers),
		TotalAttempts:    acc.completions + acc.failures,
		Completions:      acc.completions,
		Failures:         acc.failures,
		TopFailReasons:   topFailReasons(acc.failReasons),
	}

	completionRate := stats.Clamp(stats.SafeDiv(float64(len(acc.completers)), float64(unique)), 0, 1)
	attempts := make([]float64, 0, len(acc.firstComplete))
	for _, n := range acc.firstComplete {
		attempts = append(attempts, float64(n))
	}
	avgAttempts := stats.Mean(attempts)
	avgDuration := stats.Mean(acc.durations)
	perfectRate := stats.Clamp(stats.SafeDiv(float64(acc.perfect), float64(acc.completions)), 0, 1)

	ls.CompletionRate = stats.Round(completionRate, 3)
	ls.AvgAttemptsToComplete = stats.Round(avgAttempts, 2)
	ls.AvgDurationSeconds = stats.Round(avgDuration, 1)
	ls.MedianDurationSeconds = stats.Round(stats.Median(acc.durations), 1)
	ls.AvgScore = stats.Round(stats.Mean(acc.scores), 1)
	ls.AvgStars = stats.Round(stats.Mean(acc.stars), 2)
	ls.PerfectCompletionRate = stats.Round(perfectRate, 3)
	ls.DifficultyScore = stats.Round(DifficultyScore(completionRate, avgAttempts, avgDuration, perfectRate), 1)
	return ls
}

// DifficultyScore combines completion, attempts, duration and perfect-play
// rate into a 0..100 index.
func DifficultyScore(completionRate, avgAttempts, avgDurationSeconds, perfectRate float64) float64 {
	score := WeightCompletion*(1-completionRate) +
		WeightAttempts*min(avgAttempts/attemptsCeiling, 1) +
		WeightDuration*min(avgDurationSeconds/durationCeiling, 1) +
		WeightPerfect*(1-perfectRate)
	return stats.Clamp(score, 0, 100)
}

func topFailReasons(reasons map[string]int) []models.FailReasonCount {
	out := make([]models.FailReasonCount, 0, len(reasons))
	for r, n := range reasons {
		out = append(out, models.FailReasonCount{Reason: r, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	if len(out) > maxFailReasons {
		out = out[:maxFailReasons]
	}
	return out
}

func timeStats(durations []float64) models.LevelTimeStats {
	return models.LevelTimeStats{
		AvgSeconds:    stats.Round(stats.Mean(durations), 1),
		MedianSeconds: stats.Round(stats.Median(durations), 1),
		MinSeconds:    stats.Round(stats.Min(durations), 1),
		MaxSeconds:    stats.Round(stats.Max(durations), 1),
		StdDevSeconds: stats.Round(stats.StdDev(durations), 1),
		TotalSeconds:  stats.Round(stats.Sum(durations), 1),
	}
}

// sortedByTime orders events so attempts-to-complete counts follow play
// order. Failures sort before completions at the same instant; events
// without timestamps sort first.
func sortedByTime(events []models.Event) []models.Event {
	out := append([]models.Event(nil), events...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return outcomeRank(out[i]) < outcomeRank(out[j])
	})
	return out
}

func outcomeRank(e models.Event) int {
	switch e.Payload.(type) {
	case models.LevelFail:
		return 1
	case models.LevelComplete:
		return 2
	}
	return 0
}

// sortedStats returns stats ordered by level ID for deterministic ranking.
func sortedStats(m map[string]models.LevelStats) []models.LevelStats {
	out := make([]models.LevelStats, 0, len(m))
	for _, ls := range m {
		out = append(out, ls)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LevelID < out[j].LevelID })
	return out
}

func levelIDFromNumber(n int) string {
	return "level_" + strconv.Itoa(n)
}
