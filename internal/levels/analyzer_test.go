// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package levels

import (
	"fmt"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/models"
)

var refNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type eventSeq struct {
	t      time.Time
	events []models.Event
}

func (s *eventSeq) add(userID string, p models.Payload) {
	s.t = s.t.Add(time.Minute)
	s.events = append(s.events, models.Event{UserID: userID, SessionID: "s-" + userID, Timestamp: s.t, Payload: p})
}

func fail(num int, secs int64, reason string) models.LevelFail {
	return models.LevelFail{LevelID: fmt.Sprintf("l%d", num), LevelNumber: num, DurationMs: secs * 1000, FailReason: reason}
}

func complete(num int, secs int64, perfect bool) models.LevelComplete {
	return models.LevelComplete{LevelID: fmt.Sprintf("l%d", num), LevelNumber: num, DurationMs: secs * 1000, Score: 100, Stars: 3, Perfect: perfect}
}

func sampleEvents() []models.Event {
	s := &eventSeq{t: refNow.Add(-48 * time.Hour)}
	s.add("u1", models.LevelStart{LevelID: "l1", LevelNumber: 1})
	s.add("u1", complete(1, 60, true))
	s.add("u2", fail(1, 30, "hazard"))
	s.add("u2", fail(1, 30, "hazard"))
	s.add("u2", complete(1, 90, false))
	s.add("u3", fail(1, 30, "timeout"))
	s.add("u4", fail(1, 30, "timeout"))
	s.add("u4", models.SessionEnd{DurationMs: 1000})
	return s.events
}

func TestDifficultyScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                            string
		completion, attempts, dur, perf float64
		want                            float64
	}{
		{"documented example", 0.3, 5, 300, 0, 63},
		{"trivial level", 1, 0, 0, 1, 0},
		{"caps at ceilings", 0, 50, 5000, 0, 100},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DifficultyScore(tt.completion, tt.attempts, tt.dur, tt.perf)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("DifficultyScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnalyzeLevelStats(t *testing.T) {
	t.Parallel()

	a := Analyze(sampleEvents(), refNow)
	if a.TotalLevels != 1 {
		t.Fatalf("TotalLevels = %d", a.TotalLevels)
	}
	ls := a.LevelStats["l1"]

	want := models.LevelStats{
		LevelID:               "l1",
		LevelNumber:           1,
		UniquePlayers:         4,
		PlayersCompleted:      2,
		TotalAttempts:         6,
		Completions:           2,
		Failures:              4,
		CompletionRate:        0.5,
		AvgAttemptsToComplete: 2,
		AvgDurationSeconds:    45,
		MedianDurationSeconds: 30,
		AvgScore:              100,
		AvgStars:              3,
		PerfectCompletionRate: 0.5,
		DifficultyScore:       32.5,
		TopFailReasons: []models.FailReasonCount{
			{Reason: "hazard", Count: 2},
			{Reason: "timeout", Count: 2},
		},
	}
	if !reflect.DeepEqual(ls, want) {
		t.Errorf("LevelStats =\n%+v\nwant\n%+v", ls, want)
	}
	if a.DifficultyScores["l1"] != 32.5 {
		t.Errorf("DifficultyScores = %v", a.DifficultyScores)
	}
	if got := a.TimeAnalysis.PerLevel["l1"]; got.MinSeconds != 30 || got.MaxSeconds != 90 || got.TotalSeconds != 270 {
		t.Errorf("time stats = %+v", got)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	t.Parallel()

	a := Analyze(nil, refNow)
	if !reflect.DeepEqual(a, models.EmptyLevelAnalysis(refNow)) {
		t.Errorf("Analyze(nil) = %+v", a)
	}
	if a.LevelStats == nil || a.DropOffLevels == nil || a.ProgressionFunnel.Steps == nil {
		t.Error("empty analysis must carry non-nil collections")
	}
}

func TestDropOffs(t *testing.T) {
	t.Parallel()

	all := []models.LevelStats{
		{LevelID: "a", UniquePlayers: 15, PlayersCompleted: 3, CompletionRate: 0.2, DifficultyScore: 75},
		{LevelID: "b", UniquePlayers: 40, PlayersCompleted: 16, CompletionRate: 0.4, DifficultyScore: 65},
		{LevelID: "c", UniquePlayers: 500, PlayersCompleted: 300, CompletionRate: 0.6, DifficultyScore: 99},
		{LevelID: "d", UniquePlayers: 10, PlayersCompleted: 1, CompletionRate: 0.1, DifficultyScore: 90},
		{LevelID: "e", UniquePlayers: 50, PlayersCompleted: 5, CompletionRate: 0.1, DifficultyScore: 60},
	}
	got := DropOffs(all)
	if len(got) != 2 {
		t.Fatalf("DropOffs = %+v", got)
	}
	if got[0].LevelID != "a" || got[0].Severity != models.DropOffCritical || got[0].PlayersStuck != 12 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].LevelID != "b" || got[1].Severity != models.DropOffHigh {
		t.Errorf("second = %+v", got[1])
	}
}

func TestBottlenecks(t *testing.T) {
	t.Parallel()

	all := []models.LevelStats{
		{LevelID: "a", TotalAttempts: 100, CompletionRate: 0.5},
		{LevelID: "b", TotalAttempts: 300, CompletionRate: 0.9},
		{LevelID: "c", TotalAttempts: 200, CompletionRate: 0.2},
	}
	got := Bottlenecks(all)
	if len(got) != 2 || got[0].LevelID != "c" || got[0].Impact != 160 || got[1].Impact != 50 {
		t.Errorf("Bottlenecks = %+v", got)
	}
}

func TestBottlenecksOnlyConsiderTopTraffic(t *testing.T) {
	t.Parallel()

	var all []models.LevelStats
	for i := 0; i < 20; i++ {
		all = append(all, models.LevelStats{LevelID: fmt.Sprintf("busy%02d", i), TotalAttempts: 1000 + i, CompletionRate: 0.9})
	}
	all = append(all, models.LevelStats{LevelID: "quiet", TotalAttempts: 5, CompletionRate: 0})
	if got := Bottlenecks(all); len(got) != 0 {
		t.Errorf("low traffic level leaked into bottlenecks: %+v", got)
	}
}

func TestFunnelDropOffRate(t *testing.T) {
	t.Parallel()

	var events []models.Event
	for i := 0; i < 100; i++ {
		uid := fmt.Sprintf("u%d", i)
		events = append(events, models.Event{UserID: uid, Payload: models.LevelStart{LevelID: "l1", LevelNumber: 1}})
		if i < 40 {
			events = append(events, models.Event{UserID: uid, Payload: models.LevelStart{LevelID: "l2", LevelNumber: 2}})
		}
		if i < 30 {
			events = append(events, models.Event{UserID: uid, Payload: models.LevelStart{LevelID: "l3", LevelNumber: 3}})
		}
	}
	f := Funnel(events)
	if len(f.Steps) != 3 {
		t.Fatalf("steps = %+v", f.Steps)
	}
	if f.Steps[0].DropOffToNext != 60 || f.Steps[0].DropOffRate != 0.6 {
		t.Errorf("step 1 = %+v", f.Steps[0])
	}
	if f.Steps[1].RetentionRate != 0.4 || f.Steps[1].DropOffRate != 0.25 {
		t.Errorf("step 2 = %+v", f.Steps[1])
	}
	if f.BiggestDropOff == nil || f.BiggestDropOff.LevelNumber != 1 {
		t.Errorf("BiggestDropOff = %+v", f.BiggestDropOff)
	}
}

func TestTimeOutliers(t *testing.T) {
	t.Parallel()

	per := map[string]models.LevelTimeStats{}
	for i := 0; i < 9; i++ {
		per[fmt.Sprintf("n%d", i)] = models.LevelTimeStats{AvgSeconds: 60}
	}
	per["slow"] = models.LevelTimeStats{AvgSeconds: 900}
	per["fast"] = models.LevelTimeStats{AvgSeconds: 5}

	ta := TimeOutliers(per)
	if len(ta.UnusuallyLong) != 1 || ta.UnusuallyLong[0].LevelID != "slow" {
		t.Errorf("UnusuallyLong = %+v", ta.UnusuallyLong)
	}
	for _, o := range ta.UnusuallyShort {
		if o.AvgDurationSeconds <= shortDurationFloor {
			t.Errorf("short outlier below floor: %+v", o)
		}
	}
}

func TestRankByDifficulty(t *testing.T) {
	t.Parallel()

	all := []models.LevelStats{
		{LevelID: "a", DifficultyScore: 10},
		{LevelID: "b", DifficultyScore: 90},
		{LevelID: "c", DifficultyScore: 50},
		{LevelID: "d", DifficultyScore: 50},
	}
	hardest, easiest := RankByDifficulty(all)
	if hardest[0].LevelID != "b" || hardest[1].LevelID != "c" || hardest[2].LevelID != "d" {
		t.Errorf("hardest = %+v", hardest)
	}
	if easiest[0].LevelID != "a" || easiest[3].LevelID != "b" {
		t.Errorf("easiest = %+v", easiest)
	}
}

func TestAnalyzerCachesByFingerprint(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: refNow}
	an := NewAnalyzer(zerolog.Nop(), WithClock(clock.Now), WithCacheTTL(5*time.Minute))
	events := sampleEvents()

	first := an.Analyze(events, refNow)
	reversed := make([]models.Event, len(events))
	for i := range events {
		reversed[len(events)-1-i] = events[i]
	}
	second := an.Analyze(reversed, refNow.Add(time.Minute))
	if st := an.CacheStats(); st.Hits != 1 || st.Misses != 1 {
		t.Errorf("permuted snapshot should hit the cache, stats = %+v", st)
	}
	if second.TotalLevels != first.TotalLevels {
		t.Errorf("cached levels = %d, want %d", second.TotalLevels, first.TotalLevels)
	}

	clock.Advance(5 * time.Minute)
	an.Analyze(events, refNow.Add(10*time.Minute))
	if st := an.CacheStats(); st.Misses != 2 {
		t.Errorf("expired entry should be recomputed, stats = %+v", st)
	}

	changed := append(append([]models.Event(nil), events...), models.Event{UserID: "u9", Payload: fail(2, 10, "")})
	fourth := an.Analyze(changed, refNow.Add(11*time.Minute))
	if fourth.TotalLevels != 2 {
		t.Errorf("changed snapshot should be analyzed fresh, got %d levels", fourth.TotalLevels)
	}
}

func TestAnalyzerStampsCachedResults(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: refNow}
	an := NewAnalyzer(zerolog.Nop(), WithClock(clock.Now), WithCacheTTL(5*time.Minute))
	events := sampleEvents()

	first := an.Analyze(events, refNow)
	clock.Advance(2 * time.Minute)
	later := refNow.Add(2 * time.Minute)
	second := an.Analyze(events, later)

	if st := an.CacheStats(); st.Hits != 1 {
		t.Fatalf("stats = %+v, want one hit", st)
	}
	if !second.GeneratedAt.Equal(later) {
		t.Errorf("cached GeneratedAt = %v, want %v", second.GeneratedAt, later)
	}
	if !first.GeneratedAt.Equal(refNow) {
		t.Errorf("first GeneratedAt changed to %v", first.GeneratedAt)
	}
}

func TestAnalyzeIgnoresNonLevelEvents(t *testing.T) {
	t.Parallel()

	an := NewAnalyzer(zerolog.Nop())
	withNoise := append(sampleEvents(), models.Event{UserID: "x", Payload: models.Purchase{RealMoneyValue: 1}})
	a := an.Analyze(withNoise, refNow)
	b := an.Analyze(sampleEvents(), refNow.Add(time.Second))
	if !reflect.DeepEqual(a, b) {
		t.Error("non-level events should not change the cache key")
	}
}
