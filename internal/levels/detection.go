// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package levels

import (
	"sort"

	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/stats"
)

// Drop-off and bottleneck thresholds.
const (
	DropOffMaxCompletion     = 0.5
	DropOffMinPlayers        = 10
	DropOffMinDifficulty     = 60.0
	DropOffCriticalBelow     = 0.3
	BottleneckMaxCompletion  = 0.6
	longOutlierStdDevFactor  = 2.0
	shortOutlierStdDevFactor = 1.0
)

// DropOffs returns levels with low completion, meaningful traffic and high
// difficulty, ordered by ascending completion rate.
func DropOffs(all []models.LevelStats) []models.DropOffLevel {
	out := []models.DropOffLevel{}
	for _, ls := range all {
		if ls.CompletionRate >= DropOffMaxCompletion ||
			ls.UniquePlayers <= DropOffMinPlayers ||
			ls.DifficultyScore <= DropOffMinDifficulty {
			continue
		}
		severity := models.DropOffHigh
		if ls.CompletionRate < DropOffCriticalBelow {
			severity = models.DropOffCritical
		}
		out = append(out, models.DropOffLevel{
			LevelID:         ls.LevelID,
			LevelNumber:     ls.LevelNumber,
			CompletionRate:  ls.CompletionRate,
			UniquePlayers:   ls.UniquePlayers,
			PlayersStuck:    ls.UniquePlayers - ls.PlayersCompleted,
			DifficultyScore: ls.DifficultyScore,
			Severity:        severity,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletionRate < out[j].CompletionRate })
	if len(out) > maxDropOffs {
		out = out[:maxDropOffs]
	}
	return out
}

// Bottlenecks ranks the highest-traffic levels that most players fail.
func Bottlenecks(all []models.LevelStats) []models.BottleneckLevel {
	byTraffic := append([]models.LevelStats(nil), all...)
	sort.SliceStable(byTraffic, func(i, j int) bool { return byTraffic[i].TotalAttempts > byTraffic[j].TotalAttempts })
	if len(byTraffic) > bottleneckPool {
		byTraffic = byTraffic[:bottleneckPool]
	}

	out := []models.BottleneckLevel{}
	for _, ls := range byTraffic {
		if ls.CompletionRate >= BottleneckMaxCompletion {
			continue
		}
		out = append(out, models.BottleneckLevel{
			LevelID:        ls.LevelID,
			LevelNumber:    ls.LevelNumber,
			TotalAttempts:  ls.TotalAttempts,
			CompletionRate: ls.CompletionRate,
			Impact:         stats.Round(float64(ls.TotalAttempts)*(1-ls.CompletionRate), 2),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Impact > out[j].Impact })
	if len(out) > maxBottlenecks {
		out = out[:maxBottlenecks]
	}
	return out
}

// RankByDifficulty returns the hardest levels (descending score) and the
// easiest levels (ascending score). Ties break on level ID.
func RankByDifficulty(all []models.LevelStats) (hardest, easiest []models.RankedLevel) {
	ranked := make([]models.RankedLevel, 0, len(all))
	for _, ls := range all {
		ranked = append(ranked, models.RankedLevel{
			LevelID:         ls.LevelID,
			LevelNumber:     ls.LevelNumber,
			DifficultyScore: ls.DifficultyScore,
			CompletionRate:  ls.CompletionRate,
		})
	}

	hardest = append([]models.RankedLevel(nil), ranked...)
	sort.Slice(hardest, func(i, j int) bool {
		if hardest[i].DifficultyScore != hardest[j].DifficultyScore {
			return hardest[i].DifficultyScore > hardest[j].DifficultyScore
		}
		return hardest[i].LevelID < hardest[j].LevelID
	})
	easiest = append([]models.RankedLevel(nil), ranked...)
	sort.Slice(easiest, func(i, j int) bool {
		if easiest[i].DifficultyScore != easiest[j].DifficultyScore {
			return easiest[i].DifficultyScore < easiest[j].DifficultyScore
		}
		return easiest[i].LevelID < easiest[j].LevelID
	})

	if len(hardest) > maxRanked {
		hardest = hardest[:maxRanked]
	}
	if len(easiest) > maxRanked {
		easiest = easiest[:maxRanked]
	}
	return hardest, easiest
}

// Funnel counts distinct players reaching each level number. Retention is
// relative to level 1 and is 0 when nobody played level 1.
func Funnel(events []models.Event) models.ProgressionFunnel {
	reached := make(map[int]map[string]struct{})
	for _, e := range events {
		_, num, ok := models.LevelRef(e)
		if !ok || num <= 0 {
			continue
		}
		if reached[num] == nil {
			reached[num] = make(map[string]struct{})
		}
		reached[num][e.UserID] = struct{}{}
	}

	numbers := make([]int, 0, len(reached))
	for n := range reached {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	base := len(reached[1])
	f := models.ProgressionFunnel{Steps: make([]models.FunnelStep, len(numbers))}
	for i, n := range numbers {
		players := len(reached[n])
		f.Steps[i] = models.FunnelStep{
			LevelNumber:   n,
			Players:       players,
			RetentionRate: stats.Round(stats.SafeDiv(float64(players), float64(base)), 3),
		}
	}
	for i := 0; i+1 < len(f.Steps); i++ {
		cur, next := f.Steps[i].Players, f.Steps[i+1].Players
		f.Steps[i].DropOffToNext = cur - next
		f.Steps[i].DropOffRate = stats.Round(stats.SafeDiv(float64(cur-next), float64(cur)), 3)
	}

	for i := range f.Steps {
		if f.BiggestDropOff == nil || f.Steps[i].DropOffRate > f.BiggestDropOff.DropOffRate {
			step := f.Steps[i]
			f.BiggestDropOff = &step
		}
	}
	return f
}

// TimeOutliers flags levels whose average duration is far above the mean
// of all level averages, or noticeably below it while still above a floor.
func TimeOutliers(perLevel map[string]models.LevelTimeStats) models.TimeAnalysis {
	ta := models.TimeAnalysis{
		PerLevel:       perLevel,
		UnusuallyLong:  []models.TimeOutlier{},
		UnusuallyShort: []models.TimeOutlier{},
	}
	if len(perLevel) == 0 {
		return ta
	}

	ids := make([]string, 0, len(perLevel))
	avgs := make([]float64, 0, len(perLevel))
	for id, ts := range perLevel {
		ids = append(ids, id)
		avgs = append(avgs, ts.AvgSeconds)
	}
	sort.Strings(ids)
	mean, sd := stats.Mean(avgs), stats.StdDev(avgs)
	ta.MeanSeconds = stats.Round(mean, 1)
	ta.StdDevSeconds = stats.Round(sd, 1)

	for _, id := range ids {
		avg := perLevel[id].AvgSeconds
		switch {
		case avg > mean+longOutlierStdDevFactor*sd:
			ta.UnusuallyLong = append(ta.UnusuallyLong, models.TimeOutlier{LevelID: id, AvgDurationSeconds: avg})
		case avg < mean-shortOutlierStdDevFactor*sd && avg > shortDurationFloor:
			ta.UnusuallyShort = append(ta.UnusuallyShort, models.TimeOutlier{LevelID: id, AvgDurationSeconds: avg})
		}
	}
	sort.SliceStable(ta.UnusuallyLong, func(i, j int) bool {
		return ta.UnusuallyLong[i].AvgDurationSeconds > ta.UnusuallyLong[j].AvgDurationSeconds
	})
	sort.SliceStable(ta.UnusuallyShort, func(i, j int) bool {
		return ta.UnusuallyShort[i].AvgDurationSeconds < ta.UnusuallyShort[j].AvgDurationSeconds
	})
	if len(ta.UnusuallyLong) > maxTimeOutliers {
		ta.UnusuallyLong = ta.UnusuallyLong[:maxTimeOutliers]
	}
	if len(ta.UnusuallyShort) > maxTimeOutliers {
		ta.UnusuallyShort = ta.UnusuallyShort[:maxTimeOutliers]
	}
	return ta
}
