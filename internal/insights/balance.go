// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package insights

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/stats"
)

const (
	veryHardCompletion = 0.3
	hardCompletion     = 0.5
	tooEasyCompletion  = 0.95
	tooLongSeconds     = 300

	exhaustionThreshold = 0.1
	shallowContentLevel = 50
)

type balanceAcc struct {
	attempts    int
	completions int
	playtime    []float64
}

// Balance rates each numbered level by completion and playtime and flags
// the ones outside the healthy range.
func Balance(events []models.Event) models.LevelBalance {
	acc := make(map[int]*balanceAcc)
	for _, e := range events {
		var (
			number   int
			duration int64
			complete bool
		)
		switch p := e.Payload.(type) {
		case models.LevelComplete:
			number, duration, complete = p.LevelNumber, p.DurationMs, true
		case models.LevelFail:
			number, duration = p.LevelNumber, p.DurationMs
		default:
			continue
		}
		if number <= 0 {
			continue
		}
		a := acc[number]
		if a == nil {
			a = &balanceAcc{}
			acc[number] = a
		}
		a.attempts++
		if complete {
			a.completions++
		}
		if duration > 0 {
			a.playtime = append(a.playtime, float64(duration)/1000)
		}
	}

	out := models.LevelBalance{
		LevelAnalysis:     make(map[int]models.LevelBalanceStats, len(acc)),
		ProblematicLevels: []models.ProblematicLevel{},
		Recommendations:   []string{},
	}
	for number, a := range acc {
		cr := float64(a.completions) / float64(a.attempts)
		s := models.LevelBalanceStats{
			CompletionRate:     stats.Round(cr, 3),
			DifficultyScore:    stats.Round(100*(1-cr), 2),
			AvgPlaytimeSeconds: stats.Round(stats.Mean(a.playtime), 2),
			Attempts:           a.attempts,
		}
		out.LevelAnalysis[number] = s

		var issues []models.LevelIssue
		switch {
		case cr < veryHardCompletion:
			issues = append(issues, models.IssueVeryHard)
		case cr < hardCompletion:
			issues = append(issues, models.IssueHard)
		case cr > tooEasyCompletion:
			issues = append(issues, models.IssueTooEasy)
		}
		if s.AvgPlaytimeSeconds > tooLongSeconds {
			issues = append(issues, models.IssueTooLong)
		}
		if len(issues) > 0 {
			out.ProblematicLevels = append(out.ProblematicLevels, models.ProblematicLevel{
				LevelNumber: number,
				Issues:      issues,
				Stats:       s,
			})
		}
	}
	sort.Slice(out.ProblematicLevels, func(i, j int) bool {
		return out.ProblematicLevels[i].LevelNumber < out.ProblematicLevels[j].LevelNumber
	})

	if hard := levelsWith(out.ProblematicLevels, models.IssueVeryHard, 5); len(hard) > 0 {
		out.Recommendations = append(out.Recommendations, fmt.Sprintf(
			"Levels %s are extremely difficult (< 30%% completion). Consider: 1) Reducing difficulty, 2) Adding hints, 3) Better tutorials",
			strings.Join(hard, ", ")))
	}
	if easy := levelsWith(out.ProblematicLevels, models.IssueTooEasy, 5); len(easy) > 0 {
		out.Recommendations = append(out.Recommendations, fmt.Sprintf(
			"Levels %s may be too easy (> 95%% completion). Consider increasing challenge to maintain engagement",
			strings.Join(easy, ", ")))
	}
	return out
}

func levelsWith(levels []models.ProblematicLevel, issue models.LevelIssue, limit int) []string {
	var out []string
	for _, l := range levels {
		for _, i := range l.Issues {
			if i == issue {
				out = append(out, strconv.Itoa(l.LevelNumber))
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

// Content measures how many users have run out of levels.
func Content(snap models.Snapshot) models.ContentRecommendations {
	out := models.ContentRecommendations{Recommendations: []models.ContentRecommendation{}}

	reached := make(map[string]int)
	for _, e := range snap.Events {
		_, number, ok := models.LevelRef(e)
		if !ok || number <= 0 {
			continue
		}
		out.MaxLevel = max(out.MaxLevel, number)
		reached[e.UserID] = max(reached[e.UserID], number)
	}
	if out.MaxLevel == 0 {
		return out
	}

	for _, n := range reached {
		if n == out.MaxLevel {
			out.UsersAtMax++
		}
	}
	exhaustion := stats.SafeDiv(float64(out.UsersAtMax), float64(len(snap.Users)))
	out.ExhaustionRisk = stats.Round(exhaustion, 3)

	if exhaustion > exhaustionThreshold {
		out.Recommendations = append(out.Recommendations, models.ContentRecommendation{
			Priority:        "high",
			Type:            "content_expansion",
			Message:         fmt.Sprintf("%d users (%.1f%%) have reached max level. Add new content urgently.", out.UsersAtMax, exhaustion*100),
			SuggestedLevels: 10,
		})
	}
	if out.MaxLevel < shallowContentLevel {
		out.Recommendations = append(out.Recommendations, models.ContentRecommendation{
			Priority:        "medium",
			Type:            "content_depth",
			Message:         fmt.Sprintf("Only %d levels available. Consider adding more content for long-term engagement.", out.MaxLevel),
			SuggestedLevels: shallowContentLevel - out.MaxLevel,
		})
	}
	return out
}
