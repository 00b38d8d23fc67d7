// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package recommend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/stats"
)

// Rule thresholds.
const (
	Day1Critical         = 40.0 // percent
	Day1Healthy          = 60.0
	Day7Low              = 20.0
	Day7Strong           = 30.0
	StickinessLow        = 0.15
	ConversionLow        = 2.0 // percent
	ConversionModerate   = 3.0
	ConversionMinUsers   = 100
	EngagedShareHigh     = 10.0 // percent of users
	ARPPULow             = 5.0
	ARPPUMinPayers       = 10
	ShortSessionMinutes  = 5.0
	LowSessionsPerUser   = 5.0
	HardestAvgDifficulty = 80.0
	FunnelMinSteps       = 5
	FunnelMajorDropOff   = 0.3
	MinContentLevels     = 20

	maxCriticalDropOffs = 3
	maxBottlenecks      = 2
	maxEasyLevels       = 3
)

// RuleFunc adapts a function to the Rule interface.
type RuleFunc struct {
	RuleName string
	Fn       func(in *Input) Result
}

// Name returns the rule name.
func (r RuleFunc) Name() string { return r.RuleName }

// Evaluate calls Fn.
func (r RuleFunc) Evaluate(in *Input) Result { return r.Fn(in) }

// DefaultRules returns the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		RuleFunc{"day1_retention", day1Retention},
		RuleFunc{"day7_retention", day7Retention},
		RuleFunc{"stickiness", stickiness},
		RuleFunc{"churn_risk", churnRisk},
		RuleFunc{"critical_drop_offs", criticalDropOffs},
		RuleFunc{"bottlenecks", bottlenecks},
		RuleFunc{"difficulty_curve", difficultyCurve},
		RuleFunc{"low_conversion", lowConversion},
		RuleFunc{"engaged_low_monetization", engagedLowMonetization},
		RuleFunc{"low_arppu", lowARPPU},
		RuleFunc{"short_sessions", shortSessions},
		RuleFunc{"session_frequency", sessionFrequency},
		RuleFunc{"progression_funnel", progressionFunnel},
		RuleFunc{"content_volume", contentVolume},
		RuleFunc{"positive_retention", positiveRetention},
		RuleFunc{"positive_conversion", positiveConversion},
		RuleFunc{"positive_easy_levels", positiveEasyLevels},
	}
}

func one(r models.Recommendation) Result {
	return Result{Recommendations: []models.Recommendation{r}}
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// conversionRate is paying users over total users, in percent.
func conversionRate(o *models.Overview) float64 {
	return stats.SafeDiv(float64(o.RevenueMetrics.PayingUsers), float64(o.UserMetrics.TotalUsers)) * 100
}

func day1Retention(in *Input) Result {
	d1 := in.Overview.RetentionRates.Day1
	switch {
	case d1 < Day1Critical:
		return one(models.Recommendation{
			Category: "Retention",
			Priority: models.PriorityCritical,
			Issue:    fmt.Sprintf("Very low Day 1 retention (%s)", pct(d1)),
			Impact:   "High user drop-off after first session",
			Actions: []string{
				"Improve first-time user experience (FTUE)",
				"Add tutorial skip option for experienced players",
				"Provide immediate rewards in first session",
				"Reduce barriers to core gameplay loop",
				"Send push notification 24 hours after first session",
			},
			ExpectedImprovement: "15-25% increase in Day 1 retention",
		})
	case d1 < Day1Healthy:
		return one(models.Recommendation{
			Category: "Retention",
			Priority: models.PriorityHigh,
			Issue:    fmt.Sprintf("Below average Day 1 retention (%s)", pct(d1)),
			Actions: []string{
				"Optimize onboarding flow",
				"Add progression rewards",
				"Implement better tutorial",
			},
		})
	}
	return Result{}
}

func day7Retention(in *Input) Result {
	d7 := in.Overview.RetentionRates.Day7
	if d7 >= Day7Low {
		return Result{}
	}
	return one(models.Recommendation{
		Category: "Retention",
		Priority: models.PriorityHigh,
		Issue:    fmt.Sprintf("Low Day 7 retention (%s)", pct(d7)),
		Impact:   "Players not forming habit",
		Actions: []string{
			"Implement daily login bonuses",
			"Add time-limited events",
			"Create compelling meta-progression system",
			"Introduce social features",
			"Send re-engagement notifications",
		},
	})
}

func stickiness(in *Input) Result {
	ratio := in.Overview.UserMetrics.DAUMAURatio
	if ratio >= StickinessLow {
		return Result{}
	}
	return one(models.Recommendation{
		Category: "Engagement",
		Priority: models.PriorityHigh,
		Issue:    fmt.Sprintf("Low DAU/MAU ratio (%.2f%%) indicates low stickiness", ratio*100),
		Actions: []string{
			"Add daily quests or challenges",
			"Implement energy/stamina system to encourage multiple sessions",
			"Create reasons to return daily",
			"Add guild or clan features",
		},
		Metrics: map[string]float64{"dau_mau_ratio": ratio},
	})
}

func churnRisk(in *Input) Result {
	var n int
	for _, p := range in.Churn {
		if p.RiskLevel == models.RiskHigh || p.RiskLevel == models.RiskCritical {
			n++
		}
	}
	if n == 0 {
		return Result{}
	}
	return one(models.Recommendation{
		Category: "Churn Prevention",
		Priority: models.PriorityHigh,
		Issue:    fmt.Sprintf("%d users at high/critical churn risk", n),
		Actions: []string{
			"Send targeted re-engagement campaigns",
			"Offer personalized incentives",
			"Identify common patterns in at-risk users",
			"Create win-back offers",
		},
		ActionRequired:  "Review individual users in the churn analysis",
		PlayersAffected: n,
	})
}

func criticalDropOffs(in *Input) Result {
	var res Result
	for _, l := range in.Levels.DropOffLevels {
		if l.Severity != models.DropOffCritical {
			continue
		}
		res.Recommendations = append(res.Recommendations, models.Recommendation{
			Category: "Level Difficulty",
			Priority: models.PriorityCritical,
			Issue:    fmt.Sprintf("Critical drop-off at %s (only %.1f%% complete)", l.LevelID, l.CompletionRate*100),
			Impact:   fmt.Sprintf("%d players stuck", l.PlayersStuck),
			Actions: []string{
				"Reduce difficulty or add checkpoints",
				"Provide skip option after 5+ fails",
				"Add hint system",
				"Rebalance enemy/obstacle placement",
				"Consider level redesign",
			},
			PlayersAffected: l.PlayersStuck,
			Metrics: map[string]float64{
				"completion_rate":  l.CompletionRate,
				"difficulty_score": l.DifficultyScore,
			},
		})
		if len(res.Recommendations) == maxCriticalDropOffs {
			break
		}
	}
	return res
}

func bottlenecks(in *Input) Result {
	var res Result
	for i, l := range in.Levels.BottleneckLevels {
		if i == maxBottlenecks {
			break
		}
		res.Recommendations = append(res.Recommendations, models.Recommendation{
			Category: "Level Difficulty",
			Priority: models.PriorityHigh,
			Issue:    fmt.Sprintf("Bottleneck at %s - high traffic, low completion", l.LevelID),
			Actions: []string{
				"Add difficulty options (easy/normal/hard)",
				"Improve level guidance",
				"Add practice mode",
				"Balance reward vs difficulty",
			},
			Metrics: map[string]float64{
				"total_attempts":  float64(l.TotalAttempts),
				"completion_rate": l.CompletionRate,
				"impact":          l.Impact,
			},
		})
	}
	return res
}

func difficultyCurve(in *Input) Result {
	hardest := in.Levels.HardestLevels
	if len(hardest) <= 3 {
		return Result{}
	}
	scores := make([]float64, len(hardest))
	for i, l := range hardest {
		scores[i] = l.DifficultyScore
	}
	avg := stats.Mean(scores)
	if avg <= HardestAvgDifficulty {
		return Result{}
	}
	return one(models.Recommendation{
		Category: "Level Design",
		Priority: models.PriorityMedium,
		Issue:    "Several extremely difficult levels may frustrate players",
		Actions: []string{
			"Review difficulty curve across game",
			"Add gradual difficulty ramp",
			"Place extremely hard levels as optional challenges",
			"Consider adaptive difficulty",
		},
		Metrics: map[string]float64{"avg_hardest_difficulty": stats.Round(avg, 2)},
	})
}

func lowConversion(in *Input) Result {
	rate := conversionRate(&in.Overview)
	if rate >= ConversionLow || in.Overview.UserMetrics.TotalUsers <= ConversionMinUsers {
		return Result{}
	}
	return one(models.Recommendation{
		Category: "Monetization",
		Priority: models.PriorityHigh,
		Issue:    fmt.Sprintf("Low conversion rate (%.2f%%)", rate),
		Actions: []string{
			"Improve first-time buyer offers",
			"Add limited-time sales",
			"Create better value propositions",
			"Implement starter packs",
			"Show benefits of premium features clearly",
			"A/B test pricing",
		},
		PotentialImpact: "Industry average is 2-5%, could double revenue",
	})
}

func engagedLowMonetization(in *Input) Result {
	engaged := in.Segments.Stages[models.StageEngaged].Percentage
	if engaged <= EngagedShareHigh || conversionRate(&in.Overview) >= ConversionModerate {
		return Result{}
	}
	return one(models.Recommendation{
		Category: "Monetization",
		Priority: models.PriorityMedium,
		Issue:    "High engagement but low monetization",
		Actions: []string{
			"Add more cosmetic items",
			"Implement season pass",
			"Create VIP membership",
			"Add quality-of-life purchases",
			"Introduce battle pass system",
		},
	})
}

func lowARPPU(in *Input) Result {
	rev := in.Overview.RevenueMetrics
	if rev.RevenuePerPayingUser >= ARPPULow || rev.PayingUsers <= ARPPUMinPayers {
		return Result{}
	}
	return one(models.Recommendation{
		Category: "Monetization",
		Priority: models.PriorityMedium,
		Issue:    fmt.Sprintf("Low ARPPU ($%.2f)", rev.RevenuePerPayingUser),
		Actions: []string{
			"Add premium content for whales",
			"Create exclusive items",
			"Implement bundle deals",
			"Add subscription options",
		},
	})
}

func shortSessions(in *Input) Result {
	avg := in.Overview.SessionMetrics.AvgSessionDurationMinutes
	if avg >= ShortSessionMinutes {
		return Result{}
	}
	return one(models.Recommendation{
		Category: "Engagement",
		Priority: models.PriorityMedium,
		Issue:    fmt.Sprintf("Short average session duration (%.1f minutes)", avg),
		Actions: []string{
			"Add more engaging core loop",
			"Implement progression hooks",
			`Create "one more turn" mechanics`,
			"Add meta-game features",
			"Improve reward pacing",
		},
	})
}

func sessionFrequency(in *Input) Result {
	if in.Overview.UserMetrics.AvgSessionsPerUser >= LowSessionsPerUser {
		return Result{}
	}
	return one(models.Recommendation{
		Category: "Engagement",
		Priority: models.PriorityMedium,
		Issue:    "Low average sessions per user",
		Actions: []string{
			"Add reasons to return",
			"Implement notifications strategically",
			"Create daily rewards",
			"Add limited-time content",
		},
	})
}

func progressionFunnel(in *Input) Result {
	f := in.Levels.ProgressionFunnel
	if len(f.Steps) <= FunnelMinSteps || f.BiggestDropOff == nil || f.BiggestDropOff.DropOffRate <= FunnelMajorDropOff {
		return Result{}
	}
	step := f.BiggestDropOff
	return one(models.Recommendation{
		Category: "Content Progression",
		Priority: models.PriorityHigh,
		Issue:    fmt.Sprintf("Major drop-off at level %d (%.1f%% don't continue)", step.LevelNumber, step.DropOffRate*100),
		Actions: []string{
			"Investigate level design",
			"Check if difficulty spike",
			"Add incentive to continue",
			"Review monetization gates",
			"Consider level reordering",
		},
		PlayersAffected: step.DropOffToNext,
	})
}

func contentVolume(in *Input) Result {
	if len(in.Levels.LevelStats) == 0 {
		return Result{}
	}
	var maxLevel int
	for _, s := range in.Levels.LevelStats {
		maxLevel = max(maxLevel, s.LevelNumber)
	}
	if maxLevel >= MinContentLevels {
		return Result{}
	}
	return one(models.Recommendation{
		Category: "Content",
		Priority: models.PriorityHigh,
		Issue:    fmt.Sprintf("Limited content (%d levels)", maxLevel),
		Actions: []string{
			"Add more levels to increase lifetime value",
			"Create endless mode",
			"Add procedural content",
			"Implement level editor",
			"Add challenge modes",
		},
	})
}

func positiveRetention(in *Input) Result {
	var res Result
	r := in.Overview.RetentionRates
	if r.Day1 > Day1Healthy {
		res.Positives = append(res.Positives, models.PositiveInsight{
			Achievement:    fmt.Sprintf("Excellent Day 1 retention (%s)", pct(r.Day1)),
			Insight:        "Onboarding and first-time experience are working well",
			Recommendation: "Document what makes FTUE successful for future games",
		})
	}
	if r.Day7 > Day7Strong {
		res.Positives = append(res.Positives, models.PositiveInsight{
			Achievement:    fmt.Sprintf("Strong Day 7 retention (%s)", pct(r.Day7)),
			Insight:        "Players are forming habits and enjoying the game",
			Recommendation: "Maintain core loop, iterate on meta features",
		})
	}
	return res
}

func positiveConversion(in *Input) Result {
	rate := conversionRate(&in.Overview)
	if rate <= ConversionModerate {
		return Result{}
	}
	return Result{Positives: []models.PositiveInsight{{
		Achievement:    fmt.Sprintf("Good conversion rate (%.2f%%)", rate),
		Insight:        "Monetization is well-balanced",
		Recommendation: "Consider scaling marketing efforts",
	}}}
}

func positiveEasyLevels(in *Input) Result {
	easiest := in.Levels.EasiestLevels
	if len(easiest) == 0 {
		return Result{}
	}
	ids := make([]string, 0, maxEasyLevels)
	for i, l := range easiest {
		if i == maxEasyLevels {
			break
		}
		ids = append(ids, l.LevelID)
	}
	return Result{Positives: []models.PositiveInsight{{
		Achievement:    "Well-designed easy levels for onboarding",
		Insight:        fmt.Sprintf("Levels %s have high completion rates", strings.Join(ids, ", ")),
		Recommendation: "Use similar design principles for future early levels",
	}}}
}
