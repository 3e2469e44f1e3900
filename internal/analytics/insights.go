package analytics

import (
	"fmt"

	"github.com/studyforge/quiz-session-service/internal/models"
)

// Insight thresholds. Trend and consistency insights need enough history to
// mean anything; a lone attempt only ever produces the take-again nudge.
const (
	masteryThreshold    = 90
	trendThreshold      = 5.0
	consistentThreshold = 80
	varyingThreshold    = 50
	reviewThreshold     = 50
	minAttemptsForShape = 3
)

// buildInsights derives the human-readable observations for a report. The
// order is fixed so repeated runs over the same history produce identical
// output.
func buildInsights(a *models.QuizAnalytics) []string {
	if a.TotalAttempts == 0 {
		return []string{"No attempts yet. Take the quiz to see your analytics."}
	}

	var insights []string

	if a.BestScore >= masteryThreshold {
		insights = append(insights,
			fmt.Sprintf("Excellent work! Your best score of %d%% shows strong mastery.", a.BestScore))
	}
	if a.HasTrend && a.ImprovementTrend > trendThreshold {
		insights = append(insights,
			fmt.Sprintf("Your scores are improving, up %.0f points across recent attempts.", a.ImprovementTrend))
	}
	if a.HasTrend && a.ImprovementTrend < -trendThreshold {
		insights = append(insights,
			fmt.Sprintf("Your recent scores dropped %.0f points. A refresher may help.", -a.ImprovementTrend))
	}
	if a.TotalAttempts >= minAttemptsForShape {
		if a.ConsistencyScore >= consistentThreshold {
			insights = append(insights, "Your scores are very consistent across attempts.")
		} else if a.ConsistencyScore < varyingThreshold {
			insights = append(insights, "Your scores vary widely. Focus on the topics you miss most.")
		}
	}
	if a.TotalAttempts == 1 {
		insights = append(insights, "Take the quiz again to track your progress over time.")
	}
	if a.AvgScore < reviewThreshold {
		insights = append(insights,
			fmt.Sprintf("Your average of %d%% suggests reviewing the material before retaking.", a.AvgScore))
	}

	if len(insights) == 0 {
		insights = append(insights, "Keep practicing to improve your scores.")
	}
	return insights
}
