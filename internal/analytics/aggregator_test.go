package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyforge/quiz-session-service/internal/models"
)

func attemptsWithScores(scores ...int) []*models.QuizAttempt {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	attempts := make([]*models.QuizAttempt, len(scores))
	for i, score := range scores {
		attempts[i] = &models.QuizAttempt{
			ID:          uint(i + 1),
			QuizID:      1,
			UserID:      7,
			Score:       score,
			SubmittedAt: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return attempts
}

func TestAggregate_Basics(t *testing.T) {
	report := Aggregate(1, attemptsWithScores(60, 70, 90))

	assert.Equal(t, uint(1), report.QuizID)
	assert.Equal(t, 3, report.TotalAttempts)
	assert.Equal(t, 90, report.BestScore)
	assert.Equal(t, 60, report.WorstScore)
	assert.Equal(t, 73, report.AvgScore)

	require.True(t, report.HasTrend)
	assert.InDelta(t, 30.0, report.ImprovementTrend, 0.001)

	// stddev of [60,70,90] is ~12.47, so 100-2*stddev rounds to 75.
	assert.Equal(t, 75, report.ConsistencyScore)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestAggregate_OrdersBySubmissionTime(t *testing.T) {
	attempts := attemptsWithScores(60, 90)
	// Same scores handed over newest-first must give the same trend.
	reversed := []*models.QuizAttempt{attempts[1], attempts[0]}

	report := Aggregate(1, reversed)
	require.True(t, report.HasTrend)
	assert.InDelta(t, 30.0, report.ImprovementTrend, 0.001)
}

func TestAggregate_TwoAttemptsCompareDirectly(t *testing.T) {
	report := Aggregate(1, attemptsWithScores(80, 65))
	require.True(t, report.HasTrend)
	assert.InDelta(t, -15.0, report.ImprovementTrend, 0.001)
}

func TestAggregate_SingleAttemptHasNoTrend(t *testing.T) {
	report := Aggregate(1, attemptsWithScores(75))
	assert.False(t, report.HasTrend)
	assert.Equal(t, 75, report.BestScore)
	assert.Equal(t, 75, report.WorstScore)
	assert.Contains(t, report.Insights, "Take the quiz again to track your progress over time.")
}

func TestAggregate_Empty(t *testing.T) {
	report := Aggregate(1, nil)
	assert.Equal(t, 0, report.TotalAttempts)
	assert.False(t, report.HasTrend)
	assert.Equal(t, []string{"No attempts yet. Take the quiz to see your analytics."}, report.Insights)
}

func TestConsistencyScore(t *testing.T) {
	// Identical scores are perfectly consistent.
	assert.Equal(t, 100, consistencyScore([]int{70, 70, 70}))

	// Wider spreads score lower.
	tight := consistencyScore([]int{70, 72, 74})
	wide := consistencyScore([]int{20, 60, 100})
	assert.Greater(t, tight, wide)

	// Extreme spreads clamp at zero.
	assert.Equal(t, 0, consistencyScore([]int{0, 100, 0, 100, 0, 100}))
}

func TestImprovementTrend_Windows(t *testing.T) {
	// Six scores use windows of two: mean(90,100) - mean(40,50) = 50.
	trend, ok := improvementTrend([]int{40, 50, 60, 80, 90, 100})
	require.True(t, ok)
	assert.InDelta(t, 50.0, trend, 0.001)

	// Four scores use windows of two as well: ceil(4/3) = 2.
	trend, ok = improvementTrend([]int{50, 60, 70, 80})
	require.True(t, ok)
	assert.InDelta(t, 20.0, trend, 0.001)

	_, ok = improvementTrend([]int{70})
	assert.False(t, ok)
	_, ok = improvementTrend(nil)
	assert.False(t, ok)
}

func TestBuildInsights_Deterministic(t *testing.T) {
	report := Aggregate(1, attemptsWithScores(60, 70, 90))
	again := Aggregate(1, attemptsWithScores(60, 70, 90))
	assert.Equal(t, report.Insights, again.Insights)

	// Best score 90 and a rising trend produce both insights, mastery first.
	require.GreaterOrEqual(t, len(report.Insights), 2)
	assert.Contains(t, report.Insights[0], "mastery")
	assert.Contains(t, report.Insights[1], "improving")
}

func TestBuildInsights_LowAverage(t *testing.T) {
	report := Aggregate(1, attemptsWithScores(30, 35, 40))
	found := false
	for _, insight := range report.Insights {
		if insight == "Your average of 35% suggests reviewing the material before retaking." {
			found = true
		}
	}
	assert.True(t, found, "expected review insight, got %v", report.Insights)
}

func TestFromSeed(t *testing.T) {
	seed := &models.AnalyticsSeed{
		TotalAttempts: 10,
		AvgScore:      72.4,
		BestScore:     95,
		RecentScores:  []int{60, 70, 90},
	}

	report := FromSeed(1, seed)
	assert.Equal(t, 10, report.TotalAttempts)
	assert.Equal(t, 72, report.AvgScore)
	// The all-time best wins over the recent window's best.
	assert.Equal(t, 95, report.BestScore)
	assert.True(t, report.HasTrend)
}

func TestFromSeed_Empty(t *testing.T) {
	report := FromSeed(1, &models.AnalyticsSeed{})
	assert.Equal(t, 0, report.TotalAttempts)
	assert.Equal(t, []string{"No attempts yet. Take the quiz to see your analytics."}, report.Insights)
}
