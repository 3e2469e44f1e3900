package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/studyforge/quiz-session-service/internal/models"
)

// Aggregate computes the analytics view over a quiz's attempt history.
// Attempts may arrive in any order; scoring windows are built from
// submission time, oldest first. An empty history yields a zeroed report
// with the single "no attempts" insight.
func Aggregate(quizID uint, attempts []*models.QuizAttempt) *models.QuizAnalytics {
	scores := scoresBySubmission(attempts)
	return fromScores(quizID, scores)
}

// FromSeed builds the analytics view from a pre-aggregated seed, used when
// the full attempt rows were not loaded. The seed's recent-score window
// drives trend and consistency; totals come from the seed's aggregates.
func FromSeed(quizID uint, seed *models.AnalyticsSeed) *models.QuizAnalytics {
	a := fromScores(quizID, seed.RecentScores)
	a.TotalAttempts = seed.TotalAttempts
	if seed.TotalAttempts > 0 {
		a.AvgScore = int(math.Round(seed.AvgScore))
		if seed.BestScore > a.BestScore {
			a.BestScore = seed.BestScore
		}
	}
	a.Insights = buildInsights(a)
	return a
}

func fromScores(quizID uint, scores []int) *models.QuizAnalytics {
	a := &models.QuizAnalytics{
		QuizID:        quizID,
		TotalAttempts: len(scores),
		GeneratedAt:   time.Now(),
	}
	if len(scores) == 0 {
		a.Insights = buildInsights(a)
		return a
	}

	best, worst, sum := scores[0], scores[0], 0
	for _, s := range scores {
		if s > best {
			best = s
		}
		if s < worst {
			worst = s
		}
		sum += s
	}
	a.BestScore = best
	a.WorstScore = worst
	a.AvgScore = int(math.Round(float64(sum) / float64(len(scores))))

	a.ImprovementTrend, a.HasTrend = improvementTrend(scores)
	a.ConsistencyScore = consistencyScore(scores)
	a.Insights = buildInsights(a)
	return a
}

// improvementTrend compares the mean of the newest third of scores against
// the mean of the oldest third, windows of ceil(n/3). Two attempts compare
// directly; fewer give no trend.
func improvementTrend(scores []int) (float64, bool) {
	n := len(scores)
	switch {
	case n <= 1:
		return 0, false
	case n == 2:
		return float64(scores[1] - scores[0]), true
	}

	window := (n + 2) / 3
	return mean(scores[n-window:]) - mean(scores[:window]), true
}

// consistencyScore maps the standard deviation of scores onto 0-100:
// clamp(100 - 2*stddev). Identical scores give 100.
func consistencyScore(scores []int) int {
	if len(scores) == 0 {
		return 0
	}

	m := mean(scores)
	var variance float64
	for _, s := range scores {
		d := float64(s) - m
		variance += d * d
	}
	variance /= float64(len(scores))

	score := 100 - 2*math.Sqrt(variance)
	if score < 0 {
		return 0
	}
	return int(math.Round(score))
}

func mean(scores []int) float64 {
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

func scoresBySubmission(attempts []*models.QuizAttempt) []int {
	sorted := make([]*models.QuizAttempt, len(attempts))
	copy(sorted, attempts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SubmittedAt.Before(sorted[j].SubmittedAt)
	})

	scores := make([]int, len(sorted))
	for i, attempt := range sorted {
		scores[i] = attempt.Score
	}
	return scores
}
