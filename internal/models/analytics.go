package models

import "time"

// QuizAnalytics is the aggregated view over one quiz's attempt history.
type QuizAnalytics struct {
	QuizID        uint `json:"quiz_id"`
	TotalAttempts int  `json:"total_attempts"`
	BestScore     int  `json:"best_score"`
	WorstScore    int  `json:"worst_score"`
	AvgScore      int  `json:"avg_score"`

	// ImprovementTrend compares the newest third of attempts against the
	// oldest third. Meaningless with a single attempt; HasTrend is false then.
	ImprovementTrend float64 `json:"improvement_trend"`
	HasTrend         bool    `json:"has_trend"`

	// ConsistencyScore maps score variance onto 0-100: zero variance is 100,
	// wide spreads approach 0.
	ConsistencyScore int `json:"consistency_score"`

	Insights    []string  `json:"insights"`
	GeneratedAt time.Time `json:"generated_at"`
}

// AnalyticsSeed is the pre-aggregated form a repository may hand over instead
// of raw attempts. RecentScores is ordered oldest first.
type AnalyticsSeed struct {
	TotalAttempts int     `json:"total_attempts"`
	AvgScore      float64 `json:"avg_score"`
	BestScore     int     `json:"best_score"`
	RecentScores  []int   `json:"recent_scores"`
}
