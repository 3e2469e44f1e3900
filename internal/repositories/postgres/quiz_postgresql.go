package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/studyforge/quiz-session-service/internal/models"
	"github.com/studyforge/quiz-session-service/internal/repositories"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

func (q QuizPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_order ASC")
		}).
		First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q QuizPostgreSQL) GetAttempts(ctx context.Context, quizID, userID uint) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	if err := q.db.WithContext(ctx).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Order("submitted_at DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (q QuizPostgreSQL) GetAnalyticsSeed(ctx context.Context, quizID, userID uint) (*models.AnalyticsSeed, error) {
	var seed models.AnalyticsSeed
	row := q.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Select("COUNT(*) AS total_attempts, COALESCE(AVG(score), 0) AS avg_score, COALESCE(MAX(score), 0) AS best_score").
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Row()
	if err := row.Scan(&seed.TotalAttempts, &seed.AvgScore, &seed.BestScore); err != nil {
		return nil, err
	}

	// Oldest-first score series for trend and consistency derivation.
	var scores []int
	if err := q.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Order("submitted_at ASC").
		Limit(50).
		Pluck("score", &scores).Error; err != nil {
		return nil, err
	}
	seed.RecentScores = scores

	return &seed, nil
}
