package postgres

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studyforge/quiz-session-service/internal/models"
	"github.com/studyforge/quiz-session-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a AttemptPostgreSQL) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	if attempt.SubmittedAt.IsZero() {
		attempt.SubmittedAt = time.Now()
	}
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) UpdateValidation(ctx context.Context, id uint, score int, result *models.ValidationResult, revalidatedAt time.Time) error {
	return a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"score":              score,
			"validation_results": datatypes.NewJSONType(result),
			"revalidated_at":     revalidatedAt,
		}).Error
}

type postgresRepository struct {
	quiz    repositories.QuizRepository
	attempt repositories.AttemptRepository
}

// NewRepository bundles the GORM-backed repositories.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &postgresRepository{
		quiz:    NewQuizPostgreSQL(db),
		attempt: NewAttemptPostgreSQL(db),
	}
}

func (r *postgresRepository) Quiz() repositories.QuizRepository {
	return r.quiz
}

func (r *postgresRepository) Attempt() repositories.AttemptRepository {
	return r.attempt
}
