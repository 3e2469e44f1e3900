package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/studyforge/quiz-session-service/internal/models"
)

// QuizRepository supplies quiz definitions and attempt history. Quizzes are
// immutable once generated; question order must be preserved.
type QuizRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	GetAttempts(ctx context.Context, quizID, userID uint) ([]*models.QuizAttempt, error)
	GetAnalyticsSeed(ctx context.Context, quizID, userID uint) (*models.AnalyticsSeed, error)
}

// AttemptRepository persists attempts on behalf of the grading side. Attempts
// are never deleted here; re-validation augments, it does not replace rows.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error)
	UpdateValidation(ctx context.Context, id uint, score int, result *models.ValidationResult, revalidatedAt time.Time) error
}

type Repository interface {
	Quiz() QuizRepository
	Attempt() AttemptRepository
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

type composite struct {
	quiz    QuizRepository
	attempt AttemptRepository
}

// Compose bundles independently decorated repositories, used to layer the
// cache over quiz lookups without touching attempt persistence.
func Compose(quiz QuizRepository, attempt AttemptRepository) Repository {
	return &composite{quiz: quiz, attempt: attempt}
}

func (c *composite) Quiz() QuizRepository       { return c.quiz }
func (c *composite) Attempt() AttemptRepository { return c.attempt }
