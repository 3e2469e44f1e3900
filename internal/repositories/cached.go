package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studyforge/quiz-session-service/internal/cache"
	"github.com/studyforge/quiz-session-service/internal/models"
	"github.com/studyforge/quiz-session-service/internal/utils"
)

const (
	quizTTL = 30 * time.Minute
	seedTTL = 5 * time.Minute
)

// cachedQuizRepository layers a cache over quiz lookups. Quiz payloads are
// immutable once generated so a long TTL is safe; analytics seeds go stale on
// every new attempt and are evicted by InvalidateAnalytics.
type cachedQuizRepository struct {
	inner  QuizRepository
	cache  cache.CacheService
	logger utils.Logger
}

func NewCachedQuizRepository(inner QuizRepository, c cache.CacheService, logger utils.Logger) QuizRepository {
	return &cachedQuizRepository{inner: inner, cache: c, logger: logger}
}

func quizKey(id uint) string {
	return fmt.Sprintf("quiz:%d", id)
}

func seedKey(quizID, userID uint) string {
	return fmt.Sprintf("quiz:%d:seed:%d", quizID, userID)
}

func (r *cachedQuizRepository) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.cache.Get(ctx, quizKey(id), &quiz)
	if err == nil {
		return &quiz, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("Quiz cache read failed", "quiz_id", id, "error", err)
	}

	fresh, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, quizKey(id), fresh, quizTTL); err != nil {
		r.logger.Warn("Quiz cache write failed", "quiz_id", id, "error", err)
	}
	return fresh, nil
}

func (r *cachedQuizRepository) GetAttempts(ctx context.Context, quizID, userID uint) ([]*models.QuizAttempt, error) {
	// Attempt lists change on every submit; not worth caching.
	return r.inner.GetAttempts(ctx, quizID, userID)
}

func (r *cachedQuizRepository) GetAnalyticsSeed(ctx context.Context, quizID, userID uint) (*models.AnalyticsSeed, error) {
	var seed models.AnalyticsSeed
	err := r.cache.Get(ctx, seedKey(quizID, userID), &seed)
	if err == nil {
		return &seed, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("Analytics seed cache read failed", "quiz_id", quizID, "error", err)
	}

	fresh, err := r.inner.GetAnalyticsSeed(ctx, quizID, userID)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, seedKey(quizID, userID), fresh, seedTTL); err != nil {
		r.logger.Warn("Analytics seed cache write failed", "quiz_id", quizID, "error", err)
	}
	return fresh, nil
}

// InvalidateAnalytics drops cached seeds for a quiz after a new attempt.
func InvalidateAnalytics(ctx context.Context, c cache.CacheService, quizID uint) error {
	return c.DeletePattern(ctx, fmt.Sprintf("quiz:%d:seed:*", quizID))
}
