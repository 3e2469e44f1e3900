package grading

import (
	"context"
	"errors"
	"fmt"

	"github.com/studyforge/quiz-session-service/internal/cache"
	apperrors "github.com/studyforge/quiz-session-service/internal/errors"
	"github.com/studyforge/quiz-session-service/internal/events"
	"github.com/studyforge/quiz-session-service/internal/models"
	"github.com/studyforge/quiz-session-service/internal/repositories"
	"github.com/studyforge/quiz-session-service/internal/utils"
)

// SubmitResult is what the coordinator hands back to the session after a
// successful grading round trip.
type SubmitResult struct {
	AttemptID    uint
	Score        int
	CorrectCount int
	TotalCount   int
}

// RevalidateResult carries the reconciled grading detail. The flat result
// shape yields a Detail with no per-question breakdown.
type RevalidateResult struct {
	AttemptID uint
	OldScore  int
	NewScore  int
	Detail    *models.ValidationResult
}

// Coordinator drives grading calls on behalf of sessions: it shapes the
// request, classifies transport failures as retryable, reconciles the two
// result shapes and publishes lifecycle events. It holds no session state,
// so one coordinator serves every session.
type Coordinator struct {
	service   GradingService
	publisher events.EventPublisher
	cache     cache.CacheService
	logger    utils.Logger
}

// NewCoordinator builds a coordinator. cache may be nil when caching is
// disabled.
func NewCoordinator(service GradingService, publisher events.EventPublisher, c cache.CacheService, logger utils.Logger) *Coordinator {
	return &Coordinator{
		service:   service,
		publisher: publisher,
		cache:     c,
		logger:    logger,
	}
}

// Submit grades the collected answers. Unanswered sentinels are left out of
// the request; the grading side counts every missing question as wrong.
func (c *Coordinator) Submit(ctx context.Context, quiz *models.Quiz, userID uint, answers models.AnswerList) (*SubmitResult, error) {
	req := SubmitRequest{
		QuizID:  quiz.ID,
		UserID:  userID,
		Answers: make([]SubmittedAnswer, 0, len(answers)),
	}
	for i, a := range answers {
		if !a.IsAnswered() {
			continue
		}
		if i >= len(quiz.Questions) {
			break
		}
		req.Answers = append(req.Answers, SubmittedAnswer{
			QuestionID: quiz.Questions[i].ID,
			Answer:     a,
		})
	}

	resp, err := c.service.Submit(ctx, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrSubmissionRejected) {
			return nil, err
		}
		c.logger.ErrorContext(ctx, "Grading submit failed", "quiz_id", quiz.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNetworkFailure, err)
	}

	c.publish(ctx, events.NewAttemptSubmittedEvent(
		resp.AttemptID, quiz.ID, quiz.Title, userID,
		resp.Score, resp.CorrectCount, resp.TotalCount))

	if c.cache != nil {
		if err := repositories.InvalidateAnalytics(ctx, c.cache, quiz.ID); err != nil {
			c.logger.WarnContext(ctx, "Analytics cache invalidation failed", "quiz_id", quiz.ID, "error", err)
		}
	}

	return &SubmitResult{
		AttemptID:    resp.AttemptID,
		Score:        resp.Score,
		CorrectCount: resp.CorrectCount,
		TotalCount:   resp.TotalCount,
	}, nil
}

// Revalidate re-grades a stored attempt and reconciles whichever result shape
// the grader returned. A payload matching neither shape is never applied.
func (c *Coordinator) Revalidate(ctx context.Context, quiz *models.Quiz, userID, attemptID uint) (*RevalidateResult, error) {
	resp, err := c.service.Revalidate(ctx, attemptID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAttemptNotFound) || errors.Is(err, apperrors.ErrQuizNotFound) {
			return nil, err
		}
		c.logger.ErrorContext(ctx, "Revalidation failed", "attempt_id", attemptID, "error", err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNetworkFailure, err)
	}

	detail, score, err := NormalizeValidation(resp.Payload)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidationUnavailable) {
			return nil, err
		}
		c.logger.ErrorContext(ctx, "Unrecognized grading result shape",
			"attempt_id", attemptID, "payload", string(resp.Payload))
		return nil, err
	}

	result := &RevalidateResult{
		AttemptID: resp.AttemptID,
		OldScore:  resp.OldScore,
		NewScore:  score,
		Detail:    detail,
	}

	c.publish(ctx, events.NewAttemptRevalidatedEvent(
		attemptID, quiz.ID, userID, resp.OldScore, score, string(detail.Method)))

	if c.cache != nil {
		if err := repositories.InvalidateAnalytics(ctx, c.cache, quiz.ID); err != nil {
			c.logger.WarnContext(ctx, "Analytics cache invalidation failed", "quiz_id", quiz.ID, "error", err)
		}
	}

	return result, nil
}

func (c *Coordinator) publish(ctx context.Context, event *events.QuizEvent) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishQuizEvent(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "Event publish failed", "event_type", event.Type, "error", err)
	}
}
