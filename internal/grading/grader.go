package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"

	apperrors "github.com/studyforge/quiz-session-service/internal/errors"
	"github.com/studyforge/quiz-session-service/internal/models"
	"github.com/studyforge/quiz-session-service/internal/repositories"
	"github.com/studyforge/quiz-session-service/internal/utils"
)

// grader is the deterministic GradingService. Submit performs exact-match
// scoring and persists the attempt; Revalidate re-grades a stored attempt,
// consulting the LLM validator when one is configured.
type grader struct {
	repo      repositories.Repository
	validator AnswerValidator
	logger    utils.Logger
}

// NewGrader builds the grading service. validator may be nil, in which case
// revalidation repeats the deterministic pass and returns the flat result
// shape.
func NewGrader(repo repositories.Repository, validator AnswerValidator, logger utils.Logger) GradingService {
	return &grader{
		repo:      repo,
		validator: validator,
		logger:    logger,
	}
}

func (g *grader) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	quiz, err := g.repo.Quiz().GetByID(ctx, req.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: quiz %d", apperrors.ErrSubmissionRejected, req.QuizID)
		}
		return nil, fmt.Errorf("load quiz %d: %w", req.QuizID, err)
	}

	answers := make(models.AnswerList, len(quiz.Questions))
	for i := range answers {
		answers[i] = models.NoAnswer()
	}

	positions := make(map[uint]int, len(quiz.Questions))
	for i, q := range quiz.Questions {
		positions[q.ID] = i
	}
	for _, sa := range req.Answers {
		pos, ok := positions[sa.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: question %d not in quiz %d", apperrors.ErrSubmissionRejected, sa.QuestionID, req.QuizID)
		}
		answers[pos] = sa.Answer
	}

	correct := 0
	for i, q := range quiz.Questions {
		if gradeAnswer(&q, answers[i]) {
			correct++
		}
	}
	score := percentScore(correct, len(quiz.Questions))

	attempt := &models.QuizAttempt{
		QuizID:      quiz.ID,
		UserID:      req.UserID,
		Score:       score,
		SubmittedAt: time.Now(),
		Answers:     datatypes.NewJSONType(answers),
	}
	if err := g.repo.Attempt().Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("persist attempt: %w", err)
	}

	g.logger.InfoContext(ctx, "Attempt graded",
		"quiz_id", quiz.ID,
		"attempt_id", attempt.ID,
		"score", score,
		"correct", correct,
		"total", len(quiz.Questions))

	return &SubmitResponse{
		AttemptID:    attempt.ID,
		Score:        score,
		CorrectCount: correct,
		TotalCount:   len(quiz.Questions),
	}, nil
}

func (g *grader) Revalidate(ctx context.Context, attemptID uint) (*RevalidateResponse, error) {
	attempt, err := g.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: attempt %d", apperrors.ErrAttemptNotFound, attemptID)
		}
		return nil, fmt.Errorf("load attempt %d: %w", attemptID, err)
	}

	quiz, err := g.repo.Quiz().GetByID(ctx, attempt.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: quiz %d", apperrors.ErrQuizNotFound, attempt.QuizID)
		}
		return nil, fmt.Errorf("load quiz %d: %w", attempt.QuizID, err)
	}

	answers := attempt.Answers.Data()
	payload, result, newScore := g.regrade(ctx, quiz, answers)

	if err := g.repo.Attempt().UpdateValidation(ctx, attempt.ID, newScore, result, time.Now()); err != nil {
		return nil, fmt.Errorf("update attempt %d: %w", attempt.ID, err)
	}

	g.logger.InfoContext(ctx, "Attempt revalidated",
		"attempt_id", attempt.ID,
		"old_score", attempt.Score,
		"new_score", newScore,
		"method", result.Method)

	return &RevalidateResponse{
		AttemptID: attempt.ID,
		OldScore:  attempt.Score,
		NewScore:  newScore,
		Payload:   payload,
	}, nil
}

// regrade produces the grading payload in whichever shape the grading pass
// supports: the rich per-question shape when the LLM validator succeeds, the
// flat shape otherwise.
func (g *grader) regrade(ctx context.Context, quiz *models.Quiz, answers models.AnswerList) (json.RawMessage, *models.ValidationResult, int) {
	if g.validator != nil {
		result, err := g.validator.ValidateAttempt(ctx, quiz, answers)
		if err == nil && result != nil {
			payload, merr := json.Marshal(result)
			if merr == nil {
				return payload, result, roundScore(result.OverallScore)
			}
			err = merr
		}
		g.logger.WarnContext(ctx, "LLM validation failed, falling back to exact matching",
			"quiz_id", quiz.ID, "error", err)
	}

	correct := 0
	for i, q := range quiz.Questions {
		var answer models.Answer
		if i < len(answers) {
			answer = answers[i]
		}
		if gradeAnswer(&q, answer) {
			correct++
		}
	}
	score := percentScore(correct, len(quiz.Questions))

	payload, _ := json.Marshal(map[string]int{
		"score":           score,
		"correct_answers": correct,
	})
	result := &models.ValidationResult{
		OverallScore: float64(score),
		Method:       models.ValidationBasic,
	}
	return payload, result, score
}

// gradeAnswer is the exact-match check. Unanswered is always wrong. Text
// comparison for short answers ignores case and surrounding whitespace;
// fill-in-blank requires every blank to match exactly.
func gradeAnswer(q *models.Question, a models.Answer) bool {
	if !a.IsAnswered() {
		return false
	}

	switch q.Type {
	case models.MultipleChoice, models.TrueFalse:
		return a.Kind == models.AnswerChoice &&
			a.OptionIndex == q.Correct.Data().OptionIndex

	case models.ShortAnswer:
		if a.Kind != models.AnswerText {
			return false
		}
		expected := strings.TrimSpace(q.Correct.Data().Text)
		return expected != "" && strings.EqualFold(strings.TrimSpace(a.Text), expected)

	case models.FillInBlank:
		if a.Kind != models.AnswerBlanks {
			return false
		}
		expected := q.Correct.Data().Blanks
		if len(a.Blanks) != len(expected) {
			return false
		}
		for i, blank := range a.Blanks {
			if blank == nil || expected[i] == nil || *blank != *expected[i] {
				return false
			}
		}
		return true

	default:
		return false
	}
}

func percentScore(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}
