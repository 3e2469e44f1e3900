package grading

import (
	"context"
	"encoding/json"

	"github.com/studyforge/quiz-session-service/internal/models"
)

// SubmittedAnswer pairs a question with the answer being graded. The answer
// may be the unanswered sentinel; graders count those as wrong.
type SubmittedAnswer struct {
	QuestionID uint          `json:"question_id"`
	Answer     models.Answer `json:"answer"`
}

type SubmitRequest struct {
	QuizID  uint              `json:"quiz_id" validate:"required"`
	UserID  uint              `json:"user_id" validate:"required"`
	Answers []SubmittedAnswer `json:"answers"`
}

type SubmitResponse struct {
	AttemptID    uint `json:"attempt_id"`
	Score        int  `json:"score"`
	CorrectCount int  `json:"correct_answers"`
	TotalCount   int  `json:"total_questions"`
}

// RevalidateResponse carries the raw grading payload alongside the scores so
// the caller can reconcile whichever result shape the grader produced.
type RevalidateResponse struct {
	AttemptID uint            `json:"attempt_id"`
	OldScore  int             `json:"old_score"`
	NewScore  int             `json:"new_score"`
	Payload   json.RawMessage `json:"payload"`
}

// GradingService scores submissions and re-grades stored attempts. Submit is
// the fast deterministic pass; Revalidate may consult an LLM for per-question
// feedback and returns its result in one of two payload shapes.
type GradingService interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error)
	Revalidate(ctx context.Context, attemptID uint) (*RevalidateResponse, error)
}
