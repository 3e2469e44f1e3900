package models

import (
	"time"

	"gorm.io/datatypes"
)

type ValidationMethod string

const (
	ValidationBasic ValidationMethod = "basic"
	ValidationLLM   ValidationMethod = "llm"
)

// QuestionValidation is the per-question breakdown of an AI re-grading pass.
// ScorePercentage may carry partial credit and is not restricted to 0/100.
type QuestionValidation struct {
	QuestionID      uint    `json:"question_id"`
	ScorePercentage float64 `json:"score_percentage" validate:"min=0,max=100"`
	Feedback        string  `json:"feedback"`
	PartialCredit   string  `json:"partial_credit,omitempty"`
	StudentAnswer   Answer  `json:"student_answer"`
}

// ValidationResult is the reconciled grading detail attached to an attempt by
// re-validation. Method distinguishes the quick deterministic pass from
// AI grading so the UI and analytics can tell them apart.
type ValidationResult struct {
	OverallScore float64              `json:"overall_score"`
	Method       ValidationMethod     `json:"validation_method"`
	Questions    []QuestionValidation `json:"validation_results"`
}

// QuizAttempt is one run through a quiz. The id is assigned by the grading
// side on submission. Score is always an integer percentage; the optional
// validation detail may hold fractional per-question scores.
type QuizAttempt struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	QuizID      uint      `json:"quiz_id" gorm:"not null;index"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	Score       int       `json:"score" gorm:"not null" validate:"min=0,max=100"`
	SubmittedAt time.Time `json:"submitted_at"`

	Answers           datatypes.JSONType[AnswerList]        `json:"answers"`
	ValidationResults datatypes.JSONType[*ValidationResult] `json:"validation_results"`
	RevalidatedAt     *time.Time                            `json:"revalidated_at,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) Validation() *ValidationResult {
	return a.ValidationResults.Data()
}

func (a *QuizAttempt) HasDetailedFeedback() bool {
	v := a.Validation()
	return v != nil && len(v.Questions) > 0
}

// AttachValidation replaces any previously attached validation detail.
// Revalidation never appends.
func (a *QuizAttempt) AttachValidation(v *ValidationResult, at time.Time) {
	a.ValidationResults = datatypes.NewJSONType(v)
	a.RevalidatedAt = &at
}
