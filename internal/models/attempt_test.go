package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuizAttempt_AttachValidationReplaces(t *testing.T) {
	attempt := &QuizAttempt{ID: 1, Score: 50}
	assert.Nil(t, attempt.Validation())
	assert.False(t, attempt.HasDetailedFeedback())

	first := &ValidationResult{
		OverallScore: 60,
		Method:       ValidationLLM,
		Questions: []QuestionValidation{
			{QuestionID: 10, ScorePercentage: 60, Feedback: "close"},
		},
	}
	attempt.AttachValidation(first, time.Now())
	require.NotNil(t, attempt.Validation())
	assert.True(t, attempt.HasDetailedFeedback())

	second := &ValidationResult{
		OverallScore: 80,
		Method:       ValidationLLM,
		Questions: []QuestionValidation{
			{QuestionID: 10, ScorePercentage: 80, Feedback: "better"},
		},
	}
	attempt.AttachValidation(second, time.Now())

	got := attempt.Validation()
	require.Len(t, got.Questions, 1)
	assert.Equal(t, 80.0, got.OverallScore)
	assert.Equal(t, "better", got.Questions[0].Feedback)
}

func TestQuizAttempt_FlatValidationHasNoDetail(t *testing.T) {
	attempt := &QuizAttempt{ID: 2, Score: 70}
	attempt.AttachValidation(&ValidationResult{OverallScore: 70, Method: ValidationBasic}, time.Now())

	assert.NotNil(t, attempt.Validation())
	assert.False(t, attempt.HasDetailedFeedback())
	assert.NotNil(t, attempt.RevalidatedAt)
}
