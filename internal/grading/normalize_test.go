package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/studyforge/quiz-session-service/internal/errors"
	"github.com/studyforge/quiz-session-service/internal/models"
)

func TestNormalizeValidation_RichShape(t *testing.T) {
	payload := []byte(`{
		"overall_score": 83.3,
		"validation_method": "llm",
		"validation_results": [
			{"question_id": 1, "score_percentage": 100, "feedback": "correct"},
			{"question_id": 2, "score_percentage": 66.6, "feedback": "partially right", "partial_credit": "half the blanks"}
		]
	}`)

	result, score, err := NormalizeValidation(payload)
	require.NoError(t, err)
	assert.Equal(t, 83, score)
	assert.Equal(t, models.ValidationLLM, result.Method)
	require.Len(t, result.Questions, 2)
	assert.Equal(t, "partially right", result.Questions[1].Feedback)
	assert.Equal(t, "half the blanks", result.Questions[1].PartialCredit)
}

func TestNormalizeValidation_RichShapeDefaultsMethod(t *testing.T) {
	payload := []byte(`{"overall_score": 50, "validation_results": []}`)

	result, score, err := NormalizeValidation(payload)
	require.NoError(t, err)
	assert.Equal(t, 50, score)
	assert.Equal(t, models.ValidationLLM, result.Method)
}

func TestNormalizeValidation_FlatShape(t *testing.T) {
	payload := []byte(`{"score": 67, "correct_answers": 2}`)

	result, score, err := NormalizeValidation(payload)
	require.NoError(t, err)
	assert.Equal(t, 67, score)
	assert.Equal(t, models.ValidationBasic, result.Method)
	assert.Empty(t, result.Questions)
}

func TestNormalizeValidation_UnknownShape(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"neither shape", `{"grade": "A", "passed": true}`},
		{"not json", `this is not json`},
		{"validation_results not an array", `{"overall_score": 50, "validation_results": {"oops": 1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NormalizeValidation([]byte(tt.payload))
			assert.ErrorIs(t, err, apperrors.ErrMalformedGradingResult)
		})
	}
}

func TestNormalizeValidation_EmptyPayload(t *testing.T) {
	for _, payload := range []string{"", "null", "{}"} {
		_, _, err := NormalizeValidation([]byte(payload))
		assert.ErrorIs(t, err, apperrors.ErrValidationUnavailable, "payload %q", payload)
	}
}

func TestNormalizeValidation_ScoreClamping(t *testing.T) {
	_, score, err := NormalizeValidation([]byte(`{"score": 140, "correct_answers": 7}`))
	require.NoError(t, err)
	assert.Equal(t, 100, score)

	_, score, err = NormalizeValidation([]byte(`{"score": -10, "correct_answers": 0}`))
	require.NoError(t, err)
	assert.Equal(t, 0, score)
}
