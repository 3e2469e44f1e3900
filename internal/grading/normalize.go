package grading

import (
	"encoding/json"
	"fmt"
	"math"

	apperrors "github.com/studyforge/quiz-session-service/internal/errors"
	"github.com/studyforge/quiz-session-service/internal/models"
)

// resultProbe sniffs which of the two grading result shapes a payload is.
// The rich shape carries overall_score plus a per-question breakdown; the
// flat shape carries only score and correct_answers.
type resultProbe struct {
	OverallScore      *float64        `json:"overall_score"`
	ValidationResults json.RawMessage `json:"validation_results"`
	ValidationMethod  string          `json:"validation_method"`

	Score          *float64 `json:"score"`
	CorrectAnswers *int     `json:"correct_answers"`
}

// NormalizeValidation reconciles a grading result payload into the stored
// ValidationResult form plus the integer score. An empty payload means the
// grader produced nothing usable; a payload matching neither shape is
// malformed and must not be persisted.
func NormalizeValidation(payload json.RawMessage) (*models.ValidationResult, int, error) {
	if len(payload) == 0 || string(payload) == "null" || string(payload) == "{}" {
		return nil, 0, apperrors.ErrValidationUnavailable
	}

	var probe resultProbe
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", apperrors.ErrMalformedGradingResult, err)
	}

	switch {
	case probe.OverallScore != nil && probe.ValidationResults != nil:
		var questions []models.QuestionValidation
		if err := json.Unmarshal(probe.ValidationResults, &questions); err != nil {
			return nil, 0, fmt.Errorf("%w: validation_results: %v", apperrors.ErrMalformedGradingResult, err)
		}
		method := models.ValidationMethod(probe.ValidationMethod)
		if method == "" {
			method = models.ValidationLLM
		}
		result := &models.ValidationResult{
			OverallScore: *probe.OverallScore,
			Method:       method,
			Questions:    questions,
		}
		return result, roundScore(*probe.OverallScore), nil

	case probe.Score != nil:
		result := &models.ValidationResult{
			OverallScore: *probe.Score,
			Method:       models.ValidationBasic,
		}
		return result, roundScore(*probe.Score), nil

	default:
		return nil, 0, fmt.Errorf("%w: payload matches neither result shape", apperrors.ErrMalformedGradingResult)
	}
}

func roundScore(score float64) int {
	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
