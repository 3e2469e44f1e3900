package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/studyforge/quiz-session-service/internal/models"
	"github.com/studyforge/quiz-session-service/internal/utils"
)

// AnswerValidator produces the rich per-question grading detail during
// re-validation. Implementations may return a nil result to signal that
// detailed validation is unavailable for this attempt.
type AnswerValidator interface {
	ValidateAttempt(ctx context.Context, quiz *models.Quiz, answers models.AnswerList) (*models.ValidationResult, error)
}

// llmValidation is the JSON object the model is instructed to emit.
type llmValidation struct {
	ValidationResults []llmQuestionResult `json:"validation_results"`
}

type llmQuestionResult struct {
	QuestionID      uint    `json:"question_id"`
	ScorePercentage float64 `json:"score_percentage"`
	Feedback        string  `json:"feedback"`
	PartialCredit   string  `json:"partial_credit"`
}

// LLMValidator re-grades attempts through an OpenAI-compatible chat API,
// asking for partial credit and per-question feedback that exact-match
// grading cannot give.
type LLMValidator struct {
	api    *openai.Client
	model  string
	logger utils.Logger
}

func NewLLMValidator(baseURL, apiKey, modelName string, logger utils.Logger) *LLMValidator {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &LLMValidator{
		api:    openai.NewClientWithConfig(config),
		model:  modelName,
		logger: logger,
	}
}

func (v *LLMValidator) ValidateAttempt(ctx context.Context, quiz *models.Quiz, answers models.AnswerList) (*models.ValidationResult, error) {
	prompt := buildValidationPrompt(quiz, answers)

	resp, err := v.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: validationSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM validation call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	v.logger.DebugContext(ctx, "LLM validation response", "quiz_id", quiz.ID, "raw", raw)

	var parsed llmValidation
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse LLM validation response: %w (raw: %s)", err, raw)
	}
	if len(parsed.ValidationResults) == 0 {
		return nil, fmt.Errorf("LLM validation response has no per-question results")
	}

	positions := make(map[uint]int, len(quiz.Questions))
	for i, q := range quiz.Questions {
		positions[q.ID] = i
	}

	questions := make([]models.QuestionValidation, 0, len(parsed.ValidationResults))
	var total float64
	for _, r := range parsed.ValidationResults {
		score := r.ScorePercentage
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		qv := models.QuestionValidation{
			QuestionID:      r.QuestionID,
			ScorePercentage: score,
			Feedback:        r.Feedback,
			PartialCredit:   r.PartialCredit,
		}
		if pos, ok := positions[r.QuestionID]; ok && pos < len(answers) {
			qv.StudentAnswer = answers[pos]
		}
		questions = append(questions, qv)
		total += score
	}

	return &models.ValidationResult{
		OverallScore: total / float64(len(questions)),
		Method:       models.ValidationLLM,
		Questions:    questions,
	}, nil
}

const validationSystemPrompt = `You are a quiz grader. You will receive quiz questions, ` +
	`the expected answers, and a student's answers. Grade each question on a 0-100 scale, ` +
	`awarding partial credit for short-answer and fill-in-blank responses that are ` +
	`substantially correct despite wording or spelling differences. ` +
	`Respond ONLY with a JSON object of this shape: ` +
	`{"validation_results": [{"question_id": <id>, "score_percentage": <0-100>, ` +
	`"feedback": "<brief feedback>", "partial_credit": "<explanation or empty string>"}]}`

func buildValidationPrompt(quiz *models.Quiz, answers models.AnswerList) string {
	var sb strings.Builder
	sb.WriteString("QUIZ: " + quiz.Title + "\n\n")

	for i, q := range quiz.Questions {
		fmt.Fprintf(&sb, "QUESTION %d (id=%d, type=%s): %s\n", i+1, q.ID, q.Type, q.Text)

		if q.Type == models.MultipleChoice {
			for _, opt := range q.Options.Data() {
				fmt.Fprintf(&sb, "  %s) %s\n", opt.Key, opt.Text)
			}
		}
		fmt.Fprintf(&sb, "EXPECTED: %s\n", q.Correct.Data().Display())

		answer := models.NoAnswer()
		if i < len(answers) {
			answer = answers[i]
		}
		if answer.IsAnswered() {
			fmt.Fprintf(&sb, "STUDENT ANSWER: %s\n\n", answer.Display())
		} else {
			sb.WriteString("STUDENT ANSWER: (not answered)\n\n")
		}
	}
	return sb.String()
}
