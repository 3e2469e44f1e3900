package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gorm.io/datatypes"

	apperrors "github.com/studyforge/quiz-session-service/internal/errors"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple-choice"
	TrueFalse      QuestionType = "true-false"
	ShortAnswer    QuestionType = "short-answer"
	FillInBlank    QuestionType = "fill-in-blank"
)

// Option is one selectable choice of a multiple-choice question. Options keep
// the key order of the generated payload (A, B, C, ...).
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type Question struct {
	ID     uint         `json:"id" gorm:"primaryKey"`
	QuizID uint         `json:"quiz_id" gorm:"not null;index"`
	Text   string       `json:"text" gorm:"type:text;not null"`
	Type   QuestionType `json:"type" gorm:"size:50;default:multiple-choice" validate:"required,question_type"`

	Options datatypes.JSONType[[]Option] `json:"options"`

	// Correct answer stays server-side; it must never reach a taking client.
	Correct datatypes.JSONType[Answer] `json:"-"`

	Explanation string `json:"explanation" gorm:"type:text"`
	Order       int    `json:"order" gorm:"column:question_order;not null"`
}

func (Question) TableName() string {
	return "quiz_questions"
}

// BlankCount returns the number of blanks a fill-in-blank question expects.
// Zero for every other type.
func (q *Question) BlankCount() int {
	if q.Type != FillInBlank {
		return 0
	}
	parts, err := ParseBlankText(q.Text)
	if err != nil {
		return 0
	}
	return len(parts) - 1
}

// OptionCount returns how many choices a single-choice question offers.
// True/false is always two (index 0 = true).
func (q *Question) OptionCount() int {
	switch q.Type {
	case MultipleChoice:
		return len(q.Options.Data())
	case TrueFalse:
		return 2
	default:
		return 0
	}
}

// blankPrefixes are instructional lead-ins the generator sometimes prepends to
// fill-in-blank text. Matched case-insensitively and stripped before parsing.
var blankPrefixes = []string{
	"fill in the blanks:",
	"fill in the blank:",
	"complete the sentence:",
	"complete:",
}

var blankRun = regexp.MustCompile(`_+`)

// ParseBlankText splits fill-in-blank question text on runs of underscores.
// The returned parts surround the blanks, so the blank count is len(parts)-1.
func ParseBlankText(text string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, prefix := range blankPrefixes {
		if strings.HasPrefix(lower, prefix) {
			trimmed = strings.TrimSpace(trimmed[len(prefix):])
			break
		}
	}

	parts := blankRun.Split(trimmed, -1)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: no blank markers in %q", apperrors.ErrMalformedQuestion, text)
	}
	return parts, nil
}

// rawQuestion is the shape questions arrive in from the generation payload.
type rawQuestion struct {
	ID            uint              `json:"id"`
	Text          string            `json:"text"`
	Type          string            `json:"type"`
	Options       map[string]string `json:"options"`
	CorrectAnswer json.RawMessage   `json:"correct_answer"`
	Explanation   string            `json:"explanation"`
	Order         int               `json:"order"`
}

// DecodeQuestions decodes a generated quiz payload into the typed question
// sequence, rejecting any question whose type is unrecognized or whose
// payload lacks the fields that type requires.
func DecodeQuestions(payload []byte) ([]Question, error) {
	var raw []rawQuestion
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedQuestion, err)
	}

	questions := make([]Question, 0, len(raw))
	for i, rq := range raw {
		q, err := decodeQuestion(rq, i)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func decodeQuestion(rq rawQuestion, position int) (Question, error) {
	if strings.TrimSpace(rq.Text) == "" {
		return Question{}, fmt.Errorf("%w: question %d has no text", apperrors.ErrMalformedQuestion, position)
	}

	order := rq.Order
	if order == 0 {
		order = position + 1
	}

	q := Question{
		ID:          rq.ID,
		Text:        rq.Text,
		Type:        QuestionType(rq.Type),
		Explanation: rq.Explanation,
		Order:       order,
	}

	switch q.Type {
	case MultipleChoice:
		if len(rq.Options) == 0 {
			return Question{}, fmt.Errorf("%w: multiple-choice question %d has no options", apperrors.ErrMalformedQuestion, position)
		}
		q.Options = datatypes.NewJSONType(sortedOptions(rq.Options))
		correct, err := decodeChoiceAnswer(rq.CorrectAnswer, len(rq.Options))
		if err != nil {
			return Question{}, fmt.Errorf("%w: question %d: %v", apperrors.ErrMalformedQuestion, position, err)
		}
		q.Correct = datatypes.NewJSONType(correct)

	case TrueFalse:
		// Index 0 means "true" throughout the engine.
		correct, err := decodeChoiceAnswer(rq.CorrectAnswer, 2)
		if err != nil {
			return Question{}, fmt.Errorf("%w: question %d: %v", apperrors.ErrMalformedQuestion, position, err)
		}
		q.Correct = datatypes.NewJSONType(correct)

	case ShortAnswer:
		var text string
		if len(rq.CorrectAnswer) > 0 {
			if err := json.Unmarshal(rq.CorrectAnswer, &text); err != nil {
				return Question{}, fmt.Errorf("%w: question %d: short-answer model answer must be a string", apperrors.ErrMalformedQuestion, position)
			}
		}
		q.Correct = datatypes.NewJSONType(TextAnswer(text))

	case FillInBlank:
		parts, err := ParseBlankText(rq.Text)
		if err != nil {
			return Question{}, fmt.Errorf("%w: question %d: %v", apperrors.ErrMalformedQuestion, position, err)
		}
		blanks := len(parts) - 1
		var correct []string
		if err := json.Unmarshal(rq.CorrectAnswer, &correct); err != nil {
			return Question{}, fmt.Errorf("%w: question %d: fill-in-blank answers must be an array", apperrors.ErrMalformedQuestion, position)
		}
		if len(correct) != blanks {
			return Question{}, fmt.Errorf("%w: question %d: expected %d blank answers, got %d", apperrors.ErrMalformedQuestion, position, blanks, len(correct))
		}
		filled := make([]*string, len(correct))
		for i := range correct {
			filled[i] = &correct[i]
		}
		q.Correct = datatypes.NewJSONType(BlanksAnswer(filled))

	default:
		return Question{}, fmt.Errorf("%w: question %d has unknown type %q", apperrors.ErrMalformedQuestion, position, rq.Type)
	}

	return q, nil
}

func decodeChoiceAnswer(raw json.RawMessage, optionCount int) (Answer, error) {
	var index int
	if err := json.Unmarshal(raw, &index); err != nil {
		// The generator occasionally emits the option index as a string.
		var s string
		if err2 := json.Unmarshal(raw, &s); err2 != nil {
			return Answer{}, fmt.Errorf("correct answer is not an option index")
		}
		if _, err2 := fmt.Sscanf(s, "%d", &index); err2 != nil {
			return Answer{}, fmt.Errorf("correct answer %q is not an option index", s)
		}
	}
	if index < 0 || index >= optionCount {
		return Answer{}, fmt.Errorf("correct option index %d out of range [0,%d)", index, optionCount)
	}
	return ChoiceAnswer(index), nil
}

func sortedOptions(raw map[string]string) []Option {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	options := make([]Option, len(keys))
	for i, k := range keys {
		options[i] = Option{Key: k, Text: raw[k]}
	}
	return options
}
