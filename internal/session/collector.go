package session

import (
	"fmt"
	"strings"

	apperrors "github.com/studyforge/quiz-session-service/internal/errors"
	"github.com/studyforge/quiz-session-service/internal/models"
)

// AnswerCollector accumulates the user's answers for one pass through a quiz.
// One slot per question, initialized to the unanswered sentinel. Setters
// enforce that the answer shape matches the question type; they never reject
// an empty value, since an empty text answer is still an answer.
type AnswerCollector struct {
	questions []models.Question
	answers   models.AnswerList
}

func NewAnswerCollector(questions []models.Question) *AnswerCollector {
	c := &AnswerCollector{questions: questions}
	c.Reset()
	return c
}

func (c *AnswerCollector) Len() int {
	return len(c.questions)
}

// SetSingleChoice records an option pick for a multiple-choice or true-false
// question. For true-false, index 0 means "true".
func (c *AnswerCollector) SetSingleChoice(questionIndex, optionIndex int) error {
	q, err := c.question(questionIndex)
	if err != nil {
		return err
	}
	if q.Type != models.MultipleChoice && q.Type != models.TrueFalse {
		return fmt.Errorf("%w: question %d is %s", apperrors.ErrWrongAnswerKind, questionIndex, q.Type)
	}
	if optionIndex < 0 || optionIndex >= q.OptionCount() {
		return fmt.Errorf("%w: option %d of %d", apperrors.ErrIndexOutOfRange, optionIndex, q.OptionCount())
	}
	c.answers[questionIndex] = models.ChoiceAnswer(optionIndex)
	return nil
}

// SetText records a free-text answer for a short-answer question. The text is
// trimmed; an empty result still replaces the sentinel.
func (c *AnswerCollector) SetText(questionIndex int, text string) error {
	q, err := c.question(questionIndex)
	if err != nil {
		return err
	}
	if q.Type != models.ShortAnswer {
		return fmt.Errorf("%w: question %d is %s", apperrors.ErrWrongAnswerKind, questionIndex, q.Type)
	}
	c.answers[questionIndex] = models.TextAnswer(strings.TrimSpace(text))
	return nil
}

// SetBlank fills one blank of a fill-in-blank question, leaving the others
// untouched.
func (c *AnswerCollector) SetBlank(questionIndex, blankIndex int, text string) error {
	q, err := c.question(questionIndex)
	if err != nil {
		return err
	}
	if q.Type != models.FillInBlank {
		return fmt.Errorf("%w: question %d is %s", apperrors.ErrWrongAnswerKind, questionIndex, q.Type)
	}
	count := q.BlankCount()
	if blankIndex < 0 || blankIndex >= count {
		return fmt.Errorf("%w: blank %d of %d", apperrors.ErrIndexOutOfRange, blankIndex, count)
	}

	current := c.answers[questionIndex]
	if current.Kind != models.AnswerBlanks {
		current = models.BlanksAnswer(make([]*string, count))
	}
	value := strings.TrimSpace(text)
	current.Blanks[blankIndex] = &value
	c.answers[questionIndex] = current
	return nil
}

func (c *AnswerCollector) IsAnswered(questionIndex int) bool {
	if questionIndex < 0 || questionIndex >= len(c.answers) {
		return false
	}
	return c.answers[questionIndex].IsAnswered()
}

func (c *AnswerCollector) Answer(questionIndex int) (models.Answer, error) {
	if questionIndex < 0 || questionIndex >= len(c.answers) {
		return models.Answer{}, fmt.Errorf("%w: question %d of %d", apperrors.ErrIndexOutOfRange, questionIndex, len(c.answers))
	}
	return c.answers[questionIndex], nil
}

func (c *AnswerCollector) AnsweredCount() int {
	return c.answers.AnsweredCount()
}

// Answers returns a snapshot of the full answer sequence, sentinels included.
func (c *AnswerCollector) Answers() models.AnswerList {
	snapshot := make(models.AnswerList, len(c.answers))
	copy(snapshot, c.answers)
	return snapshot
}

// Reset clears every slot back to the unanswered sentinel.
func (c *AnswerCollector) Reset() {
	c.answers = make(models.AnswerList, len(c.questions))
	for i := range c.answers {
		c.answers[i] = models.NoAnswer()
	}
}

func (c *AnswerCollector) question(index int) (*models.Question, error) {
	if index < 0 || index >= len(c.questions) {
		return nil, fmt.Errorf("%w: question %d of %d", apperrors.ErrIndexOutOfRange, index, len(c.questions))
	}
	return &c.questions[index], nil
}
