package models

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/studyforge/quiz-session-service/internal/errors"
)

// AnswerKind discriminates the answer union. AnswerNone is the explicit
// "unanswered" sentinel: scoring must tell a skipped question apart from one
// answered with an empty string.
type AnswerKind int

const (
	AnswerNone AnswerKind = iota
	AnswerChoice
	AnswerText
	AnswerBlanks
)

// Answer is the polymorphic per-question answer: an option index for
// multiple-choice and true-false, free text for short-answer, or an ordered
// per-blank sequence for fill-in-blank. A nil entry in Blanks marks a blank
// that was never touched.
type Answer struct {
	Kind        AnswerKind
	OptionIndex int
	Text        string
	Blanks      []*string
}

func NoAnswer() Answer {
	return Answer{Kind: AnswerNone}
}

func ChoiceAnswer(optionIndex int) Answer {
	return Answer{Kind: AnswerChoice, OptionIndex: optionIndex}
}

func TextAnswer(text string) Answer {
	return Answer{Kind: AnswerText, Text: text}
}

func BlanksAnswer(blanks []*string) Answer {
	return Answer{Kind: AnswerBlanks, Blanks: blanks}
}

// IsAnswered reports whether the slot holds anything beyond the sentinel.
// For fill-in-blank a single filled blank counts; full completeness is a
// submission-time concern.
func (a Answer) IsAnswered() bool {
	switch a.Kind {
	case AnswerNone:
		return false
	case AnswerBlanks:
		for _, b := range a.Blanks {
			if b != nil {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// Blank returns the value of one blank, or "" and false when unset.
func (a Answer) Blank(i int) (string, bool) {
	if a.Kind != AnswerBlanks || i < 0 || i >= len(a.Blanks) || a.Blanks[i] == nil {
		return "", false
	}
	return *a.Blanks[i], true
}

// Display renders the answer for feedback payloads and exports.
func (a Answer) Display() string {
	switch a.Kind {
	case AnswerChoice:
		return fmt.Sprintf("option %d", a.OptionIndex)
	case AnswerText:
		return a.Text
	case AnswerBlanks:
		parts := make([]string, len(a.Blanks))
		for i, b := range a.Blanks {
			if b != nil {
				parts[i] = *b
			}
		}
		return strings.Join(parts, ", ")
	default:
		return "(no answer)"
	}
}

// MarshalJSON emits the wire form the grading side and stored attempts use:
// null for unanswered, a number for option picks, a string for free text and
// an array (with nulls for untouched blanks) for fill-in-blank.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerNone:
		return []byte("null"), nil
	case AnswerChoice:
		return json.Marshal(a.OptionIndex)
	case AnswerText:
		return json.Marshal(a.Text)
	case AnswerBlanks:
		return json.Marshal(a.Blanks)
	default:
		return nil, fmt.Errorf("unknown answer kind %d", a.Kind)
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*a = NoAnswer()
		return nil
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*a = TextAnswer(text)
	case '[':
		var blanks []*string
		if err := json.Unmarshal(data, &blanks); err != nil {
			return err
		}
		*a = BlanksAnswer(blanks)
	default:
		var index int
		if err := json.Unmarshal(data, &index); err != nil {
			return fmt.Errorf("%w: answer value %s", apperrors.ErrMalformedQuestion, trimmed)
		}
		*a = ChoiceAnswer(index)
	}
	return nil
}

// AnswerList is the ordered answer sequence of an attempt. Its length always
// equals the quiz's question count; unanswered slots hold the sentinel.
type AnswerList []Answer

func (l AnswerList) AnsweredCount() int {
	n := 0
	for _, a := range l {
		if a.IsAnswered() {
			n++
		}
	}
	return n
}
