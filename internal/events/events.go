package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the different quiz lifecycle events
type EventType string

const (
	// Session events
	EventSessionStarted EventType = "session.started"
	EventSessionClosed  EventType = "session.closed"

	// Attempt events
	EventAttemptSubmitted   EventType = "attempt.submitted"
	EventAttemptRevalidated EventType = "attempt.revalidated"
)

// QuizEvent is the base envelope for all published events
type QuizEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type SessionStartedEvent struct {
	QuizID    uint      `json:"quiz_id"`
	QuizTitle string    `json:"quiz_title"`
	UserID    uint      `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
	Questions int       `json:"questions"`
}

type AttemptSubmittedEvent struct {
	AttemptID      uint      `json:"attempt_id"`
	QuizID         uint      `json:"quiz_id"`
	QuizTitle      string    `json:"quiz_title"`
	UserID         uint      `json:"user_id"`
	SubmittedAt    time.Time `json:"submitted_at"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
}

type AttemptRevalidatedEvent struct {
	AttemptID        uint      `json:"attempt_id"`
	QuizID           uint      `json:"quiz_id"`
	UserID           uint      `json:"user_id"`
	RevalidatedAt    time.Time `json:"revalidated_at"`
	OldScore         int       `json:"old_score"`
	NewScore         int       `json:"new_score"`
	ValidationMethod string    `json:"validation_method"`
}

type SessionClosedEvent struct {
	QuizID   uint      `json:"quiz_id"`
	UserID   uint      `json:"user_id"`
	ClosedAt time.Time `json:"closed_at"`
}

// Event factory functions

func NewSessionStartedEvent(quizID uint, title string, userID uint, questions int) *QuizEvent {
	return &QuizEvent{
		ID:        GenerateEventID(),
		Type:      EventSessionStarted,
		Timestamp: time.Now(),
		Source:    "quiz-session-service",
		Version:   "1.0",
		Data: SessionStartedEvent{
			QuizID:    quizID,
			QuizTitle: title,
			UserID:    userID,
			StartedAt: time.Now(),
			Questions: questions,
		},
	}
}

func NewAttemptSubmittedEvent(attemptID, quizID uint, title string, userID uint, score, correct, total int) *QuizEvent {
	return &QuizEvent{
		ID:        GenerateEventID(),
		Type:      EventAttemptSubmitted,
		Timestamp: time.Now(),
		Source:    "quiz-session-service",
		Version:   "1.0",
		Data: AttemptSubmittedEvent{
			AttemptID:      attemptID,
			QuizID:         quizID,
			QuizTitle:      title,
			UserID:         userID,
			SubmittedAt:    time.Now(),
			Score:          score,
			CorrectAnswers: correct,
			TotalQuestions: total,
		},
	}
}

func NewAttemptRevalidatedEvent(attemptID, quizID, userID uint, oldScore, newScore int, method string) *QuizEvent {
	return &QuizEvent{
		ID:        GenerateEventID(),
		Type:      EventAttemptRevalidated,
		Timestamp: time.Now(),
		Source:    "quiz-session-service",
		Version:   "1.0",
		Data: AttemptRevalidatedEvent{
			AttemptID:        attemptID,
			QuizID:           quizID,
			UserID:           userID,
			RevalidatedAt:    time.Now(),
			OldScore:         oldScore,
			NewScore:         newScore,
			ValidationMethod: method,
		},
	}
}

func NewSessionClosedEvent(quizID, userID uint) *QuizEvent {
	return &QuizEvent{
		ID:        GenerateEventID(),
		Type:      EventSessionClosed,
		Timestamp: time.Now(),
		Source:    "quiz-session-service",
		Version:   "1.0",
		Data: SessionClosedEvent{
			QuizID:   quizID,
			UserID:   userID,
			ClosedAt: time.Now(),
		},
	}
}

// GenerateEventID returns a unique identifier for an event envelope
func GenerateEventID() string {
	return uuid.NewString()
}
