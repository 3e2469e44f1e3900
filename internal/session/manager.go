package session

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/studyforge/quiz-session-service/internal/errors"
	"github.com/studyforge/quiz-session-service/internal/events"
	"github.com/studyforge/quiz-session-service/internal/grading"
	"github.com/studyforge/quiz-session-service/internal/repositories"
	"github.com/studyforge/quiz-session-service/internal/utils"
)

// Manager enforces one active session per user. Sessions are created lazily
// on Start and removed on Close; a user asking to start while their session
// holds an unfinished attempt gets ErrSessionActive.
type Manager struct {
	mu       sync.Mutex
	sessions map[uint]*Session

	quizzes     repositories.QuizRepository
	coordinator *grading.Coordinator
	publisher   events.EventPublisher
	logger      utils.Logger
}

func NewManager(quizzes repositories.QuizRepository, coordinator *grading.Coordinator, publisher events.EventPublisher, logger utils.Logger) *Manager {
	return &Manager{
		sessions:    make(map[uint]*Session),
		quizzes:     quizzes,
		coordinator: coordinator,
		publisher:   publisher,
		logger:      logger,
	}
}

// Start creates (or reuses an idle) session for the user and loads the quiz.
func (m *Manager) Start(ctx context.Context, userID, quizID uint) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok && s.State() != StateIdle {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: user %d", apperrors.ErrSessionActive, userID)
	}
	if !ok {
		s = NewSession(userID, m.quizzes, m.coordinator, m.publisher, m.logger)
		m.sessions[userID] = s
	}
	m.mu.Unlock()

	if err := s.Start(ctx, quizID); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the user's session, active or not.
func (m *Manager) Get(userID uint) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %d has no session", apperrors.ErrInvalidTransition, userID)
	}
	return s, nil
}

// Close tears down the user's session if one exists.
func (m *Manager) Close(ctx context.Context, userID uint) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()

	if ok {
		s.Close(ctx)
	}
}
