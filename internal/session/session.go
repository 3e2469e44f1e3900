package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/studyforge/quiz-session-service/internal/errors"
	"github.com/studyforge/quiz-session-service/internal/events"
	"github.com/studyforge/quiz-session-service/internal/grading"
	"github.com/studyforge/quiz-session-service/internal/models"
	"github.com/studyforge/quiz-session-service/internal/repositories"
	"github.com/studyforge/quiz-session-service/internal/utils"
)

// State is the session lifecycle state. Loading and Submitting cover the
// windows where a network call is in flight and the lock is released.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateInProgress
	StateSubmitting
	StateReviewing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateInProgress:
		return "in_progress"
	case StateSubmitting:
		return "submitting"
	case StateReviewing:
		return "reviewing"
	default:
		return "unknown"
	}
}

// Progress summarizes where the user is in the quiz.
type Progress struct {
	State         string `json:"state"`
	CurrentIndex  int    `json:"current_index"`
	AnsweredCount int    `json:"answered_count"`
	TotalCount    int    `json:"total_count"`
}

// Session drives one user's pass through a quiz. All methods are safe for
// concurrent use. The mutex is never held across a network call: instead the
// epoch counter is snapshotted before releasing the lock and compared after
// re-acquiring it, so a result that arrives after Close (or after a newer
// operation superseded the call) is discarded instead of applied.
type Session struct {
	mu    sync.Mutex
	epoch uint64

	userID    uint
	state     State
	quiz      *models.Quiz
	collector *AnswerCollector
	current   int
	attempt   *models.QuizAttempt

	quizzes     repositories.QuizRepository
	coordinator *grading.Coordinator
	publisher   events.EventPublisher
	logger      utils.Logger
}

func NewSession(userID uint, quizzes repositories.QuizRepository, coordinator *grading.Coordinator, publisher events.EventPublisher, logger utils.Logger) *Session {
	return &Session{
		userID:      userID,
		state:       StateIdle,
		quizzes:     quizzes,
		coordinator: coordinator,
		publisher:   publisher,
		logger:      logger.With("user_id", userID),
	}
}

// Start loads the quiz and moves the session to InProgress at the first
// question. Only valid from Idle.
func (s *Session) Start(ctx context.Context, quizID uint) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("%w: start while %s", apperrors.ErrInvalidTransition, s.state)
	}
	s.state = StateLoading
	epoch := s.epoch
	s.mu.Unlock()

	quiz, err := s.quizzes.GetByID(ctx, quizID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return apperrors.ErrSessionClosed
	}

	if err != nil {
		s.state = StateIdle
		if repositories.IsNotFoundError(err) {
			return fmt.Errorf("%w: quiz %d", apperrors.ErrQuizNotFound, quizID)
		}
		return fmt.Errorf("load quiz %d: %w", quizID, err)
	}
	if len(quiz.Questions) == 0 {
		s.state = StateIdle
		return fmt.Errorf("%w: quiz %d has no questions", apperrors.ErrMalformedQuestion, quizID)
	}

	s.quiz = quiz
	s.collector = NewAnswerCollector(quiz.Questions)
	s.current = 0
	s.attempt = nil
	s.state = StateInProgress

	s.logger.InfoContext(ctx, "Session started", "quiz_id", quiz.ID, "questions", len(quiz.Questions))
	s.publish(ctx, events.NewSessionStartedEvent(quiz.ID, quiz.Title, s.userID, len(quiz.Questions)))
	return nil
}

// Next advances to the following question. At the last question it is a
// no-op, not an error.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireNavigable(); err != nil {
		return err
	}
	if s.current < s.quiz.Len()-1 {
		s.current++
	}
	return nil
}

// Prev moves to the preceding question. At the first question it is a no-op.
func (s *Session) Prev() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireNavigable(); err != nil {
		return err
	}
	if s.current > 0 {
		s.current--
	}
	return nil
}

// Jump moves directly to a question by index.
func (s *Session) Jump(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireNavigable(); err != nil {
		return err
	}
	if index < 0 || index >= s.quiz.Len() {
		return fmt.Errorf("%w: question %d of %d", apperrors.ErrIndexOutOfRange, index, s.quiz.Len())
	}
	s.current = index
	return nil
}

// SetSingleChoice answers the current question with an option pick.
func (s *Session) SetSingleChoice(optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgress(); err != nil {
		return err
	}
	return s.collector.SetSingleChoice(s.current, optionIndex)
}

// SetText answers the current question with free text.
func (s *Session) SetText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgress(); err != nil {
		return err
	}
	return s.collector.SetText(s.current, text)
}

// SetBlank fills one blank of the current question.
func (s *Session) SetBlank(blankIndex int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgress(); err != nil {
		return err
	}
	return s.collector.SetBlank(s.current, blankIndex, text)
}

// Submit grades the collected answers. Only valid from the last question of
// an in-progress session. On failure the session returns to InProgress at
// the question it was on, so the user can retry.
func (s *Session) Submit(ctx context.Context) (*grading.SubmitResult, error) {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: submit while %s", apperrors.ErrInvalidTransition, s.state)
	}
	if s.current != s.quiz.Len()-1 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: submit from question %d of %d", apperrors.ErrInvalidTransition, s.current+1, s.quiz.Len())
	}

	quiz := s.quiz
	answers := s.collector.Answers()
	prior := s.current
	s.state = StateSubmitting
	epoch := s.epoch
	s.mu.Unlock()

	result, err := s.coordinator.Submit(ctx, quiz, s.userID, answers)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		// Session was closed while the call was in flight. The attempt is
		// already persisted; only this session must not act on it.
		s.logger.Warn("Discarding grading result for closed session", "quiz_id", quiz.ID)
		return nil, apperrors.ErrSessionClosed
	}

	if err != nil {
		s.state = StateInProgress
		s.current = prior
		return nil, err
	}

	now := time.Now()
	s.attempt = &models.QuizAttempt{
		ID:          result.AttemptID,
		QuizID:      quiz.ID,
		UserID:      s.userID,
		Score:       result.Score,
		SubmittedAt: now,
	}
	s.state = StateReviewing
	s.current = 0

	s.logger.InfoContext(ctx, "Session submitted", "quiz_id", quiz.ID,
		"attempt_id", result.AttemptID, "score", result.Score)
	return result, nil
}

// Revalidate re-grades the reviewed attempt for detailed feedback. The new
// validation detail replaces any previous one; it never accumulates.
func (s *Session) Revalidate(ctx context.Context) (*grading.RevalidateResult, error) {
	s.mu.Lock()
	if s.state != StateReviewing || s.attempt == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: revalidate while %s", apperrors.ErrInvalidTransition, s.state)
	}

	quiz := s.quiz
	attemptID := s.attempt.ID
	s.state = StateSubmitting
	epoch := s.epoch
	s.mu.Unlock()

	result, err := s.coordinator.Revalidate(ctx, quiz, s.userID, attemptID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Warn("Discarding revalidation result for closed session", "attempt_id", attemptID)
		return nil, apperrors.ErrSessionClosed
	}

	s.state = StateReviewing
	if err != nil {
		return nil, err
	}

	s.attempt.Score = result.NewScore
	s.attempt.AttachValidation(result.Detail, time.Now())

	s.logger.InfoContext(ctx, "Attempt revalidated", "attempt_id", attemptID,
		"old_score", result.OldScore, "new_score", result.NewScore)
	return result, nil
}

// Retake starts a fresh pass over the same quiz with a cleared answer sheet.
func (s *Session) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReviewing {
		return fmt.Errorf("%w: retake while %s", apperrors.ErrInvalidTransition, s.state)
	}
	s.collector.Reset()
	s.current = 0
	s.attempt = nil
	s.state = StateInProgress
	return nil
}

// Close tears the session down from any state. An in-flight grading call
// notices the epoch bump when it returns and discards its result.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	if s.quiz != nil {
		s.publish(ctx, events.NewSessionClosedEvent(s.quiz.ID, s.userID))
	}
	s.quiz = nil
	s.collector = nil
	s.attempt = nil
	s.current = 0
	s.state = StateIdle
}

// CurrentQuestion returns the question the session is positioned on.
func (s *Session) CurrentQuestion() (*models.Question, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireNavigable(); err != nil {
		return nil, 0, err
	}
	return &s.quiz.Questions[s.current], s.current, nil
}

// Answer returns the collected answer for a question index.
func (s *Session) Answer(index int) (models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collector == nil {
		return models.Answer{}, fmt.Errorf("%w: no quiz loaded", apperrors.ErrInvalidTransition)
	}
	return s.collector.Answer(index)
}

// Attempt returns the graded attempt while the session is in Reviewing.
func (s *Session) Attempt() (*models.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReviewing || s.attempt == nil {
		return nil, fmt.Errorf("%w: no attempt while %s", apperrors.ErrInvalidTransition, s.state)
	}
	snapshot := *s.attempt
	return &snapshot, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Progress{State: s.state.String(), CurrentIndex: s.current}
	if s.quiz != nil {
		p.TotalCount = s.quiz.Len()
	}
	if s.collector != nil {
		p.AnsweredCount = s.collector.AnsweredCount()
	}
	return p
}

// requireNavigable holds in the states where questions are visible.
func (s *Session) requireNavigable() error {
	if s.state != StateInProgress && s.state != StateReviewing {
		return fmt.Errorf("%w: navigation while %s", apperrors.ErrInvalidTransition, s.state)
	}
	return nil
}

func (s *Session) requireInProgress() error {
	if s.state != StateInProgress {
		return fmt.Errorf("%w: answering while %s", apperrors.ErrInvalidTransition, s.state)
	}
	return nil
}

func (s *Session) publish(ctx context.Context, event *events.QuizEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Event publish failed", "event_type", event.Type, "error", err)
	}
}
