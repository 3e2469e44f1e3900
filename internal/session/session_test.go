package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "github.com/studyforge/quiz-session-service/internal/errors"
	"github.com/studyforge/quiz-session-service/internal/events"
	"github.com/studyforge/quiz-session-service/internal/grading"
	"github.com/studyforge/quiz-session-service/internal/models"
	"github.com/studyforge/quiz-session-service/internal/utils"
)

// stubQuizRepo serves a single fixture quiz.
type stubQuizRepo struct {
	quiz *models.Quiz
}

func (s *stubQuizRepo) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	if s.quiz == nil || s.quiz.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.quiz, nil
}

func (s *stubQuizRepo) GetAttempts(ctx context.Context, quizID, userID uint) ([]*models.QuizAttempt, error) {
	return nil, nil
}

func (s *stubQuizRepo) GetAnalyticsSeed(ctx context.Context, quizID, userID uint) (*models.AnalyticsSeed, error) {
	return nil, nil
}

// scriptedGrading scripts the grading round trip. A non-nil block channel
// makes Submit wait until the channel closes; started signals that Submit
// has been entered.
type scriptedGrading struct {
	submitResp *grading.SubmitResponse
	submitErr  error
	revResp    *grading.RevalidateResponse
	revErr     error
	block      chan struct{}
	started    chan struct{}
}

func (s *scriptedGrading) Submit(ctx context.Context, req grading.SubmitRequest) (*grading.SubmitResponse, error) {
	if s.started != nil {
		close(s.started)
		s.started = nil
	}
	if s.block != nil {
		<-s.block
	}
	return s.submitResp, s.submitErr
}

func (s *scriptedGrading) Revalidate(ctx context.Context, attemptID uint) (*grading.RevalidateResponse, error) {
	return s.revResp, s.revErr
}

func sessionQuiz() *models.Quiz {
	return &models.Quiz{
		ID:            1,
		Title:         "Geography Basics",
		QuestionCount: 3,
		Questions: []models.Question{
			{
				ID:   10,
				Text: "What is the capital of France?",
				Type: models.MultipleChoice,
				Options: datatypes.NewJSONType([]models.Option{
					{Key: "A", Text: "London"}, {Key: "B", Text: "Paris"}, {Key: "C", Text: "Berlin"},
				}),
				Correct: datatypes.NewJSONType(models.ChoiceAnswer(1)),
				Order:   1,
			},
			{
				ID:      11,
				Text:    "The Seine flows through Paris.",
				Type:    models.TrueFalse,
				Correct: datatypes.NewJSONType(models.ChoiceAnswer(0)),
				Order:   2,
			},
			{
				ID:      12,
				Text:    "Name the capital of Spain.",
				Type:    models.ShortAnswer,
				Correct: datatypes.NewJSONType(models.TextAnswer("Madrid")),
				Order:   3,
			},
		},
	}
}

func newTestSession(t *testing.T, service grading.GradingService) (*Session, *events.MockEventPublisher) {
	t.Helper()
	logger := utils.NewDevelopmentLogger()
	publisher := events.NewMockEventPublisher(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	coordinator := grading.NewCoordinator(service, publisher, nil, logger)
	repo := &stubQuizRepo{quiz: sessionQuiz()}
	return NewSession(7, repo, coordinator, publisher, logger), publisher
}

func gradedResponse() *grading.SubmitResponse {
	return &grading.SubmitResponse{AttemptID: 42, Score: 67, CorrectCount: 2, TotalCount: 3}
}

func TestSession_StartAndNavigate(t *testing.T) {
	s, publisher := newTestSession(t, &scriptedGrading{})
	ctx := context.Background()

	assert.Equal(t, StateIdle, s.State())
	require.NoError(t, s.Start(ctx, 1))
	assert.Equal(t, StateInProgress, s.State())

	q, index, err := s.CurrentQuestion()
	require.NoError(t, err)
	assert.Equal(t, 0, index)
	assert.Equal(t, uint(10), q.ID)

	// Prev at the first question is a no-op.
	require.NoError(t, s.Prev())
	_, index, _ = s.CurrentQuestion()
	assert.Equal(t, 0, index)

	require.NoError(t, s.Next())
	require.NoError(t, s.Next())
	// Next at the last question is a no-op.
	require.NoError(t, s.Next())
	_, index, _ = s.CurrentQuestion()
	assert.Equal(t, 2, index)

	require.NoError(t, s.Jump(1))
	_, index, _ = s.CurrentQuestion()
	assert.Equal(t, 1, index)

	assert.ErrorIs(t, s.Jump(3), apperrors.ErrIndexOutOfRange)
	assert.ErrorIs(t, s.Jump(-1), apperrors.ErrIndexOutOfRange)

	// One session, one quiz at a time.
	assert.ErrorIs(t, s.Start(ctx, 1), apperrors.ErrInvalidTransition)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventSessionStarted, published[0].Type)
}

func TestSession_StartUnknownQuiz(t *testing.T) {
	s, _ := newTestSession(t, &scriptedGrading{})

	err := s.Start(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrQuizNotFound)
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_AnswerGuards(t *testing.T) {
	s, _ := newTestSession(t, &scriptedGrading{})
	ctx := context.Background()

	// Answering before a quiz is loaded is rejected.
	assert.ErrorIs(t, s.SetText("x"), apperrors.ErrInvalidTransition)

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.SetSingleChoice(1))
	assert.ErrorIs(t, s.SetText("x"), apperrors.ErrWrongAnswerKind)
	assert.ErrorIs(t, s.SetBlank(0, "x"), apperrors.ErrWrongAnswerKind)
}

func TestSession_SubmitHappyPath(t *testing.T) {
	s, _ := newTestSession(t, &scriptedGrading{submitResp: gradedResponse()})
	ctx := context.Background()

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.SetSingleChoice(1))
	require.NoError(t, s.Next())
	require.NoError(t, s.SetSingleChoice(1))
	require.NoError(t, s.Next())
	require.NoError(t, s.SetText("madrid"))

	result, err := s.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 67, result.Score)

	assert.Equal(t, StateReviewing, s.State())
	_, index, err := s.CurrentQuestion()
	require.NoError(t, err)
	assert.Equal(t, 0, index)

	attempt, err := s.Attempt()
	require.NoError(t, err)
	assert.Equal(t, uint(42), attempt.ID)
	assert.Equal(t, 67, attempt.Score)

	// Answers are frozen while reviewing.
	assert.ErrorIs(t, s.SetSingleChoice(0), apperrors.ErrInvalidTransition)
}

func TestSession_SubmitOnlyFromLastQuestion(t *testing.T) {
	s, _ := newTestSession(t, &scriptedGrading{submitResp: gradedResponse()})
	ctx := context.Background()

	require.NoError(t, s.Start(ctx, 1))
	_, err := s.Submit(ctx)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, StateInProgress, s.State())
}

func TestSession_SubmitFailureRestoresPosition(t *testing.T) {
	s, _ := newTestSession(t, &scriptedGrading{submitErr: fmt.Errorf("connection refused")})
	ctx := context.Background()

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.Jump(2))
	require.NoError(t, s.SetText("Madrid"))

	_, err := s.Submit(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNetworkFailure)

	// Back in progress at the question the user submitted from, answers intact.
	assert.Equal(t, StateInProgress, s.State())
	_, index, _ := s.CurrentQuestion()
	assert.Equal(t, 2, index)
	a, err := s.Answer(2)
	require.NoError(t, err)
	assert.Equal(t, models.TextAnswer("Madrid"), a)
}

func TestSession_CloseDuringSubmitDiscardsResult(t *testing.T) {
	service := &scriptedGrading{
		submitResp: gradedResponse(),
		block:      make(chan struct{}),
		started:    make(chan struct{}),
	}
	s, _ := newTestSession(t, service)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.Jump(2))
	require.NoError(t, s.SetText("Madrid"))

	started := service.started
	errCh := make(chan error, 1)
	go func() {
		_, err := s.Submit(ctx)
		errCh <- err
	}()

	<-started
	s.Close(ctx)
	close(service.block)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, apperrors.ErrSessionClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not return")
	}

	assert.Equal(t, StateIdle, s.State())
	_, err := s.Attempt()
	assert.Error(t, err)
}

func TestSession_Revalidate(t *testing.T) {
	service := &scriptedGrading{
		submitResp: gradedResponse(),
		revResp: &grading.RevalidateResponse{
			AttemptID: 42,
			OldScore:  67,
			NewScore:  89,
			Payload: []byte(`{
				"overall_score": 89,
				"validation_method": "llm",
				"validation_results": [
					{"question_id": 12, "score_percentage": 66.7, "feedback": "close enough", "partial_credit": "misspelling"}
				]
			}`),
		},
	}
	s, publisher := newTestSession(t, service)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.Jump(2))
	require.NoError(t, s.SetText("madird"))
	_, err := s.Submit(ctx)
	require.NoError(t, err)

	result, err := s.Revalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 89, result.NewScore)
	assert.Equal(t, StateReviewing, s.State())

	attempt, err := s.Attempt()
	require.NoError(t, err)
	assert.Equal(t, 89, attempt.Score)
	require.True(t, attempt.HasDetailedFeedback())
	assert.Equal(t, "close enough", attempt.Validation().Questions[0].Feedback)

	// A second pass replaces the detail instead of appending.
	service.revResp = &grading.RevalidateResponse{
		AttemptID: 42,
		OldScore:  89,
		NewScore:  89,
		Payload: []byte(`{
			"overall_score": 89,
			"validation_method": "llm",
			"validation_results": [
				{"question_id": 12, "score_percentage": 66.7, "feedback": "second opinion"}
			]
		}`),
	}
	_, err = s.Revalidate(ctx)
	require.NoError(t, err)

	attempt, _ = s.Attempt()
	require.Len(t, attempt.Validation().Questions, 1)
	assert.Equal(t, "second opinion", attempt.Validation().Questions[0].Feedback)

	types := make([]events.EventType, 0, len(publisher.GetPublishedEvents()))
	for _, e := range publisher.GetPublishedEvents() {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, events.EventAttemptRevalidated)
}

func TestSession_RevalidateRequiresReviewing(t *testing.T) {
	s, _ := newTestSession(t, &scriptedGrading{})
	ctx := context.Background()

	require.NoError(t, s.Start(ctx, 1))
	_, err := s.Revalidate(ctx)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestSession_Retake(t *testing.T) {
	s, _ := newTestSession(t, &scriptedGrading{submitResp: gradedResponse()})
	ctx := context.Background()

	require.NoError(t, s.Start(ctx, 1))
	require.NoError(t, s.SetSingleChoice(1))
	require.NoError(t, s.Jump(2))
	require.NoError(t, s.SetText("Madrid"))
	_, err := s.Submit(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Retake())
	assert.Equal(t, StateInProgress, s.State())

	p := s.Progress()
	assert.Equal(t, 0, p.AnsweredCount)
	assert.Equal(t, 0, p.CurrentIndex)
	assert.Equal(t, 3, p.TotalCount)

	_, err = s.Attempt()
	assert.Error(t, err)
}

func TestManager_OneActiveSessionPerUser(t *testing.T) {
	logger := utils.NewDevelopmentLogger()
	publisher := events.NewMockEventPublisher(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	coordinator := grading.NewCoordinator(&scriptedGrading{}, publisher, nil, logger)
	repo := &stubQuizRepo{quiz: sessionQuiz()}
	m := NewManager(repo, coordinator, publisher, logger)
	ctx := context.Background()

	_, err := m.Get(7)
	assert.Error(t, err)

	s, err := m.Start(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, s.State())

	_, err = m.Start(ctx, 7, 1)
	assert.ErrorIs(t, err, apperrors.ErrSessionActive)

	// A second user is unaffected.
	_, err = m.Start(ctx, 8, 1)
	require.NoError(t, err)

	m.Close(ctx, 7)
	_, err = m.Start(ctx, 7, 1)
	require.NoError(t, err)
}
