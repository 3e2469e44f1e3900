package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/studyforge/quiz-session-service/internal/errors"
	"github.com/studyforge/quiz-session-service/internal/events"
	"github.com/studyforge/quiz-session-service/internal/models"
)

// stubGradingService scripts the grading side of a coordinator round trip.
type stubGradingService struct {
	submitResp     *SubmitResponse
	submitErr      error
	lastSubmit     *SubmitRequest
	revalidateResp *RevalidateResponse
	revalidateErr  error
}

func (s *stubGradingService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	s.lastSubmit = &req
	return s.submitResp, s.submitErr
}

func (s *stubGradingService) Revalidate(ctx context.Context, attemptID uint) (*RevalidateResponse, error) {
	return s.revalidateResp, s.revalidateErr
}

func newTestCoordinator(service GradingService) (*Coordinator, *events.MockEventPublisher) {
	slogger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := events.NewMockEventPublisher(slogger)
	return NewCoordinator(service, publisher, nil, testLogger()), publisher
}

func TestCoordinator_Submit_SkipsSentinels(t *testing.T) {
	service := &stubGradingService{
		submitResp: &SubmitResponse{AttemptID: 42, Score: 67, CorrectCount: 2, TotalCount: 3},
	}
	coordinator, publisher := newTestCoordinator(service)
	quiz := testQuiz()

	answers := models.AnswerList{
		models.ChoiceAnswer(1),
		models.NoAnswer(),
		models.TextAnswer("Madrid"),
	}

	result, err := coordinator.Submit(context.Background(), quiz, 7, answers)
	require.NoError(t, err)
	assert.Equal(t, uint(42), result.AttemptID)
	assert.Equal(t, 67, result.Score)

	// The unanswered slot must not appear in the request.
	require.NotNil(t, service.lastSubmit)
	require.Len(t, service.lastSubmit.Answers, 2)
	assert.Equal(t, uint(10), service.lastSubmit.Answers[0].QuestionID)
	assert.Equal(t, uint(12), service.lastSubmit.Answers[1].QuestionID)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAttemptSubmitted, published[0].Type)
}

func TestCoordinator_Submit_RejectionPassesThrough(t *testing.T) {
	service := &stubGradingService{
		submitErr: fmt.Errorf("%w: quiz 1", apperrors.ErrSubmissionRejected),
	}
	coordinator, publisher := newTestCoordinator(service)

	_, err := coordinator.Submit(context.Background(), testQuiz(), 7, models.AnswerList{models.ChoiceAnswer(0)})
	assert.ErrorIs(t, err, apperrors.ErrSubmissionRejected)
	assert.NotErrorIs(t, err, apperrors.ErrNetworkFailure)
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestCoordinator_Submit_TransportErrorsBecomeNetworkFailure(t *testing.T) {
	service := &stubGradingService{submitErr: fmt.Errorf("connection refused")}
	coordinator, publisher := newTestCoordinator(service)

	_, err := coordinator.Submit(context.Background(), testQuiz(), 7, models.AnswerList{models.ChoiceAnswer(0)})
	assert.ErrorIs(t, err, apperrors.ErrNetworkFailure)
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestCoordinator_Revalidate_ReconcilesRichShape(t *testing.T) {
	payload, _ := json.Marshal(map[string]interface{}{
		"overall_score":     90.0,
		"validation_method": "llm",
		"validation_results": []map[string]interface{}{
			{"question_id": 10, "score_percentage": 90, "feedback": "good"},
		},
	})
	service := &stubGradingService{
		revalidateResp: &RevalidateResponse{AttemptID: 42, OldScore: 67, NewScore: 90, Payload: payload},
	}
	coordinator, publisher := newTestCoordinator(service)

	result, err := coordinator.Revalidate(context.Background(), testQuiz(), 7, 42)
	require.NoError(t, err)
	assert.Equal(t, 67, result.OldScore)
	assert.Equal(t, 90, result.NewScore)
	require.NotNil(t, result.Detail)
	assert.Equal(t, models.ValidationLLM, result.Detail.Method)
	require.Len(t, result.Detail.Questions, 1)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAttemptRevalidated, published[0].Type)
}

func TestCoordinator_Revalidate_ReconcilesFlatShape(t *testing.T) {
	service := &stubGradingService{
		revalidateResp: &RevalidateResponse{
			AttemptID: 42, OldScore: 67, NewScore: 67,
			Payload: []byte(`{"score": 67, "correct_answers": 2}`),
		},
	}
	coordinator, _ := newTestCoordinator(service)

	result, err := coordinator.Revalidate(context.Background(), testQuiz(), 7, 42)
	require.NoError(t, err)
	assert.Equal(t, 67, result.NewScore)
	require.NotNil(t, result.Detail)
	assert.Equal(t, models.ValidationBasic, result.Detail.Method)
	assert.Empty(t, result.Detail.Questions)
}

func TestCoordinator_Revalidate_UnknownShapeIsNeverApplied(t *testing.T) {
	service := &stubGradingService{
		revalidateResp: &RevalidateResponse{
			AttemptID: 42, OldScore: 67,
			Payload: []byte(`{"grade": "B+"}`),
		},
	}
	coordinator, publisher := newTestCoordinator(service)

	_, err := coordinator.Revalidate(context.Background(), testQuiz(), 7, 42)
	assert.ErrorIs(t, err, apperrors.ErrMalformedGradingResult)
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestCoordinator_Revalidate_EmptyPayloadIsUnavailable(t *testing.T) {
	service := &stubGradingService{
		revalidateResp: &RevalidateResponse{AttemptID: 42, OldScore: 67, Payload: []byte(`{}`)},
	}
	coordinator, _ := newTestCoordinator(service)

	_, err := coordinator.Revalidate(context.Background(), testQuiz(), 7, 42)
	assert.ErrorIs(t, err, apperrors.ErrValidationUnavailable)
}
