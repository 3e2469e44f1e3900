package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/quiz-session-service/internal/models"
	"github.com/studyforge/quiz-session-service/internal/session"
	"github.com/studyforge/quiz-session-service/internal/utils"
)

// SessionHandler exposes the quiz session lifecycle over HTTP. Each user has
// at most one session; the session manager resolves it from the user id.
type SessionHandler struct {
	BaseHandler
	manager   *session.Manager
	validator *utils.Validator
}

func NewSessionHandler(manager *session.Manager, validator *utils.Validator, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		manager:     manager,
		validator:   validator,
	}
}

// ===== REQUEST STRUCTURES =====

type StartSessionRequest struct {
	QuizID uint `json:"quiz_id" validate:"required"`
}

type NavigateRequest struct {
	Action string `json:"action" validate:"required,navigation_action"`
	Index  *int   `json:"index"` // required for "jump"
}

type AnswerOptionRequest struct {
	OptionIndex *int `json:"option_index" validate:"required"`
}

type AnswerTextRequest struct {
	Text string `json:"text"`
}

type AnswerBlankRequest struct {
	BlankIndex *int   `json:"blank_index" validate:"required"`
	Text       string `json:"text"`
}

// ===== RESPONSE STRUCTURES =====

// QuestionView is a question as shown to a taking client. The correct answer
// never leaves the server.
type QuestionView struct {
	Index      int                 `json:"index"`
	ID         uint                `json:"id"`
	Text       string              `json:"text"`
	Type       models.QuestionType `json:"type"`
	Options    []models.Option     `json:"options,omitempty"`
	BlankCount int                 `json:"blank_count,omitempty"`
	Answer     models.Answer       `json:"answer"`
	Answered   bool                `json:"answered"`
}

type SessionView struct {
	Progress session.Progress `json:"progress"`
	Question *QuestionView    `json:"question,omitempty"`
}

// ===== HANDLERS =====

// StartSession begins a new session on a quiz
// POST /api/v1/sessions
func (h *SessionHandler) StartSession(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.RespondWithError(c, err, "Validation failed")
		return
	}

	s, err := h.manager.Start(c.Request.Context(), userID, req.QuizID)
	if err != nil {
		h.RespondWithError(c, err, "Failed to start session")
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, "Session started", h.sessionView(s))
}

// GetSession returns the session's progress and current question
// GET /api/v1/sessions/current
func (h *SessionHandler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Session state", h.sessionView(s))
}

// Navigate moves between questions
// POST /api/v1/sessions/navigate
func (h *SessionHandler) Navigate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.RespondWithError(c, err, "Validation failed")
		return
	}

	var err error
	switch req.Action {
	case "next":
		err = s.Next()
	case "prev":
		err = s.Prev()
	case "jump":
		if req.Index == nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "jump requires an index"})
			return
		}
		err = s.Jump(*req.Index)
	}
	if err != nil {
		h.RespondWithError(c, err, "Navigation failed")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Navigated", h.sessionView(s))
}

// AnswerOption records an option pick for the current question
// POST /api/v1/sessions/answers/option
func (h *SessionHandler) AnswerOption(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req AnswerOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.RespondWithError(c, err, "Validation failed")
		return
	}

	if err := s.SetSingleChoice(*req.OptionIndex); err != nil {
		h.RespondWithError(c, err, "Failed to record answer")
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Answer recorded", h.sessionView(s))
}

// AnswerText records a free-text answer for the current question
// POST /api/v1/sessions/answers/text
func (h *SessionHandler) AnswerText(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req AnswerTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	if err := s.SetText(req.Text); err != nil {
		h.RespondWithError(c, err, "Failed to record answer")
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Answer recorded", h.sessionView(s))
}

// AnswerBlank fills one blank of the current question
// POST /api/v1/sessions/answers/blank
func (h *SessionHandler) AnswerBlank(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req AnswerBlankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.RespondWithError(c, err, "Validation failed")
		return
	}

	if err := s.SetBlank(*req.BlankIndex, req.Text); err != nil {
		h.RespondWithError(c, err, "Failed to record answer")
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Answer recorded", h.sessionView(s))
}

// Submit grades the session's answers
// POST /api/v1/sessions/submit
func (h *SessionHandler) Submit(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	result, err := s.Submit(c.Request.Context())
	if err != nil {
		h.RespondWithError(c, err, "Submission failed")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Attempt graded", gin.H{
		"attempt_id":      result.AttemptID,
		"score":           result.Score,
		"correct_answers": result.CorrectCount,
		"total_questions": result.TotalCount,
	})
}

// Revalidate re-grades the reviewed attempt for detailed feedback
// POST /api/v1/sessions/revalidate
func (h *SessionHandler) Revalidate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	result, err := s.Revalidate(c.Request.Context())
	if err != nil {
		h.RespondWithError(c, err, "Revalidation failed")
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Attempt revalidated", gin.H{
		"attempt_id": result.AttemptID,
		"old_score":  result.OldScore,
		"new_score":  result.NewScore,
		"validation": result.Detail,
	})
}

// Retake restarts the quiz with a cleared answer sheet
// POST /api/v1/sessions/retake
func (h *SessionHandler) Retake(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.Retake(); err != nil {
		h.RespondWithError(c, err, "Retake failed")
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Session restarted", h.sessionView(s))
}

// GetAttempt returns the graded attempt being reviewed
// GET /api/v1/sessions/attempt
func (h *SessionHandler) GetAttempt(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	attempt, err := s.Attempt()
	if err != nil {
		h.RespondWithError(c, err, "No attempt to review")
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Attempt", attempt)
}

// CloseSession tears the session down
// DELETE /api/v1/sessions
func (h *SessionHandler) CloseSession(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	h.manager.Close(c.Request.Context(), userID)
	h.RespondWithSuccess(c, http.StatusOK, "Session closed", nil)
}

// ===== HELPERS =====

func (h *SessionHandler) session(c *gin.Context) (*session.Session, bool) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return nil, false
	}
	s, err := h.manager.Get(userID)
	if err != nil {
		h.RespondWithError(c, err, "No active session")
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) sessionView(s *session.Session) SessionView {
	view := SessionView{Progress: s.Progress()}

	q, index, err := s.CurrentQuestion()
	if err != nil {
		return view
	}
	answer, _ := s.Answer(index)

	view.Question = &QuestionView{
		Index:      index,
		ID:         q.ID,
		Text:       q.Text,
		Type:       q.Type,
		Options:    q.Options.Data(),
		BlankCount: q.BlankCount(),
		Answer:     answer,
		Answered:   answer.IsAnswered(),
	}
	return view
}
