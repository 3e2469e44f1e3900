package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/quiz-session-service/internal/analytics"
	apperrors "github.com/studyforge/quiz-session-service/internal/errors"
	"github.com/studyforge/quiz-session-service/internal/export"
	"github.com/studyforge/quiz-session-service/internal/repositories"
	"github.com/studyforge/quiz-session-service/internal/utils"
)

// AnalyticsHandler serves attempt history, the aggregated analytics view and
// the Excel export.
type AnalyticsHandler struct {
	BaseHandler
	repo     repositories.Repository
	exporter export.ExportService
}

func NewAnalyticsHandler(repo repositories.Repository, exportService export.ExportService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler: NewBaseHandler(logger),
		repo:        repo,
		exporter:    exportService,
	}
}

// GetAnalytics aggregates the full attempt history of a quiz
// GET /api/v1/quizzes/:id/analytics
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}
	quizID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	attempts, err := h.repo.Quiz().GetAttempts(c.Request.Context(), quizID, userID)
	if err != nil {
		h.RespondWithError(c, h.wrapLookup(err, quizID), "Failed to load attempts")
		return
	}

	report := analytics.Aggregate(quizID, attempts)
	h.RespondWithSuccess(c, http.StatusOK, "Quiz analytics", report)
}

// GetAnalyticsSummary builds the analytics view from the pre-aggregated seed,
// skipping the full attempt rows
// GET /api/v1/quizzes/:id/analytics/summary
func (h *AnalyticsHandler) GetAnalyticsSummary(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}
	quizID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	seed, err := h.repo.Quiz().GetAnalyticsSeed(c.Request.Context(), quizID, userID)
	if err != nil {
		h.RespondWithError(c, h.wrapLookup(err, quizID), "Failed to load analytics seed")
		return
	}

	report := analytics.FromSeed(quizID, seed)
	h.RespondWithSuccess(c, http.StatusOK, "Quiz analytics summary", report)
}

// GetAttempts lists the user's attempts on a quiz, newest first
// GET /api/v1/quizzes/:id/attempts
func (h *AnalyticsHandler) GetAttempts(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}
	quizID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	attempts, err := h.repo.Quiz().GetAttempts(c.Request.Context(), quizID, userID)
	if err != nil {
		h.RespondWithError(c, h.wrapLookup(err, quizID), "Failed to load attempts")
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Quiz attempts", attempts)
}

// ExportAttempts streams the attempt history as an Excel workbook
// GET /api/v1/quizzes/:id/attempts/export
func (h *AnalyticsHandler) ExportAttempts(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}
	quizID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	data, err := h.exporter.ExportAttempts(c.Request.Context(), quizID, userID)
	if err != nil {
		h.RespondWithError(c, h.wrapLookup(err, quizID), "Export failed")
		return
	}

	filename := fmt.Sprintf("quiz_%d_attempts.xlsx", quizID)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *AnalyticsHandler) wrapLookup(err error, quizID uint) error {
	if repositories.IsNotFoundError(err) {
		return fmt.Errorf("%w: quiz %d", apperrors.ErrQuizNotFound, quizID)
	}
	return err
}
