package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studyforge/quiz-session-service/internal/export"
	"github.com/studyforge/quiz-session-service/internal/repositories"
	"github.com/studyforge/quiz-session-service/internal/session"
	"github.com/studyforge/quiz-session-service/internal/utils"
)

type HandlerManager struct {
	sessionHandler   *SessionHandler
	analyticsHandler *AnalyticsHandler
}

func NewHandlerManager(
	manager *session.Manager,
	repo repositories.Repository,
	exportService export.ExportService,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler:   NewSessionHandler(manager, validator, logger),
		analyticsHandler: NewAnalyticsHandler(repo, exportService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Session routes
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("/current", hm.sessionHandler.GetSession)
			sessions.POST("/navigate", hm.sessionHandler.Navigate)
			sessions.POST("/answers/option", hm.sessionHandler.AnswerOption)
			sessions.POST("/answers/text", hm.sessionHandler.AnswerText)
			sessions.POST("/answers/blank", hm.sessionHandler.AnswerBlank)
			sessions.POST("/submit", hm.sessionHandler.Submit)
			sessions.POST("/revalidate", hm.sessionHandler.Revalidate)
			sessions.POST("/retake", hm.sessionHandler.Retake)
			sessions.GET("/attempt", hm.sessionHandler.GetAttempt)
			sessions.DELETE("", hm.sessionHandler.CloseSession)
		}

		// Quiz analytics routes
		quizzes := v1.Group("/quizzes")
		{
			quizzes.GET("/:id/analytics", hm.analyticsHandler.GetAnalytics)
			quizzes.GET("/:id/analytics/summary", hm.analyticsHandler.GetAnalyticsSummary)
			quizzes.GET("/:id/attempts", hm.analyticsHandler.GetAttempts)
			quizzes.GET("/:id/attempts/export", hm.analyticsHandler.ExportAttempts)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quiz-session-service",
		})
	})
}
