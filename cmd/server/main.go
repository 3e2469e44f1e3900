package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/quiz-session-service/internal/cache"
	"github.com/studyforge/quiz-session-service/internal/config"
	"github.com/studyforge/quiz-session-service/internal/export"
	"github.com/studyforge/quiz-session-service/internal/grading"
	"github.com/studyforge/quiz-session-service/internal/handlers"
	"github.com/studyforge/quiz-session-service/internal/repositories"
	"github.com/studyforge/quiz-session-service/internal/repositories/postgres"
	"github.com/studyforge/quiz-session-service/internal/session"
	"github.com/studyforge/quiz-session-service/internal/utils"
	"github.com/studyforge/quiz-session-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	var logger utils.Logger
	if cfg.IsDevelopment() {
		logger = utils.NewDevelopmentLogger()
	} else {
		logger = utils.NewDefaultLogger()
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Database initialization failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.NewRepository(db)

	// Redis is optional: without it quiz lookups just skip the cache layer.
	var cacheService cache.CacheService
	quizRepo := repo.Quiz()
	if redisClient, err := pkg.NewRedisClient(cfg); err != nil {
		logger.Warn("Redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, logger)
		quizRepo = repositories.NewCachedQuizRepository(quizRepo, cacheService, logger)
	}

	eventCfg := config.LoadEventConfig()
	publisher, err := eventCfg.CreateEventPublisher(utils.ToSlogLogger(logger))
	if err != nil {
		logger.Error("Event publisher initialization failed", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	var validator grading.AnswerValidator
	if cfg.OpenAIAPIKey != "" {
		validator = grading.NewLLMValidator(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
		logger.Info("LLM validation enabled", "model", cfg.OpenAIModel)
	} else {
		logger.Info("LLM validation disabled, revalidation uses exact matching")
	}

	// Handlers and sessions read quizzes through the cache; the grader goes
	// straight to the database so it always sees fresh rows.
	cachedRepo := repositories.Compose(quizRepo, repo.Attempt())

	gradingService := grading.NewGrader(repo, validator, logger)
	coordinator := grading.NewCoordinator(gradingService, publisher, cacheService, logger)
	sessionManager := session.NewManager(quizRepo, coordinator, publisher, logger)
	exportService := export.NewExportService(cachedRepo, logger)

	requestValidator := utils.NewValidator()
	handlerManager := handlers.NewHandlerManager(sessionManager, cachedRepo, exportService, requestValidator, logger)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	handlerManager.SetupRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}
