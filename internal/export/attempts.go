package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/studyforge/quiz-session-service/internal/analytics"
	"github.com/studyforge/quiz-session-service/internal/models"
	"github.com/studyforge/quiz-session-service/internal/repositories"
	"github.com/studyforge/quiz-session-service/internal/utils"
)

// ExportService renders a quiz's attempt history as an Excel workbook: one
// sheet of attempt rows, one sheet with the analytics summary.
type ExportService interface {
	ExportAttempts(ctx context.Context, quizID, userID uint) ([]byte, error)
}

type exportService struct {
	repo   repositories.Repository
	logger utils.Logger
}

func NewExportService(repo repositories.Repository, logger utils.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) ExportAttempts(ctx context.Context, quizID, userID uint) ([]byte, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	attempts, err := s.repo.Quiz().GetAttempts(ctx, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz attempts: %w", err)
	}

	f := excelize.NewFile()

	if err := s.writeAttemptsSheet(f, quiz, attempts); err != nil {
		return nil, err
	}
	if err := s.writeAnalyticsSheet(f, quizID, attempts); err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.InfoContext(ctx, "Exported attempt history",
		"quiz_id", quizID, "attempts", len(attempts))
	return buf.Bytes(), nil
}

func (s *exportService) writeAttemptsSheet(f *excelize.File, quiz *models.Quiz, attempts []*models.QuizAttempt) error {
	sheetName := "Attempts"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Attempt ID", "Quiz", "Score", "Answered", "Submitted At", "Validation Method", "Revalidated At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, attempt := range attempts {
		row := attemptRow(quiz, attempt)
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}

func (s *exportService) writeAnalyticsSheet(f *excelize.File, quizID uint, attempts []*models.QuizAttempt) error {
	sheetName := "Analytics"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	report := analytics.Aggregate(quizID, attempts)

	rows := [][]interface{}{
		{"Total Attempts", report.TotalAttempts},
		{"Best Score", report.BestScore},
		{"Worst Score", report.WorstScore},
		{"Average Score", report.AvgScore},
		{"Consistency Score", report.ConsistencyScore},
	}
	if report.HasTrend {
		rows = append(rows, []interface{}{"Improvement Trend", report.ImprovementTrend})
	}
	for _, insight := range report.Insights {
		rows = append(rows, []interface{}{"Insight", insight})
	}

	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+1)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}

func attemptRow(quiz *models.Quiz, attempt *models.QuizAttempt) []interface{} {
	method := ""
	revalidatedAt := ""
	if v := attempt.Validation(); v != nil {
		method = string(v.Method)
	}
	if attempt.RevalidatedAt != nil {
		revalidatedAt = attempt.RevalidatedAt.Format("2006-01-02 15:04:05")
	}

	return []interface{}{
		attempt.ID,
		quiz.Title,
		attempt.Score,
		attempt.Answers.Data().AnsweredCount(),
		attempt.SubmittedAt.Format("2006-01-02 15:04:05"),
		method,
		revalidatedAt,
	}
}
