package models

import (
	"time"
)

type DifficultyLevel string

const (
	DifficultyEasy    DifficultyLevel = "easy"
	DifficultyMedium  DifficultyLevel = "medium"
	DifficultyHard    DifficultyLevel = "hard"
	DifficultyExtreme DifficultyLevel = "extreme"
)

// Quiz is a generated question set. Immutable from the engine's viewpoint:
// question order is fixed for the life of every attempt that references it.
type Quiz struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	ProjectID     uint            `json:"project_id" gorm:"not null;index"`
	Title         string          `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Difficulty    DifficultyLevel `json:"difficulty" gorm:"size:20;default:medium" validate:"omitempty,difficulty_level"`
	QuestionCount int             `json:"question_count" gorm:"not null"`
	CreatedAt     time.Time       `json:"created_at"`

	Questions []Question `json:"questions" gorm:"foreignKey:QuizID"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuestionByID finds a question of this quiz; used to detect stale client
// state before grading.
func (q *Quiz) QuestionByID(id uint) (*Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i], true
		}
	}
	return nil, false
}

func (q *Quiz) Len() int {
	if len(q.Questions) > 0 {
		return len(q.Questions)
	}
	return q.QuestionCount
}
