package models

import "gorm.io/gorm"

// Quiz size bounds. A course quiz outside these is malformed and not served.
const (
	QuizMinQuestions = 5
	QuizMaxQuestions = 20
)

// QuizQuestion is scoped to a course directly, not to a module. It is asked
// in the end-of-course quiz after the last module is completed.
type QuizQuestion struct {
	gorm.Model
	CourseID uint         `gorm:"index;not null" json:"course_id"`
	Text     string       `gorm:"not null" json:"text"`
	Points   int          `gorm:"default:1" json:"points"`
	Answers  []QuizAnswer `gorm:"constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

type QuizAnswer struct {
	gorm.Model
	QuizQuestionID uint   `gorm:"index;not null" json:"quiz_question_id"`
	Text           string `gorm:"not null" json:"text"`
	Correct        bool   `gorm:"default:false" json:"-"`
}
