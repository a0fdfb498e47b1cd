package models

import "gorm.io/gorm"

// Try records one evaluation attempt. Exactly one of QuestionID and
// QuizQuestionID is set. Rows are append-only: the evaluation code creates
// them and nothing ever updates or deletes them.
type Try struct {
	gorm.Model
	UserID         uint   `gorm:"index;not null" json:"user_id"`
	QuestionID     *uint  `gorm:"index" json:"question_id,omitempty"`
	QuizQuestionID *uint  `gorm:"index" json:"quiz_question_id,omitempty"`
	Answer         string `json:"answer"`
	Solved         bool   `gorm:"default:false" json:"solved"`
}
