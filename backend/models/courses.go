package models

import "gorm.io/gorm"

// Course difficulty levels. Hard courses double the quiz tier bonus.
const (
	DifficultyNormal = 1
	DifficultyHard   = 2
)

type CourseCategory struct {
	gorm.Model
	Name  string `gorm:"unique;not null" json:"name"`
	Color string `json:"color"`
}

type Course struct {
	gorm.Model
	Name             string         `gorm:"unique;not null" json:"name"`
	Description      string         `json:"description"`
	Language         string         `gorm:"default:en" json:"language"` // en, de
	Difficulty       int            `gorm:"default:1" json:"difficulty"`
	IsVisible        bool           `gorm:"default:false" json:"is_visible"`
	CategoryID       uint           `json:"category_id"`
	ResponsibleModID uint           `json:"responsible_mod_id"`
	Modules          []Module       `gorm:"constraint:OnDelete:CASCADE" json:"modules,omitempty"`
	QuizQuestions    []QuizQuestion `gorm:"constraint:OnDelete:CASCADE" json:"quiz_questions,omitempty"`
}

// Module groups questions inside a course. Position is the rendering order
// inside the course, a dense 0-based sequence owned by the parent.
type Module struct {
	gorm.Model
	CourseID    uint       `gorm:"index;not null" json:"course_id"`
	Name        string     `gorm:"not null" json:"name"`
	Description string     `json:"description"`
	Position    int        `gorm:"not null" json:"position"`
	Questions   []Question `gorm:"constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

type Question struct {
	gorm.Model
	ModuleID uint     `gorm:"index;not null" json:"module_id"`
	Title    string   `gorm:"not null" json:"title"`
	Text     string   `json:"text"`
	Feedback string   `json:"feedback"`
	Points   int      `gorm:"default:1" json:"points"`
	Position int      `gorm:"not null" json:"position"`
	Answers  []Answer `gorm:"constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

type Answer struct {
	gorm.Model
	QuestionID uint   `gorm:"index;not null" json:"question_id"`
	Text       string `gorm:"not null" json:"text"`
	Correct    bool   `gorm:"default:false" json:"-"`
	Position   int    `json:"position"`
}

// IsPermutation reports whether ids is a permutation of current. Reorder
// endpoints refuse anything else, so positions always stay a dense sequence
// over exactly the existing children.
func IsPermutation(current, ids []uint) bool {
	if len(current) != len(ids) {
		return false
	}
	seen := make(map[uint]int, len(current))
	for _, id := range current {
		seen[id]++
	}
	for _, id := range ids {
		seen[id]--
		if seen[id] < 0 {
			return false
		}
	}
	return true
}
