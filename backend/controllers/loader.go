package controllers

import (
	"errors"

	"gorm.io/gorm"

	"clonecademy/backend/engine"
	"clonecademy/backend/models"
)

// errResponded marks that a helper has already written the error response.
// Handlers seeing it return nil so the written status and body stand; the
// JSON helpers themselves return nil on a successful write and must never be
// used as a failure signal across function boundaries.
var errResponded = errors.New("response already written")

// loadCourse fetches a course with its modules, questions and answers in
// declared order, plus the quiz questions.
func loadCourse(db *gorm.DB, courseID uint) (*models.Course, error) {
	var course models.Course
	err := db.
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("modules.position")
		}).
		Preload("Modules.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position")
		}).
		Preload("Modules.Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.position")
		}).
		Preload("QuizQuestions.Answers").
		First(&course, courseID).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// engineCourse builds the engine snapshot from a loaded course.
func engineCourse(course *models.Course) *engine.Course {
	snapshot := &engine.Course{
		ID:            course.ID,
		Difficulty:    course.Difficulty,
		QuizQuestions: len(course.QuizQuestions),
	}
	for _, module := range course.Modules {
		ref := engine.ModuleRef{ID: module.ID}
		for _, question := range module.Questions {
			ref.Questions = append(ref.Questions, engine.QuestionRef{
				ID:       question.ID,
				Points:   question.Points,
				Feedback: question.Feedback,
			})
		}
		snapshot.Modules = append(snapshot.Modules, ref)
	}
	return snapshot
}

// solvedQuestions returns the set of course questions the user has solved.
func solvedQuestions(db *gorm.DB, userID uint, course *models.Course) (engine.SolvedSet, error) {
	var ids []uint
	for _, module := range course.Modules {
		for _, question := range module.Questions {
			ids = append(ids, question.ID)
		}
	}
	solved := engine.SolvedSet{}
	if len(ids) == 0 {
		return solved, nil
	}

	var solvedIDs []uint
	err := db.Model(&models.Try{}).
		Where("user_id = ? AND solved = ? AND question_id IN ?", userID, true, ids).
		Distinct().
		Pluck("question_id", &solvedIDs).Error
	if err != nil {
		return nil, err
	}
	for _, id := range solvedIDs {
		solved[id] = true
	}
	return solved, nil
}

// hasSolvedTry reports whether the user already has a solved try for a
// regular or a quiz question.
func hasSolvedTry(db *gorm.DB, userID uint, column string, id uint) (bool, error) {
	var count int64
	err := db.Model(&models.Try{}).
		Where("user_id = ? AND solved = ? AND "+column+" = ?", userID, true, id).
		Count(&count).Error
	return count > 0, err
}
