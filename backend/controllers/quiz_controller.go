package controllers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"clonecademy/backend/config"
	"clonecademy/backend/engine"
	"clonecademy/backend/middleware"
	"clonecademy/backend/models"
	"clonecademy/backend/utils"
)

type QuizController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewQuizController(db *gorm.DB, cfg *config.Config) *QuizController {
	return &QuizController{DB: db, Cfg: cfg}
}

// GetQuiz serves the end-of-course quiz. The course has to be completed
// first (a solved try for the last question of the last module), and the
// quiz itself must have a sane size.
func (qc *QuizController) GetQuiz(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	course, err := loadCourse(qc.DB, uint(courseID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	snapshot := engineCourse(course)
	last, ok := snapshot.LastQuestion()
	if !ok {
		return utils.Forbidden(c, "complete the course first")
	}
	completed, err := hasSolvedTry(qc.DB, user.ID, "question_id", last.ID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if !completed {
		return utils.Forbidden(c, "complete the course first")
	}

	if !engine.QuizSizeValid(len(course.QuizQuestions)) {
		return utils.BadRequest(c, "this quiz is invalid")
	}

	questions := make([]fiber.Map, 0, len(course.QuizQuestions))
	for _, question := range course.QuizQuestions {
		answers := make([]fiber.Map, 0, len(question.Answers))
		for _, answer := range question.Answers {
			answers = append(answers, fiber.Map{"id": answer.ID, "text": answer.Text})
		}
		questions = append(questions, fiber.Map{
			"id":      question.ID,
			"text":    question.Text,
			"points":  question.Points,
			"answers": answers,
		})
	}
	return c.JSON(questions)
}

type quizSubmission struct {
	ID      uint   `json:"id"`
	Answers []uint `json:"answers"`
}

// matchSubmission finds the submission for a quiz question, by id when one
// is given, falling back to the submission at the question's position.
func matchSubmission(submissions []quizSubmission, questionID uint, position int) quizSubmission {
	for _, submission := range submissions {
		if submission.ID == questionID {
			return submission
		}
	}
	return submissions[position]
}

// SubmitQuiz evaluates a full quiz submission in one batch: a try per
// question, one immediate point per newly solved question, and a tier bonus
// for crossing a mastery threshold. Everything runs in one transaction;
// a malformed submission writes nothing.
func (qc *QuizController) SubmitQuiz(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	course, err := loadCourse(qc.DB, uint(courseID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	total := len(course.QuizQuestions)
	if total == 0 {
		return utils.NotFound(c, "this quiz does not exist")
	}
	if !engine.QuizSizeValid(total) {
		return utils.BadRequest(c, "this quiz is invalid")
	}

	var input struct {
		Answers []quizSubmission `json:"answers"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if len(input.Answers) != total {
		mismatch := &engine.CountMismatchError{Expected: total, Received: len(input.Answers)}
		return utils.Error(c, fiber.StatusBadRequest, mismatch.Error(), fiber.Map{
			"expected": mismatch.Expected,
			"received": mismatch.Received,
		})
	}

	type questionResult struct {
		ID     uint `json:"id"`
		Solved bool `json:"solved"`
		Points int  `json:"points"`
	}
	results := make([]questionResult, 0, total)
	bonus := 0

	err = qc.DB.Transaction(func(tx *gorm.DB) error {
		newlySolved := 0
		oldSolved := 0
		for i, question := range course.QuizQuestions {
			submission := matchSubmission(input.Answers, question.ID, i)

			var correctIDs []uint
			for _, answer := range question.Answers {
				if answer.Correct {
					correctIDs = append(correctIDs, answer.ID)
				}
			}
			solved := engine.MultipleChoice{CorrectIDs: correctIDs}.Evaluate(submission.Answers)

			solvedBefore, err := hasSolvedTry(tx, user.ID, "quiz_question_id", question.ID)
			if err != nil {
				return err
			}

			points := 0
			if solved && !solvedBefore {
				points = 1
				newlySolved++
				if err := tx.Model(&models.Profile{}).
					Where("user_id = ?", user.ID).
					Update("ranking", gorm.Expr("ranking + ?", question.Points)).Error; err != nil {
					return err
				}
			} else if solvedBefore {
				oldSolved++
			}

			raw, _ := json.Marshal(submission.Answers)
			questionID := question.ID
			if err := tx.Create(&models.Try{
				UserID:         user.ID,
				QuizQuestionID: &questionID,
				Answer:         string(raw),
				Solved:         solved,
			}).Error; err != nil {
				return err
			}

			results = append(results, questionResult{ID: question.ID, Solved: solved, Points: points})
		}

		bonus = engine.QuizBonus(oldSolved, newlySolved, total, course.Difficulty)
		if bonus > 0 {
			if err := tx.Model(&models.Profile{}).
				Where("user_id = ?", user.ID).
				Update("ranking", gorm.Expr("ranking + ?", bonus)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not save quiz results")
	}

	return c.JSON(fiber.Map{
		"questions": results,
		"bonus":     bonus,
	})
}
