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

type QuestionsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewQuestionsController(db *gorm.DB, cfg *config.Config) *QuestionsController {
	return &QuestionsController{DB: db, Cfg: cfg}
}

func (qc *QuestionsController) resolve(c *fiber.Ctx) (*models.Course, int, int, error) {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid course ID")
		return nil, 0, 0, errResponded
	}
	moduleIdx, err := strconv.Atoi(c.Params("moduleIndex"))
	if err != nil {
		utils.BadRequest(c, "Invalid module index")
		return nil, 0, 0, errResponded
	}
	questionIdx, err := strconv.Atoi(c.Params("questionIndex"))
	if err != nil {
		utils.BadRequest(c, "Invalid question index")
		return nil, 0, 0, errResponded
	}

	course, err := loadCourse(qc.DB, uint(courseID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Question not found")
		} else {
			utils.InternalServerError(c, "Could not query database")
		}
		return nil, 0, 0, errResponded
	}

	user := middleware.CurrentUser(c)
	if !course.IsVisible && !(user.Profile.IsModerator || user.Profile.IsAdmin) {
		utils.NotFound(c, "Question not found")
		return nil, 0, 0, errResponded
	}
	return course, moduleIdx, questionIdx, nil
}

// GetQuestion serves the question at (course, moduleIndex, questionIndex) if
// the gating rule allows the requester to see it. Correct answers are never
// part of the payload.
func (qc *QuestionsController) GetQuestion(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	course, moduleIdx, questionIdx, ferr := qc.resolve(c)
	if ferr != nil {
		return nil
	}

	snapshot := engineCourse(course)
	if _, err := snapshot.QuestionAt(moduleIdx, questionIdx); err != nil {
		return utils.NotFound(c, "Question not found")
	}

	solved, err := solvedQuestions(qc.DB, user.ID, course)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	granted, err := snapshot.CanAccess(moduleIdx, questionIdx, solved)
	if err != nil {
		return utils.NotFound(c, "Question not found")
	}
	if !granted {
		return utils.Forbidden(c, "Previous question(s) haven't been answered correctly yet")
	}

	question := course.Modules[moduleIdx].Questions[questionIdx]
	answers := make([]fiber.Map, 0, len(question.Answers))
	for _, answer := range question.Answers {
		answers = append(answers, fiber.Map{"id": answer.ID, "text": answer.Text})
	}

	module := course.Modules[moduleIdx]
	return c.JSON(fiber.Map{
		"id":            question.ID,
		"title":         question.Title,
		"text":          question.Text,
		"points":        question.Points,
		"answers":       answers,
		"last_question": questionIdx == len(module.Questions)-1,
		"last_module":   moduleIdx == len(course.Modules)-1,
	})
}

// GetAnswers lists the candidate answers of a question without revealing
// which are correct.
func (qc *QuestionsController) GetAnswers(c *fiber.Ctx) error {
	course, moduleIdx, questionIdx, ferr := qc.resolve(c)
	if ferr != nil {
		return nil
	}

	snapshot := engineCourse(course)
	if _, err := snapshot.QuestionAt(moduleIdx, questionIdx); err != nil {
		return utils.NotFound(c, "Question not found")
	}

	question := course.Modules[moduleIdx].Questions[questionIdx]
	answers := make([]fiber.Map, 0, len(question.Answers))
	for _, answer := range question.Answers {
		answers = append(answers, fiber.Map{"id": answer.ID, "text": answer.Text})
	}
	return c.JSON(answers)
}

// SubmitAnswer evaluates a submission against the question's answer key,
// records the try, awards the question's points on the first solve, and
// reports where the learner goes next. The solved-check, try insert and
// ranking update run in one transaction so a concurrent duplicate submission
// cannot double-award.
func (qc *QuestionsController) SubmitAnswer(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	course, moduleIdx, questionIdx, ferr := qc.resolve(c)
	if ferr != nil {
		return nil
	}

	snapshot := engineCourse(course)
	if _, err := snapshot.QuestionAt(moduleIdx, questionIdx); err != nil {
		return utils.NotFound(c, "Question not found")
	}

	solvedSet, err := solvedQuestions(qc.DB, user.ID, course)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	granted, err := snapshot.CanAccess(moduleIdx, questionIdx, solvedSet)
	if err != nil {
		return utils.NotFound(c, "Question not found")
	}
	if !granted {
		return utils.Forbidden(c, "Previous question(s) haven't been answered correctly yet")
	}

	var input struct {
		Answers []uint `json:"answers"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	question := course.Modules[moduleIdx].Questions[questionIdx]
	var correctIDs []uint
	for _, answer := range question.Answers {
		if answer.Correct {
			correctIDs = append(correctIDs, answer.ID)
		}
	}
	solved := engine.MultipleChoice{CorrectIDs: correctIDs}.Evaluate(input.Answers)

	submission, _ := json.Marshal(input.Answers)
	questionID := question.ID
	err = qc.DB.Transaction(func(tx *gorm.DB) error {
		if solved {
			alreadySolved, err := hasSolvedTry(tx, user.ID, "question_id", questionID)
			if err != nil {
				return err
			}
			if !alreadySolved {
				if err := tx.Model(&models.Profile{}).
					Where("user_id = ?", user.ID).
					Update("ranking", gorm.Expr("ranking + ?", question.Points)).Error; err != nil {
					return err
				}
			}
		}
		return tx.Create(&models.Try{
			UserID:     user.ID,
			QuestionID: &questionID,
			Answer:     string(submission),
			Solved:     solved,
		}).Error
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not save try")
	}

	response := fiber.Map{"solved": solved}
	if solved {
		adv, err := snapshot.Advance(moduleIdx, questionIdx)
		if err != nil {
			return utils.InternalServerError(c, "Could not compute next question")
		}
		if adv.HasNext {
			response["next"] = fiber.Map{
				"course_id":      adv.CourseID,
				"module_index":   adv.NextModule,
				"question_index": adv.NextQuestion,
			}
		}
		if adv.QuizAvailable {
			response["quiz"] = true
		}
		if adv.Completed {
			response["completed"] = true
		}
		if adv.Feedback != "" {
			response["feedback"] = adv.Feedback
		}
	}
	return c.JSON(response)
}
