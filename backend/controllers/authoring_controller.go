package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"clonecademy/backend/middleware"
	"clonecademy/backend/models"
	"clonecademy/backend/utils"
)

// checkResponsible loads a course and verifies the requester may edit it.
// On failure the response is already written and errResponded comes back.
func (cc *CoursesController) checkResponsible(c *fiber.Ctx, courseID uint) (*models.Course, error) {
	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Course not found")
		} else {
			utils.InternalServerError(c, "Could not query database")
		}
		return nil, errResponded
	}
	user := middleware.CurrentUser(c)
	if course.ResponsibleModID != user.ID && !user.Profile.IsAdmin {
		utils.Forbidden(c, "You are not the responsible mod for this course")
		return nil, errResponded
	}
	return &course, nil
}

// AddModule appends a new module at the end of the course.
func (cc *CoursesController) AddModule(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	course, ferr := cc.checkResponsible(c, uint(courseID))
	if ferr != nil {
		return nil
	}

	var input struct {
		Name        string `json:"name" validate:"required"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var count int64
	cc.DB.Model(&models.Module{}).Where("course_id = ?", course.ID).Count(&count)

	module := models.Module{
		CourseID:    course.ID,
		Name:        input.Name,
		Description: input.Description,
		Position:    int(count),
	}
	if err := cc.DB.Create(&module).Error; err != nil {
		return utils.InternalServerError(c, "Could not create module")
	}
	return utils.Success(c, fiber.StatusCreated, module)
}

// AddQuestion appends a new question at the end of a module.
func (cc *CoursesController) AddQuestion(c *fiber.Ctx) error {
	moduleID, err := strconv.Atoi(c.Params("moduleId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid module ID")
	}

	var module models.Module
	if err := cc.DB.First(&module, moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Module not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	if _, ferr := cc.checkResponsible(c, module.CourseID); ferr != nil {
		return nil
	}

	var input questionInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.BadRequest(c, err.Error())
	}
	correct := 0
	for _, answer := range input.Answers {
		if answer.Correct {
			correct++
		}
	}
	if correct == 0 {
		return utils.BadRequest(c, "at least one answer must be correct")
	}

	var count int64
	cc.DB.Model(&models.Question{}).Where("module_id = ?", module.ID).Count(&count)

	question := models.Question{
		ModuleID: module.ID,
		Title:    input.Title,
		Text:     input.Text,
		Feedback: input.Feedback,
		Points:   input.Points,
		Position: int(count),
	}
	for i, answer := range input.Answers {
		question.Answers = append(question.Answers, models.Answer{
			Text:     answer.Text,
			Correct:  answer.Correct,
			Position: i,
		})
	}
	if err := cc.DB.Create(&question).Error; err != nil {
		return utils.InternalServerError(c, "Could not create question")
	}
	return utils.Success(c, fiber.StatusCreated, question)
}

// AddQuizQuestion adds an end-of-course quiz question. The quiz may not grow
// past its maximum size.
func (cc *CoursesController) AddQuizQuestion(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	course, ferr := cc.checkResponsible(c, uint(courseID))
	if ferr != nil {
		return nil
	}

	var input struct {
		Text    string `json:"text" validate:"required"`
		Points  int    `json:"points" validate:"min=0"`
		Answers []struct {
			Text    string `json:"text" validate:"required"`
			Correct bool   `json:"correct"`
		} `json:"answers" validate:"required,min=2,dive"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var count int64
	cc.DB.Model(&models.QuizQuestion{}).Where("course_id = ?", course.ID).Count(&count)
	if int(count) >= models.QuizMaxQuestions {
		return utils.BadRequest(c, "the quiz already has the maximum number of questions")
	}

	question := models.QuizQuestion{
		CourseID: course.ID,
		Text:     input.Text,
		Points:   input.Points,
	}
	for _, answer := range input.Answers {
		question.Answers = append(question.Answers, models.QuizAnswer{
			Text:    answer.Text,
			Correct: answer.Correct,
		})
	}
	if err := cc.DB.Create(&question).Error; err != nil {
		return utils.InternalServerError(c, "Could not create quiz question")
	}
	return utils.Success(c, fiber.StatusCreated, question)
}
