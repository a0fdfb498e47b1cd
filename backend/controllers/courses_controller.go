package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"clonecademy/backend/config"
	"clonecademy/backend/middleware"
	"clonecademy/backend/models"
	"clonecademy/backend/utils"
)

type CoursesController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewCoursesController(db *gorm.DB, cfg *config.Config) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg}
}

// GetCourses lists courses filtered by language, category and type
// (type=mod: courses the requester moderates, type=started: courses the
// requester has tries in). Invisible courses are hidden from plain users.
func (cc *CoursesController) GetCourses(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	language := c.Query("language")
	category := c.Query("category")
	courseType := c.Query("type")

	if courseType != "" && courseType != "mod" && courseType != "started" {
		return utils.BadRequest(c, "Query not possible")
	}

	query := cc.DB.Model(&models.Course{})
	if language != "" {
		query = query.Where("language = ?", language)
	}
	if !(user.Profile.IsModerator || user.Profile.IsAdmin) {
		query = query.Where("is_visible = ?", true)
	}
	if category != "" {
		var cat models.CourseCategory
		if err := cc.DB.Where("name = ?", category).First(&cat).Error; err != nil {
			return utils.BadRequest(c, "Query not possible")
		}
		query = query.Where("category_id = ?", cat.ID)
	}
	switch courseType {
	case "mod":
		query = query.Where("responsible_mod_id = ?", user.ID)
	case "started":
		query = query.Where(
			"courses.id IN (?)",
			cc.DB.Model(&models.Try{}).
				Select("modules.course_id").
				Joins("JOIN questions ON questions.id = tries.question_id").
				Joins("JOIN modules ON modules.id = questions.module_id").
				Where("tries.user_id = ?", user.ID),
		)
	}

	var courses []models.Course
	if err := query.Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		result = append(result, fiber.Map{
			"id":          course.ID,
			"name":        course.Name,
			"description": course.Description,
			"language":    course.Language,
			"difficulty":  course.Difficulty,
			"is_visible":  course.IsVisible,
			"category_id": course.CategoryID,
		})
	}
	return c.JSON(result)
}

// GetCourse returns one course with its modules and questions in declared
// order, plus whether an end-of-course quiz exists.
func (cc *CoursesController) GetCourse(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	course, err := loadCourse(cc.DB, uint(courseID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	if !course.IsVisible && !(user.Profile.IsModerator || user.Profile.IsAdmin) {
		return utils.NotFound(c, "Course not found")
	}

	modules := make([]fiber.Map, 0, len(course.Modules))
	for _, module := range course.Modules {
		questions := make([]fiber.Map, 0, len(module.Questions))
		for _, question := range module.Questions {
			questions = append(questions, fiber.Map{
				"id":       question.ID,
				"title":    question.Title,
				"points":   question.Points,
				"position": question.Position,
			})
		}
		modules = append(modules, fiber.Map{
			"id":          module.ID,
			"name":        module.Name,
			"description": module.Description,
			"position":    module.Position,
			"questions":   questions,
		})
	}

	return c.JSON(fiber.Map{
		"id":          course.ID,
		"name":        course.Name,
		"description": course.Description,
		"language":    course.Language,
		"difficulty":  course.Difficulty,
		"is_visible":  course.IsVisible,
		"category_id": course.CategoryID,
		"modules":     modules,
		"quiz":        len(course.QuizQuestions) > 0,
	})
}

type questionInput struct {
	Title    string   `json:"title" validate:"required"`
	Text     string   `json:"text"`
	Feedback string   `json:"feedback"`
	Points   int      `json:"points" validate:"min=0"`
	Answers  []struct {
		Text    string `json:"text" validate:"required"`
		Correct bool   `json:"correct"`
	} `json:"answers" validate:"required,min=2,dive"`
}

type moduleInput struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Questions   []questionInput `json:"questions" validate:"required,min=1,dive"`
}

type courseInput struct {
	Name        string        `json:"name" validate:"required"`
	Description string        `json:"description"`
	Language    string        `json:"language" validate:"required,oneof=en de"`
	Difficulty  int           `json:"difficulty" validate:"required,oneof=1 2"`
	CategoryID  uint          `json:"category_id"`
	Modules     []moduleInput `json:"modules" validate:"required,min=1,dive"`
}

// CreateCourse saves a new course with its modules and questions in a single
// transaction. The requester becomes the responsible moderator.
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input courseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	var existing int64
	cc.DB.Model(&models.Course{}).Where("name = ?", input.Name).Count(&existing)
	if existing > 0 {
		return utils.Error(c, fiber.StatusConflict, "Course with that name exists")
	}

	course := models.Course{
		Name:             input.Name,
		Description:      input.Description,
		Language:         input.Language,
		Difficulty:       input.Difficulty,
		CategoryID:       input.CategoryID,
		ResponsibleModID: user.ID,
	}
	for mi, m := range input.Modules {
		module := models.Module{
			Name:        m.Name,
			Description: m.Description,
			Position:    mi,
		}
		for qi, q := range m.Questions {
			question := models.Question{
				Title:    q.Title,
				Text:     q.Text,
				Feedback: q.Feedback,
				Points:   q.Points,
				Position: qi,
			}
			for ai, a := range q.Answers {
				question.Answers = append(question.Answers, models.Answer{
					Text:     a.Text,
					Correct:  a.Correct,
					Position: ai,
				})
			}
			module.Questions = append(module.Questions, question)
		}
		course.Modules = append(course.Modules, module)
	}

	if err := cc.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&course).Error
	}); err != nil {
		return utils.InternalServerError(c, "Could not create course")
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{"id": course.ID})
}

// UpdateCourse edits course attributes. Only the responsible moderator or an
// admin may edit.
func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if course.ResponsibleModID != user.ID && !user.Profile.IsAdmin {
		return utils.Forbidden(c, "You are not the responsible mod for this course")
	}

	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Language    string `json:"language"`
		Difficulty  int    `json:"difficulty"`
		CategoryID  uint   `json:"category_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if input.Name != "" && input.Name != course.Name {
		var clash int64
		cc.DB.Model(&models.Course{}).Where("name = ?", input.Name).Count(&clash)
		if clash > 0 {
			return utils.Error(c, fiber.StatusConflict, "Course with that name exists")
		}
		course.Name = input.Name
	}
	if input.Description != "" {
		course.Description = input.Description
	}
	if input.Language != "" {
		course.Language = input.Language
	}
	if input.Difficulty == models.DifficultyNormal || input.Difficulty == models.DifficultyHard {
		course.Difficulty = input.Difficulty
	}
	if input.CategoryID != 0 {
		course.CategoryID = input.CategoryID
	}

	if err := cc.DB.Save(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not update course")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"id": course.ID})
}

// DeleteCourse removes a course and everything under it.
func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course does not exist")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := cc.DB.Select("Modules", "QuizQuestions").Delete(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete course")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": course.ID})
}

// ToggleVisibility flips (or sets) the course visibility flag.
func (cc *CoursesController) ToggleVisibility(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var input struct {
		IsVisible *bool `json:"is_visible"`
	}
	if err := c.BodyParser(&input); err == nil && input.IsVisible != nil {
		course.IsVisible = *input.IsVisible
	} else {
		course.IsVisible = !course.IsVisible
	}

	if err := cc.DB.Save(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not update course")
	}
	return c.JSON(fiber.Map{"is_visible": course.IsVisible})
}

// ReorderModules rewrites module positions. The submitted id list must be a
// permutation of the course's current module ids.
func (cc *CoursesController) ReorderModules(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.Preload("Modules").First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}
	if course.ResponsibleModID != user.ID && !user.Profile.IsAdmin {
		return utils.Forbidden(c, "You are not the responsible mod for this course")
	}

	var input struct {
		ModuleIDs []uint `json:"module_ids"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	current := make([]uint, 0, len(course.Modules))
	for _, module := range course.Modules {
		current = append(current, module.ID)
	}
	if !models.IsPermutation(current, input.ModuleIDs) {
		return utils.BadRequest(c, "module_ids must be a permutation of the course's module ids")
	}

	if err := cc.DB.Transaction(func(tx *gorm.DB) error {
		for position, id := range input.ModuleIDs {
			if err := tx.Model(&models.Module{}).Where("id = ?", id).
				Update("position", position).Error; err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return utils.InternalServerError(c, "Could not reorder modules")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"module_ids": input.ModuleIDs})
}

// ReorderQuestions rewrites question positions inside one module, with the
// same permutation check.
func (cc *CoursesController) ReorderQuestions(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	moduleID, err := strconv.Atoi(c.Params("moduleId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid module ID")
	}

	var module models.Module
	if err := cc.DB.Preload("Questions").First(&module, moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Module not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var course models.Course
	if err := cc.DB.First(&course, module.CourseID).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if course.ResponsibleModID != user.ID && !user.Profile.IsAdmin {
		return utils.Forbidden(c, "You are not the responsible mod for this course")
	}

	var input struct {
		QuestionIDs []uint `json:"question_ids"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	current := make([]uint, 0, len(module.Questions))
	for _, question := range module.Questions {
		current = append(current, question.ID)
	}
	if !models.IsPermutation(current, input.QuestionIDs) {
		return utils.BadRequest(c, "question_ids must be a permutation of the module's question ids")
	}

	if err := cc.DB.Transaction(func(tx *gorm.DB) error {
		for position, id := range input.QuestionIDs {
			if err := tx.Model(&models.Question{}).Where("id = ?", id).
				Update("position", position).Error; err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return utils.InternalServerError(c, "Could not reorder questions")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"question_ids": input.QuestionIDs})
}

// GetCategories lists all course categories.
func (cc *CoursesController) GetCategories(c *fiber.Ctx) error {
	var categories []models.CourseCategory
	if err := cc.DB.Find(&categories).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return c.JSON(categories)
}

// SaveCategory creates a category, or updates one when an id is given.
func (cc *CoursesController) SaveCategory(c *fiber.Ctx) error {
	var input struct {
		ID    uint   `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Name == "" {
		return utils.BadRequest(c, "name is required")
	}

	if input.ID != 0 {
		var category models.CourseCategory
		if err := cc.DB.First(&category, input.ID).Error; err != nil {
			return utils.NotFound(c, "a category with the given id does not exist")
		}
		category.Name = input.Name
		category.Color = input.Color
		if err := cc.DB.Save(&category).Error; err != nil {
			return utils.InternalServerError(c, "Could not update category")
		}
		return c.JSON(category)
	}

	category := models.CourseCategory{Name: input.Name, Color: input.Color}
	if err := cc.DB.Create(&category).Error; err != nil {
		return utils.InternalServerError(c, "Could not create category")
	}
	return c.JSON(category)
}

// DeleteCategory removes a category. With ?preview=true it only lists the
// names of the courses that would lose their category.
func (cc *CoursesController) DeleteCategory(c *fiber.Ctx) error {
	categoryID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid category ID")
	}

	var category models.CourseCategory
	if err := cc.DB.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "a category with the given id does not exist")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var courseNames []string
	cc.DB.Model(&models.Course{}).Where("category_id = ?", category.ID).
		Pluck("name", &courseNames)

	if c.Query("preview") == "true" {
		return c.JSON(fiber.Map{"name": category.Name, "courses": courseNames})
	}

	if err := cc.DB.Delete(&category).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete category")
	}
	return c.JSON(fiber.Map{"id": category.ID})
}
