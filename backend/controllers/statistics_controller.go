package controllers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"clonecademy/backend/config"
	"clonecademy/backend/middleware"
	"clonecademy/backend/models"
	"clonecademy/backend/utils"
)

type StatisticsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewStatisticsController(db *gorm.DB, cfg *config.Config) *StatisticsController {
	return &StatisticsController{DB: db, Cfg: cfg}
}

func serializeTry(try *models.Try) fiber.Map {
	entry := fiber.Map{
		"id":     try.ID,
		"solved": try.Solved,
		"date":   try.CreatedAt.Format(time.RFC3339),
	}
	if try.QuestionID != nil {
		entry["question_id"] = *try.QuestionID
	}
	if try.QuizQuestionID != nil {
		entry["quiz_question_id"] = *try.QuizQuestionID
	}
	return entry
}

// GetStatistics returns the requester's try history. Admins may pass
// ?user_id= to read any user's history.
func (sc *StatisticsController) GetStatistics(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	targetID := user.ID
	if idParam := c.Query("user_id"); idParam != "" {
		if !user.Profile.IsAdmin {
			return utils.Forbidden(c, "Admin access required")
		}
		id, err := strconv.Atoi(idParam)
		if err != nil {
			return utils.BadRequest(c, "Invalid user ID")
		}
		targetID = uint(id)
	}

	var tries []models.Try
	if err := sc.DB.Where("user_id = ?", targetID).Order("created_at").Find(&tries).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(tries))
	for i := range tries {
		result = append(result, serializeTry(&tries[i]))
	}
	return c.JSON(result)
}

type statisticsQuery struct {
	CourseID      uint   `json:"course_id"`
	Solved        *bool  `json:"solved"`
	Category      string `json:"category"`
	DateStart     string `json:"date_start"`
	DateEnd       string `json:"date_end"`
	ListQuestions bool   `json:"list_questions"`
	Format        string `json:"format"`
}

// QueryStatistics is the moderator/admin statistics endpoint: filtered try
// listings, per-question solved tallies for a course, and CSV export.
// Moderators only see tries in courses they are responsible for.
func (sc *StatisticsController) QueryStatistics(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input statisticsQuery
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if input.ListQuestions {
		if input.CourseID == 0 {
			return utils.BadRequest(c, "course_id is required to list questions")
		}
		return sc.listQuestionTallies(c, input.CourseID)
	}

	query := sc.DB.Model(&models.Try{}).
		Joins("JOIN questions ON questions.id = tries.question_id").
		Joins("JOIN modules ON modules.id = questions.module_id").
		Joins("JOIN courses ON courses.id = modules.course_id")

	if !user.Profile.IsAdmin {
		query = query.Where("courses.responsible_mod_id = ?", user.ID)
	}
	if input.CourseID != 0 {
		query = query.Where("courses.id = ?", input.CourseID)
	}
	if input.Solved != nil {
		query = query.Where("tries.solved = ?", *input.Solved)
	}
	if input.Category != "" {
		query = query.
			Joins("JOIN course_categories ON course_categories.id = courses.category_id").
			Where("course_categories.name = ?", input.Category)
	}
	if input.DateStart != "" && input.DateEnd != "" {
		start, err1 := time.Parse("2006-01-02", input.DateStart)
		end, err2 := time.Parse("2006-01-02", input.DateEnd)
		if err1 != nil || err2 != nil {
			return utils.BadRequest(c, "dates must be formatted YYYY-MM-DD")
		}
		query = query.Where("tries.created_at BETWEEN ? AND ?", start, end.AddDate(0, 0, 1))
	}

	var tries []models.Try
	if err := query.Order("tries.created_at").Find(&tries).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Format == "csv" {
		return sc.writeCSV(c, tries)
	}

	result := make([]fiber.Map, 0, len(tries))
	for i := range tries {
		entry := serializeTry(&tries[i])
		entry["user_id"] = tries[i].UserID
		result = append(result, entry)
	}
	return c.JSON(result)
}

func (sc *StatisticsController) listQuestionTallies(c *fiber.Ctx, courseID uint) error {
	course, err := loadCourse(sc.DB, courseID)
	if err != nil {
		return utils.NotFound(c, "Course not found")
	}

	modules := make([][]fiber.Map, 0, len(course.Modules))
	for _, module := range course.Modules {
		tallies := make([]fiber.Map, 0, len(module.Questions))
		for _, question := range module.Questions {
			var solvedCount, failedCount int64
			sc.DB.Model(&models.Try{}).
				Where("question_id = ? AND solved = ?", question.ID, true).Count(&solvedCount)
			sc.DB.Model(&models.Try{}).
				Where("question_id = ? AND solved = ?", question.ID, false).Count(&failedCount)
			tallies = append(tallies, fiber.Map{
				"name":       question.Title,
				"solved":     solvedCount,
				"not_solved": failedCount,
			})
		}
		modules = append(modules, tallies)
	}
	return c.JSON(modules)
}

func (sc *StatisticsController) writeCSV(c *fiber.Ctx, tries []models.Try) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	_ = writer.Write([]string{"question", "user", "date", "solved"})
	for i := range tries {
		questionID := ""
		if tries[i].QuestionID != nil {
			questionID = strconv.Itoa(int(*tries[i].QuestionID))
		}
		_ = writer.Write([]string{
			questionID,
			strconv.Itoa(int(tries[i].UserID)),
			tries[i].CreatedAt.Format(time.RFC3339),
			strconv.FormatBool(tries[i].Solved),
		})
	}
	writer.Flush()

	filename := fmt.Sprintf("statistics-%s.csv", time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}
