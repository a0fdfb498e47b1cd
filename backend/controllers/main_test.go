package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"clonecademy/backend/config"
	"clonecademy/backend/models"
	"clonecademy/backend/routes"
	"clonecademy/backend/utils"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:  "testsecret",
		ServerPort: "8080",
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, utils.Migrate(db))

	app := fiber.New()
	logger := utils.InitLogger()
	mailer := utils.NewMailer(cfg, logger)
	routes.SetupRoutes(app, db, cfg, mailer, nil)

	return &testEnv{app: app, db: db, cfg: cfg}
}

// createUser seeds a user with the given role flags and returns it together
// with a valid token.
func (env *testEnv) createUser(t *testing.T, username string, moderator, admin bool) (*models.User, string) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hashed),
	}
	require.NoError(t, env.db.Create(&user).Error)
	user.Profile = models.Profile{
		UserID:      user.ID,
		IsModerator: moderator,
		IsAdmin:     admin,
	}
	require.NoError(t, env.db.Create(&user.Profile).Error)

	token, err := utils.GenerateJWTToken(user.ID, env.cfg)
	require.NoError(t, err)
	return &user, token
}

// createCourse seeds a visible course with two modules: the first holds two
// questions worth 3 and 5 points, the second holds one question worth 7.
// Each question has one correct and one wrong answer.
func (env *testEnv) createCourse(t *testing.T, mod *models.User) *models.Course {
	t.Helper()

	course := models.Course{
		Name:             "Intro to Philosophy",
		Language:         "en",
		Difficulty:       models.DifficultyNormal,
		IsVisible:        true,
		ResponsibleModID: mod.ID,
		Modules: []models.Module{
			{
				Name:     "Basics",
				Position: 0,
				Questions: []models.Question{
					{
						Title:    "First question",
						Points:   3,
						Position: 0,
						Answers: []models.Answer{
							{Text: "right", Correct: true, Position: 0},
							{Text: "wrong", Position: 1},
						},
					},
					{
						Title:    "Second question",
						Points:   5,
						Position: 1,
						Feedback: "nice work",
						Answers: []models.Answer{
							{Text: "right", Correct: true, Position: 0},
							{Text: "wrong", Position: 1},
						},
					},
				},
			},
			{
				Name:     "Advanced",
				Position: 1,
				Questions: []models.Question{
					{
						Title:    "Third question",
						Points:   7,
						Position: 0,
						Answers: []models.Answer{
							{Text: "right", Correct: true, Position: 0},
							{Text: "wrong", Position: 1},
						},
					},
				},
			},
		},
	}
	require.NoError(t, env.db.Create(&course).Error)
	return &course
}

// addQuizQuestions gives the course n quiz questions with one correct and
// one wrong answer each.
func (env *testEnv) addQuizQuestions(t *testing.T, course *models.Course, n int) []models.QuizQuestion {
	t.Helper()

	questions := make([]models.QuizQuestion, 0, n)
	for i := 0; i < n; i++ {
		question := models.QuizQuestion{
			CourseID: course.ID,
			Text:     "quiz question",
			Points:   1,
			Answers: []models.QuizAnswer{
				{Text: "right", Correct: true},
				{Text: "wrong"},
			},
		}
		require.NoError(t, env.db.Create(&question).Error)
		questions = append(questions, question)
	}
	return questions
}

// request performs an HTTP request against the test app and decodes the
// JSON response into a map.
func (env *testEnv) request(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	status, raw := env.rawRequest(t, method, path, token, body)
	var result map[string]interface{}
	if len(raw) > 0 {
		json.Unmarshal(raw, &result)
	}
	return status, result
}

// requestList is request for endpoints returning a JSON array.
func (env *testEnv) requestList(t *testing.T, method, path, token string, body interface{}) (int, []interface{}) {
	t.Helper()

	status, raw := env.rawRequest(t, method, path, token, body)
	var result []interface{}
	if len(raw) > 0 {
		json.Unmarshal(raw, &result)
	}
	return status, result
}

func (env *testEnv) rawRequest(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// ranking reads the user's current ranking score straight from the store.
func (env *testEnv) ranking(t *testing.T, userID uint) int {
	t.Helper()

	var profile models.Profile
	require.NoError(t, env.db.Where("user_id = ?", userID).First(&profile).Error)
	return profile.Ranking
}

// tryCount counts the user's recorded tries.
func (env *testEnv) tryCount(t *testing.T, userID uint) int64 {
	t.Helper()

	var count int64
	require.NoError(t, env.db.Model(&models.Try{}).Where("user_id = ?", userID).Count(&count).Error)
	return count
}

// solveQuestion submits the correct answer for the question at the given
// indices and asserts it was accepted.
func (env *testEnv) solveQuestion(t *testing.T, course *models.Course, token string, moduleIdx, questionIdx int) map[string]interface{} {
	t.Helper()

	var fresh models.Course
	require.NoError(t, env.db.
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("modules.position") }).
		Preload("Modules.Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.position") }).
		Preload("Modules.Questions.Answers").
		First(&fresh, course.ID).Error)

	question := fresh.Modules[moduleIdx].Questions[questionIdx]
	var correct []uint
	for _, answer := range question.Answers {
		if answer.Correct {
			correct = append(correct, answer.ID)
		}
	}

	path := coursePath(course.ID, moduleIdx, questionIdx)
	status, result := env.request(t, http.MethodPost, path, token, fiber.Map{"answers": correct})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, result["solved"])
	return result
}

func coursePath(courseID uint, moduleIdx, questionIdx int) string {
	return fmt.Sprintf("/api/courses/%d/modules/%d/questions/%d", courseID, moduleIdx, questionIdx)
}
