package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clonecademy/backend/models"
)

func TestAddModule(t *testing.T) {
	env := newTestEnv(t)
	mod, modToken := env.createUser(t, "moderator", true, false)
	course := env.createCourse(t, mod)

	status, _ := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/admin/courses/%d/modules", course.ID), modToken,
		fiber.Map{"name": "Ethics", "description": "the good life"})
	require.Equal(t, http.StatusCreated, status)

	// appended after the two seeded modules
	var module models.Module
	require.NoError(t, env.db.Where("course_id = ? AND name = ?", course.ID, "Ethics").First(&module).Error)
	assert.Equal(t, 2, module.Position)

	status, _ = env.request(t, http.MethodPost,
		fmt.Sprintf("/api/admin/courses/%d/modules", course.ID), modToken,
		fiber.Map{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAddQuestion(t *testing.T) {
	env := newTestEnv(t)
	mod, modToken := env.createUser(t, "moderator", true, false)
	course := env.createCourse(t, mod)
	moduleID := course.Modules[0].ID

	path := fmt.Sprintf("/api/admin/courses/%d/modules/%d/questions", course.ID, moduleID)
	status, _ := env.request(t, http.MethodPost, path, modToken, fiber.Map{
		"title":  "What is justice?",
		"points": 4,
		"answers": []fiber.Map{
			{"text": "giving each their due", "correct": true},
			{"text": "the advantage of the stronger"},
		},
	})
	require.Equal(t, http.StatusCreated, status)

	// appended after the module's two seeded questions
	var question models.Question
	require.NoError(t, env.db.Where("module_id = ? AND title = ?", moduleID, "What is justice?").First(&question).Error)
	assert.Equal(t, 2, question.Position)

	var answers int64
	env.db.Model(&models.Answer{}).Where("question_id = ?", question.ID).Count(&answers)
	assert.EqualValues(t, 2, answers)

	// a question without any correct answer cannot be solved and is rejected
	status, _ = env.request(t, http.MethodPost, path, modToken, fiber.Map{
		"title": "Trick question",
		"answers": []fiber.Map{
			{"text": "no"},
			{"text": "also no"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAddQuizQuestion(t *testing.T) {
	env := newTestEnv(t)
	mod, modToken := env.createUser(t, "moderator", true, false)
	course := env.createCourse(t, mod)

	payload := fiber.Map{
		"text":   "Who drank the hemlock?",
		"points": 1,
		"answers": []fiber.Map{
			{"text": "Socrates", "correct": true},
			{"text": "Plato"},
		},
	}

	path := fmt.Sprintf("/api/admin/courses/%d/quiz", course.ID)
	status, _ := env.request(t, http.MethodPost, path, modToken, payload)
	require.Equal(t, http.StatusCreated, status)

	// the quiz never grows past its maximum size
	env.addQuizQuestions(t, course, models.QuizMaxQuestions-1)
	status, _ = env.request(t, http.MethodPost, path, modToken, payload)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAuthoringRequiresResponsibleMod(t *testing.T) {
	env := newTestEnv(t)
	mod, _ := env.createUser(t, "moderator", true, false)
	_, otherToken := env.createUser(t, "other-mod", true, false)
	course := env.createCourse(t, mod)

	status, _ := env.request(t, http.MethodPost,
		fmt.Sprintf("/api/admin/courses/%d/modules", course.ID), otherToken,
		fiber.Map{"name": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.request(t, http.MethodPost,
		"/api/admin/courses/9999/modules", otherToken,
		fiber.Map{"name": "Nowhere"})
	assert.Equal(t, http.StatusNotFound, status)

	var count int64
	env.db.Model(&models.Module{}).Where("course_id = ?", course.ID).Count(&count)
	assert.EqualValues(t, 2, count)
}
