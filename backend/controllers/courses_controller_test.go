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

func TestCreateCourse(t *testing.T) {
	env := newTestEnv(t)
	_, modToken := env.createUser(t, "moderator", true, false)

	payload := fiber.Map{
		"name":       "Ethics 101",
		"language":   "en",
		"difficulty": 1,
		"modules": []fiber.Map{
			{
				"name": "Virtue",
				"questions": []fiber.Map{
					{
						"title":  "What is virtue?",
						"points": 2,
						"answers": []fiber.Map{
							{"text": "a habit", "correct": true},
							{"text": "a mood"},
						},
					},
				},
			},
		},
	}

	status, _ := env.request(t, http.MethodPost, "/api/admin/courses/", modToken, payload)
	require.Equal(t, http.StatusCreated, status)

	// duplicate names are rejected
	status, _ = env.request(t, http.MethodPost, "/api/admin/courses/", modToken, payload)
	assert.Equal(t, http.StatusConflict, status)
}

func TestCreateCourseRequiresModerator(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "learner", false, false)

	status, _ := env.request(t, http.MethodPost, "/api/admin/courses/", token, fiber.Map{
		"name": "Sneaky course",
	})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestCourseVisibility(t *testing.T) {
	env := newTestEnv(t)
	mod, modToken := env.createUser(t, "moderator", true, false)
	_, learnerToken := env.createUser(t, "learner", false, false)

	course := env.createCourse(t, mod)
	require.NoError(t, env.db.Model(course).Update("is_visible", false).Error)

	// hidden from plain users in listing and detail
	status, courses := env.requestList(t, http.MethodGet, "/api/courses/", learnerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, courses)

	status, _ = env.request(t, http.MethodGet, fmt.Sprintf("/api/courses/%d", course.ID), learnerToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// moderators still see it
	status, courses = env.requestList(t, http.MethodGet, "/api/courses/", modToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, courses, 1)
}

func TestUpdateCourseOnlyResponsibleMod(t *testing.T) {
	env := newTestEnv(t)
	mod, _ := env.createUser(t, "moderator", true, false)
	_, otherToken := env.createUser(t, "other_mod", true, false)
	course := env.createCourse(t, mod)

	status, _ := env.request(t, http.MethodPut,
		fmt.Sprintf("/api/admin/courses/%d", course.ID), otherToken,
		fiber.Map{"description": "hijacked"})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestReorderModulesValidatesPermutation(t *testing.T) {
	env := newTestEnv(t)
	mod, modToken := env.createUser(t, "moderator", true, false)
	course := env.createCourse(t, mod)

	var modules []models.Module
	require.NoError(t, env.db.Where("course_id = ?", course.ID).Order("position").Find(&modules).Error)
	require.Len(t, modules, 2)

	path := fmt.Sprintf("/api/admin/courses/%d/modules/order", course.ID)

	// not a permutation: one id missing
	status, _ := env.request(t, http.MethodPut, path, modToken,
		fiber.Map{"module_ids": []uint{modules[0].ID}})
	assert.Equal(t, http.StatusBadRequest, status)

	// not a permutation: duplicated id
	status, _ = env.request(t, http.MethodPut, path, modToken,
		fiber.Map{"module_ids": []uint{modules[0].ID, modules[0].ID}})
	assert.Equal(t, http.StatusBadRequest, status)

	// a real permutation swaps the rendering order
	status, _ = env.request(t, http.MethodPut, path, modToken,
		fiber.Map{"module_ids": []uint{modules[1].ID, modules[0].ID}})
	require.Equal(t, http.StatusOK, status)

	status, detail := env.request(t, http.MethodGet, fmt.Sprintf("/api/courses/%d", course.ID), modToken, nil)
	require.Equal(t, http.StatusOK, status)
	ordered := detail["modules"].([]interface{})
	first := ordered[0].(map[string]interface{})
	assert.EqualValues(t, modules[1].ID, first["id"])
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "admin", false, true)
	_, learnerToken := env.createUser(t, "learner", false, false)

	status, created := env.request(t, http.MethodPost, "/api/categories", adminToken,
		fiber.Map{"name": "Logic", "color": "#336699"})
	require.Equal(t, http.StatusOK, status)

	status, _ = env.request(t, http.MethodPost, "/api/categories", learnerToken,
		fiber.Map{"name": "Nope"})
	assert.Equal(t, http.StatusForbidden, status)

	status, categories := env.requestList(t, http.MethodGet, "/api/categories", learnerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, categories, 1)

	// delete preview names affected courses without deleting
	categoryID := int(created["ID"].(float64))
	status, preview := env.request(t, http.MethodDelete,
		fmt.Sprintf("/api/categories/%d?preview=true", categoryID), adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logic", preview["name"])

	status, _ = env.request(t, http.MethodDelete,
		fmt.Sprintf("/api/categories/%d", categoryID), adminToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, categories = env.requestList(t, http.MethodGet, "/api/categories", learnerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, categories)
}

func TestToggleVisibility(t *testing.T) {
	env := newTestEnv(t)
	mod, _ := env.createUser(t, "moderator", true, false)
	_, adminToken := env.createUser(t, "admin", false, true)
	course := env.createCourse(t, mod)

	path := fmt.Sprintf("/api/admin/courses/%d/visibility", course.ID)
	status, result := env.request(t, http.MethodPost, path, adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, result["is_visible"])

	status, result = env.request(t, http.MethodPost, path, adminToken,
		fiber.Map{"is_visible": true})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, result["is_visible"])
}
