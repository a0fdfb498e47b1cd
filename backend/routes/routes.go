package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"clonecademy/backend/config"
	"clonecademy/backend/controllers"
	"clonecademy/backend/middleware"
	"clonecademy/backend/utils"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, mailer utils.Mailer, redisClient *redis.Client) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg, mailer)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)
	app.Post("/api/auth/reset-password", authController.ResetPassword)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(db, cfg)
	modMiddleware := middleware.ModeratorMiddleware()
	adminMiddleware := middleware.AdminMiddleware()

	// User routes
	usersController := controllers.NewUsersController(db, cfg, mailer)
	app.Get("/api/user/profile", authMiddleware, usersController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, usersController.UpdateProfile)
	app.Get("/api/user/can-request-mod", authMiddleware, usersController.CanRequestMod)
	app.Post("/api/user/request-mod", authMiddleware, usersController.RequestMod)
	app.Get("/api/users", authMiddleware, adminMiddleware, usersController.ListUsers)
	app.Get("/api/users/:id", authMiddleware, adminMiddleware, usersController.GetProfile)
	app.Post("/api/users/:id/rights", authMiddleware, adminMiddleware, usersController.SetRights)

	// Courses routes
	coursesController := controllers.NewCoursesController(db, cfg)
	courses := app.Group("/api/courses", authMiddleware)
	courses.Get("/", coursesController.GetCourses)
	courses.Get("/:id", coursesController.GetCourse)

	// Question routes (index-based navigation inside a course)
	questionsController := controllers.NewQuestionsController(db, cfg)
	courses.Get("/:id/modules/:moduleIndex/questions/:questionIndex", questionsController.GetQuestion)
	courses.Get("/:id/modules/:moduleIndex/questions/:questionIndex/answers", questionsController.GetAnswers)
	courses.Post("/:id/modules/:moduleIndex/questions/:questionIndex", questionsController.SubmitAnswer)

	// Quiz routes
	quizController := controllers.NewQuizController(db, cfg)
	courses.Get("/:id/quiz", quizController.GetQuiz)
	courses.Post("/:id/quiz", quizController.SubmitQuiz)

	// Category routes
	app.Get("/api/categories", authMiddleware, coursesController.GetCategories)
	app.Post("/api/categories", authMiddleware, adminMiddleware, coursesController.SaveCategory)
	app.Delete("/api/categories/:id", authMiddleware, adminMiddleware, coursesController.DeleteCategory)

	// Statistics routes
	statisticsController := controllers.NewStatisticsController(db, cfg)
	app.Get("/api/statistics", authMiddleware, statisticsController.GetStatistics)
	app.Post("/api/statistics/query", authMiddleware, modMiddleware, statisticsController.QueryStatistics)

	// Ranking routes
	rankingController := controllers.NewRankingController(db, cfg, redisClient)
	app.Get("/api/ranking", authMiddleware, rankingController.GetRanking)

	// Moderator routes for course authoring
	adminCourses := app.Group("/api/admin/courses", authMiddleware, modMiddleware)
	adminCourses.Post("/", coursesController.CreateCourse)
	adminCourses.Put("/:id", coursesController.UpdateCourse)
	adminCourses.Post("/:id/modules", coursesController.AddModule)
	adminCourses.Put("/:id/modules/order", coursesController.ReorderModules)
	adminCourses.Post("/:id/modules/:moduleId/questions", coursesController.AddQuestion)
	adminCourses.Put("/:id/modules/:moduleId/questions/order", coursesController.ReorderQuestions)
	adminCourses.Post("/:id/quiz", coursesController.AddQuizQuestion)

	// Admin-only course management
	adminCourses.Delete("/:id", adminMiddleware, coursesController.DeleteCourse)
	adminCourses.Post("/:id/visibility", adminMiddleware, coursesController.ToggleVisibility)
}
