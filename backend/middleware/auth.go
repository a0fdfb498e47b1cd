package middleware

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"clonecademy/backend/config"
	"clonecademy/backend/models"
	"clonecademy/backend/utils"
)

const userLocal = "currentUser"

// AuthMiddleware validates the JWT and attaches the user together with the
// profile role flags to the request context, so downstream handlers check
// roles on the session instead of querying for them.
func AuthMiddleware(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}

		var user models.User
		if err := db.Preload("Profile").First(&user, userID).Error; err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}

		c.Locals(userLocal, &user)
		return c.Next()
	}
}

// CurrentUser returns the authenticated user attached by AuthMiddleware.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocal).(*models.User)
	return user
}

// ModeratorMiddleware restricts a route to moderators and admins.
func ModeratorMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !(user.Profile.IsModerator || user.Profile.IsAdmin) {
			return utils.Forbidden(c, "Moderator access required")
		}
		return c.Next()
	}
}

// AdminMiddleware restricts a route to admins.
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !user.Profile.IsAdmin {
			return utils.Forbidden(c, "Admin access required")
		}
		return c.Next()
	}
}
