package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"clonecademy/backend/config"
	"clonecademy/backend/middleware"
	"clonecademy/backend/models"
	"clonecademy/backend/utils"
)

type UsersController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Mailer utils.Mailer
}

func NewUsersController(db *gorm.DB, cfg *config.Config, mailer utils.Mailer) *UsersController {
	return &UsersController{DB: db, Cfg: cfg, Mailer: mailer}
}

func serializeUser(user *models.User) fiber.Map {
	return fiber.Map{
		"id":           user.ID,
		"username":     user.Username,
		"email":        user.Email,
		"ranking":      user.Profile.Ranking,
		"is_moderator": user.Profile.IsModerator,
		"is_admin":     user.Profile.IsAdmin,
	}
}

// GetProfile returns the requester's profile, or any profile by id when the
// requester is an admin.
func (uc *UsersController) GetProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	if idParam := c.Params("id"); idParam != "" {
		if !user.Profile.IsAdmin {
			return utils.Forbidden(c, "Admin access required")
		}
		userID, err := strconv.Atoi(idParam)
		if err != nil {
			return utils.BadRequest(c, "Invalid user ID")
		}
		var other models.User
		if err := uc.DB.Preload("Profile").First(&other, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFound(c, "User not found")
			}
			return utils.InternalServerError(c, "Could not query database")
		}
		return c.JSON(serializeUser(&other))
	}

	return c.JSON(serializeUser(user))
}

// UpdateProfile changes email or password. The current password has to be
// supplied either way.
func (uc *UsersController) UpdateProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input struct {
		OldPassword string `json:"old_password"`
		Email       string `json:"email"`
		Password    string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.OldPassword == "" {
		return utils.BadRequest(c, "password is required")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
		return utils.BadRequest(c, "given password is incorrect")
	}

	if input.Email != "" {
		user.Email = input.Email
	}
	if input.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return utils.InternalServerError(c, "Could not hash password")
		}
		user.PasswordHash = string(hashed)
	}

	if err := uc.DB.Save(user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"updated": user.Username})
}

// ListUsers returns all users with their profiles.
func (uc *UsersController) ListUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := uc.DB.Preload("Profile").Find(&users).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	result := make([]fiber.Map, 0, len(users))
	for i := range users {
		result = append(result, serializeUser(&users[i]))
	}
	return c.JSON(result)
}

// SetRights promotes or demotes a user's moderator or admin role.
func (uc *UsersController) SetRights(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	var input struct {
		Right  string `json:"right"`
		Action string `json:"action"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	details := map[string]string{}
	if input.Right != "moderator" && input.Right != "admin" {
		details["right"] = "this field is required and must be one of the following options: moderator, admin"
	}
	if input.Action != "promote" && input.Action != "demote" {
		details["action"] = "this field is required and must be one of the following options: promote, demote"
	}
	var target models.User
	if err := uc.DB.Preload("Profile").First(&target, userID).Error; err != nil {
		details["id"] = fmt.Sprintf("a user with the id #%d does not exist", userID)
	}
	if len(details) > 0 {
		return utils.Error(c, fiber.StatusBadRequest, "validation failed", details)
	}

	grant := input.Action == "promote"
	switch input.Right {
	case "moderator":
		target.Profile.IsModerator = grant
	case "admin":
		target.Profile.IsAdmin = grant
	}
	if err := uc.DB.Save(&target.Profile).Error; err != nil {
		return utils.InternalServerError(c, "Could not update rights")
	}
	return c.JSON(serializeUser(&target))
}

// CanRequestMod reports whether a moderator-rights request is currently
// allowed for the requester.
func (uc *UsersController) CanRequestMod(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return c.JSON(fiber.Map{"allowed": user.Profile.ModRequestAllowed(time.Now())})
}

// RequestMod files a moderator-rights request: it stamps the cooldown and
// mails the platform admins.
func (uc *UsersController) RequestMod(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if !user.Profile.ModRequestAllowed(time.Now()) {
		return utils.Forbidden(c, "User is mod or has sent too many requests")
	}

	now := time.Now()
	if err := uc.DB.Model(&user.Profile).Update("last_mod_request", now).Error; err != nil {
		return utils.InternalServerError(c, "Could not save request")
	}

	recipients := uc.adminEmails()
	body := fmt.Sprintf(
		"The user %s requested moderator rights.\nThe given reason for this request:\n%s\n",
		user.Username, input.Reason)
	if err := uc.Mailer.Send(recipients, "Moderator rights requested by "+user.Username, body); err != nil {
		return utils.InternalServerError(c, "Could not notify admins")
	}

	return c.JSON(fiber.Map{"request": "ok"})
}

// adminEmails collects the addresses of all admin users, extended by the
// configured fallback list.
func (uc *UsersController) adminEmails() []string {
	var emails []string
	uc.DB.Model(&models.User{}).
		Joins("JOIN profiles ON profiles.user_id = users.id").
		Where("profiles.is_admin = ?", true).
		Pluck("users.email", &emails)
	return append(emails, uc.Cfg.AdminEmails...)
}
