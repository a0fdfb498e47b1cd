package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"clonecademy/backend/config"
	"clonecademy/backend/models"
	"clonecademy/backend/utils"
)

var validate = validator.New()

type AuthController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Mailer utils.Mailer
}

func NewAuthController(db *gorm.DB, cfg *config.Config, mailer utils.Mailer) *AuthController {
	return &AuthController{DB: db, Cfg: cfg, Mailer: mailer}
}

func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input struct {
		Username string `json:"username" validate:"required,min=3"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(input); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
	}
	// The profile is created explicitly: a zero-value has-one association is
	// skipped on Create, and every user needs a profiles row for ranking
	// updates to land.
	if err := ac.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		user.Profile = models.Profile{UserID: user.ID}
		return tx.Create(&user.Profile).Error
	}); err != nil {
		return utils.Error(c, fiber.StatusConflict, "Could not create user")
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var user models.User
	if err := ac.DB.Where("username = ?", input.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Unauthorized(c, "Invalid credentials")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return utils.Unauthorized(c, "Invalid credentials")
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return c.JSON(fiber.Map{"token": token})
}

// ResetPassword mails a fresh one-time password to the given address and
// stores its hash.
func (ac *AuthController) ResetPassword(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Email == "" {
		return utils.BadRequest(c, "you must provide an email")
	}

	var user models.User
	if err := ac.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "no user with email: "+input.Email)
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	newPassword := uuid.NewString()
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	body := "Hello " + user.Username + ",\n\n" +
		"You have requested a new password.\n" +
		"Your new password is:\n" + newPassword + "\n\n" +
		"Please change it immediately!\n"
	if err := ac.Mailer.Send([]string{user.Email}, "Password reset", body); err != nil {
		return utils.InternalServerError(c, "Could not send password mail")
	}

	if err := ac.DB.Model(&user).Update("password_hash", string(hashed)).Error; err != nil {
		return utils.InternalServerError(c, "Could not update password")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"reset": true})
}
