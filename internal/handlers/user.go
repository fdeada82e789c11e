package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/middleware"
	"github.com/printcare/backend/internal/models"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// List returns all users
func (h *UserHandler) List(c *fiber.Ctx) error {
	var users []models.User
	if err := database.DB.Order("username ASC").Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch users",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
	})
}

// UserRequest represents create/update user request
type UserRequest struct {
	Username            string          `json:"username"`
	Password            string          `json:"password"`
	Email               string          `json:"email"`
	Phone               string          `json:"phone"`
	FullName            string          `json:"full_name"`
	UserType            models.UserType `json:"user_type"`
	IsActive            *bool           `json:"is_active"`
	ForcePasswordChange bool            `json:"force_password_change"`
}

// Create creates a new user
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req UserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Username and password are required",
		})
	}
	if len(req.Password) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Password must be at least 6 characters",
		})
	}
	switch req.UserType {
	case models.UserTypeTechnician, models.UserTypeAdmin, models.UserTypeReadonly:
	default:
		req.UserType = models.UserTypeTechnician
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to hash password",
		})
	}

	user := models.User{
		Username:            req.Username,
		Password:            hashed,
		Email:               req.Email,
		Phone:               req.Phone,
		FullName:            req.FullName,
		UserType:            req.UserType,
		IsActive:            true,
		ForcePasswordChange: req.ForcePasswordChange,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create user (username may already exist)",
		})
	}

	logAudit(c, models.AuditActionCreate, "user", user.ID, user.Username, "User created")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}

// Update updates a user
func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid user ID",
		})
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	var req UserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	updates := map[string]interface{}{}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.FullName != "" {
		updates["full_name"] = req.FullName
	}
	switch req.UserType {
	case models.UserTypeTechnician, models.UserTypeAdmin, models.UserTypeReadonly:
		updates["user_type"] = req.UserType
	}
	if req.IsActive != nil {
		// An admin cannot lock themselves out
		if !*req.IsActive && user.ID == middleware.GetCurrentUserID(c) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "You cannot deactivate your own account",
			})
		}
		updates["is_active"] = *req.IsActive
	}
	if req.Password != "" {
		if len(req.Password) < 6 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Password must be at least 6 characters",
			})
		}
		hashed, err := HashPassword(req.Password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to hash password",
			})
		}
		updates["password"] = hashed
		updates["force_password_change"] = true
	}

	if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update user",
		})
	}

	logAudit(c, models.AuditActionUpdate, "user", user.ID, user.Username, "User updated")

	return c.JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}

// Delete soft-deletes a user. Their work logs keep the user id.
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid user ID",
		})
	}

	if uint(id) == middleware.GetCurrentUserID(c) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "You cannot delete your own account",
		})
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	if err := database.DB.Delete(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete user",
		})
	}

	logAudit(c, models.AuditActionDelete, "user", user.ID, user.Username, "User deleted")

	return c.JSON(fiber.Map{
		"success": true,
		"message": "User deleted successfully",
	})
}
