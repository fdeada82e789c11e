package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/middleware"
	"github.com/printcare/backend/internal/models"
)

// logAudit records an audit trail entry for a handler action
func logAudit(c *fiber.Ctx, action, entityType string, entityID uint, entityName, description string) {
	user := middleware.GetCurrentUser(c)
	entry := models.AuditLog{
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		EntityName:  entityName,
		Description: description,
		IPAddress:   c.IP(),
	}
	if user != nil {
		entry.UserID = user.ID
		entry.Username = user.Username
		entry.UserType = user.UserType
	}
	database.DB.Create(&entry)
}

type AuditHandler struct{}

func NewAuditHandler() *AuditHandler {
	return &AuditHandler{}
}

// List returns audit log entries, newest first, with paging and filters
func (h *AuditHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page", "50"))
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	query := database.DB.Model(&models.AuditLog{})
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if entityType := c.Query("entity_type"); entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	query.Count(&total)

	var logs []models.AuditLog
	if err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch audit logs",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    logs,
		"total":   total,
		"page":    page,
	})
}

// Reminders returns reminder dispatch history, newest first
func (h *AuditHandler) Reminders(c *fiber.Ctx) error {
	var logs []models.ReminderLog
	if err := database.DB.Order("created_at DESC").Limit(100).Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch reminder logs",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    logs,
	})
}
