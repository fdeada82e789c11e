package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/maintenance"
	"github.com/printcare/backend/internal/models"
)

type ScheduleHandler struct{}

func NewScheduleHandler() *ScheduleHandler {
	return &ScheduleHandler{}
}

// List returns all schedules, optionally filtered by printer or task
func (h *ScheduleHandler) List(c *fiber.Ctx) error {
	query := database.DB.Preload("Printer").Preload("Task")
	if printerID := c.Query("printer_id"); printerID != "" {
		query = query.Where("printer_id = ?", printerID)
	}
	if taskID := c.Query("task_id"); taskID != "" {
		query = query.Where("task_id = ?", taskID)
	}

	var schedules []models.PrinterTaskSchedule
	if err := query.Order("id ASC").Find(&schedules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch schedules",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    schedules,
	})
}

// AssignRequest represents a task assignment request
type AssignRequest struct {
	PrinterID uint `json:"printer_id"`
	TaskID    uint `json:"task_id"`
}

// Assign binds a task to a printer
func (h *ScheduleHandler) Assign(c *fiber.Ctx) error {
	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	schedule, err := maintenance.AssignTask(database.DB, req.PrinterID, req.TaskID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, maintenance.ErrPrinterNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Printer not found",
			})
		case errors.Is(err, maintenance.ErrTaskNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Task not found",
			})
		case errors.Is(err, maintenance.ErrScheduleExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "Task is already assigned to this printer",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to assign task",
		})
	}

	database.InvalidateDashboardCache()
	logAudit(c, models.AuditActionCreate, "schedule", schedule.ID, "", "Task assigned to printer")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    schedule,
	})
}

// Toggle activates or deactivates a schedule without losing its history
func (h *ScheduleHandler) Toggle(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid schedule ID",
		})
	}

	var schedule models.PrinterTaskSchedule
	if err := database.DB.First(&schedule, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Schedule not found",
		})
	}

	if err := database.DB.Model(&schedule).Update("is_active", !schedule.IsActive).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to toggle schedule",
		})
	}

	database.InvalidateDashboardCache()
	logAudit(c, models.AuditActionUpdate, "schedule", schedule.ID, "", "Schedule toggled")

	return c.JSON(fiber.Map{
		"success": true,
		"data":    schedule,
	})
}

// Unassign removes a schedule. The printer's work log history is untouched.
func (h *ScheduleHandler) Unassign(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid schedule ID",
		})
	}

	var schedule models.PrinterTaskSchedule
	if err := database.DB.First(&schedule, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Schedule not found",
		})
	}

	if err := database.DB.Delete(&schedule).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to remove schedule",
		})
	}

	database.InvalidateDashboardCache()
	logAudit(c, models.AuditActionDelete, "schedule", schedule.ID, "", "Task unassigned from printer")

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Schedule removed successfully",
	})
}
