package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/maintenance"
	"github.com/printcare/backend/internal/middleware"
	"github.com/printcare/backend/internal/models"
)

type WorkLogHandler struct{}

func NewWorkLogHandler() *WorkLogHandler {
	return &WorkLogHandler{}
}

// List returns work log entries, newest first, with paging and filters
func (h *WorkLogHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page", "50"))
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	query := database.DB.Model(&models.WorkLog{}).
		Preload("Printer").Preload("Task").Preload("User")
	if printerID := c.Query("printer_id"); printerID != "" {
		query = query.Where("printer_id = ?", printerID)
	}
	if taskID := c.Query("task_id"); taskID != "" {
		query = query.Where("task_id = ?", taskID)
	}

	var total int64
	query.Count(&total)

	var logs []models.WorkLog
	if err := query.Order("performed_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch work logs",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    logs,
		"total":   total,
		"page":    page,
	})
}

// CreateWorkLogRequest represents a completed-work submission
type CreateWorkLogRequest struct {
	PrinterID   uint     `json:"printer_id"`
	TaskID      *uint    `json:"task_id"`
	Details     string   `json:"details"`
	Axis        string   `json:"axis"`
	NozzleSize  string   `json:"nozzle_size"`
	PlasticType string   `json:"plastic_type"`
	CustomValue string   `json:"custom_value"`
	PrintHours  *float64 `json:"print_hours"`
	JobsCount   *int64   `json:"jobs_count"`
}

// Create records performed work, updating printer counters and advancing the
// matching schedule in one transaction
func (h *WorkLogHandler) Create(c *fiber.Ctx) error {
	var req CreateWorkLogRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.PrinterID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Printer is required",
		})
	}

	workLog, err := maintenance.RecordWork(database.DB, maintenance.WorkInput{
		PrinterID:          req.PrinterID,
		TaskID:             req.TaskID,
		PerformedBy:        middleware.GetCurrentUserID(c),
		Details:            req.Details,
		Axis:               req.Axis,
		NozzleSize:         req.NozzleSize,
		PlasticType:        req.PlasticType,
		CustomValue:        req.CustomValue,
		ReportedPrintHours: req.PrintHours,
		ReportedJobsCount:  req.JobsCount,
	})
	if err != nil {
		switch {
		case errors.Is(err, maintenance.ErrPrinterNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Printer not found",
			})
		case errors.Is(err, maintenance.ErrCounterDecrease):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Reported counters cannot be lower than the printer's current values",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to record work",
		})
	}

	database.InvalidateDashboardCache()
	logAudit(c, models.AuditActionCreate, "work_log", workLog.ID, "", "Maintenance work recorded")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    workLog,
	})
}

// Get returns a single work log entry
func (h *WorkLogHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid work log ID",
		})
	}

	var workLog models.WorkLog
	if err := database.DB.Preload("Printer").Preload("Task").Preload("User").
		First(&workLog, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Work log not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    workLog,
	})
}
