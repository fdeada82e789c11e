package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/maintenance"
	"github.com/printcare/backend/internal/models"
	"github.com/printcare/backend/internal/services"
)

type DashboardHandler struct{}

func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Board returns all active schedules grouped by urgency. The board uses the
// configured system timezone so its buckets match what the daily reminder
// reports.
func (h *DashboardHandler) Board(c *fiber.Ctx) error {
	board, err := maintenance.BuildBoard(database.DB, services.Now(), nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to build maintenance board",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    board,
	})
}

// DueToday returns the tasks the daily reminder would report right now
func (h *DashboardHandler) DueToday(c *fiber.Ctx) error {
	due, err := maintenance.TasksDueToday(database.DB, services.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to compute due tasks",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    due,
	})
}

// DashboardStats is the cached stats payload
type DashboardStats struct {
	Printers      int64 `json:"printers"`
	Tasks         int64 `json:"tasks"`
	Schedules     int64 `json:"schedules"`
	Overdue       int   `json:"overdue"`
	DueToday      int   `json:"due_today"`
	DueThisWeek   int   `json:"due_this_week"`
	WorkLogsWeek  int64 `json:"work_logs_week"`
	WorkLogsTotal int64 `json:"work_logs_total"`
}

// Stats returns fleet-wide counts, cached briefly in Redis
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	var stats DashboardStats
	if err := database.CacheGet(database.CacheKeyDashboard, &stats); err == nil {
		return c.JSON(fiber.Map{
			"success": true,
			"data":    stats,
			"cached":  true,
		})
	}

	database.DB.Model(&models.Printer{}).Where("is_active = ?", true).Count(&stats.Printers)
	database.DB.Model(&models.MaintenanceTask{}).Count(&stats.Tasks)
	database.DB.Model(&models.PrinterTaskSchedule{}).Where("is_active = ?", true).Count(&stats.Schedules)

	now := services.Now()
	weekAgo := now.AddDate(0, 0, -7)
	database.DB.Model(&models.WorkLog{}).Where("performed_at >= ?", weekAgo).Count(&stats.WorkLogsWeek)
	database.DB.Model(&models.WorkLog{}).Count(&stats.WorkLogsTotal)

	board, err := maintenance.BuildBoard(database.DB, now, nil)
	if err == nil {
		stats.Overdue = len(board.Overdue)
		stats.DueToday = len(board.Today)
		stats.DueThisWeek = len(board.Week)
	}

	database.CacheSet(database.CacheKeyDashboard, stats, database.CacheTTLDashboard)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}
