package handlers

import (
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/models"
	"github.com/printcare/backend/internal/security"
	"github.com/printcare/backend/internal/services"
)

type BackupHandler struct {
	scheduler *services.BackupSchedulerService
	cipher    *security.Cipher
}

func NewBackupHandler(scheduler *services.BackupSchedulerService, cipher *security.Cipher) *BackupHandler {
	return &BackupHandler{scheduler: scheduler, cipher: cipher}
}

// GetSchedule returns the backup schedule configuration
func (h *BackupHandler) GetSchedule(c *fiber.Ctx) error {
	var schedules []models.BackupSchedule
	if err := database.DB.Find(&schedules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch backup schedules",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    schedules,
	})
}

// ScheduleRequest represents a backup schedule update
type ScheduleRequest struct {
	Name        string `json:"name"`
	IsEnabled   *bool  `json:"is_enabled"`
	Frequency   string `json:"frequency"`
	TimeOfDay   string `json:"time_of_day"`
	DayOfWeek   *int   `json:"day_of_week"`
	DayOfMonth  *int   `json:"day_of_month"`
	Retention   *int   `json:"retention"`
	FTPEnabled  *bool  `json:"ftp_enabled"`
	FTPHost     string `json:"ftp_host"`
	FTPPort     *int   `json:"ftp_port"`
	FTPUsername string `json:"ftp_username"`
	FTPPassword string `json:"ftp_password"`
	FTPPath     string `json:"ftp_path"`
}

// SaveSchedule creates or updates the backup schedule
func (h *BackupHandler) SaveSchedule(c *fiber.Ctx) error {
	var req ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	switch req.Frequency {
	case "", "daily", "weekly", "monthly":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Frequency must be daily, weekly or monthly",
		})
	}

	var schedule models.BackupSchedule
	err := database.DB.First(&schedule).Error
	isNew := err != nil
	if isNew {
		schedule = models.BackupSchedule{Name: "Scheduled backup", Frequency: "daily", TimeOfDay: "02:00", Retention: 14}
	}

	if req.Name != "" {
		schedule.Name = req.Name
	}
	if req.IsEnabled != nil {
		schedule.IsEnabled = *req.IsEnabled
	}
	if req.Frequency != "" {
		schedule.Frequency = req.Frequency
	}
	if req.TimeOfDay != "" {
		if _, _, err := services.ParseReminderTime(req.TimeOfDay); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Time of day must be HH:MM",
			})
		}
		schedule.TimeOfDay = req.TimeOfDay
	}
	if req.DayOfWeek != nil {
		schedule.DayOfWeek = *req.DayOfWeek
	}
	if req.DayOfMonth != nil {
		schedule.DayOfMonth = *req.DayOfMonth
	}
	if req.Retention != nil {
		schedule.Retention = *req.Retention
	}
	if req.FTPEnabled != nil {
		schedule.FTPEnabled = *req.FTPEnabled
	}
	if req.FTPHost != "" {
		schedule.FTPHost = req.FTPHost
	}
	if req.FTPPort != nil {
		schedule.FTPPort = *req.FTPPort
	}
	if req.FTPUsername != "" {
		schedule.FTPUsername = req.FTPUsername
	}
	if req.FTPPassword != "" {
		encrypted, err := h.cipher.Encrypt(req.FTPPassword)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to store FTP password",
			})
		}
		schedule.FTPPassword = encrypted
	}
	if req.FTPPath != "" {
		schedule.FTPPath = req.FTPPath
	}

	nextRun := services.CalculateNextRunForSchedule(&schedule)
	schedule.NextRunAt = &nextRun

	if err := database.DB.Save(&schedule).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to save backup schedule",
		})
	}

	logAudit(c, models.AuditActionUpdate, "backup_schedule", schedule.ID, schedule.Name, "Backup schedule saved")

	return c.JSON(fiber.Map{
		"success": true,
		"data":    schedule,
	})
}

// Run triggers an immediate manual backup
func (h *BackupHandler) Run(c *fiber.Ctx) error {
	backupLog, err := h.scheduler.RunManualBackup()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Backup failed: " + err.Error(),
			"data":    backupLog,
		})
	}

	logAudit(c, models.AuditActionCreate, "backup", backupLog.ID, backupLog.Filename, "Manual backup run")

	return c.JSON(fiber.Map{
		"success": true,
		"data":    backupLog,
	})
}

// Logs returns backup run history, newest first
func (h *BackupHandler) Logs(c *fiber.Ctx) error {
	var logs []models.BackupLog
	if err := database.DB.Order("started_at DESC").Limit(100).Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch backup logs",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    logs,
	})
}

// TestFTP validates FTP credentials before they are saved
func (h *BackupHandler) TestFTP(c *fiber.Ctx) error {
	var req struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Username string `json:"username"`
		Password string `json:"password"`
		Path     string `json:"path"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if req.Port == 0 {
		req.Port = 21
	}

	if err := services.TestFTPConnection(req.Host, req.Port, req.Username, req.Password, req.Path); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "FTP test failed: " + err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "FTP connection successful",
	})
}

// Download streams a completed backup file
func (h *BackupHandler) Download(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid backup log ID",
		})
	}

	var backupLog models.BackupLog
	if err := database.DB.First(&backupLog, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Backup log not found",
		})
	}

	if backupLog.Status != "success" || backupLog.Filename == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Backup file not available",
		})
	}

	path := h.scheduler.LocalPath(backupLog.Filename)
	if _, err := os.Stat(path); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Backup file no longer on disk",
		})
	}

	return c.Download(path, backupLog.Filename)
}

// DeleteLog removes one backup log entry
func (h *BackupHandler) DeleteLog(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid backup log ID",
		})
	}

	var backupLog models.BackupLog
	if err := database.DB.First(&backupLog, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Backup log not found",
		})
	}

	if err := database.DB.Delete(&backupLog).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete backup log",
		})
	}

	logAudit(c, models.AuditActionDelete, "backup", backupLog.ID, backupLog.Filename, "Backup log deleted")

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Backup log deleted successfully",
	})
}
