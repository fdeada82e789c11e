package handlers

import (
	"bytes"
	"fmt"
	"image/png"
	"strconv"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/models"
)

type PrinterHandler struct{}

func NewPrinterHandler() *PrinterHandler {
	return &PrinterHandler{}
}

// List returns all printers
func (h *PrinterHandler) List(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Printer{})

	// Inactive printers hidden unless explicitly requested
	showAll := c.Query("all", "false") == "true"
	if !showAll {
		query = query.Where("is_active = ?", true)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR model LIKE ? OR location LIKE ?", like, like, like)
	}

	var printers []models.Printer
	if err := query.Order("name ASC").Find(&printers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch printers",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    printers,
	})
}

// Get returns a single printer with its schedules
func (h *PrinterHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid printer ID",
		})
	}

	var printer models.Printer
	if err := database.DB.First(&printer, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Printer not found",
		})
	}

	var schedules []models.PrinterTaskSchedule
	database.DB.Preload("Task").Where("printer_id = ?", id).Find(&schedules)

	return c.JSON(fiber.Map{
		"success":   true,
		"data":      printer,
		"schedules": schedules,
	})
}

// ByToken returns the printer matching a scanned QR token
func (h *PrinterHandler) ByToken(c *fiber.Ctx) error {
	token := c.Params("token")

	var printer models.Printer
	if err := database.DB.Where("qr_token = ?", token).First(&printer).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Printer not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    printer,
	})
}

// CreatePrinterRequest represents create printer request
type CreatePrinterRequest struct {
	Name       string  `json:"name"`
	Model      string  `json:"model"`
	Serial     string  `json:"serial"`
	Location   string  `json:"location"`
	Notes      string  `json:"notes"`
	PrintHours float64 `json:"print_hours"`
	JobsCount  int64   `json:"jobs_count"`
}

// Create creates a new printer
func (h *PrinterHandler) Create(c *fiber.Ctx) error {
	var req CreatePrinterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Printer name is required",
		})
	}
	if req.PrintHours < 0 || req.JobsCount < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Counters cannot be negative",
		})
	}

	printer := models.Printer{
		Name:       req.Name,
		Model:      req.Model,
		Serial:     req.Serial,
		Location:   req.Location,
		Notes:      req.Notes,
		PrintHours: req.PrintHours,
		JobsCount:  req.JobsCount,
		QRToken:    uuid.New().String(),
		IsActive:   true,
	}

	if err := database.DB.Create(&printer).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create printer (name may already exist)",
		})
	}

	logAudit(c, models.AuditActionCreate, "printer", printer.ID, printer.Name, "Printer created")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    printer,
	})
}

// UpdatePrinterRequest represents update printer request
type UpdatePrinterRequest struct {
	Name       *string  `json:"name"`
	Model      *string  `json:"model"`
	Serial     *string  `json:"serial"`
	Location   *string  `json:"location"`
	Notes      *string  `json:"notes"`
	PrintHours *float64 `json:"print_hours"`
	JobsCount  *int64   `json:"jobs_count"`
	IsActive   *bool    `json:"is_active"`
}

// Update updates a printer. Counter edits must not go backwards.
func (h *PrinterHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid printer ID",
		})
	}

	var printer models.Printer
	if err := database.DB.First(&printer, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Printer not found",
		})
	}

	var req UpdatePrinterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	updates := map[string]interface{}{}
	if req.Name != nil && *req.Name != "" {
		updates["name"] = *req.Name
	}
	if req.Model != nil {
		updates["model"] = *req.Model
	}
	if req.Serial != nil {
		updates["serial"] = *req.Serial
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.PrintHours != nil {
		if *req.PrintHours < printer.PrintHours {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": fmt.Sprintf("Print hours cannot decrease (current %.1f)", printer.PrintHours),
			})
		}
		updates["print_hours"] = *req.PrintHours
	}
	if req.JobsCount != nil {
		if *req.JobsCount < printer.JobsCount {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": fmt.Sprintf("Jobs count cannot decrease (current %d)", printer.JobsCount),
			})
		}
		updates["jobs_count"] = *req.JobsCount
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := database.DB.Model(&printer).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update printer",
		})
	}

	database.InvalidateDashboardCache()
	logAudit(c, models.AuditActionUpdate, "printer", printer.ID, printer.Name, "Printer updated")

	return c.JSON(fiber.Map{
		"success": true,
		"data":    printer,
	})
}

// Delete soft-deletes a printer and deactivates its schedules
func (h *PrinterHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid printer ID",
		})
	}

	var printer models.Printer
	if err := database.DB.First(&printer, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Printer not found",
		})
	}

	// Work logs stay; schedules are deactivated with the printer
	database.DB.Model(&models.PrinterTaskSchedule{}).
		Where("printer_id = ?", printer.ID).
		Update("is_active", false)

	if err := database.DB.Delete(&printer).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete printer",
		})
	}

	database.InvalidateDashboardCache()
	logAudit(c, models.AuditActionDelete, "printer", printer.ID, printer.Name, "Printer deleted")

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Printer deleted successfully",
	})
}

// QRCode returns a PNG QR label linking to the printer's page
func (h *PrinterHandler) QRCode(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid printer ID",
		})
	}

	var printer models.Printer
	if err := database.DB.First(&printer, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Printer not found",
		})
	}

	// Token minted lazily for printers created before QR labels existed
	if printer.QRToken == "" {
		printer.QRToken = uuid.New().String()
		database.DB.Model(&printer).Update("qr_token", printer.QRToken)
	}

	code, err := qr.Encode("printcare://printer/"+printer.QRToken, qr.M, qr.Auto)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to generate QR code",
		})
	}
	code, err = barcode.Scale(code, 256, 256)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to scale QR code",
		})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to encode QR code",
		})
	}

	c.Set("Content-Type", "image/png")
	c.Set("Content-Disposition", fmt.Sprintf("inline; filename=printer_%d_qr.png", printer.ID))
	return c.Send(buf.Bytes())
}
