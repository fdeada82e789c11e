package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/maintenance"
	"github.com/printcare/backend/internal/models"
)

type TaskHandler struct{}

func NewTaskHandler() *TaskHandler {
	return &TaskHandler{}
}

// List returns all maintenance task definitions
func (h *TaskHandler) List(c *fiber.Ctx) error {
	query := database.DB.Model(&models.MaintenanceTask{})
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var tasks []models.MaintenanceTask
	if err := query.Order("priority DESC, title ASC").Find(&tasks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch tasks",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    tasks,
	})
}

// Get returns a single task with its assignment count
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid task ID",
		})
	}

	var task models.MaintenanceTask
	if err := database.DB.First(&task, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Task not found",
		})
	}

	var assignedCount int64
	database.DB.Model(&models.PrinterTaskSchedule{}).Where("task_id = ?", id).Count(&assignedCount)

	return c.JSON(fiber.Map{
		"success":        true,
		"data":           task,
		"assigned_count": assignedCount,
	})
}

// TaskRequest represents create/update task request
type TaskRequest struct {
	Title               string            `json:"title"`
	Description         string            `json:"description"`
	PolicyKind          models.PolicyKind `json:"policy_kind"`
	PolicyValue         int               `json:"policy_value"`
	Priority            int               `json:"priority"`
	Category            string            `json:"category"`
	RequiresAxis        bool              `json:"requires_axis"`
	RequiresNozzleSize  bool              `json:"requires_nozzle_size"`
	RequiresPlasticType bool              `json:"requires_plastic_type"`
	CustomFieldLabel    string            `json:"custom_field_label"`
}

// Create creates a new task definition
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Task title is required",
		})
	}
	if err := maintenance.ValidatePolicy(req.PolicyKind, req.PolicyValue); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Policy kind must be days, print_hours or job_count with a positive value",
		})
	}
	if req.Priority < 1 || req.Priority > 10 {
		req.Priority = 5
	}

	task := models.MaintenanceTask{
		Title:               req.Title,
		Description:         req.Description,
		PolicyKind:          req.PolicyKind,
		PolicyValue:         req.PolicyValue,
		Priority:            req.Priority,
		Category:            req.Category,
		RequiresAxis:        req.RequiresAxis,
		RequiresNozzleSize:  req.RequiresNozzleSize,
		RequiresPlasticType: req.RequiresPlasticType,
		CustomFieldLabel:    req.CustomFieldLabel,
	}

	if err := database.DB.Create(&task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create task",
		})
	}

	logAudit(c, models.AuditActionCreate, "task", task.ID, task.Title, "Maintenance task created")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    task,
	})
}

// Update updates a task definition. Policy changes apply to future due-date
// computations; past work logs keep their recorded values.
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid task ID",
		})
	}

	var task models.MaintenanceTask
	if err := database.DB.First(&task, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Task not found",
		})
	}

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Task title is required",
		})
	}
	if err := maintenance.ValidatePolicy(req.PolicyKind, req.PolicyValue); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Policy kind must be days, print_hours or job_count with a positive value",
		})
	}
	if req.Priority < 1 || req.Priority > 10 {
		req.Priority = task.Priority
	}

	policyChanged := task.PolicyKind != req.PolicyKind || task.PolicyValue != req.PolicyValue

	if err := database.DB.Model(&task).Updates(map[string]interface{}{
		"title":                 req.Title,
		"description":           req.Description,
		"policy_kind":           req.PolicyKind,
		"policy_value":          req.PolicyValue,
		"priority":              req.Priority,
		"category":              req.Category,
		"requires_axis":         req.RequiresAxis,
		"requires_nozzle_size":  req.RequiresNozzleSize,
		"requires_plastic_type": req.RequiresPlasticType,
		"custom_field_label":    req.CustomFieldLabel,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update task",
		})
	}

	// A new policy invalidates stored DAYS stamps; clearing them forces a
	// re-derivation from each schedule's completion baseline.
	if policyChanged {
		database.DB.Model(&models.PrinterTaskSchedule{}).
			Where("task_id = ?", task.ID).
			Update("next_due_at", nil)
	}

	database.InvalidateDashboardCache()
	logAudit(c, models.AuditActionUpdate, "task", task.ID, task.Title, "Maintenance task updated")

	return c.JSON(fiber.Map{
		"success": true,
		"data":    task,
	})
}

// Delete removes a task definition. Blocked while printers still have the
// task assigned; unassign first.
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid task ID",
		})
	}

	var task models.MaintenanceTask
	if err := database.DB.First(&task, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Task not found",
		})
	}

	var assignedCount int64
	database.DB.Model(&models.PrinterTaskSchedule{}).Where("task_id = ?", id).Count(&assignedCount)
	if assignedCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Task is still assigned to printers. Unassign it first",
		})
	}

	if err := database.DB.Delete(&task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete task",
		})
	}

	logAudit(c, models.AuditActionDelete, "task", task.ID, task.Title, "Maintenance task deleted")

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Task deleted successfully",
	})
}
