package models

import (
	"time"

	"gorm.io/gorm"
)

// PolicyKind determines how a maintenance task recurs.
type PolicyKind string

const (
	PolicyDays       PolicyKind = "days"
	PolicyPrintHours PolicyKind = "print_hours"
	PolicyJobCount   PolicyKind = "job_count"
)

// Valid reports whether the kind is one of the supported recurrence kinds.
func (k PolicyKind) Valid() bool {
	switch k {
	case PolicyDays, PolicyPrintHours, PolicyJobCount:
		return true
	}
	return false
}

// MaintenanceTask is a recurring work definition, e.g. "Clean nozzle every
// 100 print hours". Priority 1-10 is a sort key only, higher = more urgent.
type MaintenanceTask struct {
	ID          uint           `gorm:"column:id;primaryKey" json:"id"`
	Title       string         `gorm:"column:title;size:255;not null" json:"title"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	PolicyKind  PolicyKind     `gorm:"column:policy_kind;size:20;not null" json:"policy_kind"`
	PolicyValue int            `gorm:"column:policy_value;not null" json:"policy_value"`
	Priority    int            `gorm:"column:priority;default:5" json:"priority"`
	Category    string         `gorm:"column:category;size:100" json:"category"`

	// Extra fields the technician must fill when completing the task.
	// Consumed by the web UI only.
	RequiresAxis        bool   `gorm:"column:requires_axis;default:false" json:"requires_axis"`
	RequiresNozzleSize  bool   `gorm:"column:requires_nozzle_size;default:false" json:"requires_nozzle_size"`
	RequiresPlasticType bool   `gorm:"column:requires_plastic_type;default:false" json:"requires_plastic_type"`
	CustomFieldLabel    string `gorm:"column:custom_field_label;size:100" json:"custom_field_label"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (MaintenanceTask) TableName() string {
	return "maintenance_tasks"
}

// PriorityLabel maps the numeric priority onto the labels the UI shows.
func (t *MaintenanceTask) PriorityLabel() string {
	switch {
	case t.Priority >= 8:
		return "critical"
	case t.Priority >= 5:
		return "high"
	case t.Priority >= 3:
		return "medium"
	default:
		return "low"
	}
}
