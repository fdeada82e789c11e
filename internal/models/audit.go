package models

import (
	"time"
)

// Audit actions
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
	AuditActionLogin  = "login"
	AuditActionLogout = "logout"
)

// AuditLog records who did what to which entity
type AuditLog struct {
	ID          uint      `gorm:"column:id;primaryKey" json:"id"`
	UserID      uint      `gorm:"column:user_id;index" json:"user_id"`
	Username    string    `gorm:"column:username;size:100" json:"username"`
	UserType    UserType  `gorm:"column:user_type" json:"user_type"`
	Action      string    `gorm:"column:action;size:50;not null;index" json:"action"`
	EntityType  string    `gorm:"column:entity_type;size:50;index" json:"entity_type"`
	EntityID    uint      `gorm:"column:entity_id" json:"entity_id"`
	EntityName  string    `gorm:"column:entity_name;size:255" json:"entity_name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	IPAddress   string    `gorm:"column:ip_address;size:50" json:"ip_address"`
	CreatedAt   time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// ReminderLog records one dispatch attempt per channel, scheduled or
// manual, for the audit trail.
type ReminderLog struct {
	ID           uint      `gorm:"column:id;primaryKey" json:"id"`
	Channel      string    `gorm:"column:channel;size:20;not null;index" json:"channel"`
	TasksDue     int       `gorm:"column:tasks_due" json:"tasks_due"`
	Status       string    `gorm:"column:status;size:20;not null" json:"status"` // sent, failed, skipped
	ErrorMessage string    `gorm:"column:error_message;type:text" json:"error_message"`
	Manual       bool      `gorm:"column:manual;default:false" json:"manual"`
	CreatedAt    time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (ReminderLog) TableName() string {
	return "reminder_logs"
}
