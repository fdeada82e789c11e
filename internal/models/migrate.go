package models

import (
	"log"

	"gorm.io/gorm"
)

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	return db.AutoMigrate(
		&User{},
		&SystemPreference{},
		&Printer{},
		&MaintenanceTask{},
		&PrinterTaskSchedule{},
		&WorkLog{},
		&NotificationSetting{},
		&ReminderLog{},
		&AuditLog{},
		&BackupSchedule{},
		&BackupLog{},
	)
}
