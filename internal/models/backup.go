package models

import (
	"time"
)

// BackupSchedule configures the recurring database backup
type BackupSchedule struct {
	ID         uint   `gorm:"column:id;primaryKey" json:"id"`
	Name       string `gorm:"column:name;size:100;not null" json:"name"`
	IsEnabled  bool   `gorm:"column:is_enabled;default:true" json:"is_enabled"`
	Frequency  string `gorm:"column:frequency;size:20;default:daily" json:"frequency"` // daily, weekly, monthly
	TimeOfDay  string `gorm:"column:time_of_day;size:10;default:'02:00'" json:"time_of_day"`
	DayOfWeek  int    `gorm:"column:day_of_week;default:0" json:"day_of_week"`
	DayOfMonth int    `gorm:"column:day_of_month;default:1" json:"day_of_month"`
	Retention  int    `gorm:"column:retention;default:14" json:"retention"` // days

	// Off-site FTP upload
	FTPEnabled  bool   `gorm:"column:ftp_enabled;default:false" json:"ftp_enabled"`
	FTPHost     string `gorm:"column:ftp_host;size:255" json:"ftp_host"`
	FTPPort     int    `gorm:"column:ftp_port;default:21" json:"ftp_port"`
	FTPUsername string `gorm:"column:ftp_username;size:255" json:"ftp_username"`
	FTPPassword string `gorm:"column:ftp_password;size:512" json:"-"`
	FTPPath     string `gorm:"column:ftp_path;size:255" json:"ftp_path"`

	LastRunAt      *time.Time `gorm:"column:last_run_at" json:"last_run_at"`
	LastStatus     string     `gorm:"column:last_status;size:20" json:"last_status"`
	LastError      string     `gorm:"column:last_error;type:text" json:"last_error"`
	LastBackupFile string     `gorm:"column:last_backup_file;size:255" json:"last_backup_file"`
	NextRunAt      *time.Time `gorm:"column:next_run_at" json:"next_run_at"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (BackupSchedule) TableName() string {
	return "backup_schedules"
}

// BackupLog records one backup run
type BackupLog struct {
	ID           uint       `gorm:"column:id;primaryKey" json:"id"`
	ScheduleID   *uint      `gorm:"column:schedule_id;index" json:"schedule_id"`
	ScheduleName string     `gorm:"column:schedule_name;size:100" json:"schedule_name"`
	Status       string     `gorm:"column:status;size:20;not null" json:"status"` // running, success, failed
	Filename     string     `gorm:"column:filename;size:255" json:"filename"`
	FileSize     int64      `gorm:"column:file_size" json:"file_size"`
	StorageType  string     `gorm:"column:storage_type;size:20" json:"storage_type"` // local, both
	StoragePath  string     `gorm:"column:storage_path;size:512" json:"storage_path"`
	ErrorMessage string     `gorm:"column:error_message;type:text" json:"error_message"`
	StartedAt    time.Time  `gorm:"column:started_at" json:"started_at"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at"`
	Duration     int        `gorm:"column:duration" json:"duration"` // seconds
}

func (BackupLog) TableName() string {
	return "backup_logs"
}
