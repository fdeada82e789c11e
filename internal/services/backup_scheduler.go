package services

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/printcare/backend/internal/config"
	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/models"
	"github.com/printcare/backend/internal/security"
)

// BackupSchedulerService handles scheduled database backups
type BackupSchedulerService struct {
	cfg       *config.Config
	cipher    *security.Cipher
	backupDir string
	stopChan  chan struct{}
}

// NewBackupSchedulerService creates a new backup scheduler service
func NewBackupSchedulerService(cfg *config.Config, cipher *security.Cipher) *BackupSchedulerService {
	os.MkdirAll(cfg.BackupDir, 0755)
	return &BackupSchedulerService{
		cfg:       cfg,
		cipher:    cipher,
		backupDir: cfg.BackupDir,
		stopChan:  make(chan struct{}),
	}
}

// Start starts the backup scheduler
func (s *BackupSchedulerService) Start() {
	go func() {
		log.Println("BackupSchedulerService started, checking every 1 minute")

		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				log.Println("BackupSchedulerService stopped")
				return
			case <-ticker.C:
				s.checkSchedules()
			}
		}
	}()
}

// Stop stops the backup scheduler
func (s *BackupSchedulerService) Stop() {
	close(s.stopChan)
}

// checkSchedules checks all schedules and runs due backups
func (s *BackupSchedulerService) checkSchedules() {
	var schedules []models.BackupSchedule
	if err := database.DB.Where("is_enabled = ?", true).Find(&schedules).Error; err != nil {
		log.Printf("BackupScheduler: Failed to load schedules: %v", err)
		return
	}

	now := Now()
	for _, schedule := range schedules {
		if s.isDue(&schedule, now) {
			go s.runBackup(&schedule)
		}
	}
}

// isDue checks if a schedule is due to run (within its 1 minute window)
func (s *BackupSchedulerService) isDue(schedule *models.BackupSchedule, now time.Time) bool {
	hour, minute := 2, 0
	if schedule.TimeOfDay != "" {
		fmt.Sscanf(schedule.TimeOfDay, "%d:%d", &hour, &minute)
	}

	if now.Hour() != hour || now.Minute() != minute {
		return false
	}

	// Prevent a second firing within the same minute
	if schedule.LastRunAt != nil && now.Sub(*schedule.LastRunAt) < time.Minute {
		return false
	}

	switch schedule.Frequency {
	case "daily":
		return true
	case "weekly":
		return int(now.Weekday()) == schedule.DayOfWeek
	case "monthly":
		return now.Day() == schedule.DayOfMonth
	}

	return false
}

// runBackup executes a scheduled backup
func (s *BackupSchedulerService) runBackup(schedule *models.BackupSchedule) {
	startTime := time.Now()

	database.DB.Model(schedule).Updates(map[string]interface{}{
		"last_status": "running",
		"last_run_at": startTime,
	})

	backupLog := models.BackupLog{
		ScheduleID:   &schedule.ID,
		ScheduleName: schedule.Name,
		Status:       "running",
		StartedAt:    startTime,
	}
	database.DB.Create(&backupLog)

	timestamp := startTime.Format("20060102_150405")
	filename := fmt.Sprintf("printcare_%s.dump", timestamp)
	localPath := filepath.Join(s.backupDir, filename)

	if err := s.createDatabaseBackup(localPath); err != nil {
		s.handleBackupError(schedule, &backupLog, err, startTime)
		return
	}

	fileInfo, err := os.Stat(localPath)
	if err != nil {
		s.handleBackupError(schedule, &backupLog, err, startTime)
		return
	}

	backupLog.Filename = filename
	backupLog.FileSize = fileInfo.Size()
	backupLog.StorageType = "local"
	backupLog.StoragePath = localPath

	// Upload to FTP if enabled
	if schedule.FTPEnabled {
		if err := s.uploadToFTP(schedule, localPath, filename); err != nil {
			// Local backup succeeded; record the FTP failure but don't fail the run
			log.Printf("BackupScheduler: FTP upload failed for %s: %v", schedule.Name, err)
			backupLog.ErrorMessage = fmt.Sprintf("Local backup succeeded, FTP failed: %v", err)
		} else {
			backupLog.StorageType = "both"
			backupLog.StoragePath = fmt.Sprintf("local:%s, ftp:%s/%s", localPath, schedule.FTPPath, filename)
		}
	}

	if schedule.Retention > 0 {
		s.cleanOldBackups(schedule)
	}

	nextRun := CalculateNextRunForSchedule(schedule)
	database.DB.Model(schedule).Updates(map[string]interface{}{
		"last_status":      "success",
		"last_error":       "",
		"last_backup_file": filename,
		"next_run_at":      nextRun,
	})

	completedAt := time.Now()
	backupLog.Status = "success"
	backupLog.CompletedAt = &completedAt
	backupLog.Duration = int(completedAt.Sub(startTime).Seconds())
	database.DB.Save(&backupLog)

	log.Printf("BackupScheduler: Backup completed for %s (%s, %d bytes)",
		schedule.Name, filename, fileInfo.Size())
}

// createDatabaseBackup runs pg_dump in custom format (compressed binary)
func (s *BackupSchedulerService) createDatabaseBackup(destPath string) error {
	cmd := exec.Command("pg_dump",
		"-h", s.cfg.DBHost,
		"-p", strconv.Itoa(s.cfg.DBPort),
		"-U", s.cfg.DBUser,
		"-d", s.cfg.DBName,
		"-Fc",
		"-f", destPath,
		"--no-owner",
		"--no-acl",
	)
	cmd.Env = append(os.Environ(), fmt.Sprintf("PGPASSWORD=%s", s.cfg.DBPassword))

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %s", err.Error(), string(output))
	}
	return nil
}

// ftpPassword returns the schedule's FTP password, decrypted when stored
// encrypted
func (s *BackupSchedulerService) ftpPassword(schedule *models.BackupSchedule) string {
	if s.cipher == nil {
		return schedule.FTPPassword
	}
	decrypted, err := s.cipher.Decrypt(schedule.FTPPassword)
	if err != nil {
		return schedule.FTPPassword
	}
	return decrypted
}

// uploadToFTP uploads a file to the schedule's FTP server
func (s *BackupSchedulerService) uploadToFTP(schedule *models.BackupSchedule, localPath, filename string) error {
	addr := fmt.Sprintf("%s:%d", schedule.FTPHost, schedule.FTPPort)
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return fmt.Errorf("FTP connection failed: %v", err)
	}
	defer conn.Quit()

	if err := conn.Login(schedule.FTPUsername, s.ftpPassword(schedule)); err != nil {
		return fmt.Errorf("FTP login failed: %v", err)
	}

	// Change to backup directory (create if needed)
	if schedule.FTPPath != "" && schedule.FTPPath != "/" {
		if err := conn.ChangeDir(schedule.FTPPath); err != nil {
			conn.MakeDir(schedule.FTPPath)
			if err := conn.ChangeDir(schedule.FTPPath); err != nil {
				return fmt.Errorf("FTP directory change failed: %v", err)
			}
		}
	}

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file: %v", err)
	}
	defer file.Close()

	if err := conn.Stor(filename, file); err != nil {
		return fmt.Errorf("FTP upload failed: %v", err)
	}

	log.Printf("BackupScheduler: Uploaded %s to FTP %s", filename, schedule.FTPHost)
	return nil
}

// cleanOldBackups removes backups older than the retention period
func (s *BackupSchedulerService) cleanOldBackups(schedule *models.BackupSchedule) {
	cutoff := time.Now().AddDate(0, 0, -schedule.Retention)

	files, err := os.ReadDir(s.backupDir)
	if err != nil {
		return
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		info, err := file.Info()
		if err != nil {
			continue
		}

		name := file.Name()
		isBackup := strings.HasPrefix(name, "printcare_") && strings.HasSuffix(name, ".dump")
		if info.ModTime().Before(cutoff) && isBackup {
			os.Remove(filepath.Join(s.backupDir, name))
			log.Printf("BackupScheduler: Deleted old backup %s", name)
		}
	}

	if schedule.FTPEnabled {
		s.cleanOldFTPBackups(schedule, cutoff)
	}
}

// cleanOldFTPBackups removes old backups from the FTP server
func (s *BackupSchedulerService) cleanOldFTPBackups(schedule *models.BackupSchedule, cutoff time.Time) {
	addr := fmt.Sprintf("%s:%d", schedule.FTPHost, schedule.FTPPort)
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return
	}
	defer conn.Quit()

	if err := conn.Login(schedule.FTPUsername, s.ftpPassword(schedule)); err != nil {
		return
	}

	if schedule.FTPPath != "" && schedule.FTPPath != "/" {
		conn.ChangeDir(schedule.FTPPath)
	}

	entries, err := conn.List("")
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.Type == ftp.EntryTypeFile && entry.Time.Before(cutoff) {
			if strings.HasPrefix(entry.Name, "printcare_") && strings.HasSuffix(entry.Name, ".dump") {
				conn.Delete(entry.Name)
				log.Printf("BackupScheduler: Deleted old FTP backup %s", entry.Name)
			}
		}
	}
}

// CalculateNextRunForSchedule calculates next_run_at for a schedule
// (exported for use by handlers)
func CalculateNextRunForSchedule(schedule *models.BackupSchedule) time.Time {
	now := Now()

	hour, minute := 2, 0
	if schedule.TimeOfDay != "" {
		fmt.Sscanf(schedule.TimeOfDay, "%d:%d", &hour, &minute)
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())

	switch schedule.Frequency {
	case "daily":
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
	case "weekly":
		daysUntil := (schedule.DayOfWeek - int(now.Weekday()) + 7) % 7
		if daysUntil == 0 && !next.After(now) {
			daysUntil = 7
		}
		next = next.AddDate(0, 0, daysUntil)
	case "monthly":
		next = time.Date(now.Year(), now.Month(), schedule.DayOfMonth, hour, minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 1, 0)
		}
	}

	return next
}

// handleBackupError records a failed run on the schedule and its log entry
func (s *BackupSchedulerService) handleBackupError(schedule *models.BackupSchedule, backupLog *models.BackupLog, err error, startTime time.Time) {
	log.Printf("BackupScheduler: Backup failed for %s: %v", schedule.Name, err)

	completedAt := time.Now()

	database.DB.Model(schedule).Updates(map[string]interface{}{
		"last_status": "failed",
		"last_error":  err.Error(),
	})

	backupLog.Status = "failed"
	backupLog.ErrorMessage = err.Error()
	backupLog.CompletedAt = &completedAt
	backupLog.Duration = int(completedAt.Sub(startTime).Seconds())
	database.DB.Save(backupLog)
}

// RunManualBackup runs an immediate backup outside any schedule
func (s *BackupSchedulerService) RunManualBackup() (*models.BackupLog, error) {
	startTime := time.Now()

	backupLog := models.BackupLog{
		Status:    "running",
		StartedAt: startTime,
	}
	database.DB.Create(&backupLog)

	timestamp := startTime.Format("20060102_150405")
	filename := fmt.Sprintf("printcare_%s_manual.dump", timestamp)
	localPath := filepath.Join(s.backupDir, filename)

	if err := s.createDatabaseBackup(localPath); err != nil {
		completedAt := time.Now()
		backupLog.Status = "failed"
		backupLog.ErrorMessage = err.Error()
		backupLog.CompletedAt = &completedAt
		database.DB.Save(&backupLog)
		return &backupLog, err
	}

	fileInfo, _ := os.Stat(localPath)
	completedAt := time.Now()
	backupLog.Status = "success"
	backupLog.Filename = filename
	backupLog.FileSize = fileInfo.Size()
	backupLog.StorageType = "local"
	backupLog.StoragePath = localPath
	backupLog.CompletedAt = &completedAt
	backupLog.Duration = int(completedAt.Sub(startTime).Seconds())
	database.DB.Save(&backupLog)

	return &backupLog, nil
}

// LocalPath returns the on-disk path for a backup file by name
func (s *BackupSchedulerService) LocalPath(filename string) string {
	return filepath.Join(s.backupDir, filepath.Base(filename))
}

// TestFTPConnection tests FTP connectivity with the given credentials
func TestFTPConnection(host string, port int, username, password, path string) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(10*time.Second))
	if err != nil {
		return fmt.Errorf("connection failed: %v", err)
	}
	defer conn.Quit()

	if err := conn.Login(username, password); err != nil {
		return fmt.Errorf("login failed: %v", err)
	}

	if path != "" && path != "/" {
		if err := conn.ChangeDir(path); err != nil {
			if err := conn.MakeDir(path); err != nil {
				return fmt.Errorf("cannot access or create directory %s: %v", path, err)
			}
		}
	}

	return nil
}
