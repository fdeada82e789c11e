package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"golang.org/x/crypto/bcrypt"

	"github.com/printcare/backend/internal/config"
	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/handlers"
	"github.com/printcare/backend/internal/middleware"
	"github.com/printcare/backend/internal/models"
	"github.com/printcare/backend/internal/security"
	"github.com/printcare/backend/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := models.AutoMigrate(database.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// The JWT secret lives in the database so tokens survive restarts
	cfg.JWTSecret = database.EnsureJWTSecret(cfg)

	cipher, err := security.NewCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Failed to initialize encryption: %v", err)
	}

	// Seed admin user if not exists
	seedAdminUser()

	// Start background services
	dispatcher := services.NewReminderDispatcher(cipher)
	reminderScheduler := services.NewReminderScheduler(dispatcher)
	reminderScheduler.Start()

	backupScheduler := services.NewBackupSchedulerService(cfg, cipher)
	backupScheduler.Start()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "PrintCare API",
		ServerHeader: "PrintCare",
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(middleware.Recovery())
	app.Use(compress.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg)
	twoFAHandler := handlers.NewTwoFAHandler()
	printerHandler := handlers.NewPrinterHandler()
	taskHandler := handlers.NewTaskHandler()
	scheduleHandler := handlers.NewScheduleHandler()
	workLogHandler := handlers.NewWorkLogHandler()
	dashboardHandler := handlers.NewDashboardHandler()
	settingsHandler := handlers.NewSettingsHandler(cipher, reminderScheduler, dispatcher)
	userHandler := handlers.NewUserHandler()
	backupHandler := handlers.NewBackupHandler(backupScheduler, cipher)
	auditHandler := handlers.NewAuditHandler()

	// API routes
	api := app.Group("/api")
	api.Use(middleware.RateLimiter(100, 1*time.Minute))

	// Public routes
	api.Post("/auth/login", authHandler.Login)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired(cfg))

	// Auth routes
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/refresh", authHandler.RefreshToken)
	protected.Put("/auth/password", authHandler.ChangePassword)

	// 2FA routes
	protected.Get("/auth/2fa/status", twoFAHandler.Status)
	protected.Post("/auth/2fa/setup", twoFAHandler.Setup)
	protected.Post("/auth/2fa/verify", twoFAHandler.Verify)
	protected.Post("/auth/2fa/disable", twoFAHandler.Disable)

	// Dashboard routes
	protected.Get("/dashboard/stats", dashboardHandler.Stats)
	protected.Get("/dashboard/board", dashboardHandler.Board)
	protected.Get("/dashboard/due-today", dashboardHandler.DueToday)

	// Printer routes
	printers := protected.Group("/printers")
	printers.Get("/", printerHandler.List)
	printers.Get("/:id", printerHandler.Get)
	printers.Get("/:id/qr", printerHandler.QRCode)
	printers.Post("/", middleware.TechnicianOrAdmin(), printerHandler.Create)
	printers.Put("/:id", middleware.TechnicianOrAdmin(), printerHandler.Update)
	printers.Delete("/:id", middleware.AdminOnly(), printerHandler.Delete)

	// QR scan lookup
	protected.Get("/scan/:token", printerHandler.ByToken)

	// Maintenance task routes
	tasks := protected.Group("/tasks")
	tasks.Get("/", taskHandler.List)
	tasks.Get("/:id", taskHandler.Get)
	tasks.Post("/", middleware.TechnicianOrAdmin(), taskHandler.Create)
	tasks.Put("/:id", middleware.TechnicianOrAdmin(), taskHandler.Update)
	tasks.Delete("/:id", middleware.AdminOnly(), taskHandler.Delete)

	// Schedule (assignment) routes
	schedules := protected.Group("/schedules")
	schedules.Get("/", scheduleHandler.List)
	schedules.Post("/", middleware.TechnicianOrAdmin(), scheduleHandler.Assign)
	schedules.Post("/:id/toggle", middleware.TechnicianOrAdmin(), scheduleHandler.Toggle)
	schedules.Delete("/:id", middleware.TechnicianOrAdmin(), scheduleHandler.Unassign)

	// Work log routes
	worklogs := protected.Group("/worklogs")
	worklogs.Get("/", workLogHandler.List)
	worklogs.Get("/:id", workLogHandler.Get)
	worklogs.Post("/", middleware.TechnicianOrAdmin(), workLogHandler.Create)

	// Settings routes (Admin only)
	settings := protected.Group("/settings", middleware.AdminOnly())
	settings.Get("/", settingsHandler.List)
	settings.Put("/", settingsHandler.Update)
	settings.Get("/channels", settingsHandler.Channels)
	settings.Put("/channels/:channel", settingsHandler.UpdateChannel)
	settings.Post("/channels/:channel/test", settingsHandler.TestChannel)

	// User management routes (Admin only)
	users := protected.Group("/users", middleware.AdminOnly())
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.Create)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)

	// Backup routes (Admin only)
	backup := protected.Group("/backup", middleware.AdminOnly())
	backup.Get("/schedule", backupHandler.GetSchedule)
	backup.Put("/schedule", backupHandler.SaveSchedule)
	backup.Post("/run", backupHandler.Run)
	backup.Get("/logs", backupHandler.Logs)
	backup.Get("/logs/:id/download", backupHandler.Download)
	backup.Delete("/logs/:id", backupHandler.DeleteLog)
	backup.Post("/test-ftp", backupHandler.TestFTP)

	// Audit routes (Admin only)
	audit := protected.Group("/audit", middleware.AdminOnly())
	audit.Get("/", auditHandler.List)
	audit.Get("/reminders", auditHandler.Reminders)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down...")
		reminderScheduler.Stop()
		backupScheduler.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	log.Printf("Starting PrintCare API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func seedAdminUser() {
	var count int64
	database.DB.Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&count)

	if count == 0 {
		log.Println("Creating default admin user...")

		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)

		admin := models.User{
			Username:            "admin",
			Password:            string(hashedPassword),
			Email:               "admin@printcare.local",
			FullName:            "System Administrator",
			UserType:            models.UserTypeAdmin,
			ForcePasswordChange: true,
			IsActive:            true,
		}

		if err := database.DB.Create(&admin).Error; err != nil {
			log.Printf("Failed to create admin user: %v", err)
		} else {
			log.Println("Admin user created successfully (username: admin, password: admin123)")
		}
	}
}
