package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/taskboard/taskboard-api/internal/audit"
	"github.com/taskboard/taskboard-api/internal/authz"
	"github.com/taskboard/taskboard-api/internal/config"
	"github.com/taskboard/taskboard-api/internal/database"
	"github.com/taskboard/taskboard-api/internal/handlers"
	"github.com/taskboard/taskboard-api/internal/logging"
	"github.com/taskboard/taskboard-api/internal/middleware"
	"github.com/taskboard/taskboard-api/internal/notifier"
	"github.com/taskboard/taskboard-api/internal/repository"
	"github.com/taskboard/taskboard-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logging.Setup()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed the bootstrap admin account if configured
	if err := database.EnsureAdminUser(db, cfg); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Core: authorization gate and audit recorder
	gate := authz.NewGate()
	recorder := audit.NewRecorder(activityRepo)

	// External notifier
	mailer := notifier.New(cfg)

	// Services
	authService := services.NewAuthService(userRepo, recorder, mailer, cfg)
	taskService := services.NewTaskService(taskRepo, userRepo, gate, recorder)
	userService := services.NewUserService(userRepo, gate, recorder)
	activityService := services.NewActivityService(activityRepo, gate)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)
	userHandler := handlers.NewUserHandler(userService)
	activityHandler := handlers.NewActivityHandler(activityService)

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	requireAuth := middleware.RequireAuth(cfg.JWTSecret, userRepo)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Taskboard API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password/:token", authHandler.ResetPassword)
			auth.POST("/change-password", requireAuth, authHandler.ChangePassword)
			auth.PUT("/profile", requireAuth, authHandler.UpdateProfile)
		}

		api.GET("/dashboard", requireAuth, func(c *gin.Context) {
			c.JSON(200, gin.H{"message": "Welcome to the dashboard!"})
		})

		// Task routes (protected; ownership checks happen in the service)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.POST("", taskHandler.CreateTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.POST("/:id/comments", taskHandler.AddComment)
		}

		// User administration routes (protected + role gated)
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", middleware.RequireOperation(gate, authz.OpUserList), userHandler.ListUsers)
			users.POST("", middleware.RequireOperation(gate, authz.OpUserCreate), userHandler.CreateUser)
			users.PUT("/:userId/role", middleware.RequireOperation(gate, authz.OpUserUpdateRole), userHandler.UpdateUserRole)
			users.DELETE("/:userId", middleware.RequireOperation(gate, authz.OpUserDelete), userHandler.DeleteUser)
		}

		// Activity ledger routes (protected + role gated)
		activity := api.Group("/activity")
		activity.Use(requireAuth, middleware.RequireOperation(gate, authz.OpActivityRead))
		{
			activity.GET("", activityHandler.ListActivity)
			activity.GET("/recent", activityHandler.RecentActivity)
		}
	}

	// Start server
	log.Printf("Server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
