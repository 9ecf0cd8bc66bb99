package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/taskboard-api/internal/audit"
	"github.com/taskboard/taskboard-api/internal/authz"
	"github.com/taskboard/taskboard-api/internal/config"
	"github.com/taskboard/taskboard-api/internal/middleware"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/notifier"
	"github.com/taskboard/taskboard-api/internal/repository"
	"github.com/taskboard/taskboard-api/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	db           *gorm.DB
	cfg          *config.Config
	gate         *authz.Gate
	userRepo     repository.UserRepository
	taskRepo     repository.TaskRepository
	activityRepo repository.ActivityRepository
	authService  *services.AuthService
	router       *gin.Engine
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Comment{},
		&models.ActivityLog{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTExpiry:        time.Hour,
		ClientURL:        "http://localhost:3000",
		ResetTokenExpiry: 15 * time.Minute,
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	gate := authz.NewGate()
	recorder := audit.NewRecorder(activityRepo)

	authService := services.NewAuthService(userRepo, recorder, &notifier.LogMailer{}, cfg)
	taskService := services.NewTaskService(taskRepo, userRepo, gate, recorder)
	userService := services.NewUserService(userRepo, gate, recorder)
	activityService := services.NewActivityService(activityRepo, gate)

	env := &testEnv{
		db:           db,
		cfg:          cfg,
		gate:         gate,
		userRepo:     userRepo,
		taskRepo:     taskRepo,
		activityRepo: activityRepo,
		authService:  authService,
	}
	env.router = buildTestRouter(env, taskService, userService, activityService)

	return env
}

// buildTestRouter mirrors the route tree of cmd/server.
func buildTestRouter(env *testEnv, taskService *services.TaskService, userService *services.UserService, activityService *services.ActivityService) *gin.Engine {
	authHandler := NewAuthHandler(env.authService)
	taskHandler := NewTaskHandler(taskService)
	userHandler := NewUserHandler(userService)
	activityHandler := NewActivityHandler(activityService)

	requireAuth := middleware.RequireAuth(env.cfg.JWTSecret, env.userRepo)

	r := gin.New()
	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password/:token", authHandler.ResetPassword)
	auth.POST("/change-password", requireAuth, authHandler.ChangePassword)
	auth.PUT("/profile", requireAuth, authHandler.UpdateProfile)

	tasks := api.Group("/tasks")
	tasks.Use(requireAuth)
	tasks.GET("", taskHandler.ListTasks)
	tasks.GET("/:id", taskHandler.GetTask)
	tasks.POST("", taskHandler.CreateTask)
	tasks.PUT("/:id", taskHandler.UpdateTask)
	tasks.DELETE("/:id", taskHandler.DeleteTask)
	tasks.POST("/:id/comments", taskHandler.AddComment)

	users := api.Group("/users")
	users.Use(requireAuth)
	users.GET("", middleware.RequireOperation(env.gate, authz.OpUserList), userHandler.ListUsers)
	users.POST("", middleware.RequireOperation(env.gate, authz.OpUserCreate), userHandler.CreateUser)
	users.PUT("/:userId/role", middleware.RequireOperation(env.gate, authz.OpUserUpdateRole), userHandler.UpdateUserRole)
	users.DELETE("/:userId", middleware.RequireOperation(env.gate, authz.OpUserDelete), userHandler.DeleteUser)

	activity := api.Group("/activity")
	activity.Use(requireAuth, middleware.RequireOperation(env.gate, authz.OpActivityRead))
	activity.GET("", activityHandler.ListActivity)
	activity.GET("/recent", activityHandler.RecentActivity)

	return r
}

func (env *testEnv) createUser(t *testing.T, username, email, password string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env *testEnv) createTask(t *testing.T, title string, creator *models.User, assignedTo *uint64) *models.Task {
	t.Helper()

	task := &models.Task{
		Title:        title,
		Description:  "Test Description",
		Status:       models.TaskStatusPending,
		CreatorID:    creator.ID,
		AssignedByID: creator.ID,
		AssignedToID: assignedTo,
	}
	require.NoError(t, env.db.Create(task).Error)
	return task
}

// loginToken performs a real login to obtain a bearer token.
func (env *testEnv) loginToken(t *testing.T, email, password string) string {
	t.Helper()

	w := env.request(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotEmpty(t, response.Token)
	return response.Token
}

func (env *testEnv) request(t *testing.T, method, url string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, url, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) activityEntries(t *testing.T) []models.ActivityLog {
	t.Helper()

	var entries []models.ActivityLog
	require.NoError(t, env.db.Order("id ASC").Find(&entries).Error)
	return entries
}
