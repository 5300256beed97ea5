package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stemsi/exstem-progress/internal/config"
	"github.com/stemsi/exstem-progress/internal/handler"
	"github.com/stemsi/exstem-progress/internal/middleware"
	"github.com/stemsi/exstem-progress/internal/response"
	"github.com/stemsi/exstem-progress/internal/service"
)

// reportMaxAge is how long clients may reuse a report read.
const reportMaxAge = 30

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth   *handler.AuthHandler
	Report *handler.ReportHandler
	WS     *handler.WSHandler
	System *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// Without configured origins every origin is allowed.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.AdminLogin)
	}

	// ─── 2. Report Group (Public, read only) ───────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.CacheControl(reportMaxAge))
	{
		api.GET("/report", handlers.Report.Report)
		api.GET("/majors", handlers.Report.Majors)
		api.GET("/students", handlers.Report.Students)
		api.GET("/students/:cwid", handlers.Report.Student)
		api.GET("/instructors", handlers.Report.Instructors)
		api.GET("/instructors/summary", handlers.Report.InstructorSummary)
		api.GET("/diagnostics", handlers.Report.Diagnostics)
	}

	// ─── 3. WebSocket Group (Admin WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdminWSAuth(authService))
	{
		ws.GET("/admin/runs/stream", handlers.WS.RunStream)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService), middleware.NoStore())
	{
		adminAPI.GET("/me", handlers.Auth.AdminProfile)
		adminAPI.POST("/runs", handlers.Report.TriggerRun)
		adminAPI.GET("/system/status", handlers.System.Status)
	}

	return router
}
