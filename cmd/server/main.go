package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusdesk/helpdesk-api/api/swagger"
	"github.com/campusdesk/helpdesk-api/internal/handler"
	"github.com/campusdesk/helpdesk-api/internal/middleware"
	"github.com/campusdesk/helpdesk-api/internal/models"
	"github.com/campusdesk/helpdesk-api/internal/repository"
	"github.com/campusdesk/helpdesk-api/internal/service"
	"github.com/campusdesk/helpdesk-api/pkg/cache"
	"github.com/campusdesk/helpdesk-api/pkg/config"
	"github.com/campusdesk/helpdesk-api/pkg/database"
	"github.com/campusdesk/helpdesk-api/pkg/logger"
	corsmiddleware "github.com/campusdesk/helpdesk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusdesk/helpdesk-api/pkg/middleware/requestid"
)

// @title University Helpdesk API
// @version 1.0.0
// @description Service request tracking backend for university students and administrators
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, rate limiting disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsService := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	requestService := service.NewRequestService(requestRepo, validate, logr)
	reportService := service.NewReportService(reportRepo, metricsService, logr)
	exportService := service.NewExportService(reportService, logr)

	authHandler := handler.NewAuthHandler(authService)
	requestHandler := handler.NewRequestHandler(requestService, metricsService)
	reportHandler := handler.NewReportHandler(reportService, exportService)
	metricsHandler := handler.NewMetricsHandler(metricsService, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(redisClient, cfg.RateLimit.Limit, cfg.RateLimit.Window, logr))
	}

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/profile", middleware.JWT(authService), authHandler.Profile)
	}

	requests := api.Group("/requests", middleware.JWT(authService))
	{
		requests.POST("", requestHandler.Create)
		requests.GET("", requestHandler.List)
		requests.GET("/:id", requestHandler.Get)
		requests.PUT("/:id", requestHandler.Update)
		requests.DELETE("/:id", requestHandler.Delete)
		requests.PUT("/:id/status", middleware.RequireRoles(models.RoleAdmin), requestHandler.UpdateStatus)
		requests.PUT("/:id/assign", middleware.RequireRoles(models.RoleAdmin), requestHandler.Assign)
		requests.GET("/:id/history", requestHandler.History)
	}

	reports := api.Group("/reports", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin))
	{
		reports.GET("/overview", reportHandler.Overview)
		reports.GET("/by-department", reportHandler.ByDepartment)
		reports.GET("/by-category", reportHandler.ByCategory)
		reports.GET("/by-priority", reportHandler.ByPriority)
		reports.GET("/comprehensive", reportHandler.Comprehensive)
		reports.GET("/comprehensive/export", reportHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
