package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/smartsched/smartsched-api/api/swagger"
	"github.com/smartsched/smartsched-api/internal/handler"
	"github.com/smartsched/smartsched-api/internal/middleware"
	"github.com/smartsched/smartsched-api/internal/repository"
	"github.com/smartsched/smartsched-api/internal/service"
	"github.com/smartsched/smartsched-api/pkg/cache"
	"github.com/smartsched/smartsched-api/pkg/config"
	"github.com/smartsched/smartsched-api/pkg/database"
	"github.com/smartsched/smartsched-api/pkg/logger"
	corsmiddleware "github.com/smartsched/smartsched-api/pkg/middleware/cors"
	reqidmiddleware "github.com/smartsched/smartsched-api/pkg/middleware/requestid"
)

// @title SmartSched API
// @version 1.0.0
// @description Automated class timetabling for university departments
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, timetable caching disabled", "error", err)
	} else {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close()
	}

	teacherRepo := repository.NewTeacherRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	userRepo := repository.NewUserRepository(db)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
	})
	catalogSvc := service.NewCatalogService(teacherRepo, classroomRepo, sectionRepo, logr)
	timetableSvc := service.NewTimetableService(scheduleRepo, cacheRepo, cfg.Cache.TimetableTTL, logr)
	exportSvc := service.NewExportService(scheduleRepo, logr)
	schedulingSvc := service.NewSchedulingService(scheduleRepo, teacherRepo, classroomRepo, sectionRepo, cacheRepo, metricsSvc, cfg.Solver, validate, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	schedulingSvc.Start(ctx)
	defer schedulingSvc.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	scheduleHandler := handler.NewScheduleHandler(schedulingSvc, timetableSvc, exportSvc)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("", middleware.JWT(authSvc))
	protected.GET("/teachers", catalogHandler.Teachers)
	protected.GET("/classrooms", catalogHandler.Classrooms)
	protected.GET("/sections", catalogHandler.Sections)
	protected.GET("/sections/:id", catalogHandler.SectionByID)

	protected.GET("/schedules", scheduleHandler.List)
	protected.GET("/schedules/section/:id", scheduleHandler.BySection)
	protected.GET("/schedules/export/section/:id", scheduleHandler.Export)
	protected.GET("/schedules/status/:problemId", scheduleHandler.Status)

	staff := protected.Group("", middleware.RequireRoles("ADMIN", "REGISTRAR"))
	staff.POST("/schedules/solve", scheduleHandler.Solve)
	staff.DELETE("/schedules/solve/:problemId", scheduleHandler.Cancel)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
