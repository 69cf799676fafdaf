package main

import (
	"context"
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

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/handler"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 1.0.0
// @description Timetable construction and conflict detection service
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, stats caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	catalogRepo := repository.NewCatalogRepository(db)
	snapshot, err := catalogRepo.LoadSnapshot(ctx, cfg.Catalog.TermLabel)
	if err != nil {
		logr.Sugar().Fatalw("failed to load catalog", "error", err)
	}
	catalog, err := service.NewCatalog(snapshot)
	if err != nil {
		logr.Sugar().Fatalw("failed to seal catalog", "error", err)
	}
	logr.Sugar().Infow("catalog sealed",
		"term", catalog.TermLabel(),
		"subjects", len(catalog.Subjects()),
		"sections", catalog.RequiredSections(),
		"time_slots", len(catalog.TimeSlots()))

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Projects.StatsCacheTTL, logr, redisClient != nil)

	projectRepo := repository.NewProjectRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	userRepo := repository.NewUserRepository(db)

	store := service.NewAssignmentService(catalog, assignmentRepo, nil, logr)
	if err := store.Restore(ctx); err != nil {
		logr.Sugar().Fatalw("failed to restore assignments", "error", err)
	}

	engine := service.NewConstraintEngine(catalog, store, validate, logr, service.ConstraintEngineConfig{
		LoadWarningRatio:   cfg.Engine.LoadWarningRatio,
		LowAttendanceStart: cfg.Engine.LowAttendanceStart,
		LowAttendanceDay:   cfg.Engine.LowAttendanceDay,
	})

	projects := service.NewProjectService(catalog, projectRepo, store, cacheSvc, cfg.Projects.StatsCacheTTL, logr)

	refresher := service.NewRefreshService(projects, service.RefreshConfig{
		Workers:    cfg.Projects.RefreshWorkers,
		MaxRetries: cfg.Projects.RefreshRetries,
		Logger:     logr,
	})
	refresher.Start(ctx)
	defer refresher.Stop()
	store.SetNotifier(refresher)

	auth := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	exports := service.NewExportService(catalog, store, logr, nil, nil)

	authHandler := handler.NewAuthHandler(auth)
	catalogHandler := handler.NewCatalogHandler(catalog)
	plannerHandler := handler.NewPlannerHandler(engine, store, metrics)
	projectHandler := handler.NewProjectHandler(projects)
	exportHandler := handler.NewExportHandler(exports, projects)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(auth))
	authed.GET("/auth/me", authHandler.Me)
	authed.GET("/catalog", catalogHandler.Get)
	authed.GET("/system/metrics", metricsHandler.Snapshot)

	authed.GET("/projects", projectHandler.Search)
	authed.GET("/projects/:projectId", projectHandler.Get)
	authed.GET("/projects/:projectId/conflicts", projectHandler.Conflicts)
	authed.PATCH("/projects/:projectId/status", projectHandler.UpdateStatus)

	authed.GET("/projects/:projectId/assignments", plannerHandler.List)
	authed.POST("/projects/:projectId/assignments/propose", plannerHandler.Propose)
	authed.PUT("/projects/:projectId/assignments", plannerHandler.Commit)
	authed.DELETE("/projects/:projectId/assignments/:sectionId", plannerHandler.Retract)

	if cfg.Exports.Enabled {
		authed.GET("/projects/:projectId/export", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
