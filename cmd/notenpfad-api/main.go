package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/notenpfad-api/api/swagger"
	"github.com/noah-isme/notenpfad-api/internal/handler"
	"github.com/noah-isme/notenpfad-api/internal/models"
	"github.com/noah-isme/notenpfad-api/internal/repository"
	"github.com/noah-isme/notenpfad-api/internal/router"
	"github.com/noah-isme/notenpfad-api/internal/service"
	"github.com/noah-isme/notenpfad-api/pkg/assistant"
	"github.com/noah-isme/notenpfad-api/pkg/cache"
	"github.com/noah-isme/notenpfad-api/pkg/config"
	"github.com/noah-isme/notenpfad-api/pkg/database"
	"github.com/noah-isme/notenpfad-api/pkg/logger"
)

// @title Notenpfad API
// @version 1.0.0
// @description Grade tracking with weighted averages, trends and a study assistant.
// @BasePath /
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.ReadinessCheck{}

	var stores *repository.Stores
	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			logr.Fatal("failed to apply schema", zap.Error(err))
		}
		stores = repository.NewPostgresStores(db)
	default:
		stores = repository.NewMemoryStores()
	}
	checks["store"] = stores.Ping

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, averages cache disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
			checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && cacheRepo != nil)

	if cfg.Seed.Defaults {
		created, err := service.SeedDefaults(ctx, stores.Subjects, stores.Topics, logr)
		if err != nil {
			logr.Fatal("failed to seed default subjects", zap.Error(err))
		}
		logr.Info("default subjects seeded", zap.Int("created", created))
	}

	var backend service.ChatBackend
	if cfg.Assistant.Enabled {
		gemini, err := assistant.NewGemini(ctx, cfg.Assistant.APIKey, cfg.Assistant.Model)
		if err != nil {
			logr.Warn("assistant unavailable, chat answers with fallback", zap.Error(err))
		} else {
			defer gemini.Close() //nolint:errcheck
			backend = gemini
		}
	}

	engine := service.NewAverageEngine(service.AverageEngineConfig{
		Scale:          models.GradeScale{Min: cfg.Grades.ScaleMin, Max: cfg.Grades.ScaleMax},
		TrendThreshold: cfg.Grades.TrendThreshold,
		PassThreshold:  cfg.Grades.PassThreshold,
	})

	authSvc := service.NewAuthService(nil, logr, metrics, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		AdminSecret:       cfg.Auth.AdminSecret,
		StudentSecret:     cfg.Auth.StudentSecret,
	})
	gradeSvc := service.NewGradeService(stores.Grades, stores.Students, stores.Subjects, engine, cacheSvc, metrics, nil, logr)
	subjectSvc := service.NewSubjectService(stores.Subjects, cacheSvc, nil, logr)
	studentSvc := service.NewStudentService(stores.Students, stores.Grades, cacheSvc, metrics, nil, logr)
	topicSvc := service.NewTopicService(stores.Topics, stores.Subjects, nil, logr)
	reportSvc := service.NewReportService(gradeSvc, stores.Students, service.ReportConfig{
		DisplayPrecision: cfg.Grades.DisplayPrecision,
		PassThreshold:    cfg.Grades.PassThreshold,
	}, logr)
	assistantSvc := service.NewAssistantService(backend, stores.Students, stores.Grades, stores.Subjects, stores.Topics, engine, metrics, nil, logr, service.AssistantConfig{
		Timeout:         cfg.Assistant.Timeout,
		FallbackMessage: cfg.Assistant.FallbackMessage,
	})

	r := router.New(router.Dependencies{
		Config:    cfg,
		Logger:    logr,
		Metrics:   metrics,
		Auth:      authSvc,
		Grades:    gradeSvc,
		Subjects:  subjectSvc,
		Students:  studentSvc,
		Topics:    topicSvc,
		Reports:   reportSvc,
		Assistant: assistantSvc,
		Checks:    checks,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
