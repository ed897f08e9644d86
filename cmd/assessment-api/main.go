package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-assessment-api/api/swagger"
	"github.com/noah-isme/sma-assessment-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-assessment-api/internal/middleware"
	"github.com/noah-isme/sma-assessment-api/internal/repository"
	"github.com/noah-isme/sma-assessment-api/internal/service"
	"github.com/noah-isme/sma-assessment-api/pkg/cache"
	"github.com/noah-isme/sma-assessment-api/pkg/config"
	"github.com/noah-isme/sma-assessment-api/pkg/database"
	"github.com/noah-isme/sma-assessment-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-assessment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-assessment-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-assessment-api/pkg/validation"
)

// @title SMA Assessment API
// @version 1.0.0
// @description Score entry, grading and class result compilation
// @BasePath /api/v1
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
		logr.Fatal("failed to connect database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, running without cache", zap.Error(err))
	}

	metrics := service.NewMetricsService()
	validator := validation.New()

	terms := repository.NewTermRepository(db)
	subjects := repository.NewSubjectRepository(db)
	classTerms := repository.NewClassTermRepository(db)
	students := repository.NewStudentRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	teachers := repository.NewTeacherRepository(db)
	assignments := repository.NewTeacherAssignmentRepository(db)
	gradingSystems := repository.NewGradingSystemRepository(db)
	assessments := repository.NewAssessmentRepository(db)

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(
		cacheRepo,
		metrics,
		cfg.Grading.AssessmentCacheTTL,
		logr,
		redisClient != nil,
	)

	gradingSvc := service.NewGradingService(gradingSystems, service.NewGradingCache(cacheSvc, cfg.Grading.CacheTTL), metrics, validator, logr)
	assignmentSvc := service.NewTeacherAssignmentService(teachers, subjects, terms, classTerms, assignments, validator, logr)
	assessmentSvc := service.NewAssessmentService(service.AssessmentServiceParams{
		Assessments: assessments,
		Terms:       terms,
		Subjects:    subjects,
		ClassTerms:  classTerms,
		Students:    students,
		Enrollments: enrollments,
		Teachers:    assignmentSvc,
		Grading:     gradingSvc,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Validator:   validator,
		Logger:      logr,
		Config: service.AssessmentServiceConfig{
			BatchSize:     cfg.Grading.BatchSize,
			TxTimeout:     cfg.Grading.TxTimeout,
			SheetCacheTTL: cfg.Grading.AssessmentCacheTTL,
		},
	})
	rankingSvc := service.NewRankingService(service.RankingServiceParams{
		Assessments: assessments,
		Subjects:    subjects,
		ClassTerms:  classTerms,
		Enrollments: enrollments,
		Teachers:    assignmentSvc,
		Grading:     gradingSvc,
		Logger:      logr,
		Config: service.RankingServiceConfig{
			OverallBasis:   cfg.Grading.OverallBasis,
			SchoolName:     cfg.Reports.SchoolName,
			ReportsEnabled: cfg.Reports.Enabled,
		},
	})
	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)

	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	r := gin.New()
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())
	r.Use(gin.Recovery())

	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), routeDeps{
		tokens:      tokens,
		logger:      logr,
		assessments: handler.NewAssessmentHandler(assessmentSvc, assignmentSvc),
		results:     handler.NewResultHandler(rankingSvc),
		grading:     handler.NewGradingHandler(gradingSvc),
		assignments: handler.NewTeacherAssignmentHandler(assignmentSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "db_driver", cfg.Database.Driver, "cache", redisClient != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
