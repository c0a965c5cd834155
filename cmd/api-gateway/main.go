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
	"go.uber.org/zap"

	_ "github.com/reformcases/portfolio-api/api/swagger"
	"github.com/reformcases/portfolio-api/internal/handler"
	internalmiddleware "github.com/reformcases/portfolio-api/internal/middleware"
	"github.com/reformcases/portfolio-api/internal/models"
	"github.com/reformcases/portfolio-api/internal/repository"
	"github.com/reformcases/portfolio-api/internal/service"
	"github.com/reformcases/portfolio-api/pkg/cache"
	"github.com/reformcases/portfolio-api/pkg/config"
	"github.com/reformcases/portfolio-api/pkg/database"
	"github.com/reformcases/portfolio-api/pkg/export"
	"github.com/reformcases/portfolio-api/pkg/jobs"
	"github.com/reformcases/portfolio-api/pkg/logger"
	corsmiddleware "github.com/reformcases/portfolio-api/pkg/middleware/cors"
	reqidmiddleware "github.com/reformcases/portfolio-api/pkg/middleware/requestid"
	"github.com/reformcases/portfolio-api/pkg/storage"
)

// caseBackend is the union of case-store capabilities the services consume.
// Both the in-memory and the postgres repository satisfy it.
type caseBackend interface {
	Create(ctx context.Context, c *models.Case) error
	GetByID(ctx context.Context, id int64) (*models.Case, error)
	List(ctx context.Context, filter models.CaseFilter) ([]models.Case, error)
	Update(ctx context.Context, id int64, params repository.UpdateCaseParams) error
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context, companyID string) (models.CaseCounts, error)
	ListDueReminders(ctx context.Context, now time.Time, limit int) ([]models.Case, error)
}

type userBackend interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByCompanyID(ctx context.Context, companyID string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error
}

type companyBackend interface {
	Create(ctx context.Context, c *models.Company) error
	GetByID(ctx context.Context, id string) (*models.Company, error)
	List(ctx context.Context, search string) ([]models.Company, error)
	IncrementCaseCount(ctx context.Context, id string, delta int) error
}

type generationBackend interface {
	Create(ctx context.Context, job *models.GenerationJob) error
	GetByID(ctx context.Context, id string) (*models.GenerationJob, error)
	Update(ctx context.Context, id string, params repository.UpdateGenerationJobParams) error
}

type backends struct {
	cases       caseBackend
	users       userBackend
	companies   companyBackend
	generations generationBackend
}

// @title Reform Cases API
// @version 1.0.0
// @description Case portfolio and public portal backend for reform contractors
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := buildBackends(ctx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init store", "driver", cfg.Store, "error", err)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	cacheSvc := buildCache(cfg, metricsSvc, logr)

	authSvc := service.NewAuthService(stores.users, stores.companies, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	caseSvc := service.NewCaseService(stores.cases, stores.companies, validate, logr, service.CaseServiceConfig{
		RequireAfterImage: cfg.Publish.RequireAfterImage,
	})

	dashboardSvc := service.NewDashboardService(stores.cases, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	portalSvc := service.NewPortalService(stores.cases, stores.companies, cacheSvc, cfg.Portal.CacheTTL, logr)
	notificationSvc := service.NewNotificationService(logr)

	generator := service.NewTemplateGenerator(cfg.Generator.Delay)
	generationWorker := service.NewGenerationWorker(stores.generations, stores.cases, generator, dashboardSvc, portalSvc, logr)
	generationQueue := jobs.NewQueue("generation", generationWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Generator.WorkerConcurrency,
		MaxRetries: cfg.Generator.WorkerRetries,
		Logger:     logr,
	})
	generationQueue.Start(ctx)
	defer generationQueue.Stop()
	generationSvc := service.NewGenerationService(stores.generations, stores.cases, generationQueue, logr)

	exportSvc := service.NewExportService(stores.cases, service.ExportConfig{MaxCases: cfg.Exports.MaxCases}, logr,
		export.NewCSVExporter(), export.NewPDFExporter())

	fileStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "dir", cfg.Uploads.StorageDir, "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	uploadSvc := service.NewUploadService(fileStore, signer, service.UploadConfig{
		APIPrefix:        cfg.APIPrefix,
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
	}, logr)
	uploadSvc.StartCleanup(ctx)

	if cfg.Reminders.Enabled {
		reminderSvc := service.NewReminderService(stores.cases, stores.users, notificationSvc, logr, service.ReminderServiceConfig{
			SweepInterval: cfg.Reminders.SweepInterval,
		})
		reminderSvc.Start(ctx)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/snapshot", metricsHandler.Snapshot)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	caseHandler := handler.NewCaseHandler(caseSvc, exportSvc, dashboardSvc, portalSvc)
	generationHandler := handler.NewGenerationHandler(generationSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	portalHandler := handler.NewPortalHandler(portalSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	uploadHandler := handler.NewUploadHandler(uploadSvc)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", internalmiddleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", internalmiddleware.JWT(authSvc), authHandler.Me)

	portal := api.Group("/portal")
	portal.GET("/cases", portalHandler.ListCases)
	portal.GET("/cases/:id", portalHandler.GetCase)
	portal.GET("/companies", portalHandler.ListCompanies)
	portal.GET("/companies/:id", portalHandler.GetCompany)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	cases := secured.Group("/cases")
	cases.GET("", caseHandler.List)
	cases.POST("", caseHandler.Create)
	if cfg.Exports.Enabled {
		cases.GET("/export", caseHandler.Export)
	}
	cases.POST("/wizard/validate", caseHandler.ValidateWizard)
	cases.GET("/:id", caseHandler.Get)
	cases.PUT("/:id", caseHandler.Update)
	cases.DELETE("/:id", caseHandler.Delete)
	cases.POST("/:id/publish", caseHandler.Publish)

	secured.POST("/generations", generationHandler.Create)
	secured.GET("/generations/:id", generationHandler.Status)

	secured.GET("/dashboard", dashboardHandler.Overview)

	secured.GET("/notifications", notificationHandler.List)
	secured.POST("/notifications/:id/read", notificationHandler.MarkRead)
	secured.DELETE("/notifications/:id", notificationHandler.Dismiss)

	secured.POST("/uploads", uploadHandler.Upload)
	api.GET("/files/*path", uploadHandler.GetFile)
	api.GET("/workorders/:token", uploadHandler.GetWorkOrder)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}

// buildBackends selects the repository set. The in-memory store boots with
// demo data; postgres is for real deployments.
func buildBackends(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*backends, error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		return &backends{
			cases:       repository.NewCaseRepository(db),
			users:       repository.NewUserRepository(db),
			companies:   repository.NewCompanyRepository(db),
			generations: repository.NewGenerationRepository(db),
		}, nil
	case config.StoreMemory:
		cases := repository.NewMemoryCaseRepository()
		users := repository.NewMemoryUserRepository()
		companies := repository.NewMemoryCompanyRepository()
		if err := repository.SeedDemoData(ctx, cases, companies, users); err != nil {
			return nil, err
		}
		logr.Sugar().Infow("memory store seeded", "demoUser", repository.DemoUserEmail)
		return &backends{
			cases:       cases,
			users:       users,
			companies:   companies,
			generations: repository.NewMemoryGenerationRepository(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store)
	}
}

// buildCache wires the redis-backed cache when any cached surface is on.
// Services tolerate a disabled cache, so redis failures only cost speed.
func buildCache(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) *service.CacheService {
	enabled := cfg.Portal.CacheEnabled || cfg.Dashboard.CacheEnabled
	if !enabled {
		return service.NewCacheService(nil, metrics, 0, logr, false)
	}

	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		return service.NewCacheService(nil, metrics, 0, logr, false)
	}
	return service.NewCacheService(repository.NewCacheRepository(client, logr), metrics, 0, logr, true)
}
