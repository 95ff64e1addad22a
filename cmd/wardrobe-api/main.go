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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/stylistiq/wardrobe-api/api/swagger"
	"github.com/stylistiq/wardrobe-api/internal/handler"
	"github.com/stylistiq/wardrobe-api/internal/matcher"
	"github.com/stylistiq/wardrobe-api/internal/middleware"
	"github.com/stylistiq/wardrobe-api/internal/models"
	"github.com/stylistiq/wardrobe-api/internal/repository"
	"github.com/stylistiq/wardrobe-api/internal/service"
	"github.com/stylistiq/wardrobe-api/pkg/cache"
	"github.com/stylistiq/wardrobe-api/pkg/config"
	"github.com/stylistiq/wardrobe-api/pkg/database"
	"github.com/stylistiq/wardrobe-api/pkg/export"
	"github.com/stylistiq/wardrobe-api/pkg/jobs"
	"github.com/stylistiq/wardrobe-api/pkg/logger"
	corsmiddleware "github.com/stylistiq/wardrobe-api/pkg/middleware/cors"
	reqidmiddleware "github.com/stylistiq/wardrobe-api/pkg/middleware/requestid"
	"github.com/stylistiq/wardrobe-api/pkg/storage"
)

// @title Wardrobe Matching API
// @version 1.0.0
// @description Color-harmony outfit matching over a personal wardrobe
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const requestTimeout = 3 * time.Second

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

	if err := database.Migrate(cfg.Database); err != nil {
		logr.Fatal("migrations failed", zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Redis only backs anonymous-session bookkeeping; the API still
		// works without it, trusting well-formed cookie tokens.
		logr.Warn("redis unavailable, anonymous sessions run unchecked", zap.Error(err))
		redisClient = nil
	}

	files, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Fatal("failed to init upload storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()

	itemRepo := repository.NewItemRepository(db)
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	imageQueue := jobs.NewQueue("image-cleanup", func(ctx context.Context, job jobs.Job) error {
		return files.Delete(job.Payload)
	}, jobs.QueueConfig{
		Workers:    cfg.Cleanup.WorkerConcurrency,
		MaxRetries: cfg.Cleanup.WorkerRetries,
		Logger:     logr,
	})

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "wardrobe-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	identitySvc := service.NewIdentityService(sessionRepo, logr, cfg.Quota.AnonymousItemTTL)
	quotaSvc := service.NewQuotaService(itemRepo, logr, cfg.Quota.FreeTierItemCap)
	wardrobeSvc := service.NewWardrobeService(itemRepo, files, signer, quotaSvc, matcher.NewSelector(nil), metricsSvc, imageQueue, validate, logr, service.WardrobeConfig{
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
		AnonymousItemTTL: cfg.Quota.AnonymousItemTTL,
		ImageBasePath:    cfg.APIPrefix + "/images",
	})
	exportSvc := service.NewExportService(itemRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authSvc, userSvc)
	wardrobeHandler := handler.NewWardrobeHandler(wardrobeSvc)
	imageHandler := handler.NewImageHandler(signer, files)
	exportHandler := handler.NewExportHandler(exportSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	principalCfg := middleware.PrincipalConfig{
		CookieName:    cfg.Quota.SessionCookie,
		SecureCookies: cfg.Env == config.EnvProduction,
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Timeout(requestTimeout))
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		}

		users := api.Group("/users", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
		{
			users.PUT("/:id/verified", authHandler.SetVerified)
		}

		wardrobe := api.Group("/wardrobe", middleware.OptionalJWT(authSvc), middleware.Principal(identitySvc, principalCfg))
		{
			wardrobe.POST("/items", wardrobeHandler.Upload)
			wardrobe.GET("/items", wardrobeHandler.List)
			wardrobe.DELETE("/items/:id", wardrobeHandler.Delete)
			wardrobe.GET("/match", wardrobeHandler.Match)
			wardrobe.GET("/limits/:category", wardrobeHandler.Limits)
		}

		// Registered outside the wardrobe group: export requires a verified
		// account, so the anonymous session resolver must never run before
		// the JWT gate rejects unauthenticated callers.
		api.GET("/wardrobe/export", middleware.JWT(authSvc), middleware.RequireVerifiedClient(), middleware.Principal(identitySvc, principalCfg), exportHandler.Export)

		api.GET("/images/:token", imageHandler.Serve)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	imageQueue.Start(rootCtx)
	defer imageQueue.Stop()

	go sweepExpiredItems(rootCtx, cfg.Cleanup.SweepInterval, itemRepo, imageQueue, metricsSvc, logr)

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

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// sweepExpiredItems periodically removes anonymous items whose 7-day window
// has passed, queueing their image files for deletion.
func sweepExpiredItems(ctx context.Context, interval time.Duration, items *repository.ItemRepository, queue *jobs.Queue, metrics *service.MetricsService, logr *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
			refs, err := items.DeleteExpired(sweepCtx, time.Now().UTC())
			cancel()
			if err != nil {
				logr.Warn("expired item sweep failed", zap.Error(err))
				continue
			}
			for _, ref := range refs {
				if err := queue.Enqueue(jobs.Job{Type: "image_delete", Payload: ref}); err != nil {
					logr.Warn("failed to queue image removal", zap.String("image_ref", ref), zap.Error(err))
				}
			}
			if len(refs) > 0 {
				metrics.RecordExpiredSweep(len(refs))
				logr.Info("expired items swept", zap.Int("count", len(refs)))
			}
		}
	}
}
