package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "classsite/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"classsite/internal/auth"
	"classsite/internal/cache"
	"classsite/internal/config"
	"classsite/internal/db"
	"classsite/internal/handler"
	"classsite/internal/logging"
	"classsite/internal/media"
	"classsite/internal/metrics"
	"classsite/internal/model"
	"classsite/internal/repository"
	"classsite/internal/router"
	"classsite/internal/service"
)

//go:generate swag init -d ../.. -g cmd/server/main.go -o ../../docs

// @title Class Website API
// @version 1.0
// @description Class website backend with account lockout, role based access and content management.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	cfg := config.Load()
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.Auth.JWTSecret == "change-me" {
		log.Warn("JWT_SECRET is not set, using the built-in development secret")
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	ledger := newLedger(cfg, gormDB, cacheClient, log)
	store := newMediaStore(cfg, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("classsite", registry)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	settingRepo := repository.NewSettingRepository(gormDB)

	// Initialize auth components
	hasher := auth.NewBcryptHasher(0)
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, ledger, hasher, jwtService, tokenStore, log, m, service.AuthOptions{
		Policy:         cfg.Auth.Lockout,
		StorageTimeout: cfg.Auth.StorageTimeout,
	})
	userService := service.NewUserService(userRepo, ledger, hasher, log, cfg.Auth.PasswordMinLength)
	siteService := service.NewSiteService(settingRepo, store, log)

	if cfg.Auth.BootstrapAdmin {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := userService.EnsureAdmin(ctx, cfg.Auth.AdminAccount, cfg.Auth.AdminDefaultPassword); err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		cancel()
	}

	// Initialize handlers
	handlers := router.Handlers{
		Auth:   handler.NewAuthHandler(authService, cfg.Auth.CookieSecure),
		Users:  handler.NewUserHandler(userService),
		Site:   handler.NewSiteHandler(siteService),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{"database": pingDB(gormDB)}),
		Announcements: handler.NewContentHandler(service.NewContentService(
			repository.NewContentRepository[model.Announcement](gormDB, "updated_at desc"), log, "announcement")),
		Assignments: handler.NewContentHandler(service.NewContentService(
			repository.NewContentRepository[model.Assignment](gormDB, "created_at desc"), log, "assignment")),
		Resources: handler.NewContentHandler(service.NewContentService(
			repository.NewContentRepository[model.Resource](gormDB, "created_at desc"), log, "resource")),
		Gallery: handler.NewGalleryHandler(service.NewGalleryService(
			repository.NewContentRepository[model.GalleryItem](gormDB, "created_at desc"), store, log)),
		Rules: handler.NewContentHandler(service.NewContentService(
			repository.NewContentRepository[model.Rule](gormDB, "created_at desc"), log, "rule")),
	}

	e := echo.New()
	e.HideBanner = true

	// Register routes
	router.Register(e, cfg, handlers, authService, registry)

	log.Infof("Swagger documentation available at: %s", swaggerURL(cfg))

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
}

func newLedger(cfg *config.Config, gormDB *gorm.DB, cacheClient *cache.Client, log *logrus.Logger) repository.LoginAttemptRepository {
	switch cfg.Auth.LedgerBackend {
	case config.LedgerRedis:
		log.Info("login attempt ledger: redis")
		return repository.NewRedisLoginAttemptRepository(cacheClient.Redis())
	case config.LedgerMemory:
		log.Warn("login attempt ledger: memory, lockouts are not shared between instances")
		return repository.NewMemoryLoginAttemptRepository()
	default:
		log.Info("login attempt ledger: database")
		return repository.NewLoginAttemptRepository(gormDB)
	}
}

func newMediaStore(cfg *config.Config, log *logrus.Logger) media.Store {
	if cfg.Media.Backend == config.MediaMinIO {
		store, err := media.NewMinIOStore(media.MinIOConfig{
			Endpoint:  cfg.Media.MinIOEndpoint,
			AccessKey: cfg.Media.MinIOAccessKey,
			SecretKey: cfg.Media.MinIOSecretKey,
			Bucket:    cfg.Media.MinIOBucket,
			UseSSL:    cfg.Media.MinIOUseSSL,
			PublicURL: cfg.Media.MinIOPublicURL,
		})
		if err != nil {
			log.Fatalf("minio init: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatalf("minio bucket: %v", err)
		}
		return store
	}

	store, err := media.NewLocalStore(cfg.Media.Dir, "/media")
	if err != nil {
		log.Fatalf("media dir: %v", err)
	}
	return store
}

func pingDB(gormDB *gorm.DB) handler.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := gormDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
