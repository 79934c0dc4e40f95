package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	deliveryHTTP "github.com/frontandrew/fleettrack/internal/delivery/http"
	"github.com/frontandrew/fleettrack/internal/infrastructure/mail"
	"github.com/frontandrew/fleettrack/internal/infrastructure/storage"
	"github.com/frontandrew/fleettrack/internal/pkg/config"
	"github.com/frontandrew/fleettrack/internal/pkg/csrf"
	"github.com/frontandrew/fleettrack/internal/pkg/database"
	"github.com/frontandrew/fleettrack/internal/pkg/jwt"
	"github.com/frontandrew/fleettrack/internal/pkg/logger"
	"github.com/frontandrew/fleettrack/internal/pkg/redis"
	"github.com/frontandrew/fleettrack/internal/repository/postgres"
	"github.com/frontandrew/fleettrack/internal/usecase/auth"
	"github.com/frontandrew/fleettrack/internal/usecase/maintenance"
	"github.com/frontandrew/fleettrack/internal/usecase/mileage"
	"github.com/frontandrew/fleettrack/internal/usecase/vehicle"
)

func main() {
	// =========================================================================
	// Загрузка конфигурации
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// =========================================================================
	// Инициализация logger
	// =========================================================================

	log := logger.New(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.Output)
	log.Info("Starting FleetTrack server", map[string]interface{}{
		"version":  "1.0.0",
		"base_url": cfg.Server.BaseURL,
	})

	// =========================================================================
	// Подключение к PostgreSQL
	// =========================================================================

	ctx := context.Background()
	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer database.Close(db)

	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatal("Failed to ensure database schema", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("Connected to PostgreSQL", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Database,
	})

	// =========================================================================
	// Подключение к Redis
	// =========================================================================

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer redisClient.Close()

	log.Info("Connected to Redis", map[string]interface{}{
		"host": cfg.Redis.Host,
		"port": cfg.Redis.Port,
	})

	// =========================================================================
	// Создание SMTP клиента
	// =========================================================================

	mailClient, err := mail.NewSMTPClient(&cfg.SMTP)
	if err != nil {
		log.Fatal("Failed to create SMTP client", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Недоступная почта не мешает запуску: письма важны, но не критичны
	if err := mailClient.Health(ctx); err != nil {
		log.Warn("SMTP server is not available", map[string]interface{}{
			"error": err.Error(),
			"host":  cfg.SMTP.Host,
		})
		log.Warn("Maintenance notices will be retried on next check")
	} else {
		log.Info("SMTP server is healthy", map[string]interface{}{
			"host": cfg.SMTP.Host,
		})
	}

	// =========================================================================
	// Хранилище фотографий одометра
	// =========================================================================

	photoStore, err := storage.NewPhotoStore(cfg.Upload.Dir)
	if err != nil {
		log.Fatal("Failed to create photo store", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("Photo store initialized", map[string]interface{}{
		"dir": cfg.Upload.Dir,
	})

	// =========================================================================
	// Создание repositories
	// =========================================================================

	vehicleRepo := postgres.NewVehicleRepository(db)
	tokenRepo := postgres.NewMileageTokenRepository(db)
	entryRepo := postgres.NewMileageEntryRepository(db)
	submissionRepo := postgres.NewSubmissionRepository(db)
	noticeRepo := postgres.NewNoticeRepository(db)

	log.Info("Repositories initialized")

	// =========================================================================
	// Сервисы безопасности: сессии и CSRF
	// =========================================================================

	tokenService := jwt.NewTokenService(cfg.Security.SecretKey, cfg.Security.SessionTTL)
	csrfService := csrf.NewService(cfg.Security.SecretKey, redisClient, cfg.Security.CSRFTTL)

	log.Info("Security services initialized")

	// =========================================================================
	// Создание use case services
	// =========================================================================

	maintenanceService := maintenance.NewService(noticeRepo, mailClient, cfg.SMTP.DispatcherEmail, log)
	mileageService := mileage.NewService(vehicleRepo, tokenRepo, entryRepo, submissionRepo,
		maintenanceService, mailClient, cfg.Server.BaseURL, log)
	vehicleService := vehicle.NewService(vehicleRepo, tokenRepo, entryRepo, maintenanceService, log)

	authService, err := auth.NewService(cfg.Auth.Username, cfg.Auth.Password, tokenService, log)
	if err != nil {
		log.Fatal("Failed to create auth service", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("Use case services initialized")

	// =========================================================================
	// Создание HTTP handlers
	// =========================================================================

	renderer, err := deliveryHTTP.NewRenderer(log)
	if err != nil {
		log.Fatal("Failed to parse templates", map[string]interface{}{
			"error": err.Error(),
		})
	}

	authHandler := deliveryHTTP.NewAuthHandler(authService, csrfService, renderer, log)
	vehicleHandler := deliveryHTTP.NewVehicleHandler(vehicleService, csrfService, renderer, log)
	mileageHandler := deliveryHTTP.NewMileageHandler(mileageService, photoStore, csrfService, renderer, log)

	log.Info("HTTP handlers initialized")

	// =========================================================================
	// Создание и настройка HTTP router
	// =========================================================================

	router := deliveryHTTP.NewRouter(
		authHandler,
		vehicleHandler,
		mileageHandler,
		tokenService,
		cfg,
		log,
	)

	handler := router.Setup()

	log.Info("HTTP router configured")

	// =========================================================================
	// Создание HTTP сервера
	// =========================================================================

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// =========================================================================
	// Запуск сервера в goroutine
	// =========================================================================

	serverErrors := make(chan error, 1)

	go func() {
		log.Info("FleetTrack server listening", map[string]interface{}{
			"address": srv.Addr,
		})
		serverErrors <- srv.ListenAndServe()
	}()

	// =========================================================================
	// Graceful shutdown
	// =========================================================================

	// Канал для получения сигналов операционной системы
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Блокируемся до получения сигнала или ошибки сервера
	select {
	case err := <-serverErrors:
		log.Fatal("Server error", map[string]interface{}{
			"error": err.Error(),
		})

	case sig := <-shutdown:
		log.Info("Shutdown signal received", map[string]interface{}{
			"signal": sig.String(),
		})

		// Даем серверу 30 секунд на graceful shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Graceful shutdown failed", map[string]interface{}{
				"error": err.Error(),
			})

			// Принудительное закрытие
			if err := srv.Close(); err != nil {
				log.Fatal("Failed to close server", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}

		log.Info("Server stopped gracefully")
	}
}
