package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/ignatzorin/mechanic-backend/internal/config"
	"github.com/ignatzorin/mechanic-backend/internal/db"
	"github.com/ignatzorin/mechanic-backend/internal/geo"
	httpHandlers "github.com/ignatzorin/mechanic-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/mechanic-backend/internal/http/router"
	"github.com/ignatzorin/mechanic-backend/internal/logger"
	"github.com/ignatzorin/mechanic-backend/internal/repository"
	"github.com/ignatzorin/mechanic-backend/internal/service"
	"github.com/ignatzorin/mechanic-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Redis опционален: без него поиск механиков работает полным сканом по базе.
	var rdb *redis.Client
	var geoIndex service.GeoIndex
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.WithComponent("main").Warnf("redis недоступен (%v), гео-индекс отключён", err)
			_ = rdb.Close()
			rdb = nil
		} else {
			geoIndex = geo.NewLocationIndex(rdb)
		}
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	mechanicRepo := repository.NewMechanicRepository(dbConn)
	catalogRepo := repository.NewCatalogRepository(dbConn)
	vehicleRepo := repository.NewVehicleRepository(dbConn)
	requestRepo := repository.NewRequestRepository(dbConn)
	walletRepo := repository.NewWalletRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()

	// Сервисы.
	authService := service.NewAuthService(userRepo, mechanicRepo, tokenManager)
	mechanicService := service.NewMechanicService(mechanicRepo, catalogRepo, geoIndex, cfg.DefaultRadiusKm)
	walletService := service.NewWalletService(walletRepo)
	ratingService := service.NewRatingService(mechanicRepo)
	notificationService := service.NewNotificationService(notificationRepo, hub)
	vehicleService := service.NewVehicleService(vehicleRepo)
	requestService := service.NewRequestService(requestRepo, vehicleRepo, mechanicRepo, walletService, ratingService, notificationService)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	mechanicHandler := httpHandlers.NewMechanicHandler(mechanicService)
	requestHandler := httpHandlers.NewRequestHandler(requestService)
	walletHandler := httpHandlers.NewWalletHandler(walletService)
	vehicleHandler := httpHandlers.NewVehicleHandler(vehicleService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn, rdb)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, mechanicHandler, requestHandler, walletHandler, vehicleHandler, notificationHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
