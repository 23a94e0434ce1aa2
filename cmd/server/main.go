package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tradeclub/escrow-backend/internal/config"
	"github.com/tradeclub/escrow-backend/internal/custody"
	"github.com/tradeclub/escrow-backend/internal/db"
	"github.com/tradeclub/escrow-backend/internal/goroutine"
	httpHandlers "github.com/tradeclub/escrow-backend/internal/http/handlers"
	httpRouter "github.com/tradeclub/escrow-backend/internal/http/router"
	"github.com/tradeclub/escrow-backend/internal/logger"
	"github.com/tradeclub/escrow-backend/internal/repository"
	"github.com/tradeclub/escrow-backend/internal/service"
	"github.com/tradeclub/escrow-backend/internal/ws"
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

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	// Репозитории.
	dealRepo := repository.NewDealRepository(dbConn)
	messageRepo := repository.NewMessageRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Леджер: боевой на Postgres либо in-memory для разработки.
	var funds service.FundCustody
	var wallet httpHandlers.Wallet
	if cfg.LedgerMode == config.LedgerMemory {
		mem := custody.NewMemoryLedger()
		funds, wallet = mem, mem
		log.Printf("main: леджер работает в памяти, остатки не переживут рестарт")
	} else {
		ledgerRepo := repository.NewLedgerRepository(dbConn)
		funds, wallet = ledgerRepo, ledgerRepo
	}

	// Сервисы.
	escrowService := service.NewEscrowService(dealRepo, messageRepo, funds, cfg.FeeAccountID, cfg.CommissionRate, cfg.CustodyTimeout)
	messageService := service.NewMessageService(dealRepo, messageRepo)
	notificationService := service.NewNotificationService(notificationRepo)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	goroutine.SafeGo(hub.Run)

	escrowService.SetHub(hub)
	messageService.SetHub(hub)

	// HTTP хэндлеры.
	dealHandler := httpHandlers.NewDealHandler(escrowService, messageService)
	adminHandler := httpHandlers.NewAdminHandler(escrowService)
	walletHandler := httpHandlers.NewWalletHandler(wallet)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn, cfg.LedgerMode)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, dealHandler, adminHandler, walletHandler, notificationHandler, wsHandler, healthHandler, tokenManager)

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
