package router

import (
	"github.com/gin-gonic/gin"

	"github.com/tradeclub/escrow-backend/internal/config"
	"github.com/tradeclub/escrow-backend/internal/http/handlers"
	"github.com/tradeclub/escrow-backend/internal/http/middleware"
	"github.com/tradeclub/escrow-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	dealHandler *handlers.DealHandler,
	adminHandler *handlers.AdminHandler,
	walletHandler *handlers.WalletHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	api.GET("/ws", wsHandler.Handle)

	auth := middleware.AuthMiddleware(tokenManager, cfg.TrustUserHeader)

	// Диспетчер сделок: мутирующие действия под rate limit'ом, чтение без него.
	escrow := api.Group("/escrow")
	escrow.Use(auth)
	{
		escrow.POST("", middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod), dealHandler.Dispatch)
		escrow.GET("", dealHandler.Query)
	}

	wallet := api.Group("/wallet")
	wallet.Use(auth)
	{
		wallet.GET("/balance", walletHandler.GetBalance)
		wallet.POST("/deposit", walletHandler.Deposit)
		wallet.GET("/transactions", walletHandler.ListTransactions)
	}

	notifications := api.Group("/notifications")
	notifications.Use(auth)
	{
		notifications.GET("", notificationHandler.ListNotifications)
		notifications.GET("/unread/count", notificationHandler.CountUnread)
		notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
		notifications.PUT("/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
	}

	admin := api.Group("/admin")
	admin.Use(auth, middleware.AdminMiddleware(cfg.AdminKeyHash))
	{
		admin.GET("/disputes", adminHandler.ListDisputes)
		admin.GET("/disputes/:id", middleware.UUIDValidator("id"), adminHandler.GetDispute)
		admin.POST("/disputes/:id/resolve", middleware.UUIDValidator("id"), adminHandler.ResolveDispute)
	}

	return r
}
