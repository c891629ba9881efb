package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/mechanic-backend/internal/config"
	"github.com/ignatzorin/mechanic-backend/internal/http/handlers"
	"github.com/ignatzorin/mechanic-backend/internal/http/middleware"
	"github.com/ignatzorin/mechanic-backend/internal/models"
	"github.com/ignatzorin/mechanic-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	mechanicHandler *handlers.MechanicHandler,
	requestHandler *handlers.RequestHandler,
	walletHandler *handlers.WalletHandler,
	vehicleHandler *handlers.VehicleHandler,
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

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Публичные маршруты: поиск механиков по карте и справочник категорий.
	// Поиск идёт без авторизации, поэтому тоже ограничен по частоте.
	searchRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit*6, cfg.RateLimitPeriod)
	api.GET("/mechanics/nearby", searchRateLimit, mechanicHandler.Nearby)
	api.GET("/mechanics/categories", mechanicHandler.Categories)
	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", authHandler.Profile)
		protected.PUT("/profile", authHandler.UpdateProfile)

		protected.GET("/notifications", notificationHandler.List)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)

		// Клиентская сторона заявки.
		customer := protected.Group("/")
		customer.Use(middleware.RequireRole(models.RoleCustomer))
		{
			customer.POST("/vehicles", vehicleHandler.Create)
			customer.GET("/vehicles", vehicleHandler.List)
			customer.DELETE("/vehicles/:id", middleware.UUIDValidator("id"), vehicleHandler.Delete)

			customer.POST("/service-requests", requestHandler.Create)
			customer.PUT("/service-requests/:id/cancel", middleware.UUIDValidator("id"), requestHandler.Cancel)
			customer.PUT("/service-requests/:id/complete", middleware.UUIDValidator("id"), requestHandler.CompleteByCustomer)
		}

		// Список и карточка заявки доступны обеим сторонам: клиент видит
		// свои заявки, механик — назначенные ему.
		protected.GET("/service-requests", requestHandler.List)
		protected.GET("/service-requests/:id", middleware.UUIDValidator("id"), requestHandler.Get)

		// Сторона механика.
		mechanic := protected.Group("/")
		mechanic.Use(middleware.RequireRole(models.RoleMechanic))
		{
			mechanic.GET("/mechanics/me", mechanicHandler.MyProfile)
			mechanic.PUT("/mechanics/availability", mechanicHandler.UpdateAvailability)
			mechanic.PUT("/mechanics/location", mechanicHandler.UpdateLocation)

			mechanic.GET("/mechanics/requests", requestHandler.ListAssigned)
			mechanic.PUT("/mechanics/requests/:id/accept", middleware.UUIDValidator("id"), requestHandler.Accept)
			mechanic.PUT("/mechanics/requests/:id/decline", middleware.UUIDValidator("id"), requestHandler.Decline)
			mechanic.PUT("/mechanics/requests/:id/arrived", middleware.UUIDValidator("id"), requestHandler.Arrive)
			mechanic.PUT("/mechanics/requests/:id/complete", middleware.UUIDValidator("id"), requestHandler.CompleteByMechanic)

			mechanic.GET("/mechanic/wallet", walletHandler.Wallet)
			mechanic.POST("/mechanic/wallet/withdraw", walletHandler.Withdraw)
			mechanic.GET("/mechanic/stats", mechanicHandler.Stats)
		}
	}

	return r
}
