package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"classpulse/internal/config"
	"classpulse/internal/http/controller"
	"classpulse/internal/http/middleware"
	"classpulse/internal/ws"
)

func NewRouter(cfg *config.Config, handler *controller.Handler, gateway *ws.Gateway, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.ZapLogger(logger),
		middleware.ZapRecovery(logger),
		otelgin.Middleware(cfg.OTELServiceName),
	)

	router.GET("/health", func(c *gin.Context) {
		c.Status(200)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", gateway.Handle)

	api := router.Group("/api", middleware.RequireAuth(cfg.JWTSecret))
	api.GET("/notifications", handler.ListNotifications)
	api.GET("/notifications/stats", handler.NotificationStats)
	api.PATCH("/notifications/read-all", handler.MarkAllRead)
	api.PATCH("/notifications/:id/read", handler.MarkRead)
	api.DELETE("/notifications/read", handler.DeleteRead)
	api.DELETE("/notifications/:id", handler.DeleteNotification)
	api.GET("/activity", handler.ActivityFeed)

	send := api.Group("",
		middleware.RequireSender(),
		middleware.RateLimit(rdb, cfg.RateLimit, cfg.RateLimitWindow, logger),
	)
	send.POST("/notifications", handler.CreateNotification)
	send.POST("/events/publish", handler.PublishEvent)

	return router
}
