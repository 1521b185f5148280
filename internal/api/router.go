package api

import (
	"net/http"

	"advising_queue/internal/handlers"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Routes is everything the router mounts.
type Routes struct {
	Queue   *handlers.QueueHandler
	Admin   *handlers.AdminHandler
	Health  *handlers.HealthHandler
	Stream  Stream
	Admins  gin.HandlerFunc
	Metrics http.Handler
}

type Stream interface {
	QueueWebSocketHandler(c *gin.Context)
	AdminWebSocketHandler(c *gin.Context)
}

// SetupAPIRoutes
// @title						Advising Queue
// @version					1.0.0
// @description				First-come-first-served advising queues with live positions
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func (s *Server) SetupAPIRoutes(routes Routes) {
	r := s.engine

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if routes.Metrics != nil {
		r.GET("/metrics", gin.WrapH(routes.Metrics))
	}

	api := r.Group("/api")
	api.GET("/health", routes.Health.Health)
	api.GET("/queues", routes.Queue.ListQueues)

	queueGroup := api.Group("/queue")
	{
		queueGroup.POST("", routes.Queue.Join)
		queueGroup.GET("", routes.Queue.ListActive)
		queueGroup.GET("/mine", routes.Queue.Mine)
		queueGroup.GET("/:queueId/status", routes.Queue.Status)
		queueGroup.POST("/:queueId/defer", routes.Queue.Defer)
		queueGroup.DELETE("/:queueId/leave", routes.Queue.Leave)
		queueGroup.GET("/:queueId/ws", routes.Stream.QueueWebSocketHandler)
	}

	adminGroup := api.Group("/admin")
	adminGroup.Use(routes.Admins)
	{
		adminGroup.GET("/entries", routes.Admin.Entries)
		adminGroup.GET("/export", routes.Admin.Export)
		adminGroup.POST("/entries/:id/complete", routes.Admin.Complete)
		adminGroup.POST("/entries/:id/notify", routes.Admin.Notify)
		adminGroup.POST("/entries/:id/noshow", routes.Admin.MarkNoShow)
		adminGroup.DELETE("/entries/:id/noshow", routes.Admin.CancelNoShow)
		adminGroup.DELETE("/entries/:id", routes.Admin.Delete)
		adminGroup.GET("/ws", routes.Stream.AdminWebSocketHandler)
	}
}
