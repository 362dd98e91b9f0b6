package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jasperedu/jasper-backend/internal/handlers"
	"github.com/jasperedu/jasper-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	TracingEnabled bool

	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	ChatHandler    *handlers.ChatHandler
	SSEHandler     *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	if cfg.TracingEnabled {
		serviceName := strings.TrimSpace(cfg.ServiceName)
		if serviceName == "" {
			serviceName = "jasper-backend"
		}
		router.Use(otelgin.Middleware(serviceName))
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
		api.POST("/refresh", cfg.AuthHandler.Refresh)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/api/logout", cfg.AuthHandler.Logout)
	// Chat
	protected.POST("/api/conversations", cfg.ChatHandler.CreateConversation)
	protected.GET("/api/conversations", cfg.ChatHandler.ListConversations)
	protected.GET("/api/conversations/:id/messages", cfg.ChatHandler.ListMessages)
	protected.POST("/api/conversations/:id/messages", cfg.ChatHandler.SendMessage)
	protected.DELETE("/api/conversations/:id", cfg.ChatHandler.DeleteConversation)
	// SSE
	protected.GET("/sse/stream", cfg.SSEHandler.Stream)

	return router
}
