package routes

import (
	"time"

	"bloodlink/auth"
	"bloodlink/config"
	"bloodlink/handlers"
	"bloodlink/middleware"
	"bloodlink/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Dependencies struct {
	Config        *config.Config
	Verifier      auth.TokenVerifier
	Chat          *handlers.ChatHandler
	Notifications *handlers.NotificationHandler
	Health        *handlers.HealthHandler
	Socket        *ws.Handler
}

func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With", "X-Admin-Key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", deps.Health.Health)

	// Socket handshake carries the token itself; auth happens before the
	// upgrade inside the handler.
	router.GET("/ws", func(c *gin.Context) {
		deps.Socket.Serve(c.Writer, c.Request)
	})

	// Server-originated notifications from the rest of the portal.
	admin := router.Group("/api/admin")
	admin.Use(middleware.AdminKey(deps.Config.AdminKey))
	admin.POST("/notifications", deps.Notifications.Create)

	// User-facing reconciliation API.
	api := router.Group("/api/chat")
	api.Use(middleware.JWTAuth(deps.Verifier))
	api.Use(middleware.RateLimit(120, time.Minute))

	api.GET("/conversations", deps.Chat.ListConversations)
	api.POST("/start-conversation", deps.Chat.StartConversation)
	api.GET("/messages/:roomId", deps.Chat.GetMessages)
	api.POST("/messages", deps.Chat.SendMessage)
	api.DELETE("/messages/:messageId", deps.Chat.DeleteMessage)
	api.PUT("/messages/:roomId/read", deps.Chat.MarkRead)
	api.GET("/unread-count", deps.Chat.UnreadCount)
	api.GET("/search-users", deps.Chat.SearchUsers)
	api.GET("/notifications", deps.Notifications.List)
	api.PUT("/notifications/read", deps.Notifications.MarkRead)

	router.NoRoute(func(c *gin.Context) {
		if len(c.Request.URL.Path) >= 4 && c.Request.URL.Path[:4] == "/api" {
			c.JSON(404, gin.H{"error": "endpoint not found", "path": c.Request.URL.Path})
			return
		}
		c.Next()
	})

	return router
}
