package routes

import (
	"time"

	"meetwise/handlers"
	"meetwise/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires every endpoint. Chat and records require a bearer
// token; token minting and health are open.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", hb.HealthHandler)
	r.POST("/api/auth/token", hb.IssueTokenHandler)

	api := r.Group("/api")
	api.Use(middleware.JWTAuthMiddleware())
	{
		api.POST("/chat", hb.ChatHandler)
		api.GET("/chat/session", hb.GetSessionHandler)
		api.DELETE("/chat/session", hb.ClearSessionHandler)

		api.GET("/records", hb.ListRecordsHandler)
		api.DELETE("/records/:id", hb.DeleteRecordHandler)
	}
}
