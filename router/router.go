package router

import (
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/feedreel/feedreel/controllers"
	"github.com/feedreel/feedreel/middlewares"
)

func InitRouter() *gin.Engine {
	r := gin.Default()

	allowedOrigins := []string{"http://localhost:5173", "http://localhost:8080"}
	if raw := os.Getenv("FRONTEND_ORIGINS"); raw != "" {
		split := strings.Split(raw, ",")
		allowedOrigins = allowedOrigins[:0]
		for _, v := range split {
			trimmed := strings.TrimSpace(v)
			if trimmed != "" {
				allowedOrigins = append(allowedOrigins, trimmed)
			}
		}
		if len(allowedOrigins) == 0 {
			allowedOrigins = []string{"*"}
		}
	}

	allowCreds := true
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		allowCreds = false
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCreds,
		MaxAge:           12 * time.Hour,
	}))

	// Public health endpoint for liveness/readiness checks
	r.GET("/api/health", controllers.Health)

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", controllers.Login)
		auth.POST("/register", controllers.Register)
	}

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())
	{
		api.GET("/entries", controllers.GetEntries)
		api.GET("/entries/search", controllers.SearchEntries)
		api.GET("/entries/count", controllers.CountEntries)
		api.POST("/entries/saved", controllers.CreateSavedEntry)
		api.POST("/entries/mark-read", controllers.MarkEntriesRead)
		api.GET("/entries/:id", controllers.GetEntryByID)
		api.POST("/entries/:id/star", controllers.UpdateEntryStarred)

		api.POST("/subscriptions", controllers.CreateSubscription)
		api.GET("/subscriptions", controllers.GetSubscriptions)
		api.DELETE("/subscriptions/:id", controllers.DeleteSubscription)
		api.POST("/subscriptions/:id/tags", controllers.AttachTag)
		api.DELETE("/subscriptions/:id/tags/:tagId", controllers.DetachTag)

		api.POST("/tags", controllers.CreateTag)
		api.GET("/tags", controllers.GetTags)
		api.DELETE("/tags/:id", controllers.DeleteTag)

		// Internal surface for the fetching pipeline.
		api.POST("/ingest/entries", controllers.IngestEntries)
	}

	return r
}
