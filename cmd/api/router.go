package api

import (
	"net/http"

	auditDelivery "studio-admin-backend/internal/audit/delivery"
	authDelivery "studio-admin-backend/internal/auth/delivery"
	messageDelivery "studio-admin-backend/internal/message/delivery"
	projectDelivery "studio-admin-backend/internal/project/delivery"
	"studio-admin-backend/pkg/sse"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, deps Dependencies, sseManager *sse.Manager) {
	authHandler := authDelivery.NewAuthHandler(deps.DeviceUsecase)
	projectHandler := projectDelivery.NewProjectHandler(deps.ProjectUsecase)
	messageHandler := messageDelivery.NewMessageHandler(deps.MessageUsecase)
	auditHandler := auditDelivery.NewAuditHandler(deps.AuditReader)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		protected := api.Group("")
		protected.Use(authDelivery.AuthMiddleware(deps.Verifier), authDelivery.RequireAdmin())

		// SSE endpoint
		protected.GET("/events", func(c *gin.Context) {
			sseManager.ServeHTTP(c, c.GetString("userID"))
		})

		protected.GET("/auth/me", authHandler.Me)

		devices := protected.Group("/devices")
		{
			devices.POST("", authHandler.RegisterDevice)
			devices.DELETE("/:token", authHandler.UnregisterDevice)
		}

		projects := protected.Group("/projects")
		{
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/sorted", projectHandler.GetSorted)
			projects.GET("/stats", projectHandler.GetStats)
			projects.GET("/activity", projectHandler.GetActivity)
			projects.GET("/search", projectHandler.Search)
			projects.POST("/refresh", projectHandler.Refresh)
			projects.PUT("/:id", projectHandler.UpdateProject)
			projects.PATCH("/:id/status", projectHandler.UpdateStatus)
			projects.DELETE("/:id", projectHandler.DeleteProject)
		}

		messages := protected.Group("/messages")
		{
			messages.GET("", messageHandler.GetMessages)
			messages.GET("/search", messageHandler.Search)
			messages.PATCH("/:id/read", messageHandler.SetRead)
			messages.POST("/refresh", messageHandler.Refresh)
		}

		protected.GET("/audit", auditHandler.GetEntries)
	}
}
