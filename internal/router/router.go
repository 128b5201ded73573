package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kuotechnology-ui/kindworld-backend/config"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/controller"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/middleware"
)

type Router struct {
	verificationController *controller.VerificationController
	adminController        *controller.AdminVerificationController
	deliveryController     *controller.DeliveryController
	notificationController *controller.NotificationController
	authMiddleware         *middleware.AuthMiddleware
	config                 *config.Config
}

func NewRouter(
	verificationController *controller.VerificationController,
	adminController *controller.AdminVerificationController,
	deliveryController *controller.DeliveryController,
	notificationController *controller.NotificationController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		verificationController: verificationController,
		adminController:        adminController,
		deliveryController:     deliveryController,
		notificationController: notificationController,
		authMiddleware:         authMiddleware,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware("/health"))
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "KindWorld API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		organizations := v1.Group("/organizations", r.authMiddleware.Authenticate())
		{
			organizations.POST("/:org_id/verification",
				r.authMiddleware.RequireRole(model.RoleNGO, model.RoleAdmin),
				r.verificationController.Submit,
			)
			organizations.GET("/:org_id/verification", r.verificationController.GetStatus)
		}

		admin := v1.Group("/admin",
			r.authMiddleware.Authenticate(),
			r.authMiddleware.RequireRole(model.RoleAdmin),
		)
		{
			verifications := admin.Group("/verifications")
			{
				verifications.GET("", r.adminController.List)
				verifications.GET("/stats", r.adminController.Stats)
				verifications.GET("/export", r.adminController.Export)
				verifications.GET("/:id", r.adminController.GetRequest)
				verifications.GET("/:id/audit", r.adminController.AuditTrail)
				verifications.GET("/:id/documents/:doc_id/url", r.adminController.DocumentURL)
				verifications.POST("/:id/approve", r.adminController.Approve)
				verifications.POST("/:id/reject", r.adminController.Reject)
				verifications.POST("/:id/request-documents", r.adminController.RequestDocuments)
			}

			deliveries := admin.Group("/deliveries")
			{
				deliveries.GET("", r.deliveryController.List)
				deliveries.POST("/:id/cancel", r.deliveryController.Cancel)
			}
		}

		notifications := v1.Group("/notifications", r.authMiddleware.Authenticate())
		{
			notifications.GET("", r.notificationController.GetNotifications)
			notifications.GET("/unread-count", r.notificationController.GetUnreadCount)
			notifications.PATCH("/read-all", r.notificationController.MarkAllAsRead)
			notifications.PATCH("/:id/read", r.notificationController.MarkAsRead)
			notifications.GET("/ws", r.notificationController.Stream)
		}

		users := v1.Group("/users", r.authMiddleware.Authenticate())
		{
			users.GET("/notification-preferences", r.notificationController.GetPreferences)
			users.PUT("/notification-preferences", r.notificationController.UpdatePreferences)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, X-Request-ID, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
