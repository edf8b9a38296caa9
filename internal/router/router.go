// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/javajoker/move-permit-backend/internal/config"
	"github.com/javajoker/move-permit-backend/internal/handlers"
	"github.com/javajoker/move-permit-backend/internal/metrics"
	"github.com/javajoker/move-permit-backend/internal/middleware"
	"github.com/javajoker/move-permit-backend/internal/models"
	"github.com/javajoker/move-permit-backend/internal/services"
)

// Services are the collaborators the HTTP layer dispatches to.
type Services struct {
	Permits       *services.PermitService
	Queries       *services.PermitQueryService
	Notifications *services.NotificationService
}

// Initialize builds the engine. The returned stop function releases the
// background work of the rate limiters and must be called on shutdown.
func Initialize(db *gorm.DB, cfg *config.Config, svc Services) (*gin.Engine, func()) {
	// Initialize handlers
	permitHandler := handlers.NewPermitHandler(svc.Permits, svc.Queries)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)

	generalLimiter := middleware.NewRateLimiterFromConfig(cfg.RateLimit)
	uploadLimiter := middleware.NewRateLimiter(rate.Every(6*time.Second), 10)
	stop := func() {
		generalLimiter.Stop()
		uploadLimiter.Stop()
	}

	// Initialize Gin router
	r := gin.New()
	r.MaxMultipartMemory = cfg.Upload.MaxUploadBytes()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestMetrics())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(generalLimiter.Middleware())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		database := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = http.StatusServiceUnavailable
			database = "unavailable"
		}
		c.JSON(status, gin.H{
			"status":   http.StatusText(status),
			"database": database,
			"version":  "1.0.0",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	tenantOnly := middleware.RoleRequired(models.ActorRoleTenant)
	managers := middleware.RoleRequired(models.ActorRoleOwner, models.ActorRoleAdmin)

	// API v1 routes
	v1 := r.Group("/v1")
	{
		v1.GET("/permits/schema/:type", permitHandler.GetSchema)

		permits := v1.Group("/permits")
		permits.Use(middleware.AuthRequired())
		{
			// Tenant drafting
			permits.POST("", tenantOnly, permitHandler.CreatePermit)
			permits.GET("/mine", tenantOnly, permitHandler.ListMyPermits)
			permits.GET("/summary", tenantOnly, permitHandler.GetMySummary)
			permits.PATCH("/:id", tenantOnly, permitHandler.UpdatePermit)
			permits.PUT("/:id/documents/:slot", tenantOnly, permitHandler.SetDocument)
			permits.POST("/:id/documents/:slot/upload", tenantOnly, uploadLimiter.Middleware(), permitHandler.UploadDocument)
			permits.DELETE("/:id/documents/:slot", tenantOnly, permitHandler.ClearDocument)
			permits.POST("/:id/additional-documents", tenantOnly, permitHandler.AddAdditionalDocument)
			permits.DELETE("/:id/additional-documents/:index", tenantOnly, permitHandler.RemoveAdditionalDocument)
			permits.POST("/:id/vehicles", tenantOnly, permitHandler.AddVehicle)
			permits.DELETE("/:id/vehicles/:index", tenantOnly, permitHandler.RemoveVehicle)
			permits.POST("/:id/submit", tenantOnly, permitHandler.Transition(models.PermitCommandSubmit))
			permits.POST("/:id/cancel", tenantOnly, permitHandler.Transition(models.PermitCommandCancel))

			// Shared reads, scoped by the service
			permits.GET("/:id", permitHandler.GetPermit)
			permits.GET("/:id/validation", permitHandler.ValidatePermit)
			permits.GET("/:id/events", permitHandler.GetEvents)

			// Review
			permits.POST("/:id/begin-review", managers, permitHandler.Transition(models.PermitCommandBeginReview))
			permits.POST("/:id/approve", managers, permitHandler.Transition(models.PermitCommandApprove))
			permits.POST("/:id/reject", managers, permitHandler.Transition(models.PermitCommandReject))
			permits.POST("/:id/complete", managers, permitHandler.Transition(models.PermitCommandComplete))
		}

		manager := v1.Group("/manager")
		manager.Use(middleware.AuthRequired(), managers)
		{
			manager.GET("/permits", permitHandler.ListManagedPermits)
			manager.GET("/permits/summary", permitHandler.GetManagerSummary)
		}

		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
		}
	}

	// Static file serving for the local upload store
	if cfg.Environment == "development" && cfg.AWS.AccessKeyID == "" {
		r.Static("/uploads", cfg.Upload.LocalDir)
	}

	return r, stop
}
