package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/customeros/cardstack/api/handlers"
	"github.com/customeros/cardstack/api/middleware"
	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/internal/repository"
	"github.com/customeros/cardstack/internal/tracing"
	"github.com/customeros/cardstack/services"
)

const (
	AppSource    = "cardstack"
	APIKeyHeader = "X-CARDSTACK-API-KEY"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, cfg *config.Config, s *services.Services, repos *repository.Repositories) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	apiHandlers := handlers.InitHandlers(cfg.ImportConfig, s, repos)

	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/v1")
	api.Use(middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  APIKeyHeader,
		ValidAPIKey: cfg.AppConfig.APIKey,
	}))
	api.Use(middleware.TenantValidationMiddleware())
	api.Use(middleware.UserIdMiddleware())
	api.Use(middleware.CustomContextMiddleware(AppSource))
	api.Use(middleware.TracingMiddleware())
	{
		contacts := api.Group("/contacts")
		{
			contacts.GET("", apiHandlers.Contacts.List())
			contacts.GET("/:id", apiHandlers.Contacts.Get())
			contacts.PATCH("/:id", apiHandlers.Contacts.Update())
			contacts.DELETE("/:id", apiHandlers.Contacts.Delete())
			contacts.POST("/bulk-delete", apiHandlers.Contacts.BulkDelete())
		}

		api.POST("/cards", apiHandlers.Contacts.UploadCard())

		imports := api.Group("/imports")
		{
			imports.POST("", apiHandlers.Imports.Upload())
			imports.GET("", apiHandlers.Imports.List())
		}

		outreach := api.Group("/outreach")
		{
			outreach.GET("/generate/:id", apiHandlers.Outreach.Generate())
			outreach.POST("/rewrite", apiHandlers.Outreach.Rewrite())
			outreach.POST("/send", apiHandlers.Outreach.Send())
			outreach.POST("/dispatch", apiHandlers.Outreach.Dispatch())
			outreach.GET("/quota", apiHandlers.Outreach.Quota())
			outreach.GET("/mail-metrics", apiHandlers.Outreach.MailMetrics())
		}

		history := api.Group("/history")
		{
			history.GET("", apiHandlers.History.List())
			history.POST("/bulk-delete", apiHandlers.History.BulkDelete())
		}
	}
}
