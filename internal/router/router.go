package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"order-realtime/internal/config"
	"order-realtime/internal/handlers"
	"order-realtime/internal/middleware"
	"order-realtime/internal/observability"
	"order-realtime/internal/telemetry"
	"order-realtime/internal/ws"
)

// Deps are the collaborators mounted on the engine.
type Deps struct {
	Gateway    *ws.Gateway
	Verifier   middleware.TokenVerifier
	Dispatcher handlers.EventDispatcher
	Audit      *telemetry.AuditEmitter
}

// New assembles the gin engine: tracing, CORS, metrics, the realtime namespace,
// health, admin and internal ingestion routes.
func New(cfg config.Config, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-Device-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(observability.HTTPMetricsMiddleware())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", handlers.Health(deps.Gateway.Hub()))

	r.GET(cfg.WS.Path, deps.Gateway.Handle)

	admin := handlers.NewAdminHandler(deps.Gateway, deps.Audit)
	adminGroup := r.Group("/admin/tenants/:tenant_id", middleware.AuthMiddleware(deps.Verifier))
	adminGroup.GET("/connections", admin.Connections)
	adminGroup.POST("/disconnect", admin.Disconnect)

	if cfg.InternalToken != "" && deps.Dispatcher != nil {
		ingest := handlers.NewEventsHandler(deps.Dispatcher)
		r.POST("/internal/events", middleware.InternalToken(cfg.InternalToken), ingest.Ingest)
	}

	handlers.RegisterDebugRoutes(r, deps.Audit, cfg.GinMode == gin.DebugMode)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}
