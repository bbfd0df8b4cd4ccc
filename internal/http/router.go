package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurobridge-frameworks/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-frameworks/internal/http/middleware"
	"github.com/yungbote/neurobridge-frameworks/internal/observability"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

const serviceName = "neurobridge-frameworks"

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics
	// Tracing enables otelgin spans for every route.
	Tracing bool

	FrameworkHandler *httpH.FrameworkHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		r.Use(otelgin.Middleware(serviceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readycheck", cfg.HealthHandler.ReadyCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Frameworks
		if cfg.FrameworkHandler != nil {
			api.POST("/frameworks/import", cfg.FrameworkHandler.Import)
			api.POST("/frameworks/preview", cfg.FrameworkHandler.Preview)
			api.GET("/frameworks/:id", cfg.FrameworkHandler.GetFramework)
			api.GET("/import-runs", cfg.FrameworkHandler.ListImportRuns)
			api.GET("/import-profiles", cfg.FrameworkHandler.ListProfiles)
		}
	}

	return r
}
