package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/yungbote/neurobridge-frameworks/internal/http"
	"github.com/yungbote/neurobridge-frameworks/internal/observability"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, h Handlers) *gin.Engine {
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		Tracing:          cfg.Otel.Enabled,
		FrameworkHandler: h.Framework,
		HealthHandler:    h.Health,
	})
}
