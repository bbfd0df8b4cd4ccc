package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-frameworks/internal/http/handlers"
	frameworksmod "github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

type Handlers struct {
	Framework *handlers.FrameworkHandler
	Health    *handlers.HealthHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, cfg Config, frameworks frameworksmod.Usecases) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Framework: handlers.NewFrameworkHandlerWithDeps(handlers.FrameworkHandlerDeps{
			Log:            log,
			Frameworks:     frameworks,
			MaxUploadBytes: cfg.ImportMaxBytes,
		}),
		Health: handlers.NewHealthHandler(db),
	}
}
