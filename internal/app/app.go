package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apphttp "github.com/yungbote/neurobridge-frameworks/internal/http"
	datadb "github.com/yungbote/neurobridge-frameworks/internal/data/db"
	frameworksmod "github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/profiles"
	"github.com/yungbote/neurobridge-frameworks/internal/observability"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

type App struct {
	Log        *logger.Logger
	DB         *gorm.DB
	Router     *gin.Engine
	Cfg        Config
	Repos      Repos
	Clients    Clients
	Metrics    *observability.Metrics
	Frameworks frameworksmod.Usecases

	dbService    *datadb.Service
	otelShutdown func(context.Context) error
}

// New wires the full service: database, clients, usecases and router.
func New() (*App, error) {
	log, err := logger.New(LogModeFromEnv())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	a, err := newApp(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func newApp(log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(context.Background(), log, cfg.Otel)
	metrics := observability.Init(log)

	dbService, err := datadb.NewService(datadb.ConfigFromEnv(log), log)
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrate(); err != nil {
		_ = dbService.Close()
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	theDB := dbService.DB()

	clients, err := wireClients(log)
	if err != nil {
		_ = dbService.Close()
		_ = otelShutdown(context.Background())
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	frameworks := frameworksmod.New(frameworksmod.UsecasesDeps{
		DB:            theDB,
		Log:           log,
		Profiles:      profiles.Default(log),
		Lock:          clients.ImportLock,
		Graph:         clients.Graph,
		Metrics:       metrics,
		Frameworks:    reposet.Frameworks,
		Competencies:  reposet.Competencies,
		Related:       reposet.Related,
		Runs:          reposet.ImportRuns,
		LockTTL:       cfg.ImportLockTTL,
		MaxDepth:      cfg.ImportMaxDepth,
		AtomicDefault: cfg.ImportAtomicDefault,
	})

	handlerset := wireHandlers(log, theDB, cfg, frameworks)
	router := wireRouter(log, cfg, metrics, handlerset)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Metrics:      metrics,
		Frameworks:   frameworks,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP on addr until ctx is cancelled.
func (a *App) Run(ctx context.Context, addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	srv := &apphttp.Server{Engine: a.Router}
	return srv.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx := context.Background()
	a.Clients.Close(ctx)
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
