package app

import (
	"os"
	"strings"
	"time"

	"github.com/yungbote/neurobridge-frameworks/internal/http/handlers"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/materialize"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/steps"
	"github.com/yungbote/neurobridge-frameworks/internal/observability"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/envutil"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

type Config struct {
	Port    string
	LogMode string

	ImportLockTTL       time.Duration
	ImportMaxBytes      int64
	ImportAtomicDefault bool
	ImportMaxDepth      int

	Otel observability.OtelConfig
}

func LogModeFromEnv() string {
	mode := strings.TrimSpace(os.Getenv("LOG_MODE"))
	if mode == "" {
		mode = "development"
	}
	return mode
}

func LoadConfig(log *logger.Logger) Config {
	lockTTLSeconds := envutil.Int("FRAMEWORK_IMPORT_LOCK_TTL_SECONDS", int(steps.DefaultLockTTL/time.Second))
	if lockTTLSeconds < 1 {
		lockTTLSeconds = 1
	}
	maxBytes := envutil.Int("FRAMEWORK_IMPORT_MAX_BYTES", handlers.DefaultMaxUploadBytes)
	if maxBytes < 1024 {
		maxBytes = 1024
	}
	maxDepth := envutil.Int("FRAMEWORK_IMPORT_MAX_DEPTH", materialize.DefaultMaxDepth)
	if maxDepth < 1 {
		maxDepth = materialize.DefaultMaxDepth
	}
	return Config{
		Port:                envutil.String("PORT", "8080", log),
		LogMode:             LogModeFromEnv(),
		ImportLockTTL:       time.Duration(lockTTLSeconds) * time.Second,
		ImportMaxBytes:      int64(maxBytes),
		ImportAtomicDefault: envutil.Bool("FRAMEWORK_IMPORT_ATOMIC", false),
		ImportMaxDepth:      maxDepth,
		Otel:                observability.OtelConfigFromEnv(),
	}
}
