package frameworks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclient "github.com/yungbote/neurobridge-frameworks/internal/clients/redis"
	"github.com/yungbote/neurobridge-frameworks/internal/data/repos"
	types "github.com/yungbote/neurobridge-frameworks/internal/domain"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/profiles"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/steps"
	"github.com/yungbote/neurobridge-frameworks/internal/observability"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/neo4jdb"
)

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Profiles *profiles.Registry
	Lock     redisclient.ImportLock
	// Optional: mirror imported frameworks into Neo4j.
	Graph   *neo4jdb.Client
	Metrics *observability.Metrics

	Frameworks   repos.FrameworkRepo
	Competencies repos.CompetencyRepo
	Related      repos.RelatedCompetencyRepo
	Runs         repos.ImportRunRepo

	LockTTL time.Duration
	// MaxDepth bounds accepted hierarchies; zero uses the materializer default.
	MaxDepth int
	// AtomicDefault applies when an import does not choose a mode itself.
	AtomicDefault bool
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases { return Usecases{deps: deps} }

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

func (u Usecases) AtomicDefault() bool { return u.deps.AtomicDefault }

type (
	ImportInput  = steps.FrameworkImportInput
	ImportOutput = steps.FrameworkImportOutput

	PreviewInput  = steps.FrameworkPreviewInput
	PreviewOutput = steps.FrameworkPreviewOutput
	TreeNode      = steps.TreeNode

	FrameworkView = steps.FrameworkView
)

func (u Usecases) Import(ctx context.Context, in ImportInput) (ImportOutput, error) {
	return steps.FrameworkImport(ctx, steps.FrameworkImportDeps{
		DB:           u.deps.DB,
		Log:          u.deps.Log,
		Profiles:     u.deps.Profiles,
		Lock:         u.deps.Lock,
		Graph:        u.deps.Graph,
		Metrics:      u.deps.Metrics,
		Frameworks:   u.deps.Frameworks,
		Competencies: u.deps.Competencies,
		Related:      u.deps.Related,
		Runs:         u.deps.Runs,
		LockTTL:      u.deps.LockTTL,
		MaxDepth:     u.deps.MaxDepth,
	}, in)
}

func (u Usecases) Preview(ctx context.Context, in PreviewInput) (PreviewOutput, error) {
	return steps.FrameworkPreview(ctx, steps.FrameworkPreviewDeps{
		Profiles: u.deps.Profiles,
		MaxDepth: u.deps.MaxDepth,
	}, in)
}

func (u Usecases) GetFramework(ctx context.Context, id uuid.UUID) (FrameworkView, error) {
	return steps.GetFramework(ctx, steps.GetFrameworkDeps{
		Frameworks:   u.deps.Frameworks,
		Competencies: u.deps.Competencies,
		Related:      u.deps.Related,
	}, id)
}

func (u Usecases) ListImportRuns(ctx context.Context, idNumber string, limit int) ([]*types.FrameworkImportRun, error) {
	return steps.ListImportRuns(ctx, steps.ListImportRunsDeps{Runs: u.deps.Runs}, idNumber, limit)
}

func (u Usecases) ProfileNames() []string {
	if u.deps.Profiles == nil {
		return nil
	}
	return u.deps.Profiles.Names()
}
