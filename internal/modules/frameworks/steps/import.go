package steps

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	redisclient "github.com/yungbote/neurobridge-frameworks/internal/clients/redis"
	"github.com/yungbote/neurobridge-frameworks/internal/data/graph"
	"github.com/yungbote/neurobridge-frameworks/internal/data/repos"
	types "github.com/yungbote/neurobridge-frameworks/internal/domain"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/forest"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/materialize"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/profiles"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/store"
	"github.com/yungbote/neurobridge-frameworks/internal/observability"
	pkgerrors "github.com/yungbote/neurobridge-frameworks/internal/pkg/errors"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/neo4jdb"
)

const DefaultLockTTL = 10 * time.Minute

type FrameworkImportDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Profiles *profiles.Registry
	// Optional: serialises runs per framework idnumber.
	Lock redisclient.ImportLock
	// Optional: mirror the imported framework into Neo4j.
	Graph *neo4jdb.Client
	// Optional.
	Metrics *observability.Metrics

	Frameworks   repos.FrameworkRepo
	Competencies repos.CompetencyRepo
	Related      repos.RelatedCompetencyRepo
	Runs         repos.ImportRunRepo

	LockTTL  time.Duration
	MaxDepth int
}

type FrameworkImportInput struct {
	Document   io.Reader                   `json:"-"`
	SourceName string                      `json:"source_name,omitempty"`
	Profile    string                      `json:"profile,omitempty"`
	Container  materialize.ContainerConfig `json:"container"`
	// Atomic runs every write in one transaction; a failure leaves nothing behind.
	Atomic bool `json:"atomic,omitempty"`
}

type FrameworkImportOutput struct {
	RunID       uuid.UUID `json:"run_id"`
	FrameworkID uuid.UUID `json:"framework_id"`
	IDNumber    string    `json:"idnumber"`
	Profile     string    `json:"profile"`

	Records      int `json:"records"`
	Roots        int `json:"roots"`
	Created      int `json:"created"`
	Skipped      int `json:"skipped"`
	RelatedLinks int `json:"related_links"`

	Atomic      bool  `json:"atomic"`
	RolledBack  bool  `json:"rolled_back,omitempty"`
	GraphSynced bool  `json:"graph_synced"`
	DurationMS  int64 `json:"duration_ms"`
}

func (d FrameworkImportDeps) repos() store.Repos {
	return store.Repos{Frameworks: d.Frameworks, Competencies: d.Competencies, Related: d.Related}
}

func FrameworkImport(ctx context.Context, deps FrameworkImportDeps, in FrameworkImportInput) (FrameworkImportOutput, error) {
	out := FrameworkImportOutput{Atomic: in.Atomic}
	if deps.DB == nil || deps.Log == nil || deps.Profiles == nil || deps.Frameworks == nil || deps.Competencies == nil || deps.Related == nil || deps.Runs == nil {
		return out, fmt.Errorf("framework_import: missing deps")
	}
	if in.Document == nil {
		return out, fmt.Errorf("%w: import document is required", pkgerrors.ErrInvalidArgument)
	}
	prof, err := deps.Profiles.Get(in.Profile)
	if err != nil {
		return out, err
	}
	cfg := in.Container
	cfg.Profile = prof.Name
	cfg.IDNumber = strings.TrimSpace(cfg.IDNumber)
	cfg.ShortName = strings.TrimSpace(cfg.ShortName)
	if cfg.IDNumber == "" {
		return out, fmt.Errorf("%w: framework idnumber is required", pkgerrors.ErrInvalidArgument)
	}
	if cfg.ShortName == "" {
		cfg.ShortName = cfg.IDNumber
	}
	out.IDNumber = cfg.IDNumber
	out.Profile = prof.Name

	log := deps.Log.With(append([]any{"idnumber", cfg.IDNumber, "profile", prof.Name}, ctxutil.LogFields(ctx)...)...)
	started := time.Now()
	status := types.ImportRunFailed
	defer func() {
		out.DurationMS = time.Since(started).Milliseconds()
		deps.Metrics.ObserveImport(prof.Name, status, time.Since(started), out.Created, out.Skipped, out.RelatedLinks)
	}()

	if deps.Lock != nil {
		ttl := deps.LockTTL
		if ttl <= 0 {
			ttl = DefaultLockTTL
		}
		lease, err := deps.Lock.Acquire(ctx, cfg.IDNumber, ttl)
		if err != nil {
			return out, err
		}
		defer func() {
			if rerr := lease.Release(context.Background()); rerr != nil {
				log.Warn("import lock release failed", "error", rerr)
			}
		}()
	}
	log.Info("framework import started", "source", in.SourceName, "atomic", in.Atomic)

	f, records, err := buildSanitisedForest(ctx, prof, in.Document, deps.MaxDepth)
	out.Records = records
	if err != nil {
		log.Warn("framework import rejected", "error", err)
		return out, err
	}
	out.Roots = len(f.Roots)
	log.Info("framework import parsed", "records", records, "roots", len(f.Roots))

	run := &types.FrameworkImportRun{
		IDNumber:   cfg.IDNumber,
		Profile:    prof.Name,
		SourceName: in.SourceName,
		Status:     types.ImportRunRunning,
		Records:    records,
		StartedAt:  started.UTC(),
	}
	if err := deps.Runs.Create(dbctx.Context{Ctx: ctx}, run); err != nil {
		return out, store.Classify("create_run", cfg.IDNumber, err)
	}
	out.RunID = run.ID

	res, merr := materializeForest(ctx, deps, log, f, cfg, in.Atomic)
	if res != nil {
		out.FrameworkID = res.Container
		out.Skipped = res.Skipped
		if !(in.Atomic && merr != nil) {
			out.Created = len(res.Created)
			out.RelatedLinks = res.RelatedLinks
		}
	}
	if in.Atomic && merr != nil {
		out.RolledBack = true
		out.FrameworkID = uuid.Nil
	}

	updates := map[string]interface{}{
		"created_count": out.Created,
		"skipped_count": out.Skipped,
		"related_links": out.RelatedLinks,
	}
	if out.FrameworkID != uuid.Nil {
		updates["framework_id"] = out.FrameworkID
	}
	if merr != nil {
		updates["status"] = types.ImportRunFailed
		updates["error"] = merr.Error()
	} else {
		updates["status"] = types.ImportRunSucceeded
	}
	if err := deps.Runs.Finish(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, run.ID, updates); err != nil {
		log.Warn("import run finish failed", "run_id", run.ID, "error", err)
	}
	if merr != nil {
		log.Error("framework import failed", "run_id", run.ID, "created", out.Created, "rolled_back", out.RolledBack, "error", merr)
		return out, merr
	}
	status = types.ImportRunSucceeded

	out.GraphSynced = syncGraph(ctx, deps, log, out.FrameworkID)
	log.Info("framework import finished",
		"run_id", run.ID,
		"framework_id", out.FrameworkID,
		"created", out.Created,
		"skipped", out.Skipped,
		"related_links", out.RelatedLinks,
	)
	return out, nil
}

// buildSanitisedForest parses, builds and sanitises a document and checks the result
// is safe to materialize. It never touches the store.
func buildSanitisedForest(ctx context.Context, prof profiles.Profile, doc io.Reader, maxDepth int) (*forest.Forest, int, error) {
	_, span := observability.StartSpan(ctx, "frameworks.parse", attribute.String("profile", prof.Name))
	recs, err := prof.Adapter().Parse(doc)
	span.SetAttributes(attribute.Int("records", len(recs)))
	observability.EndSpan(span, err)
	if err != nil {
		return nil, len(recs), err
	}

	_, span = observability.StartSpan(ctx, "frameworks.build")
	f, err := forest.Build(recs)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, len(recs), err
	}

	_, span = observability.StartSpan(ctx, "frameworks.sanitise")
	forest.Sanitise(f, prof.Rules)
	if maxDepth <= 0 {
		maxDepth = materialize.DefaultMaxDepth
	}
	err = materialize.CheckForest(f, maxDepth)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, len(recs), err
	}
	return f, len(recs), nil
}

func materializeForest(ctx context.Context, deps FrameworkImportDeps, log *logger.Logger, f *forest.Forest, cfg materialize.ContainerConfig, atomic bool) (*materialize.Result, error) {
	ctx, span := observability.StartSpan(ctx, "frameworks.materialize",
		attribute.String("idnumber", cfg.IDNumber),
		attribute.Bool("atomic", atomic),
	)
	opts := materialize.Options{MaxDepth: deps.MaxDepth, Log: log}

	var (
		res *materialize.Result
		err error
	)
	if atomic {
		err = store.RunAtomic(ctx, deps.DB, deps.repos(), log, func(s *store.Store) error {
			var merr error
			res, merr = materialize.New(s, opts).Materialize(ctx, f, cfg)
			return merr
		})
	} else {
		res, err = materialize.New(store.New(deps.repos(), nil, log), opts).Materialize(ctx, f, cfg)
	}
	if res != nil {
		span.SetAttributes(attribute.Int("created", len(res.Created)), attribute.Int("skipped", res.Skipped))
	}
	observability.EndSpan(span, err)
	return res, err
}

// syncGraph mirrors the framework into Neo4j. Failures are logged and never fail the import.
func syncGraph(ctx context.Context, deps FrameworkImportDeps, log *logger.Logger, frameworkID uuid.UUID) bool {
	if deps.Graph == nil {
		deps.Metrics.IncGraphSync("skipped")
		return false
	}
	view, err := loadFramework(ctx, deps.Frameworks, deps.Competencies, deps.Related, frameworkID)
	if err == nil {
		err = graph.UpsertCompetencyFrameworkGraph(ctx, deps.Graph, log, view.Framework, view.Competencies, view.Related)
	}
	if err != nil {
		deps.Metrics.IncGraphSync("failed")
		log.Warn("framework graph sync failed (continuing)", "framework_id", frameworkID, "error", err)
		return false
	}
	deps.Metrics.IncGraphSync("ok")
	return true
}
