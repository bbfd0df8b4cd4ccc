// Package store persists materialized frameworks through the gorm repos.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-frameworks/internal/data/repos"
	types "github.com/yungbote/neurobridge-frameworks/internal/domain"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/materialize"
	pkgerrors "github.com/yungbote/neurobridge-frameworks/internal/pkg/errors"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

type Repos struct {
	Frameworks   repos.FrameworkRepo
	Competencies repos.CompetencyRepo
	Related      repos.RelatedCompetencyRepo
}

func NewRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Frameworks:   repos.NewFrameworkRepo(db, log),
		Competencies: repos.NewCompetencyRepo(db, log),
		Related:      repos.NewRelatedCompetencyRepo(db, log),
	}
}

// Store implements materialize.Store for a single run. It is not safe for concurrent use.
type Store struct {
	repos Repos
	tx    *gorm.DB
	log   *logger.Logger

	framework uuid.UUID
	paths     map[uuid.UUID]string
}

var _ materialize.Store = (*Store)(nil)

// New returns a store writing through r; tx may be nil to write outside a transaction.
func New(r Repos, tx *gorm.DB, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		repos: r,
		tx:    tx,
		log:   log.With("service", "FrameworkStore"),
		paths: map[uuid.UUID]string{},
	}
}

// RunAtomic runs fn with a Store bound to one database transaction, so a failed run
// leaves nothing behind.
func RunAtomic(ctx context.Context, db *gorm.DB, r Repos, log *logger.Logger, fn func(*Store) error) error {
	return dbctx.Context{Ctx: ctx}.DB(db).Transaction(func(tx *gorm.DB) error {
		return fn(New(r, tx, log))
	})
}

func (s *Store) dbc(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx, Tx: s.tx}
}

func (s *Store) CreateContainer(ctx context.Context, cfg materialize.ContainerConfig) (uuid.UUID, error) {
	fw := &types.CompetencyFramework{
		ShortName:          cfg.ShortName,
		IDNumber:           cfg.IDNumber,
		Description:        cfg.Description,
		ScaleID:            strings.TrimSpace(cfg.ScaleID),
		ScaleConfiguration: jsonOrString(cfg.ScaleConfiguration),
		Visible:            cfg.Visible,
		ContextID:          strings.TrimSpace(cfg.ContextID),
		Profile:            cfg.Profile,
	}
	if len(cfg.Taxonomies) > 0 {
		raw, err := json.Marshal(cfg.Taxonomies)
		if err != nil {
			return uuid.Nil, Classify("create_container", cfg.IDNumber, err)
		}
		fw.Taxonomies = datatypes.JSON(raw)
	}
	if err := s.repos.Frameworks.Create(s.dbc(ctx), fw); err != nil {
		return uuid.Nil, Classify("create_container", cfg.IDNumber, err)
	}
	s.framework = fw.ID
	return fw.ID, nil
}

func (s *Store) CreateNode(ctx context.Context, in materialize.NodeInput) (uuid.UUID, error) {
	c := &types.Competency{
		ID:          uuid.New(),
		FrameworkID: in.Container,
		ParentID:    in.Parent,
		IDNumber:    in.Fields.IDNumber,
		ShortName:   in.Fields.ShortName,
		Description: in.Fields.Description,
		RuleType:    in.Fields.RuleType,
		RuleOutcome: in.Fields.RuleOutcome,
		SortOrder:   in.Fields.SortOrder,
		Depth:       in.Fields.Depth,
	}
	prefix := "/"
	if in.Parent != nil {
		p, ok := s.paths[*in.Parent]
		if !ok {
			return uuid.Nil, &pkgerrors.PersistenceError{
				Op:         "create_node",
				Identifier: in.Fields.IDNumber,
				Kind:       pkgerrors.PersistencePrecondition,
				Err:        errors.New("parent was not created by this run"),
			}
		}
		prefix = p
	}
	c.Path = prefix + c.ID.String() + "/"

	if err := s.repos.Competencies.Create(s.dbc(ctx), c); err != nil {
		return uuid.Nil, Classify("create_node", in.Fields.IDNumber, err)
	}
	s.paths[c.ID] = c.Path
	return c.ID, nil
}

func (s *Store) LinkRelated(ctx context.Context, a, b uuid.UUID) error {
	if err := s.repos.Related.Link(s.dbc(ctx), s.framework, a, b); err != nil {
		return Classify("link_related", "", err)
	}
	return nil
}

func jsonOrString(v string) datatypes.JSON {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if json.Valid([]byte(v)) {
		return datatypes.JSON(v)
	}
	raw, _ := json.Marshal(v)
	return datatypes.JSON(raw)
}

// Classify wraps a driver error into a *errors.PersistenceError with a kind derived
// from the Postgres SQLSTATE or, for other drivers, the error text.
func Classify(op, identifier string, err error) error {
	if err == nil {
		return nil
	}
	var pe *pkgerrors.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &pkgerrors.PersistenceError{Op: op, Identifier: identifier, Kind: kindOf(err), Err: err}
}

func kindOf(err error) pkgerrors.PersistenceKind {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return pkgerrors.PersistenceConflict
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return pkgerrors.PersistencePrecondition
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return pkgerrors.PersistenceRetryable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return pkgerrors.PersistenceConflict // unique_violation
		case "23503":
			return pkgerrors.PersistencePrecondition // foreign_key_violation
		case "40001", "40P01", "55P03":
			return pkgerrors.PersistenceRetryable // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "unique constraint failed"),
		strings.Contains(msg, "already exists"):
		return pkgerrors.PersistenceConflict
	case strings.Contains(msg, "foreign key constraint failed"):
		return pkgerrors.PersistencePrecondition
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return pkgerrors.PersistenceRetryable
	default:
		return pkgerrors.PersistenceStorage
	}
}
