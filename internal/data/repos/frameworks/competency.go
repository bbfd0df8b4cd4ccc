package frameworks

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-frameworks/internal/domain"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

type CompetencyRepo interface {
	Create(dbc dbctx.Context, c *types.Competency) error
	// GetByFramework lists a framework's competencies parents first, siblings in sort order.
	GetByFramework(dbc dbctx.Context, frameworkID uuid.UUID) ([]*types.Competency, error)
	CountByFramework(dbc dbctx.Context, frameworkID uuid.UUID) (int64, error)
}

type competencyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompetencyRepo(db *gorm.DB, baseLog *logger.Logger) CompetencyRepo {
	return &competencyRepo{db: db, log: baseLog.With("repo", "CompetencyRepo")}
}

func (r *competencyRepo) Create(dbc dbctx.Context, c *types.Competency) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if c == nil {
		return nil
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Path == "" {
		c.Path = "/" + c.ID.String() + "/"
	}
	return t.WithContext(dbc.Ctx).Create(c).Error
}

func (r *competencyRepo) GetByFramework(dbc dbctx.Context, frameworkID uuid.UUID) ([]*types.Competency, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Competency
	if frameworkID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("framework_id = ?", frameworkID).
		Order("depth ASC, sort_order ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *competencyRepo) CountByFramework(dbc dbctx.Context, frameworkID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	if frameworkID == uuid.Nil {
		return 0, nil
	}
	err := t.WithContext(dbc.Ctx).Model(&types.Competency{}).Where("framework_id = ?", frameworkID).Count(&n).Error
	return n, err
}
