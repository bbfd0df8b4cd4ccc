package frameworks

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurobridge-frameworks/internal/domain"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

type RelatedCompetencyRepo interface {
	// Link stores the pair once regardless of argument order.
	Link(dbc dbctx.Context, frameworkID, a, b uuid.UUID) error
	GetByFramework(dbc dbctx.Context, frameworkID uuid.UUID) ([]*types.RelatedCompetency, error)
}

type relatedCompetencyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRelatedCompetencyRepo(db *gorm.DB, baseLog *logger.Logger) RelatedCompetencyRepo {
	return &relatedCompetencyRepo{db: db, log: baseLog.With("repo", "RelatedCompetencyRepo")}
}

func (r *relatedCompetencyRepo) Link(dbc dbctx.Context, frameworkID, a, b uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if a == uuid.Nil || b == uuid.Nil || a == b {
		return nil
	}
	if a.String() > b.String() {
		a, b = b, a
	}
	row := &types.RelatedCompetency{
		ID:                  uuid.New(),
		FrameworkID:         frameworkID,
		CompetencyID:        a,
		RelatedCompetencyID: b,
		CreatedAt:           time.Now().UTC(),
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "competency_id"}, {Name: "related_competency_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}

func (r *relatedCompetencyRepo) GetByFramework(dbc dbctx.Context, frameworkID uuid.UUID) ([]*types.RelatedCompetency, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.RelatedCompetency
	if frameworkID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("framework_id = ?", frameworkID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
