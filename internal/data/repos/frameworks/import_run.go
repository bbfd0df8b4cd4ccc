package frameworks

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-frameworks/internal/domain"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

type ImportRunRepo interface {
	Create(dbc dbctx.Context, run *types.FrameworkImportRun) error
	// Finish stamps the final status and counts onto a run.
	Finish(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.FrameworkImportRun, error)
	ListByIDNumber(dbc dbctx.Context, idNumber string, limit int) ([]*types.FrameworkImportRun, error)
}

type importRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewImportRunRepo(db *gorm.DB, baseLog *logger.Logger) ImportRunRepo {
	return &importRunRepo{db: db, log: baseLog.With("repo", "ImportRunRepo")}
}

func (r *importRunRepo) Create(dbc dbctx.Context, run *types.FrameworkImportRun) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if run == nil {
		return nil
	}
	if strings.TrimSpace(run.Status) == "" {
		run.Status = types.ImportRunRunning
	}
	return t.WithContext(dbc.Ctx).Create(run).Error
}

func (r *importRunRepo) Finish(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	now := time.Now().UTC()
	if _, ok := updates["finished_at"]; !ok {
		updates["finished_at"] = now
	}
	updates["updated_at"] = now
	return t.WithContext(dbc.Ctx).
		Model(&types.FrameworkImportRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *importRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.FrameworkImportRun, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.FrameworkImportRun
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *importRunRepo) ListByIDNumber(dbc dbctx.Context, idNumber string, limit int) ([]*types.FrameworkImportRun, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.FrameworkImportRun
	idNumber = strings.TrimSpace(idNumber)
	if idNumber == "" {
		return out, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id_number = ?", idNumber).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
