package frameworks

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-frameworks/internal/domain"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

type FrameworkRepo interface {
	Create(dbc dbctx.Context, fw *types.CompetencyFramework) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CompetencyFramework, error)
	GetByIDNumber(dbc dbctx.Context, idNumber string) (*types.CompetencyFramework, error)
}

type frameworkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFrameworkRepo(db *gorm.DB, baseLog *logger.Logger) FrameworkRepo {
	return &frameworkRepo{db: db, log: baseLog.With("repo", "FrameworkRepo")}
}

func (r *frameworkRepo) Create(dbc dbctx.Context, fw *types.CompetencyFramework) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if fw == nil {
		return nil
	}
	fw.ShortName = strings.TrimSpace(fw.ShortName)
	fw.IDNumber = strings.TrimSpace(fw.IDNumber)
	return t.WithContext(dbc.Ctx).Create(fw).Error
}

func (r *frameworkRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CompetencyFramework, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.CompetencyFramework
	err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&out).Error
	if err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *frameworkRepo) GetByIDNumber(dbc dbctx.Context, idNumber string) (*types.CompetencyFramework, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	idNumber = strings.TrimSpace(idNumber)
	if idNumber == "" {
		return nil, nil
	}
	var out types.CompetencyFramework
	err := t.WithContext(dbc.Ctx).Where("id_number = ?", idNumber).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
