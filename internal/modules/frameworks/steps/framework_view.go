package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-frameworks/internal/data/repos"
	types "github.com/yungbote/neurobridge-frameworks/internal/domain"
	pkgerrors "github.com/yungbote/neurobridge-frameworks/internal/pkg/errors"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/dbctx"
)

type FrameworkView struct {
	Framework    *types.CompetencyFramework `json:"framework"`
	Competencies []*types.Competency        `json:"competencies"`
	Related      []*types.RelatedCompetency `json:"related"`
}

type GetFrameworkDeps struct {
	Frameworks   repos.FrameworkRepo
	Competencies repos.CompetencyRepo
	Related      repos.RelatedCompetencyRepo
}

func GetFramework(ctx context.Context, deps GetFrameworkDeps, id uuid.UUID) (FrameworkView, error) {
	if deps.Frameworks == nil || deps.Competencies == nil || deps.Related == nil {
		return FrameworkView{}, fmt.Errorf("get_framework: missing deps")
	}
	if id == uuid.Nil {
		return FrameworkView{}, fmt.Errorf("%w: framework id is required", pkgerrors.ErrInvalidArgument)
	}
	return loadFramework(ctx, deps.Frameworks, deps.Competencies, deps.Related, id)
}

func loadFramework(ctx context.Context, fwRepo repos.FrameworkRepo, compRepo repos.CompetencyRepo, relRepo repos.RelatedCompetencyRepo, id uuid.UUID) (FrameworkView, error) {
	dbc := dbctx.Context{Ctx: ctx}
	fw, err := fwRepo.GetByID(dbc, id)
	if err != nil {
		return FrameworkView{}, err
	}
	if fw == nil {
		return FrameworkView{}, fmt.Errorf("%w: framework %s", pkgerrors.ErrNotFound, id)
	}
	comps, err := compRepo.GetByFramework(dbc, id)
	if err != nil {
		return FrameworkView{}, err
	}
	related, err := relRepo.GetByFramework(dbc, id)
	if err != nil {
		return FrameworkView{}, err
	}
	return FrameworkView{Framework: fw, Competencies: comps, Related: related}, nil
}

type ListImportRunsDeps struct {
	Runs repos.ImportRunRepo
}

func ListImportRuns(ctx context.Context, deps ListImportRunsDeps, idNumber string, limit int) ([]*types.FrameworkImportRun, error) {
	if deps.Runs == nil {
		return nil, fmt.Errorf("list_import_runs: missing deps")
	}
	idNumber = strings.TrimSpace(idNumber)
	if idNumber == "" {
		return nil, fmt.Errorf("%w: idnumber is required", pkgerrors.ErrInvalidArgument)
	}
	return deps.Runs.ListByIDNumber(dbctx.Context{Ctx: ctx}, idNumber, limit)
}
