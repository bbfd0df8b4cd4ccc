package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-frameworks/internal/data/repos"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

type Repos struct {
	Frameworks   repos.FrameworkRepo
	Competencies repos.CompetencyRepo
	Related      repos.RelatedCompetencyRepo
	ImportRuns   repos.ImportRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Frameworks:   repos.NewFrameworkRepo(db, log),
		Competencies: repos.NewCompetencyRepo(db, log),
		Related:      repos.NewRelatedCompetencyRepo(db, log),
		ImportRuns:   repos.NewImportRunRepo(db, log),
	}
}
