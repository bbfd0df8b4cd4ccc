package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-frameworks/internal/data/repos/frameworks"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

type FrameworkRepo = frameworks.FrameworkRepo
type CompetencyRepo = frameworks.CompetencyRepo
type RelatedCompetencyRepo = frameworks.RelatedCompetencyRepo
type ImportRunRepo = frameworks.ImportRunRepo

func NewFrameworkRepo(db *gorm.DB, baseLog *logger.Logger) FrameworkRepo {
	return frameworks.NewFrameworkRepo(db, baseLog)
}
func NewCompetencyRepo(db *gorm.DB, baseLog *logger.Logger) CompetencyRepo {
	return frameworks.NewCompetencyRepo(db, baseLog)
}
func NewRelatedCompetencyRepo(db *gorm.DB, baseLog *logger.Logger) RelatedCompetencyRepo {
	return frameworks.NewRelatedCompetencyRepo(db, baseLog)
}
func NewImportRunRepo(db *gorm.DB, baseLog *logger.Logger) ImportRunRepo {
	return frameworks.NewImportRunRepo(db, baseLog)
}
