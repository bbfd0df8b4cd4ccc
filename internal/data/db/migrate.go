package db

import (
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-frameworks/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// =========================
		// Competency frameworks
		// =========================
		&types.CompetencyFramework{},
		&types.Competency{},
		&types.RelatedCompetency{},

		// =========================
		// Import bookkeeping
		// =========================
		&types.FrameworkImportRun{},
	)
}
