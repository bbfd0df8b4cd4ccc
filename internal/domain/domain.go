package domain

import (
	"github.com/yungbote/neurobridge-frameworks/internal/domain/frameworks"
)

const (
	ImportRunRunning   = frameworks.ImportRunRunning
	ImportRunSucceeded = frameworks.ImportRunSucceeded
	ImportRunFailed    = frameworks.ImportRunFailed
)

type CompetencyFramework = frameworks.CompetencyFramework
type Competency = frameworks.Competency
type RelatedCompetency = frameworks.RelatedCompetency
type FrameworkImportRun = frameworks.FrameworkImportRun
