package frameworks

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Competency frameworks are the containers created by one import run. IDs are assigned
// in BeforeCreate so the tables carry no database-specific defaults.
type CompetencyFramework struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ShortName string    `gorm:"column:short_name;not null" json:"shortname"`
	IDNumber  string    `gorm:"column:id_number;not null;uniqueIndex:idx_framework_id_number" json:"idnumber"`

	Description string `gorm:"column:description;type:text" json:"description"`

	ScaleID            string         `gorm:"column:scale_id" json:"scale_id,omitempty"`
	ScaleConfiguration datatypes.JSON `gorm:"column:scale_configuration;type:jsonb" json:"scale_configuration,omitempty"`

	Visible bool `gorm:"column:visible;not null" json:"visible"`

	// Taxonomies holds one term per hierarchy level (JSON array of strings).
	Taxonomies datatypes.JSON `gorm:"column:taxonomies;type:jsonb" json:"taxonomies,omitempty"`
	ContextID  string         `gorm:"column:context_id;index" json:"context_id,omitempty"`

	// Profile is the import profile the hierarchy was read with.
	Profile string `gorm:"column:profile;not null;default:''" json:"profile"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CompetencyFramework) TableName() string { return "competency_framework" }

func (f *CompetencyFramework) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Competency is one node of a framework hierarchy.
//
// Path is the chain of ancestor ids ("/<root>/<child>/.../<self>/"), so ordering by
// path plus sort order yields a stable pre-order listing.
type Competency struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FrameworkID uuid.UUID  `gorm:"type:uuid;not null;index:idx_competency_framework_parent,priority:1;index:idx_competency_id_number,priority:1" json:"framework_id"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index:idx_competency_framework_parent,priority:2" json:"parent_id,omitempty"`

	// IDNumber is not unique: duplicated source identifiers are kept as separate nodes.
	IDNumber    string `gorm:"column:id_number;not null;index:idx_competency_id_number,priority:2" json:"idnumber"`
	ShortName   string `gorm:"column:short_name;not null" json:"shortname"`
	Description string `gorm:"column:description;type:text" json:"description"`

	RuleType    string `gorm:"column:rule_type" json:"rule_type,omitempty"`
	RuleOutcome string `gorm:"column:rule_outcome" json:"rule_outcome,omitempty"`

	SortOrder int    `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	Depth     int    `gorm:"column:depth;not null;default:0" json:"depth"`
	Path      string `gorm:"column:path;not null;index" json:"path"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Competency) TableName() string { return "competency" }

func (c *Competency) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// RelatedCompetency is a symmetric link; the pair is stored with the smaller id in
// CompetencyID so each link exists once.
type RelatedCompetency struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FrameworkID         uuid.UUID `gorm:"type:uuid;not null;index" json:"framework_id"`
	CompetencyID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_related_competency_pair,priority:1" json:"competency_id"`
	RelatedCompetencyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_related_competency_pair,priority:2" json:"related_competency_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (RelatedCompetency) TableName() string { return "related_competency" }

func (r *RelatedCompetency) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

const (
	ImportRunRunning   = "running"
	ImportRunSucceeded = "succeeded"
	ImportRunFailed    = "failed"
)

// FrameworkImportRun records one import attempt. A failed run keeps FrameworkID when the
// container was created, pointing at the partially written hierarchy.
type FrameworkImportRun struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FrameworkID *uuid.UUID `gorm:"type:uuid;index" json:"framework_id,omitempty"`
	IDNumber    string     `gorm:"column:id_number;not null;index" json:"idnumber"`
	Profile     string     `gorm:"column:profile;not null" json:"profile"`
	SourceName  string     `gorm:"column:source_name" json:"source_name,omitempty"`
	Status      string     `gorm:"column:status;not null;index" json:"status"`

	Records      int `gorm:"column:records;not null;default:0" json:"records"`
	Created      int `gorm:"column:created_count;not null;default:0" json:"created"`
	Skipped      int `gorm:"column:skipped_count;not null;default:0" json:"skipped"`
	RelatedLinks int `gorm:"column:related_links;not null;default:0" json:"related_links"`

	Error string `gorm:"column:error;type:text" json:"error,omitempty"`
	// Metadata keeps the container config the run was started with.
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

func (FrameworkImportRun) TableName() string { return "framework_import_run" }

func (r *FrameworkImportRun) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	return nil
}
