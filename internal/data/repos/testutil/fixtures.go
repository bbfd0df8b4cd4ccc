package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-frameworks/internal/domain"
)

func SeedFramework(tb testing.TB, ctx context.Context, tx *gorm.DB, idNumber string) *types.CompetencyFramework {
	tb.Helper()
	if idNumber == "" {
		idNumber = "FW-" + uuid.NewString()
	}
	fw := &types.CompetencyFramework{
		ID:        uuid.New(),
		ShortName: idNumber,
		IDNumber:  idNumber,
		Visible:   true,
		Profile:   "asn",
	}
	if err := tx.WithContext(ctx).Create(fw).Error; err != nil {
		tb.Fatalf("seed framework: %v", err)
	}
	return fw
}

// SeedCompetency creates a competency under parent, or at the framework root when parent is nil.
func SeedCompetency(tb testing.TB, ctx context.Context, tx *gorm.DB, frameworkID uuid.UUID, parent *types.Competency, idNumber string, sortOrder int) *types.Competency {
	tb.Helper()
	c := &types.Competency{
		ID:          uuid.New(),
		FrameworkID: frameworkID,
		IDNumber:    idNumber,
		ShortName:   idNumber,
		SortOrder:   sortOrder,
	}
	c.Path = "/" + c.ID.String() + "/"
	if parent != nil {
		c.ParentID = PtrUUID(parent.ID)
		c.Depth = parent.Depth + 1
		c.Path = parent.Path + c.ID.String() + "/"
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed competency: %v", err)
	}
	return c
}
