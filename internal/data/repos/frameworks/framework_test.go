package frameworks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-frameworks/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-frameworks/internal/domain"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/dbctx"
)

func TestFrameworkRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewFrameworkRepo(db, testutil.Logger(t))
	idNumber := "AC-" + uuid.NewString()

	fw := &types.CompetencyFramework{ShortName: " Mathematics ", IDNumber: idNumber, Visible: true, Profile: "asn"}
	if err := repo.Create(dbc, fw); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if fw.ID == uuid.Nil {
		t.Fatalf("Create: expected generated id")
	}

	got, err := repo.GetByID(dbc, fw.ID)
	if err != nil || got == nil || got.ShortName != "Mathematics" {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByIDNumber(dbc, idNumber); err != nil || got == nil || got.ID != fw.ID {
		t.Fatalf("GetByIDNumber: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByIDNumber(dbc, "missing-"+idNumber); err != nil || got != nil {
		t.Fatalf("GetByIDNumber(missing): got=%v err=%v", got, err)
	}
	if got, err := repo.GetByID(dbc, uuid.New()); err != nil || got != nil {
		t.Fatalf("GetByID(missing): got=%v err=%v", got, err)
	}
}

func TestFrameworkRepoRejectsDuplicateIDNumber(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewFrameworkRepo(db, testutil.Logger(t))
	idNumber := "DUP-" + uuid.NewString()
	if err := repo.Create(dbc, &types.CompetencyFramework{ShortName: "A", IDNumber: idNumber}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// A nested transaction keeps the outer one usable on Postgres after the violation.
	err := tx.Transaction(func(inner *gorm.DB) error {
		return repo.Create(dbctx.Context{Ctx: context.Background(), Tx: inner}, &types.CompetencyFramework{ShortName: "B", IDNumber: idNumber})
	})
	if err == nil {
		t.Fatalf("Create(duplicate): expected unique violation")
	}
}
