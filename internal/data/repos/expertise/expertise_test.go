package expertise

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/dpp-pk/constructor-backend/internal/data/repos/testutil"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/platform/dbctx"
)

func TestExpertiseRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewExpertiseRepo(db, testutil.Logger(t))

	author := testutil.SeedUser(t, ctx, tx, "a@example.com", types.RoleAuthor)
	expert := testutil.SeedUser(t, ctx, tx, "e@example.com", types.RoleExpert)
	p := testutil.SeedProgram(t, ctx, tx, author.ID, "Программа", types.ProgramStatusOnExpertise)

	closed := testutil.SeedExpertise(t, ctx, tx, p.ID, expert.ID, types.ExpertiseStatusRejected)
	open := &types.Expertise{ProgramID: p.ID, ExpertID: expert.ID}
	if err := repo.Create(dbc, open); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if open.Status != types.ExpertiseStatusPending {
		t.Fatalf("expected pending default, got %q", open.Status)
	}

	got, err := repo.GetOpenByProgram(dbc, p.ID)
	if err != nil || got == nil || got.ID != open.ID {
		t.Fatalf("GetOpenByProgram: %+v err=%v", got, err)
	}

	rows, total, err := repo.List(dbc, ListFilter{ExpertID: &expert.ID, Statuses: []string{types.ExpertiseStatusPending}})
	if err != nil || total != 1 || rows[0].Program == nil {
		t.Fatalf("List: total=%d err=%v", total, err)
	}

	byProgram, err := repo.ListByProgramIDs(dbc, []uuid.UUID{p.ID})
	if err != nil || len(byProgram) != 2 || byProgram[0].ID != closed.ID {
		t.Fatalf("ListByProgramIDs: %d err=%v", len(byProgram), err)
	}

	open.Status = types.ExpertiseStatusApproved
	if err := repo.Save(dbc, open); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got, _ := repo.GetOpenByProgram(dbc, p.ID); got != nil {
		t.Fatalf("no open review expected after approval")
	}
	counts, err := repo.CountByStatus(dbc, &expert.ID)
	if err != nil || counts[types.ExpertiseStatusApproved] != 1 || counts[types.ExpertiseStatusRejected] != 1 {
		t.Fatalf("CountByStatus: %+v err=%v", counts, err)
	}
}
