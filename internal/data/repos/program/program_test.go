package program

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/dpp-pk/constructor-backend/internal/data/repos/testutil"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/platform/dbctx"
)

func TestProgramRepoMembershipAndStatus(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewProgramRepo(db, testutil.Logger(t))

	author := testutil.SeedUser(t, ctx, tx, "author@example.com", types.RoleAuthor)
	co := testutil.SeedUser(t, ctx, tx, "co@example.com", types.RoleAuthor)
	other := testutil.SeedUser(t, ctx, tx, "other@example.com", types.RoleAuthor)

	p := &types.Program{Title: "Цифровая грамотность", AuthorID: author.ID, Document: datatypes.JSON(`{}`)}
	if err := repo.Create(dbc, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Status != types.ProgramStatusDraft || p.Version != 1 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	testutil.SeedProgram(t, ctx, tx, other.ID, "Чужая программа", types.ProgramStatusApproved)

	if err := repo.SetCoAuthors(dbc, p.ID, []uuid.UUID{co.ID, co.ID}); err != nil {
		t.Fatalf("SetCoAuthors: %v", err)
	}

	for _, tc := range []struct {
		user uuid.UUID
		want bool
	}{{author.ID, true}, {co.ID, true}, {other.ID, false}} {
		got, err := repo.IsMember(dbc, p.ID, tc.user)
		if err != nil || got != tc.want {
			t.Fatalf("IsMember(%s) = %v err=%v, want %v", tc.user, got, err, tc.want)
		}
	}

	mine, total, err := repo.List(dbc, ListFilter{MemberID: &co.ID})
	if err != nil || total != 1 || mine[0].ID != p.ID {
		t.Fatalf("List(member): total=%d err=%v", total, err)
	}
	_, total, err = repo.List(dbc, ListFilter{Statuses: []string{types.ProgramStatusApproved, types.ProgramStatusArchived}})
	if err != nil || total != 1 {
		t.Fatalf("List(statuses): total=%d err=%v", total, err)
	}

	got, err := repo.GetByID(dbc, p.ID)
	if err != nil || got == nil || len(got.CoAuthors) != 1 || got.CoAuthors[0].User == nil {
		t.Fatalf("GetByID: %+v err=%v", got, err)
	}

	if err := repo.UpdateStatus(dbc, p.ID, map[string]any{"status": types.ProgramStatusOnExpertise}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	counts, err := repo.CountByStatus(dbc, nil)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[types.ProgramStatusOnExpertise] != 1 || counts[types.ProgramStatusApproved] != 1 {
		t.Fatalf("CountByStatus: %+v", counts)
	}
}

func TestProgramRepoVersions(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewProgramRepo(db, testutil.Logger(t))

	author := testutil.SeedUser(t, ctx, tx, "v@example.com", types.RoleAuthor)
	p := testutil.SeedProgram(t, ctx, tx, author.ID, "Версии", types.ProgramStatusDraft)
	for v := 1; v <= 3; v++ {
		if err := repo.CreateVersion(dbc, &types.ProgramVersion{
			ProgramID: p.ID, Version: v, Status: p.Status, SavedByID: author.ID, Document: datatypes.JSON(`{}`),
		}); err != nil {
			t.Fatalf("CreateVersion(%d): %v", v, err)
		}
	}
	versions, err := repo.ListVersions(dbc, p.ID)
	if err != nil || len(versions) != 3 || versions[0].Version != 3 {
		t.Fatalf("ListVersions: %+v err=%v", versions, err)
	}
	if err := repo.CreateVersion(dbc, &types.ProgramVersion{ProgramID: p.ID, Version: 3, SavedByID: author.ID, Status: "draft"}); err == nil {
		t.Fatalf("duplicate version must be rejected")
	}
}
