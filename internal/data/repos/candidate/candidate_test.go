package candidate

import (
	"context"
	"testing"

	"github.com/dpp-pk/constructor-backend/internal/data/repos/testutil"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/platform/dbctx"
)

func TestCandidateRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewCandidateRepo(db, testutil.Logger(t))

	created, err := repo.Create(dbc, []*types.Candidate{
		{Email: "c1@example.com", LastName: "Орлова", Role: types.RoleAuthor},
		{Email: "c2@example.com", LastName: "Зайцев", Role: types.RoleExpert, Status: types.CandidateStatusInvited},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created[0].Status != types.CandidateStatusPending {
		t.Fatalf("expected default pending status, got %q", created[0].Status)
	}

	open, err := repo.GetOpenByEmail(dbc, "c2@example.com")
	if err != nil || open == nil || open.ID != created[1].ID {
		t.Fatalf("GetOpenByEmail: %+v err=%v", open, err)
	}

	created[1].Status = types.CandidateStatusRejected
	if err := repo.Save(dbc, created[1]); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if open, _ := repo.GetOpenByEmail(dbc, "c2@example.com"); open != nil {
		t.Fatalf("rejected candidate must not be open")
	}

	rows, total, err := repo.List(dbc, ListFilter{Status: types.CandidateStatusPending})
	if err != nil || total != 1 || rows[0].Email != "c1@example.com" {
		t.Fatalf("List: total=%d err=%v", total, err)
	}

	if err := repo.DeleteByID(dbc, created[0].ID); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if got, err := repo.GetByID(dbc, created[0].ID); err != nil || got != nil {
		t.Fatalf("GetByID after delete: %+v err=%v", got, err)
	}
}
