package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dpp-pk/constructor-backend/internal/data/repos/listing"
	"github.com/dpp-pk/constructor-backend/internal/data/repos/testutil"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	created, err := repo.Create(dbc, []*types.User{
		{
			ID:        uuid.New(),
			Email:     "userrepo@example.com",
			Password:  "pw",
			FirstName: "Анна",
			LastName:  "Смирнова",
			Role:      types.RoleAuthor,
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].Status != types.UserStatusActive {
		t.Fatalf("Create: unexpected result %+v", created)
	}

	gotByIDs, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(gotByIDs) != 1 || gotByIDs[0].ID != created[0].ID {
		t.Fatalf("GetByIDs: unexpected result: %+v", gotByIDs)
	}

	gotByEmails, err := repo.GetByEmails(dbc, []string{created[0].Email})
	if err != nil {
		t.Fatalf("GetByEmails: %v", err)
	}
	if len(gotByEmails) != 1 || gotByEmails[0].Email != created[0].Email {
		t.Fatalf("GetByEmails: unexpected result: %+v", gotByEmails)
	}

	exists, err := repo.EmailExists(dbc, created[0].Email)
	if err != nil || !exists {
		t.Fatalf("EmailExists: exists=%v err=%v", exists, err)
	}
	exists, err = repo.EmailExists(dbc, "does-not-exist@example.com")
	if err != nil || exists {
		t.Fatalf("EmailExists (missing): exists=%v err=%v", exists, err)
	}

	if err := repo.UpdatePassword(dbc, created[0].ID, "hash", true); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if err := repo.TouchLastLogin(dbc, created[0].ID, time.Now()); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	reloaded, _ := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if reloaded[0].Password != "hash" || !reloaded[0].MustChangePassword || reloaded[0].LastLoginAt == nil {
		t.Fatalf("password/login not persisted: %+v", reloaded[0])
	}
}

func TestUserRepoListFilters(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	testutil.SeedUser(t, ctx, tx, "author1@example.com", types.RoleAuthor)
	testutil.SeedUser(t, ctx, tx, "author2@example.com", types.RoleAuthor)
	expert := testutil.SeedUser(t, ctx, tx, "expert@example.com", types.RoleExpert)
	if err := repo.UpdateStatus(dbc, expert.ID, types.UserStatusBlocked); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	rows, total, err := repo.List(dbc, ListFilter{Role: types.RoleAuthor, Sort: "email", Order: "desc", Page: listing.Page{Limit: 1}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(rows) != 1 || rows[0].Email != "author2@example.com" {
		t.Fatalf("List: total=%d rows=%+v", total, rows)
	}

	rows, total, err = repo.List(dbc, ListFilter{Search: "EXPERT"})
	if err != nil || total != 1 || rows[0].Status != types.UserStatusBlocked {
		t.Fatalf("List search: total=%d err=%v", total, err)
	}

	active, err := repo.ListActiveByRole(dbc, types.RoleExpert)
	if err != nil || len(active) != 0 {
		t.Fatalf("ListActiveByRole: %d err=%v", len(active), err)
	}

	if err := repo.SoftDeleteByIDs(dbc, []uuid.UUID{expert.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if got, _ := repo.GetByIDs(dbc, []uuid.UUID{expert.ID}); len(got) != 0 {
		t.Fatalf("expected soft-deleted user to be hidden")
	}
}
