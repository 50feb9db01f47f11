package dictionary

import (
	"context"
	"testing"

	"github.com/dpp-pk/constructor-backend/internal/data/repos/testutil"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/domain/dictionary"
	"github.com/dpp-pk/constructor-backend/internal/platform/dbctx"
)

func TestEntryRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewEntryRepo(db, testutil.Logger(t))

	_, err := repo.Create(dbc, []*types.DictionaryEntry{
		{Type: dictionary.TypeEquipment, Value: "Проектор", SortOrder: 2, IsActive: true},
		{Type: dictionary.TypeEquipment, Value: "Интерактивная доска", SortOrder: 1, IsActive: true},
		{Type: dictionary.TypeSoftware, Value: "LibreOffice", Code: "lo", IsActive: false},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	eq, err := repo.ListByType(dbc, dictionary.TypeEquipment, true)
	if err != nil || len(eq) != 2 || eq[0].Value != "Интерактивная доска" {
		t.Fatalf("ListByType: %+v err=%v", eq, err)
	}
	if active, _ := repo.List(dbc, true); len(active) != 2 {
		t.Fatalf("List(active) = %d, want 2", len(active))
	}

	found, err := repo.Search(dbc, "LO", 10)
	if err != nil || len(found) != 1 || found[0].Code != "lo" {
		t.Fatalf("Search: %+v err=%v", found, err)
	}

	if err := repo.Upsert(dbc, []*types.DictionaryEntry{
		{Type: dictionary.TypeSoftware, Value: "LibreOffice", Code: "libre", IsActive: true},
		{Type: dictionary.TypeCategory, Value: "Педагогические работники", IsActive: true},
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	sw, _ := repo.ListByType(dbc, dictionary.TypeSoftware, false)
	if len(sw) != 1 || sw[0].Code != "libre" || !sw[0].IsActive {
		t.Fatalf("Upsert did not update existing row: %+v", sw)
	}
	if all, _ := repo.List(dbc, false); len(all) != 4 {
		t.Fatalf("List(all) = %d, want 4", len(all))
	}
}
