package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/dpp-pk/constructor-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email, role string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "Иван",
		LastName:  "Петров",
		Role:      role,
		Status:    types.UserStatusActive,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedProgram(tb testing.TB, ctx context.Context, tx *gorm.DB, authorID uuid.UUID, title, status string) *types.Program {
	tb.Helper()
	p := &types.Program{
		ID:       uuid.New(),
		Title:    title,
		Status:   status,
		AuthorID: authorID,
		Document: datatypes.JSON([]byte(`{"title":"` + title + `"}`)),
		Version:  1,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed program: %v", err)
	}
	return p
}

func SeedExpertise(tb testing.TB, ctx context.Context, tx *gorm.DB, programID, expertID uuid.UUID, status string) *types.Expertise {
	tb.Helper()
	e := &types.Expertise{
		ID:        uuid.New(),
		ProgramID: programID,
		ExpertID:  expertID,
		Status:    status,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed expertise: %v", err)
	}
	return e
}
