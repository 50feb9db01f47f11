package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/platform/ctxutil"
	"github.com/dpp-pk/constructor-backend/internal/platform/dbctx"
)

// requestUser returns the authenticated caller attached by the auth middleware.
func requestUser(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", fmt.Errorf("request is not authenticated: %w", apierr.ErrUnauthorized))
	}
	return rd, nil
}

func requireRole(ctx context.Context, roles ...string) (*ctxutil.RequestData, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if rd.Role == r {
			return rd, nil
		}
	}
	return nil, apierr.Forbidden("role " + rd.Role + " is not allowed")
}

func isAdmin(rd *ctxutil.RequestData) bool {
	return rd != nil && rd.Role == types.RoleAdmin
}

// inTx runs fn inside a transaction unless dbc already carries one.
func inTx(db *gorm.DB, dbc dbctx.Context, fn func(dbc dbctx.Context) error) error {
	if dbc.Tx != nil {
		return fn(dbc)
	}
	return db.WithContext(ctxutil.Default(dbc.Ctx)).Transaction(func(tx *gorm.DB) error {
		return fn(dbc.WithTx(tx))
	})
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// temporaryPassword returns a random password for accounts created by an administrator.
func temporaryPassword(n int) (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		b.WriteByte(passwordAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, apierr.Invalid("invalid_id", fmt.Sprintf("invalid id %q", s))
		}
		out = append(out, id)
	}
	return out, nil
}
