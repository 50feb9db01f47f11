package apiclient

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

type AuthService struct{ c *Client }

type Registration struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Status      string    `json:"status"`
}

// Login opens a session and stores its credentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*services.Session, error) {
	sess, err := call[*services.Session](ctx, s.c, request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   map[string]string{"email": email, "password": password},
		public: true,
	})
	if err != nil {
		return nil, err
	}
	if err := s.c.remember(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *AuthService) Register(ctx context.Context, in services.RegisterInput) (*Registration, error) {
	return call[*Registration](ctx, s.c, request{method: http.MethodPost, path: "/api/auth/register", body: in, public: true})
}

// Refresh forces a token exchange using the stored session cookie.
func (s *AuthService) Refresh(ctx context.Context) (*services.Session, error) {
	return s.c.refreshSession(ctx)
}

// Logout revokes the server session and drops local credentials even if the call fails.
func (s *AuthService) Logout(ctx context.Context) error {
	err := s.c.do(ctx, request{method: http.MethodPost, path: "/api/auth/logout", public: true}, nil)
	s.c.forget()
	return err
}

func (s *AuthService) Me(ctx context.Context) (*types.User, error) {
	return call[*types.User](ctx, s.c, request{method: http.MethodGet, path: "/api/auth/me"})
}

func (s *AuthService) ChangePassword(ctx context.Context, in services.ChangePasswordInput) error {
	return s.c.do(ctx, request{method: http.MethodPost, path: "/api/auth/change-password", body: in}, nil)
}
