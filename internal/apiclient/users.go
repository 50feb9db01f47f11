package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/http/response"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

type UserService struct{ c *Client }

type UserQuery struct {
	Role   string
	Status string
	Search string
	Sort   string
	Order  string
	ListOptions
}

func userPath(id uuid.UUID, suffix string) string { return "/api/admin/users/" + id.String() + suffix }

func (s *UserService) List(ctx context.Context, q UserQuery) (*response.Page[*types.User], error) {
	v := q.values()
	setIf(v, "role", q.Role)
	setIf(v, "status", q.Status)
	setIf(v, "search", q.Search)
	setIf(v, "sort", q.Sort)
	setIf(v, "order", q.Order)
	return call[*response.Page[*types.User]](ctx, s.c, request{method: http.MethodGet, path: "/api/admin/users", query: v})
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*types.User, error) {
	return call[*types.User](ctx, s.c, request{method: http.MethodGet, path: userPath(id, "")})
}

func (s *UserService) Create(ctx context.Context, in services.CreateUserInput) (*services.CreatedUser, error) {
	return call[*services.CreatedUser](ctx, s.c, request{method: http.MethodPost, path: "/api/admin/users", body: in})
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, in services.UpdateUserInput) (*types.User, error) {
	return call[*types.User](ctx, s.c, request{method: http.MethodPut, path: userPath(id, ""), body: in})
}

func (s *UserService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*types.User, error) {
	return call[*types.User](ctx, s.c, request{method: http.MethodPatch, path: userPath(id, "/status"), body: map[string]string{"status": status}})
}

func (s *UserService) Archive(ctx context.Context, id uuid.UUID) (*types.User, error) {
	return call[*types.User](ctx, s.c, request{method: http.MethodPost, path: userPath(id, "/archive")})
}

func (s *UserService) Unarchive(ctx context.Context, id uuid.UUID) (*types.User, error) {
	return call[*types.User](ctx, s.c, request{method: http.MethodPost, path: userPath(id, "/unarchive")})
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.c.do(ctx, request{method: http.MethodDelete, path: userPath(id, "")}, nil)
}

func (s *UserService) SendInvitation(ctx context.Context, id uuid.UUID) error {
	return s.c.do(ctx, request{method: http.MethodPost, path: userPath(id, "/invitation")}, nil)
}

func (s *UserService) ByRole(ctx context.Context, role string) ([]*types.User, error) {
	return call[[]*types.User](ctx, s.c, request{method: http.MethodGet, path: "/api/users/role/" + url.PathEscape(role)})
}

type CandidateService struct{ c *Client }

type CandidateQuery struct {
	Status string
	Search string
	ListOptions
}

func candidatePath(id uuid.UUID, suffix string) string { return "/api/candidates/" + id.String() + suffix }

func (s *CandidateService) List(ctx context.Context, q CandidateQuery) (*response.Page[*types.Candidate], error) {
	v := q.values()
	setIf(v, "status", q.Status)
	setIf(v, "search", q.Search)
	return call[*response.Page[*types.Candidate]](ctx, s.c, request{method: http.MethodGet, path: "/api/candidates", query: v})
}

func (s *CandidateService) Invite(ctx context.Context, in services.InviteInput) (*types.Candidate, error) {
	return call[*types.Candidate](ctx, s.c, request{method: http.MethodPost, path: "/api/candidates/invite", body: in})
}

func (s *CandidateService) InviteBulk(ctx context.Context, in []services.InviteInput) (*services.BulkInviteResult, error) {
	return call[*services.BulkInviteResult](ctx, s.c, request{
		method: http.MethodPost,
		path:   "/api/candidates/invite/bulk",
		body:   map[string]any{"candidates": in},
	})
}

func (s *CandidateService) Approve(ctx context.Context, id uuid.UUID) (*services.CreatedUser, error) {
	return call[*services.CreatedUser](ctx, s.c, request{method: http.MethodPost, path: candidatePath(id, "/approve")})
}

func (s *CandidateService) Reject(ctx context.Context, id uuid.UUID, reason string) (*types.Candidate, error) {
	return call[*types.Candidate](ctx, s.c, request{method: http.MethodPost, path: candidatePath(id, "/reject"), body: map[string]string{"reason": reason}})
}

func (s *CandidateService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.c.do(ctx, request{method: http.MethodDelete, path: candidatePath(id, "")}, nil)
}
