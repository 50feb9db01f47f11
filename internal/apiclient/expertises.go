package apiclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/expertise"
	"github.com/dpp-pk/constructor-backend/internal/http/response"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

type ExpertiseService struct{ c *Client }

type ExpertiseQuery struct {
	ProgramID *uuid.UUID
	Statuses  []string
	ListOptions
}

func expertisePath(id uuid.UUID, suffix string) string { return "/api/expertises/" + id.String() + suffix }

func (q ExpertiseQuery) encode() request {
	v := q.values()
	if q.ProgramID != nil {
		v.Set("program_id", q.ProgramID.String())
	}
	setIf(v, "status", strings.Join(q.Statuses, ","))
	return request{method: http.MethodGet, query: v}
}

// List returns every expertise; administrators only.
func (s *ExpertiseService) List(ctx context.Context, q ExpertiseQuery) (*response.Page[*types.Expertise], error) {
	r := q.encode()
	r.path = "/api/expertises"
	return call[*response.Page[*types.Expertise]](ctx, s.c, r)
}

// Mine returns the caller's assignments as an expert.
func (s *ExpertiseService) Mine(ctx context.Context, q ExpertiseQuery) (*response.Page[*types.Expertise], error) {
	r := q.encode()
	r.path = "/api/expertises/mine"
	return call[*response.Page[*types.Expertise]](ctx, s.c, r)
}

func (s *ExpertiseService) Get(ctx context.Context, id uuid.UUID) (*types.Expertise, error) {
	return call[*types.Expertise](ctx, s.c, request{method: http.MethodGet, path: expertisePath(id, "")})
}

func (s *ExpertiseService) Assign(ctx context.Context, programID, expertID uuid.UUID) (*types.Expertise, error) {
	return call[*types.Expertise](ctx, s.c, request{
		method: http.MethodPost,
		path:   programPath(programID, "/assign-expert"),
		body:   map[string]uuid.UUID{"expert_id": expertID},
	})
}

func (s *ExpertiseService) Update(ctx context.Context, id uuid.UUID, in services.ExpertiseInput) (*types.Expertise, error) {
	return call[*types.Expertise](ctx, s.c, request{method: http.MethodPut, path: expertisePath(id, ""), body: in})
}

func (s *ExpertiseService) Submit(ctx context.Context, id uuid.UUID, in services.ExpertiseInput) (*types.Expertise, error) {
	return call[*types.Expertise](ctx, s.c, request{method: http.MethodPost, path: expertisePath(id, "/submit"), body: in})
}

func (s *ExpertiseService) ReplaceExpert(ctx context.Context, id, expertID uuid.UUID) (*types.Expertise, error) {
	return call[*types.Expertise](ctx, s.c, request{
		method: http.MethodPost,
		path:   expertisePath(id, "/replace-expert"),
		body:   map[string]uuid.UUID{"expert_id": expertID},
	})
}

func (s *ExpertiseService) SendForRevision(ctx context.Context, id uuid.UUID, comments string) (*types.Expertise, error) {
	return call[*types.Expertise](ctx, s.c, request{
		method: http.MethodPost,
		path:   expertisePath(id, "/send-for-revision"),
		body:   map[string]string{"comments": comments},
	})
}

func (s *ExpertiseService) Statistics(ctx context.Context) (*services.ExpertiseStatistics, error) {
	return call[*services.ExpertiseStatistics](ctx, s.c, request{method: http.MethodGet, path: "/api/expertises/statistics"})
}

func (s *ExpertiseService) Criteria(ctx context.Context) (*expertise.Catalog, error) {
	return call[*expertise.Catalog](ctx, s.c, request{method: http.MethodGet, path: "/api/expertises/criteria"})
}
