package apiclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/http/response"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

type RecommendationService struct{ c *Client }

type RecommendationQuery struct {
	Statuses []string
	// Sent lists recommendations written by the caller instead of received ones.
	Sent bool
	ListOptions
}

func recommendationPath(id uuid.UUID, suffix string) string {
	return "/api/recommendations/" + id.String() + suffix
}

func (q RecommendationQuery) encode(path string) request {
	v := q.values()
	setIf(v, "status", strings.Join(q.Statuses, ","))
	if q.Sent {
		v.Set("sent", "true")
	}
	return request{method: http.MethodGet, path: path, query: v}
}

func (s *RecommendationService) List(ctx context.Context, q RecommendationQuery) (*response.Page[*types.Recommendation], error) {
	return call[*response.Page[*types.Recommendation]](ctx, s.c, q.encode("/api/recommendations"))
}

func (s *RecommendationService) Mine(ctx context.Context, q RecommendationQuery) (*response.Page[*types.Recommendation], error) {
	return call[*response.Page[*types.Recommendation]](ctx, s.c, q.encode("/api/recommendations/mine"))
}

func (s *RecommendationService) ByProgram(ctx context.Context, programID uuid.UUID) ([]*types.Recommendation, error) {
	return call[[]*types.Recommendation](ctx, s.c, request{method: http.MethodGet, path: "/api/recommendations/program/" + programID.String()})
}

func (s *RecommendationService) Create(ctx context.Context, in services.RecommendationInput) (*types.Recommendation, error) {
	return call[*types.Recommendation](ctx, s.c, request{method: http.MethodPost, path: "/api/recommendations", body: in})
}

func (s *RecommendationService) Update(ctx context.Context, id uuid.UUID, in services.RecommendationInput) (*types.Recommendation, error) {
	return call[*types.Recommendation](ctx, s.c, request{method: http.MethodPut, path: recommendationPath(id, ""), body: in})
}

func (s *RecommendationService) Respond(ctx context.Context, id uuid.UUID, text string) (*types.Recommendation, error) {
	return call[*types.Recommendation](ctx, s.c, request{
		method: http.MethodPost,
		path:   recommendationPath(id, "/respond"),
		body:   map[string]string{"response": text},
	})
}

func (s *RecommendationService) Feedback(ctx context.Context, id uuid.UUID, in services.FeedbackInput) (*types.Recommendation, error) {
	return call[*types.Recommendation](ctx, s.c, request{method: http.MethodPost, path: recommendationPath(id, "/feedback"), body: in})
}

func (s *RecommendationService) Archive(ctx context.Context, id uuid.UUID) (*types.Recommendation, error) {
	return call[*types.Recommendation](ctx, s.c, request{method: http.MethodPost, path: recommendationPath(id, "/archive")})
}

func (s *RecommendationService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.c.do(ctx, request{method: http.MethodDelete, path: recommendationPath(id, "")}, nil)
}
