package apiclient

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/http/response"
	"github.com/dpp-pk/constructor-backend/internal/program"
	"github.com/dpp-pk/constructor-backend/internal/services"
	"github.com/dpp-pk/constructor-backend/internal/wizard"
)

type ProgramService struct{ c *Client }

type ProgramQuery struct {
	// Scope is "mine" (default) or "all".
	Scope    string
	Statuses []string
	Search   string
	ListOptions
}

func programPath(id uuid.UUID, suffix string) string { return "/api/programs/" + id.String() + suffix }

func (s *ProgramService) List(ctx context.Context, q ProgramQuery) (*response.Page[*types.Program], error) {
	v := q.values()
	setIf(v, "scope", q.Scope)
	setIf(v, "status", strings.Join(q.Statuses, ","))
	setIf(v, "search", q.Search)
	return call[*response.Page[*types.Program]](ctx, s.c, request{method: http.MethodGet, path: "/api/programs", query: v})
}

func (s *ProgramService) Get(ctx context.Context, id uuid.UUID) (*types.Program, error) {
	return call[*types.Program](ctx, s.c, request{method: http.MethodGet, path: programPath(id, "")})
}

func (s *ProgramService) Create(ctx context.Context, doc *program.Document) (*types.Program, error) {
	return call[*types.Program](ctx, s.c, request{method: http.MethodPost, path: "/api/programs", body: map[string]any{"document": doc}})
}

func (s *ProgramService) Update(ctx context.Context, id uuid.UUID, doc *program.Document) (*types.Program, error) {
	return call[*types.Program](ctx, s.c, request{method: http.MethodPut, path: programPath(id, ""), body: map[string]any{"document": doc}})
}

func (s *ProgramService) action(ctx context.Context, id uuid.UUID, name string) (*types.Program, error) {
	return call[*types.Program](ctx, s.c, request{method: http.MethodPost, path: programPath(id, "/"+name)})
}

func (s *ProgramService) Submit(ctx context.Context, id uuid.UUID) (*types.Program, error) {
	return s.action(ctx, id, "submit")
}

func (s *ProgramService) Resubmit(ctx context.Context, id uuid.UUID) (*types.Program, error) {
	return s.action(ctx, id, "resubmit")
}

func (s *ProgramService) Archive(ctx context.Context, id uuid.UUID) (*types.Program, error) {
	return s.action(ctx, id, "archive")
}

func (s *ProgramService) Unarchive(ctx context.Context, id uuid.UUID) (*types.Program, error) {
	return s.action(ctx, id, "unarchive")
}

func (s *ProgramService) Versions(ctx context.Context, id uuid.UUID) ([]*types.ProgramVersion, error) {
	return call[[]*types.ProgramVersion](ctx, s.c, request{method: http.MethodGet, path: programPath(id, "/versions")})
}

func (s *ProgramService) Statistics(ctx context.Context) (*services.ProgramStatistics, error) {
	return call[*services.ProgramStatistics](ctx, s.c, request{method: http.MethodGet, path: "/api/programs/statistics"})
}

func (s *ProgramService) CanEdit(ctx context.Context, id uuid.UUID) (bool, error) {
	out, err := call[struct {
		CanEdit bool `json:"can_edit"`
	}](ctx, s.c, request{method: http.MethodGet, path: programPath(id, "/can-edit")})
	return out.CanEdit, err
}

func (s *ProgramService) CoAuthors(ctx context.Context) ([]*types.User, error) {
	return call[[]*types.User](ctx, s.c, request{method: http.MethodGet, path: "/api/programs/co-authors"})
}

func (s *ProgramService) PDF(ctx context.Context, id uuid.UUID) (*Binary, error) {
	return s.c.binary(ctx, request{method: http.MethodGet, path: programPath(id, "/document.pdf")})
}

func (s *ProgramService) Pages(ctx context.Context, id uuid.UUID) ([]services.PageInfo, error) {
	return call[[]services.PageInfo](ctx, s.c, request{method: http.MethodGet, path: programPath(id, "/document/pages")})
}

// PagePreview fetches a PNG of page n (1-based).
func (s *ProgramService) PagePreview(ctx context.Context, id uuid.UUID, n int) (*Binary, error) {
	return s.c.binary(ctx, request{method: http.MethodGet, path: programPath(id, "/document/pages/"+strconv.Itoa(n)+"/preview.png")})
}

// Render builds a PDF from an unsaved document.
func (s *ProgramService) Render(ctx context.Context, doc *program.Document) (*Binary, error) {
	return s.c.binary(ctx, request{method: http.MethodPost, path: "/api/documents/render", body: map[string]any{"document": doc}})
}

type WizardService struct{ c *Client }

type WizardResult struct {
	Session *services.WizardSession `json:"session"`
	Program *services.ProgramResult `json:"program"`
}

func wizardPath(id uuid.UUID, suffix string) string { return "/api/wizard/" + id.String() + suffix }

// Start opens a session; programID seeds it from an existing program.
func (s *WizardService) Start(ctx context.Context, programID *uuid.UUID) (*services.WizardSession, error) {
	return call[*services.WizardSession](ctx, s.c, request{method: http.MethodPost, path: "/api/wizard", body: map[string]any{"program_id": programID}})
}

func (s *WizardService) Get(ctx context.Context, id uuid.UUID) (*services.WizardSession, error) {
	return call[*services.WizardSession](ctx, s.c, request{method: http.MethodGet, path: wizardPath(id, "")})
}

func (s *WizardService) Patch(ctx context.Context, id uuid.UUID, patch wizard.Patch) (*services.WizardSession, error) {
	return call[*services.WizardSession](ctx, s.c, request{method: http.MethodPatch, path: wizardPath(id, ""), body: patch})
}

func (s *WizardService) Next(ctx context.Context, id uuid.UUID) (*services.WizardSession, error) {
	return call[*services.WizardSession](ctx, s.c, request{method: http.MethodPost, path: wizardPath(id, "/next")})
}

func (s *WizardService) Back(ctx context.Context, id uuid.UUID) (*services.WizardSession, error) {
	return call[*services.WizardSession](ctx, s.c, request{method: http.MethodPost, path: wizardPath(id, "/back")})
}

func (s *WizardService) Preview(ctx context.Context, id uuid.UUID) (*Binary, error) {
	return s.c.binary(ctx, request{method: http.MethodGet, path: wizardPath(id, "/preview.pdf")})
}

func (s *WizardService) Finish(ctx context.Context, id uuid.UUID) (*WizardResult, error) {
	return call[*WizardResult](ctx, s.c, request{method: http.MethodPost, path: wizardPath(id, "/finish")})
}

