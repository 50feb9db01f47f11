package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

type DictionaryService struct{ c *Client }

func dictionaryPath(id uuid.UUID) string { return "/api/dictionaries/" + id.String() }

// List returns entries grouped by dictionary type.
func (s *DictionaryService) List(ctx context.Context) (map[string][]*types.DictionaryEntry, error) {
	return call[map[string][]*types.DictionaryEntry](ctx, s.c, request{method: http.MethodGet, path: "/api/dictionaries"})
}

func (s *DictionaryService) ByType(ctx context.Context, entryType string) ([]*types.DictionaryEntry, error) {
	return call[[]*types.DictionaryEntry](ctx, s.c, request{method: http.MethodGet, path: "/api/dictionaries/type/" + url.PathEscape(entryType)})
}

func (s *DictionaryService) Search(ctx context.Context, query string, limit int) ([]*types.DictionaryEntry, error) {
	v := url.Values{"q": {query}}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	return call[[]*types.DictionaryEntry](ctx, s.c, request{method: http.MethodGet, path: "/api/dictionaries/search", query: v})
}

func (s *DictionaryService) Create(ctx context.Context, in services.DictionaryInput) (*types.DictionaryEntry, error) {
	return call[*types.DictionaryEntry](ctx, s.c, request{method: http.MethodPost, path: "/api/dictionaries", body: in})
}

func (s *DictionaryService) Update(ctx context.Context, id uuid.UUID, in services.DictionaryInput) (*types.DictionaryEntry, error) {
	return call[*types.DictionaryEntry](ctx, s.c, request{method: http.MethodPut, path: dictionaryPath(id), body: in})
}

func (s *DictionaryService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.c.do(ctx, request{method: http.MethodDelete, path: dictionaryPath(id)}, nil)
}

func (s *DictionaryService) Export(ctx context.Context, format services.ExportFormat) (*Binary, error) {
	return s.c.binary(ctx, request{
		method: http.MethodGet,
		path:   "/api/admin/dictionaries/export",
		query:  url.Values{"format": {string(format)}},
	})
}

// Import upserts a JSON or YAML dump and returns the number of applied entries.
func (s *DictionaryService) Import(ctx context.Context, format services.ExportFormat, data []byte) (int, error) {
	contentType := "application/json"
	if format == services.FormatYAML {
		contentType = "application/yaml"
	}
	out, err := call[struct {
		Imported int `json:"imported"`
	}](ctx, s.c, request{
		method:      http.MethodPost,
		path:        "/api/admin/dictionaries/import",
		query:       url.Values{"format": {string(format)}},
		raw:         data,
		contentType: contentType,
	})
	return out.Imported, err
}
