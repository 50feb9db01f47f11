package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/data/repos/testutil"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	httpH "github.com/dpp-pk/constructor-backend/internal/http/handlers"
	"github.com/dpp-pk/constructor-backend/internal/platform/cache"
	"github.com/dpp-pk/constructor-backend/internal/program"
	"github.com/dpp-pk/constructor-backend/internal/services"
)

type discardMailer struct{}

func (discardMailer) Send(context.Context, services.Email) error { return nil }

type harness struct {
	t   *testing.T
	db  *gorm.DB
	app *App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	cfg := Config{
		JWTSecretKey:    "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		RenderCacheTTL:  time.Minute,
		WizardTTL:       time.Hour,
	}
	a, err := Assemble(log, cfg, Clients{DB: db, Cache: cache.NewMemoryStore(), Mailer: discardMailer{}})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return &harness{t: t, db: db, app: a}
}

func (h *harness) user(role, password string) *types.User {
	h.t.Helper()
	u := testutil.SeedUser(h.t, context.Background(), h.db, uuid.NewString()[:8]+"@example.org", role)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		h.t.Fatalf("hash: %v", err)
	}
	if err := h.db.Model(u).Update("password", string(hash)).Error; err != nil {
		h.t.Fatalf("set password: %v", err)
	}
	return u
}

func (h *harness) do(method, path, token string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.app.Router.ServeHTTP(w, req)
	return w
}

func (h *harness) login(u *types.User, password string) (string, *http.Cookie) {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": u.Email, "password": password})
	if w.Code != http.StatusOK {
		h.t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var sess struct {
		AccessToken string `json:"access_token"`
	}
	decode(h.t, w, &sess)
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == httpH.SessionCookie {
			cookie = c
		}
	}
	if sess.AccessToken == "" || cookie == nil {
		h.t.Fatalf("login returned no token or cookie: %s", w.Body.String())
	}
	return sess.AccessToken, cookie
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func sampleDocument() *program.Document {
	return &program.Document{
		Title:       "Цифровая школа",
		Institution: "Институт развития образования",
		ProgramType: "Повышение квалификации",
		Explanatory: program.Explanatory{
			Relevance:        "<p>Актуальность <b>программы</b></p>",
			Goal:             "<p>Цель</p>",
			AudienceCategory: "Учителя",
		},
		Modules: []program.Module{{
			Section: program.SectionNormative,
			Code:    "М1",
			Name:    "Нормативная база",
			Hours:   program.Hours{Lecture: 4, Practice: 4},
		}},
		Organization: program.Organization{Staffing: "Преподаватели"},
		Evaluation:   program.Evaluation{Requirements: "Зачет"},
	}
}

func TestHealthcheck(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/healthcheck", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthcheck = %d %q", w.Code, w.Body.String())
	}
}

func TestAuthFlowOverHTTP(t *testing.T) {
	h := newHarness(t)
	admin := h.user(types.RoleAdmin, "admin-pass")

	if w := h.do(http.MethodGet, "/api/auth/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("me without token = %d", w.Code)
	}

	token, cookie := h.login(admin, "admin-pass")
	w := h.do(http.MethodGet, "/api/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me = %d %s", w.Code, w.Body.String())
	}
	var me types.User
	decode(t, w, &me)
	if me.ID != admin.ID {
		t.Fatalf("me returned %s, want %s", me.ID, admin.ID)
	}

	w = h.do(http.MethodPost, "/api/auth/refresh", "", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh = %d %s", w.Code, w.Body.String())
	}

	w = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": admin.Email, "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", w.Code)
	}
	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	decode(t, w, &env)
	if env.Error.Message == "" {
		t.Fatalf("error envelope missing message: %s", w.Body.String())
	}
}

func TestRoleGates(t *testing.T) {
	h := newHarness(t)
	author := h.user(types.RoleAuthor, "author-pass")
	token, _ := h.login(author, "author-pass")

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/admin/users", http.StatusForbidden},
		{http.MethodGet, "/api/candidates", http.StatusForbidden},
		{http.MethodPost, "/api/dictionaries", http.StatusForbidden},
		{http.MethodGet, "/api/expertises/mine", http.StatusForbidden},
		{http.MethodGet, "/api/dictionaries", http.StatusOK},
		{http.MethodGet, "/api/programs", http.StatusOK},
		{http.MethodGet, "/api/expertises/criteria", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := h.do(tc.method, tc.path, token, map[string]string{})
			if w.Code != tc.want {
				t.Fatalf("got %d, want %d: %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestProgramDocumentOverHTTP(t *testing.T) {
	h := newHarness(t)
	author := h.user(types.RoleAuthor, "author-pass")
	token, _ := h.login(author, "author-pass")

	w := h.do(http.MethodPost, "/api/programs", token, map[string]any{"document": sampleDocument()})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	var created types.Program
	decode(t, w, &created)
	base := "/api/programs/" + created.ID.String()

	w = h.do(http.MethodGet, base+"/document.pdf", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pdf = %d %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("pdf content type = %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("pdf body does not start with %PDF")
	}

	w = h.do(http.MethodGet, base+"/document/pages", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pages = %d %s", w.Code, w.Body.String())
	}
	var pages []services.PageInfo
	decode(t, w, &pages)
	if len(pages) == 0 {
		t.Fatal("no pages")
	}

	w = h.do(http.MethodGet, base+"/document/pages/1/preview.png", token, nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("preview = %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if w := h.do(http.MethodGet, base+"/document/pages/0/preview.png", token, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("page 0 = %d", w.Code)
	}

	w = h.do(http.MethodGet, base+"/can-edit", token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"can_edit":true`) {
		t.Fatalf("can-edit = %d %s", w.Code, w.Body.String())
	}

	w = h.do(http.MethodPost, base+"/submit", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("submit = %d %s", w.Code, w.Body.String())
	}
	w = h.do(http.MethodPut, base, token, map[string]any{"document": sampleDocument()})
	if w.Code != http.StatusConflict {
		t.Fatalf("edit on expertise = %d %s", w.Code, w.Body.String())
	}

	if w := h.do(http.MethodGet, "/api/programs/not-a-uuid", token, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id = %d", w.Code)
	}
	if w := h.do(http.MethodGet, "/api/programs/"+uuid.NewString(), token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing program = %d", w.Code)
	}
}

func TestDictionaryExportImportOverHTTP(t *testing.T) {
	h := newHarness(t)
	admin := h.user(types.RoleAdmin, "admin-pass")
	token, _ := h.login(admin, "admin-pass")

	w := h.do(http.MethodPost, "/api/dictionaries", token, map[string]any{"type": "institution", "value": "ИРО"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}

	w = h.do(http.MethodGet, "/api/admin/dictionaries/export?format=yaml", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "dictionaries.yaml") {
		t.Fatalf("disposition = %q", w.Header().Get("Content-Disposition"))
	}
	dump := w.Body.String()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/dictionaries/import?format=yaml", strings.NewReader(dump))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"imported":1`) {
		t.Fatalf("import = %d %s", rec.Code, rec.Body.String())
	}
}
