package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/data/repos"
	"github.com/dpp-pk/constructor-backend/internal/data/repos/testutil"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/platform/cache"
	"github.com/dpp-pk/constructor-backend/internal/platform/ctxutil"
	"github.com/dpp-pk/constructor-backend/internal/program"
	"github.com/dpp-pk/constructor-backend/internal/wizard"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Email
}

func (m *recordingMailer) Send(_ context.Context, msg Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type archiveCall struct{ programID uuid.UUID }

type recordingArchiver struct {
	mu    sync.Mutex
	calls []archiveCall
}

func (a *recordingArchiver) ArchiveProgram(_ context.Context, programID uuid.UUID) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, archiveCall{programID: programID})
	return "programs/" + programID.String() + "/v1.pdf", nil
}

type testEnv struct {
	db       *gorm.DB
	mailer   *recordingMailer
	archiver *recordingArchiver

	auth            AuthService
	users           UserService
	candidates      CandidateService
	dictionaries    DictionaryService
	programs        ProgramService
	expertises      ExpertiseService
	recommendations RecommendationService
	documents       DocumentService
	wizards         WizardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	userRepo := repos.NewUserRepo(db, log)
	tokenRepo := repos.NewUserTokenRepo(db, log)
	candidateRepo := repos.NewCandidateRepo(db, log)
	entryRepo := repos.NewDictionaryEntryRepo(db, log)
	programRepo := repos.NewProgramRepo(db, log)
	expertiseRepo := repos.NewExpertiseRepo(db, log)
	recommendationRepo := repos.NewRecommendationRepo(db, log)

	env := &testEnv{db: db, mailer: &recordingMailer{}, archiver: &recordingArchiver{}}
	store := cache.NewMemoryStore()
	env.auth = NewAuthService(db, log, userRepo, tokenRepo, candidateRepo, "test-secret", 15*time.Minute, 24*time.Hour)
	env.users = NewUserService(db, log, userRepo, tokenRepo, env.mailer)
	env.candidates = NewCandidateService(db, log, candidateRepo, userRepo, env.mailer)
	env.dictionaries = NewDictionaryService(db, log, entryRepo)
	env.programs = NewProgramService(db, log, programRepo, expertiseRepo, userRepo)
	env.expertises = NewExpertiseService(db, log, expertiseRepo, programRepo, userRepo, env.archiver)
	env.recommendations = NewRecommendationService(db, log, recommendationRepo, programRepo)
	docs, err := NewDocumentService(log, env.programs, store, nil, time.Minute)
	if err != nil {
		t.Fatalf("NewDocumentService: %v", err)
	}
	env.documents = docs
	env.wizards = NewWizardService(log, store, env.programs, docs, time.Hour)
	return env
}

func (e *testEnv) seedUser(t *testing.T, role string) *types.User {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), e.db, uuid.NewString()+"@example.org", role)
}

func as(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: u.ID, Role: u.Role})
}

func statusOf(err error) int {
	s, _ := apierr.StatusOf(err)
	return s
}

func validDocument(title string) *program.Document {
	return &program.Document{
		Title:       title,
		Institution: "Институт развития образования",
		ProgramType: "Повышение квалификации",
		Explanatory: program.Explanatory{
			Relevance:        "<p>Актуальность</p>",
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

func TestRegisterApproveLogin(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, types.RoleAdmin)
	email := "Author-" + uuid.NewString()[:8] + "@Example.org"

	cand, err := env.auth.Register(context.Background(), RegisterInput{
		Email: email, Password: "secret-pass", FirstName: "Анна", LastName: "Смирнова", Role: types.RoleAuthor,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if cand.Status != types.CandidateStatusPending {
		t.Fatalf("candidate status = %s, want pending", cand.Status)
	}

	if _, err := env.auth.Login(context.Background(), email, "secret-pass"); err == nil {
		t.Fatalf("login must fail before approval")
	}

	created, err := env.candidates.Approve(as(admin), cand.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if created.TemporaryPassword != "" || created.User.MustChangePassword {
		t.Fatalf("registered candidate should keep their password: %+v", created)
	}
	if len(env.mailer.sent) != 0 {
		t.Fatalf("no invitation expected, got %d emails", len(env.mailer.sent))
	}

	sess, err := env.auth.Login(context.Background(), email, "secret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	rd, err := env.auth.Authenticate(context.Background(), sess.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if rd.UserID != created.User.ID || rd.Role != types.RoleAuthor {
		t.Fatalf("request data = %+v", rd)
	}

	if _, err := env.candidates.Approve(as(admin), cand.ID); statusOf(err) != http.StatusConflict {
		t.Fatalf("second approve: want 409, got %v", err)
	}
}

func TestInvitedCandidateGetsTemporaryPassword(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, types.RoleAdmin)

	cand, err := env.candidates.Invite(as(admin), InviteInput{Email: uuid.NewString() + "@example.org", FirstName: "Олег", Role: types.RoleExpert})
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	created, err := env.candidates.Approve(as(admin), cand.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if created.TemporaryPassword == "" || !created.User.MustChangePassword {
		t.Fatalf("expected a temporary password, got %+v", created)
	}
	if len(env.mailer.sent) != 1 || env.mailer.sent[0].Category != "invitation" {
		t.Fatalf("expected one invitation email, got %+v", env.mailer.sent)
	}
	if _, err := env.auth.Login(context.Background(), cand.Email, created.TemporaryPassword); err != nil {
		t.Fatalf("login with temporary password: %v", err)
	}
}

func TestInviteBulkReportsFailuresPerEntry(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, types.RoleAdmin)
	dup := uuid.NewString() + "@example.org"

	res, err := env.candidates.InviteBulk(as(admin), []InviteInput{
		{Email: dup, Role: types.RoleAuthor},
		{Email: dup, Role: types.RoleAuthor},
		{Email: "not-an-email", Role: types.RoleAuthor},
	})
	if err != nil {
		t.Fatalf("InviteBulk: %v", err)
	}
	if len(res.Created) != 1 || len(res.Failed) != 2 {
		t.Fatalf("created=%d failed=%d", len(res.Created), len(res.Failed))
	}
}

func TestCandidateActionsRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedUser(t, types.RoleAuthor)
	_, err := env.candidates.Invite(as(author), InviteInput{Email: "x@example.org", Role: types.RoleAuthor})
	if statusOf(err) != http.StatusForbidden {
		t.Fatalf("want 403, got %v", err)
	}
	if _, err := env.candidates.Invite(context.Background(), InviteInput{}); statusOf(err) != http.StatusUnauthorized {
		t.Fatalf("want 401, got %v", err)
	}
}

func TestProgramLifecycle(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedUser(t, types.RoleAuthor)
	coAuthor := env.seedUser(t, types.RoleAuthor)
	stranger := env.seedUser(t, types.RoleAuthor)
	admin := env.seedUser(t, types.RoleAdmin)
	expert := env.seedUser(t, types.RoleExpert)

	doc := validDocument("Цифровая школа")
	doc.CoAuthors = []program.CoAuthorRef{{UserID: coAuthor.ID.String()}}
	p, err := env.programs.Create(as(author), doc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Status != types.ProgramStatusDraft || p.Version != 1 {
		t.Fatalf("new program = %s v%d", p.Status, p.Version)
	}

	doc.Title = "Цифровая школа 2.0"
	if _, err := env.programs.Update(as(coAuthor), p.ID, doc); err != nil {
		t.Fatalf("co-author update: %v", err)
	}
	if _, err := env.programs.Update(as(stranger), p.ID, doc); statusOf(err) != http.StatusForbidden {
		t.Fatalf("stranger update: want 403, got %v", err)
	}
	versions, err := env.programs.Versions(as(author), p.ID)
	if err != nil || len(versions) != 2 || versions[0].Version != 2 {
		t.Fatalf("versions = %v err=%v", len(versions), err)
	}

	if _, err := env.programs.Submit(as(author), p.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ok, err := env.programs.CanEdit(as(author), p.ID); err != nil || ok {
		t.Fatalf("program on expertise must be locked: ok=%v err=%v", ok, err)
	}
	if _, err := env.programs.Update(as(author), p.ID, doc); statusOf(err) != http.StatusConflict {
		t.Fatalf("update on expertise: want 409, got %v", err)
	}

	e, err := env.expertises.Assign(as(admin), AssignInput{ProgramID: p.ID, ExpertID: expert.ID})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := env.programs.Get(as(expert), p.ID); err != nil {
		t.Fatalf("assigned expert must read the program: %v", err)
	}

	conclusion := "Программа соответствует требованиям"
	done, err := env.expertises.Submit(as(expert), e.ID, ExpertiseInput{Conclusion: &conclusion})
	if err != nil {
		t.Fatalf("Submit expertise: %v", err)
	}
	if done.Status != types.ExpertiseStatusApproved {
		t.Fatalf("all criteria affirmed: status = %s", done.Status)
	}
	got, err := env.programs.Get(as(author), p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != types.ProgramStatusApproved || got.ArchiveKey == "" {
		t.Fatalf("program after approval = %s key=%q", got.Status, got.ArchiveKey)
	}
	if len(env.archiver.calls) != 1 {
		t.Fatalf("archive calls = %d", len(env.archiver.calls))
	}

	stats, err := env.programs.Statistics(as(author))
	if err != nil || stats.ByStatus[types.ProgramStatusApproved] != 1 {
		t.Fatalf("statistics = %+v err=%v", stats, err)
	}
}

func TestSubmitRejectsIncompleteDocument(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedUser(t, types.RoleAuthor)
	p, err := env.programs.Create(as(author), &program.Document{Title: "Черновик"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = env.programs.Submit(as(author), p.ID)
	var ve *apierr.ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) == 0 {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestRevisionCycle(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedUser(t, types.RoleAuthor)
	admin := env.seedUser(t, types.RoleAdmin)
	expert := env.seedUser(t, types.RoleExpert)

	p, err := env.programs.Create(as(author), validDocument("Инклюзия"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := env.programs.Submit(as(author), p.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	e, err := env.expertises.Assign(as(admin), AssignInput{ProgramID: p.ID, ExpertID: expert.ID})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	key := env.expertises.Criteria().Keys()[0]
	draft := []byte(`{"` + key + `":{"value":false,"comment":"Нет обоснования"}}`)
	var answers ExpertiseInput
	if err := answers.Criteria.UnmarshalJSON(draft); err != nil {
		t.Fatalf("decode answers: %v", err)
	}
	saved, err := env.expertises.Update(as(expert), e.ID, answers)
	if err != nil || saved.Status != types.ExpertiseStatusInProgress {
		t.Fatalf("Update: status=%v err=%v", saved, err)
	}

	conclusion := "Требуется доработка"
	done, err := env.expertises.Submit(as(expert), e.ID, ExpertiseInput{Conclusion: &conclusion})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if done.Status != types.ExpertiseStatusRejected {
		t.Fatalf("declined criterion: status = %s", done.Status)
	}
	if !strings.Contains(string(done.Criteria), "Нет обоснования") {
		t.Fatalf("comment of the declined criterion lost: %s", done.Criteria)
	}

	rev, err := env.expertises.SendForRevision(as(admin), e.ID, "Дополните пояснительную записку")
	if err != nil {
		t.Fatalf("SendForRevision: %v", err)
	}
	if rev.RevisionRound != 1 || rev.RevisionRequestedAt == nil {
		t.Fatalf("revision bookkeeping: %+v", rev)
	}
	got, _ := env.programs.Get(as(author), p.ID)
	if got.Status != types.ProgramStatusNeedsRevision {
		t.Fatalf("program status = %s, want needs_revision", got.Status)
	}
	if ok, _ := env.programs.CanEdit(as(author), p.ID); !ok {
		t.Fatalf("program must be editable during revision")
	}

	if _, err := env.programs.Resubmit(as(author), p.ID); err != nil {
		t.Fatalf("Resubmit: %v", err)
	}
	reopened, err := env.expertises.Get(as(expert), e.ID)
	if err != nil {
		t.Fatalf("Get expertise: %v", err)
	}
	if reopened.Status != types.ExpertiseStatusPending || reopened.ResubmittedAt == nil {
		t.Fatalf("expertise after resubmit = %s", reopened.Status)
	}
}

func TestExpertiseSubmitRequiresConclusion(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedUser(t, types.RoleAuthor)
	expert := env.seedUser(t, types.RoleExpert)
	other := env.seedUser(t, types.RoleExpert)
	p := testutil.SeedProgram(t, context.Background(), env.db, author.ID, "Программа", types.ProgramStatusOnExpertise)
	e := testutil.SeedExpertise(t, context.Background(), env.db, p.ID, expert.ID, types.ExpertiseStatusPending)

	var ve *apierr.ValidationError
	if _, err := env.expertises.Submit(as(expert), e.ID, ExpertiseInput{}); !errors.As(err, &ve) {
		t.Fatalf("want validation error, got %v", err)
	}
	if _, err := env.expertises.Update(as(other), e.ID, ExpertiseInput{}); statusOf(err) != http.StatusForbidden {
		t.Fatalf("foreign expert: want 403, got %v", err)
	}
}

func TestDictionaryImportExport(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, types.RoleAdmin)
	author := env.seedUser(t, types.RoleAuthor)

	dump := []byte(`
entries:
  - type: institution
    value: ИРО
    sort_order: 1
  - type: software
    value: LibreOffice
    is_active: false
  - type: institution
    value: ИРО
    code: IRO
`)
	n, err := env.dictionaries.Import(as(admin), FormatYAML, dump)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported %d entries, want 2", n)
	}

	lists, err := env.dictionaries.List(as(author))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lists["institution"]) != 1 || lists["institution"][0].Code != "IRO" {
		t.Fatalf("institution list = %+v", lists["institution"])
	}
	if len(lists["software"]) != 0 {
		t.Fatalf("inactive entries must be hidden from authors")
	}

	out, err := env.dictionaries.Export(as(admin), FormatJSON)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(string(out), "LibreOffice") {
		t.Fatalf("export misses inactive entry: %s", out)
	}

	if _, err := env.dictionaries.Create(as(admin), DictionaryInput{Type: "planet", Value: "Mars"}); statusOf(err) != http.StatusUnprocessableEntity {
		t.Fatalf("unknown type: want 422, got %v", err)
	}
}

func TestRecommendationFlow(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedUser(t, types.RoleAuthor)
	expert := env.seedUser(t, types.RoleExpert)
	p := testutil.SeedProgram(t, context.Background(), env.db, author.ID, "Программа", types.ProgramStatusDraft)

	rec, err := env.recommendations.Create(as(expert), RecommendationInput{ProgramID: &p.ID, Title: "Литература", Content: "Обновите список"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.RecipientID == nil || *rec.RecipientID != author.ID {
		t.Fatalf("recipient defaults to the program author")
	}
	if _, err := env.recommendations.Create(as(author), RecommendationInput{Title: "x", Content: "y"}); statusOf(err) != http.StatusForbidden {
		t.Fatalf("authors cannot write recommendations: %v", err)
	}

	mine, total, err := env.recommendations.Mine(as(author), RecommendationListInput{})
	if err != nil || total != 1 || len(mine) != 1 {
		t.Fatalf("Mine: total=%d err=%v", total, err)
	}
	if _, err := env.recommendations.Respond(as(expert), rec.ID, "ok"); statusOf(err) != http.StatusForbidden {
		t.Fatalf("only the recipient responds: %v", err)
	}
	resp, err := env.recommendations.Respond(as(author), rec.ID, "Список обновлен")
	if err != nil || resp.Status != types.RecommendationStatusResponded {
		t.Fatalf("Respond: %v", err)
	}
	if _, err := env.recommendations.Feedback(as(author), rec.ID, FeedbackInput{Rating: 5, Feedback: "Полезно"}); err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if _, err := env.recommendations.Archive(as(author), rec.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if _, err := env.recommendations.Update(as(expert), rec.ID, RecommendationInput{Title: "a", Content: "b"}); statusOf(err) != http.StatusConflict {
		t.Fatalf("archived recommendation is read-only: %v", err)
	}
}

func TestWizardSessionFinishCreatesProgram(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedUser(t, types.RoleAuthor)
	other := env.seedUser(t, types.RoleAuthor)
	ctx := as(author)

	s, err := env.wizards.Start(ctx, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := env.wizards.Get(as(other), s.ID); statusOf(err) != http.StatusNotFound {
		t.Fatalf("sessions are private: %v", err)
	}

	if _, err := env.wizards.Next(ctx, s.ID); statusOf(err) != http.StatusUnprocessableEntity {
		t.Fatalf("empty general step must not advance: %v", err)
	}
	s, err = env.wizards.Update(ctx, s.ID, wizard.Patch{
		"title":        json.RawMessage(`"Мастерская учителя"`),
		"institution":  json.RawMessage(`"ИРО"`),
		"program_type": json.RawMessage(`"ПК"`),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := env.wizards.Update(ctx, s.ID, wizard.Patch{"modules": json.RawMessage(`[]`)}); statusOf(err) != http.StatusBadRequest {
		t.Fatalf("keys of other steps are rejected: %v", err)
	}
	if s, err = env.wizards.Next(ctx, s.ID); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if s.Step != "abbreviations" {
		t.Fatalf("step = %s", s.Step)
	}

	pdf, err := env.wizards.Preview(ctx, s.ID)
	if err != nil || !strings.HasPrefix(string(pdf), "%PDF") {
		t.Fatalf("Preview: err=%v", err)
	}

	if _, _, err := env.wizards.Finish(ctx, s.ID); statusOf(err) != http.StatusUnprocessableEntity {
		t.Fatalf("incomplete document: want 422, got %v", err)
	}
}

func TestWizardSessionSeededFromProgram(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedUser(t, types.RoleAuthor)
	ctx := as(author)

	p, err := env.programs.Create(ctx, validDocument("Исходная"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s, err := env.wizards.Start(ctx, &p.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.State.Document.Title != "Исходная" {
		t.Fatalf("session not seeded: %+v", s.State.Document.Title)
	}
	if _, err := env.wizards.Update(ctx, s.ID, wizard.Patch{"title": json.RawMessage(`"Обновленная"`)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	_, saved, err := env.wizards.Finish(ctx, s.ID)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if saved.ID != p.ID || saved.Version != 2 {
		t.Fatalf("saved = %+v", saved)
	}
	if _, err := env.wizards.Get(ctx, s.ID); statusOf(err) != http.StatusNotFound {
		t.Fatalf("finished session must be dropped: %v", err)
	}

	pages, err := env.documents.Pages(ctx, p.ID)
	if err != nil || len(pages) == 0 {
		t.Fatalf("Pages: n=%d err=%v", len(pages), err)
	}
	if pages[0].Name != "title" || pages[0].Number != 1 {
		t.Fatalf("first page = %+v", pages[0])
	}
	png, err := env.documents.PreviewPNG(ctx, p.ID, 1)
	if err != nil || !strings.HasPrefix(string(png), "\x89PNG") {
		t.Fatalf("PreviewPNG: err=%v", err)
	}
	if _, err := env.documents.PreviewPNG(ctx, p.ID, len(pages)+1); statusOf(err) != http.StatusNotFound {
		t.Fatalf("page out of range: %v", err)
	}
}
