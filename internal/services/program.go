package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/data/repos"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/expertise"
	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/platform/ctxutil"
	"github.com/dpp-pk/constructor-backend/internal/platform/dbctx"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
	"github.com/dpp-pk/constructor-backend/internal/program"
)

const (
	ScopeMine = "mine"
	ScopeAll  = "all"
)

type ProgramListInput struct {
	Scope    string
	Statuses []string
	Search   string
	Page     int
	Limit    int
}

type ProgramStatistics struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

type ProgramService interface {
	List(ctx context.Context, in ProgramListInput) ([]*types.Program, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Program, error)
	// Document loads the decoded document with the linked expertise records filled in.
	Document(ctx context.Context, id uuid.UUID) (*types.Program, *program.Document, error)
	Create(ctx context.Context, doc *program.Document) (*types.Program, error)
	Update(ctx context.Context, id uuid.UUID, doc *program.Document) (*types.Program, error)
	Submit(ctx context.Context, id uuid.UUID) (*types.Program, error)
	Resubmit(ctx context.Context, id uuid.UUID) (*types.Program, error)
	Archive(ctx context.Context, id uuid.UUID) (*types.Program, error)
	Unarchive(ctx context.Context, id uuid.UUID) (*types.Program, error)
	Versions(ctx context.Context, id uuid.UUID) ([]*types.ProgramVersion, error)
	Statistics(ctx context.Context) (*ProgramStatistics, error)
	CanEdit(ctx context.Context, id uuid.UUID) (bool, error)
	CoAuthorCandidates(ctx context.Context) ([]*types.User, error)
}

type programService struct {
	db            *gorm.DB
	log           *logger.Logger
	programRepo   repos.ProgramRepo
	expertiseRepo repos.ExpertiseRepo
	userRepo      repos.UserRepo
	now           func() time.Time
}

func NewProgramService(db *gorm.DB, log *logger.Logger, programRepo repos.ProgramRepo, expertiseRepo repos.ExpertiseRepo, userRepo repos.UserRepo) ProgramService {
	return &programService{
		db:            db,
		log:           log.With("service", "ProgramService"),
		programRepo:   programRepo,
		expertiseRepo: expertiseRepo,
		userRepo:      userRepo,
		now:           time.Now,
	}
}

func (ps *programService) List(ctx context.Context, in ProgramListInput) ([]*types.Program, int64, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, 0, err
	}
	filter := repos.ProgramListFilter{Search: strings.TrimSpace(in.Search)}
	filter.Page.Page, filter.Page.Limit = in.Page, in.Limit
	for _, s := range in.Statuses {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		if !types.IsValidProgramStatus(s) {
			return nil, 0, apierr.Invalid("invalid_status", fmt.Sprintf("unknown program status %q", s))
		}
		filter.Statuses = append(filter.Statuses, s)
	}
	switch in.Scope {
	case "", ScopeMine:
		filter.MemberID = &rd.UserID
	case ScopeAll:
		if !isAdmin(rd) && rd.Role != types.RoleExpert {
			return nil, 0, apierr.Forbidden("only administrators and experts can list all programs")
		}
	default:
		return nil, 0, apierr.Invalid("invalid_scope", fmt.Sprintf("unknown scope %q", in.Scope))
	}
	return ps.programRepo.List(dbctx.New(ctx), filter)
}

func (ps *programService) load(dbc dbctx.Context, id uuid.UUID) (*types.Program, error) {
	p, err := ps.programRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("program")
	}
	return p, nil
}

func isMember(p *types.Program, userID uuid.UUID) bool {
	if p.AuthorID == userID {
		return true
	}
	for _, ca := range p.CoAuthors {
		if ca.UserID == userID {
			return true
		}
	}
	return false
}

// canRead: administrators, members and experts assigned to the program.
func (ps *programService) canRead(dbc dbctx.Context, rd *ctxutil.RequestData, p *types.Program) (bool, error) {
	if isAdmin(rd) || isMember(p, rd.UserID) {
		return true, nil
	}
	if rd.Role != types.RoleExpert {
		return false, nil
	}
	_, n, err := ps.expertiseRepo.List(dbc, repos.ExpertiseListFilter{ExpertID: &rd.UserID, ProgramID: &p.ID})
	if err != nil {
		return false, fmt.Errorf("check expert assignment: %w", err)
	}
	return n > 0, nil
}

func (ps *programService) readable(dbc dbctx.Context, rd *ctxutil.RequestData, id uuid.UUID) (*types.Program, error) {
	p, err := ps.load(dbc, id)
	if err != nil {
		return nil, err
	}
	ok, err := ps.canRead(dbc, rd, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierr.Forbidden("no access to this program")
	}
	return p, nil
}

func (ps *programService) Get(ctx context.Context, id uuid.UUID) (*types.Program, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	return ps.readable(dbctx.New(ctx), rd, id)
}

func (ps *programService) Document(ctx context.Context, id uuid.UUID) (*types.Program, *program.Document, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	dbc := dbctx.New(ctx)
	p, err := ps.readable(dbc, rd, id)
	if err != nil {
		return nil, nil, err
	}
	doc, err := ps.decode(dbc, p)
	if err != nil {
		return nil, nil, err
	}
	return p, doc, nil
}

// decode parses the stored document and attaches the expertise records that reached a verdict.
func (ps *programService) decode(dbc dbctx.Context, p *types.Program) (*program.Document, error) {
	doc, err := program.Decode(p.Document)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", p.ID, err)
	}
	list, err := ps.expertiseRepo.ListByProgramIDs(dbc, []uuid.UUID{p.ID})
	if err != nil {
		return nil, fmt.Errorf("load expertises: %w", err)
	}
	doc.Expertises = expertiseRefs(list)
	return doc, nil
}

func expertiseRefs(list []*types.Expertise) []program.ExpertiseRef {
	var out []program.ExpertiseRef
	for _, e := range list {
		if !e.Final() {
			continue
		}
		ref := program.ExpertiseRef{
			Status:      e.Status,
			Approved:    e.Status == types.ExpertiseStatusApproved,
			Conclusion:  e.Conclusion,
			CompletedAt: e.CompletedAt,
		}
		if e.Expert != nil {
			ref.ExpertName = e.Expert.FullName()
		}
		out = append(out, ref)
	}
	return out
}

// prepareDocument strips read-only data and returns the encoded document and co-author ids.
func prepareDocument(doc *program.Document) (datatypes.JSON, []uuid.UUID, error) {
	if doc == nil {
		doc = &program.Document{}
	}
	doc.Title = strings.TrimSpace(doc.Title)
	if doc.Title == "" {
		return nil, nil, apierr.Validation([]apierr.FieldError{{Field: "title", Message: "обязательное поле"}})
	}
	doc.Expertises = nil
	var coAuthors []uuid.UUID
	for i, ca := range doc.CoAuthors {
		if ca.UserID == "" {
			continue
		}
		id, err := uuid.Parse(ca.UserID)
		if err != nil {
			return nil, nil, apierr.Validation([]apierr.FieldError{{Field: fmt.Sprintf("co_authors[%d].user_id", i), Message: "некорректный идентификатор"}})
		}
		coAuthors = append(coAuthors, id)
	}
	raw, err := program.Encode(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("encode document: %w", err)
	}
	return datatypes.JSON(raw), coAuthors, nil
}

// checkCoAuthors ensures every referenced user is an active author other than the owner.
func (ps *programService) checkCoAuthors(dbc dbctx.Context, ownerID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	users, err := ps.userRepo.GetByIDs(dbc, ids)
	if err != nil {
		return fmt.Errorf("load co-authors: %w", err)
	}
	found := make(map[uuid.UUID]*types.User, len(users))
	for _, u := range users {
		found[u.ID] = u
	}
	for _, id := range ids {
		u := found[id]
		if u == nil || u.Status != types.UserStatusActive || u.Role != types.RoleAuthor {
			return apierr.Invalid("invalid_co_author", fmt.Sprintf("user %s cannot be a co-author", id))
		}
		if id == ownerID {
			return apierr.Invalid("invalid_co_author", "the author cannot be their own co-author")
		}
	}
	return nil
}

func (ps *programService) snapshot(dbc dbctx.Context, p *types.Program, savedBy uuid.UUID) error {
	return ps.programRepo.CreateVersion(dbc, &types.ProgramVersion{
		ProgramID: p.ID,
		Version:   p.Version,
		Status:    p.Status,
		SavedByID: savedBy,
		Document:  p.Document,
	})
}

func (ps *programService) Create(ctx context.Context, doc *program.Document) (*types.Program, error) {
	rd, err := requireRole(ctx, types.RoleAuthor, types.RoleAdmin)
	if err != nil {
		return nil, err
	}
	raw, coAuthors, err := prepareDocument(doc)
	if err != nil {
		return nil, err
	}
	p := &types.Program{
		Title:    doc.Title,
		Status:   types.ProgramStatusDraft,
		AuthorID: rd.UserID,
		Document: raw,
		Version:  1,
	}
	err = inTx(ps.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		if err := ps.checkCoAuthors(dbc, rd.UserID, coAuthors); err != nil {
			return err
		}
		if err := ps.programRepo.Create(dbc, p); err != nil {
			return fmt.Errorf("create program: %w", err)
		}
		if err := ps.programRepo.SetCoAuthors(dbc, p.ID, coAuthors); err != nil {
			return fmt.Errorf("set co-authors: %w", err)
		}
		return ps.snapshot(dbc, p, rd.UserID)
	})
	if err != nil {
		return nil, err
	}
	ps.log.Info("Program created", "program_id", p.ID, "author_id", rd.UserID)
	return ps.Get(ctx, p.ID)
}

// editable loads the program and checks edit rights of the caller.
func (ps *programService) editable(dbc dbctx.Context, rd *ctxutil.RequestData, id uuid.UUID) (*types.Program, error) {
	p, err := ps.load(dbc, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin(rd) && !isMember(p, rd.UserID) {
		return nil, apierr.Forbidden("only the author and co-authors can edit this program")
	}
	if !types.ProgramEditable(p.Status) {
		return nil, apierr.Conflict("program_locked", fmt.Sprintf("program in status %s cannot be edited", p.Status))
	}
	return p, nil
}

func (ps *programService) Update(ctx context.Context, id uuid.UUID, doc *program.Document) (*types.Program, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	raw, coAuthors, err := prepareDocument(doc)
	if err != nil {
		return nil, err
	}
	err = inTx(ps.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		p, err := ps.editable(dbc, rd, id)
		if err != nil {
			return err
		}
		if err := ps.checkCoAuthors(dbc, p.AuthorID, coAuthors); err != nil {
			return err
		}
		p.Title = doc.Title
		p.Document = raw
		p.Version++
		if err := ps.programRepo.Save(dbc, p); err != nil {
			return fmt.Errorf("save program: %w", err)
		}
		if err := ps.programRepo.SetCoAuthors(dbc, p.ID, coAuthors); err != nil {
			return fmt.Errorf("set co-authors: %w", err)
		}
		return ps.snapshot(dbc, p, rd.UserID)
	})
	if err != nil {
		return nil, err
	}
	return ps.Get(ctx, id)
}

func (ps *programService) Submit(ctx context.Context, id uuid.UUID) (*types.Program, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	err = inTx(ps.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		p, err := ps.load(dbc, id)
		if err != nil {
			return err
		}
		if !isMember(p, rd.UserID) {
			return apierr.Forbidden("only the author and co-authors can submit this program")
		}
		if p.Status != types.ProgramStatusDraft {
			return apierr.Conflict("invalid_transition", fmt.Sprintf("cannot submit a program in status %s", p.Status))
		}
		doc, err := program.Decode(p.Document)
		if err != nil {
			return apierr.Invalid("invalid_document", err.Error())
		}
		if err := apierr.Validation(program.Validate(doc)); err != nil {
			return err
		}
		now := ps.now()
		return ps.programRepo.UpdateStatus(dbc, id, map[string]any{
			"status":       types.ProgramStatusOnExpertise,
			"submitted_at": now,
		})
	})
	if err != nil {
		return nil, err
	}
	ps.log.Info("Program submitted for expertise", "program_id", id)
	return ps.Get(ctx, id)
}

// Resubmit returns a revised program to expertise and reopens the reviews that requested changes.
func (ps *programService) Resubmit(ctx context.Context, id uuid.UUID) (*types.Program, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	err = inTx(ps.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		p, err := ps.load(dbc, id)
		if err != nil {
			return err
		}
		if !isMember(p, rd.UserID) {
			return apierr.Forbidden("only the author and co-authors can resubmit this program")
		}
		if p.Status != types.ProgramStatusNeedsRevision && p.Status != types.ProgramStatusRejected {
			return apierr.Conflict("invalid_transition", fmt.Sprintf("cannot resubmit a program in status %s", p.Status))
		}
		doc, err := program.Decode(p.Document)
		if err != nil {
			return apierr.Invalid("invalid_document", err.Error())
		}
		if err := apierr.Validation(program.Validate(doc)); err != nil {
			return err
		}
		list, err := ps.expertiseRepo.ListByProgramIDs(dbc, []uuid.UUID{id})
		if err != nil {
			return fmt.Errorf("load expertises: %w", err)
		}
		now := ps.now()
		for _, e := range list {
			if e.Status != types.ExpertiseStatusRejected {
				continue
			}
			next, err := expertise.Transition(e.Status, expertise.ActionReopen)
			if err != nil {
				return err
			}
			e.Status = next
			e.ResubmittedAt = &now
			e.CompletedAt = nil
			if err := ps.expertiseRepo.Save(dbc, e); err != nil {
				return fmt.Errorf("reopen expertise: %w", err)
			}
		}
		return ps.programRepo.UpdateStatus(dbc, id, map[string]any{
			"status":       types.ProgramStatusOnExpertise,
			"submitted_at": now,
		})
	})
	if err != nil {
		return nil, err
	}
	ps.log.Info("Program resubmitted", "program_id", id)
	return ps.Get(ctx, id)
}

func (ps *programService) Archive(ctx context.Context, id uuid.UUID) (*types.Program, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	err = inTx(ps.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		p, err := ps.load(dbc, id)
		if err != nil {
			return err
		}
		if !isAdmin(rd) && p.AuthorID != rd.UserID {
			return apierr.Forbidden("only the author can archive this program")
		}
		if p.Status == types.ProgramStatusArchived {
			return apierr.Conflict("already_archived", "program is already archived")
		}
		if p.Status == types.ProgramStatusOnExpertise {
			return apierr.Conflict("on_expertise", "program is under expertise")
		}
		return ps.programRepo.UpdateStatus(dbc, id, map[string]any{
			"status":               types.ProgramStatusArchived,
			"archived_from_status": p.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	return ps.Get(ctx, id)
}

func (ps *programService) Unarchive(ctx context.Context, id uuid.UUID) (*types.Program, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	err = inTx(ps.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		p, err := ps.load(dbc, id)
		if err != nil {
			return err
		}
		if !isAdmin(rd) && p.AuthorID != rd.UserID {
			return apierr.Forbidden("only the author can unarchive this program")
		}
		if p.Status != types.ProgramStatusArchived {
			return apierr.Conflict("not_archived", "program is not archived")
		}
		restored := p.ArchivedFromStatus
		if restored == "" {
			restored = types.ProgramStatusDraft
		}
		return ps.programRepo.UpdateStatus(dbc, id, map[string]any{
			"status":               restored,
			"archived_from_status": "",
		})
	})
	if err != nil {
		return nil, err
	}
	return ps.Get(ctx, id)
}

func (ps *programService) Versions(ctx context.Context, id uuid.UUID) ([]*types.ProgramVersion, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	if _, err := ps.readable(dbc, rd, id); err != nil {
		return nil, err
	}
	return ps.programRepo.ListVersions(dbc, id)
}

func (ps *programService) Statistics(ctx context.Context) (*ProgramStatistics, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	var member *uuid.UUID
	if !isAdmin(rd) {
		member = &rd.UserID
	}
	counts, err := ps.programRepo.CountByStatus(dbctx.New(ctx), member)
	if err != nil {
		return nil, fmt.Errorf("count programs: %w", err)
	}
	out := &ProgramStatistics{ByStatus: counts}
	for _, n := range counts {
		out.Total += n
	}
	return out, nil
}

func (ps *programService) CanEdit(ctx context.Context, id uuid.UUID) (bool, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return false, err
	}
	_, err = ps.editable(dbctx.New(ctx), rd, id)
	switch {
	case err == nil:
		return true, nil
	case apierrIsAccess(err):
		return false, nil
	default:
		return false, err
	}
}

// apierrIsAccess reports permission and status refusals, as opposed to lookup failures.
func apierrIsAccess(err error) bool {
	status, _ := apierr.StatusOf(err)
	return status == http.StatusForbidden || status == http.StatusConflict
}

func (ps *programService) CoAuthorCandidates(ctx context.Context) ([]*types.User, error) {
	rd, err := requireRole(ctx, types.RoleAuthor, types.RoleAdmin)
	if err != nil {
		return nil, err
	}
	users, err := ps.userRepo.ListActiveByRole(dbctx.New(ctx), types.RoleAuthor)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	out := make([]*types.User, 0, len(users))
	for _, u := range users {
		if u.ID != rd.UserID {
			out = append(out, u)
		}
	}
	return out, nil
}

// DecodeDocument parses a request body into a program document, rejecting unknown keys.
func DecodeDocument(raw json.RawMessage) (*program.Document, error) {
	doc, err := program.Decode(raw)
	if err != nil {
		return nil, apierr.Invalid("invalid_document", err.Error())
	}
	return doc, nil
}
