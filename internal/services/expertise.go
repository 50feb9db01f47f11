package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
)

type ExpertiseListInput struct {
	ProgramID *uuid.UUID
	Statuses  []string
	Page      int
	Limit     int
}

// ExpertiseInput is the expert's form. Criteria may be partial while saving a draft.
type ExpertiseInput struct {
	Criteria                 expertise.Answers `json:"criteria"`
	AdditionalRecommendation *string           `json:"additional_recommendation"`
	Conclusion               *string           `json:"conclusion"`
	Feedback                 *string           `json:"feedback"`
}

type AssignInput struct {
	ProgramID uuid.UUID `json:"program_id"`
	ExpertID  uuid.UUID `json:"expert_id"`
}

type ExpertiseStatistics struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// ProgramArchiver stores the final PDF of an approved program and returns its object key.
type ProgramArchiver interface {
	ArchiveProgram(ctx context.Context, programID uuid.UUID) (string, error)
}

type ExpertiseService interface {
	List(ctx context.Context, in ExpertiseListInput) ([]*types.Expertise, int64, error)
	Mine(ctx context.Context, in ExpertiseListInput) ([]*types.Expertise, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Expertise, error)
	Assign(ctx context.Context, in AssignInput) (*types.Expertise, error)
	Update(ctx context.Context, id uuid.UUID, in ExpertiseInput) (*types.Expertise, error)
	// Submit completes the review; the verdict is derived from the criteria.
	Submit(ctx context.Context, id uuid.UUID, in ExpertiseInput) (*types.Expertise, error)
	ReplaceExpert(ctx context.Context, id, expertID uuid.UUID) (*types.Expertise, error)
	SendForRevision(ctx context.Context, id uuid.UUID, comments string) (*types.Expertise, error)
	Statistics(ctx context.Context) (*ExpertiseStatistics, error)
	Criteria() *expertise.Catalog
}

type expertiseService struct {
	db            *gorm.DB
	log           *logger.Logger
	expertiseRepo repos.ExpertiseRepo
	programRepo   repos.ProgramRepo
	userRepo      repos.UserRepo
	catalog       *expertise.Catalog
	archiver      ProgramArchiver
	now           func() time.Time
}

func NewExpertiseService(db *gorm.DB, log *logger.Logger, expertiseRepo repos.ExpertiseRepo, programRepo repos.ProgramRepo, userRepo repos.UserRepo, archiver ProgramArchiver) ExpertiseService {
	return &expertiseService{
		db:            db,
		log:           log.With("service", "ExpertiseService"),
		expertiseRepo: expertiseRepo,
		programRepo:   programRepo,
		userRepo:      userRepo,
		catalog:       expertise.DefaultCatalog(),
		archiver:      archiver,
		now:           time.Now,
	}
}

func (es *expertiseService) Criteria() *expertise.Catalog { return es.catalog }

func (es *expertiseService) list(ctx context.Context, in ExpertiseListInput, expertID *uuid.UUID) ([]*types.Expertise, int64, error) {
	filter := repos.ExpertiseListFilter{ExpertID: expertID, ProgramID: in.ProgramID}
	filter.Page.Page, filter.Page.Limit = in.Page, in.Limit
	for _, s := range in.Statuses {
		if s = strings.TrimSpace(s); s != "" {
			filter.Statuses = append(filter.Statuses, s)
		}
	}
	return es.expertiseRepo.List(dbctx.New(ctx), filter)
}

func (es *expertiseService) List(ctx context.Context, in ExpertiseListInput) ([]*types.Expertise, int64, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, 0, err
	}
	return es.list(ctx, in, nil)
}

func (es *expertiseService) Mine(ctx context.Context, in ExpertiseListInput) ([]*types.Expertise, int64, error) {
	rd, err := requireRole(ctx, types.RoleExpert)
	if err != nil {
		return nil, 0, err
	}
	return es.list(ctx, in, &rd.UserID)
}

func (es *expertiseService) load(dbc dbctx.Context, id uuid.UUID) (*types.Expertise, error) {
	e, err := es.expertiseRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load expertise: %w", err)
	}
	if e == nil {
		return nil, apierr.NotFound("expertise")
	}
	return e, nil
}

func (es *expertiseService) Get(ctx context.Context, id uuid.UUID) (*types.Expertise, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	e, err := es.load(dbc, id)
	if err != nil {
		return nil, err
	}
	if isAdmin(rd) || e.ExpertID == rd.UserID {
		return e, nil
	}
	member, err := es.programRepo.IsMember(dbc, e.ProgramID, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("check program membership: %w", err)
	}
	if !member {
		return nil, apierr.Forbidden("no access to this expertise")
	}
	return e, nil
}

func (es *expertiseService) activeExpert(dbc dbctx.Context, id uuid.UUID) error {
	users, err := es.userRepo.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return fmt.Errorf("load expert: %w", err)
	}
	if len(users) == 0 || users[0].Role != types.RoleExpert || users[0].Status != types.UserStatusActive {
		return apierr.Invalid("invalid_expert", "user is not an active expert")
	}
	return nil
}

func (es *expertiseService) Assign(ctx context.Context, in AssignInput) (*types.Expertise, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, err
	}
	var out *types.Expertise
	err := inTx(es.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		p, err := es.programRepo.GetByID(dbc, in.ProgramID)
		if err != nil {
			return fmt.Errorf("load program: %w", err)
		}
		if p == nil {
			return apierr.NotFound("program")
		}
		if p.Status != types.ProgramStatusOnExpertise {
			return apierr.Conflict("program_not_submitted", fmt.Sprintf("program in status %s cannot be assigned", p.Status))
		}
		if err := es.activeExpert(dbc, in.ExpertID); err != nil {
			return err
		}
		_, n, err := es.expertiseRepo.List(dbc, repos.ExpertiseListFilter{
			ExpertID:  &in.ExpertID,
			ProgramID: &in.ProgramID,
			Statuses:  []string{types.ExpertiseStatusPending, types.ExpertiseStatusInProgress, types.ExpertiseStatusCompleted},
		})
		if err != nil {
			return fmt.Errorf("check assignment: %w", err)
		}
		if n > 0 {
			return apierr.Conflict("already_assigned", "expert already reviews this program")
		}
		out = &types.Expertise{ProgramID: in.ProgramID, ExpertID: in.ExpertID, Status: types.ExpertiseStatusPending}
		return es.expertiseRepo.Create(dbc, out)
	})
	if err != nil {
		return nil, err
	}
	es.log.Info("Expert assigned", "program_id", in.ProgramID, "expert_id", in.ExpertID, "expertise_id", out.ID)
	return es.expertiseRepo.GetByID(dbctx.New(ctx), out.ID)
}

// owned loads the expertise and checks that the caller is the assigned expert.
func (es *expertiseService) owned(dbc dbctx.Context, rd *ctxutil.RequestData, id uuid.UUID) (*types.Expertise, error) {
	e, err := es.load(dbc, id)
	if err != nil {
		return nil, err
	}
	if e.ExpertID != rd.UserID {
		return nil, apierr.Forbidden("expertise is assigned to another expert")
	}
	return e, nil
}

// fill rebuilds the form from the stored answers and applies in onto it.
func (es *expertiseService) fill(e *types.Expertise, in ExpertiseInput) (*expertise.Form, error) {
	var prior expertise.Answers
	if len(e.Criteria) > 0 {
		if err := json.Unmarshal(e.Criteria, &prior); err != nil {
			return nil, fmt.Errorf("decode stored criteria: %w", err)
		}
	}
	form := expertise.NewForm(es.catalog, prior)
	form.AdditionalRecommendation = e.AdditionalRecommendation
	form.Conclusion = e.Conclusion
	form.Feedback = e.Feedback
	if err := form.Apply(in.Criteria); err != nil {
		if errors.Is(err, expertise.ErrUnknownCriterion) {
			return nil, apierr.Invalid("unknown_criterion", err.Error())
		}
		return nil, err
	}
	if in.AdditionalRecommendation != nil {
		form.AdditionalRecommendation = *in.AdditionalRecommendation
	}
	if in.Conclusion != nil {
		form.Conclusion = *in.Conclusion
	}
	if in.Feedback != nil {
		form.Feedback = *in.Feedback
	}
	return form, nil
}

func store(e *types.Expertise, sub expertise.Submission) error {
	raw, err := json.Marshal(sub.Criteria)
	if err != nil {
		return fmt.Errorf("encode criteria: %w", err)
	}
	e.Criteria = datatypes.JSON(raw)
	e.AdditionalRecommendation = sub.AdditionalRecommendation
	e.Conclusion = sub.Conclusion
	e.Feedback = sub.Feedback
	return nil
}

func (es *expertiseService) Update(ctx context.Context, id uuid.UUID, in ExpertiseInput) (*types.Expertise, error) {
	rd, err := requireRole(ctx, types.RoleExpert)
	if err != nil {
		return nil, err
	}
	var out *types.Expertise
	err = inTx(es.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		e, err := es.owned(dbc, rd, id)
		if err != nil {
			return err
		}
		next, err := expertise.Transition(e.Status, expertise.ActionSave)
		if err != nil {
			return err
		}
		form, err := es.fill(e, in)
		if err != nil {
			return err
		}
		if err := store(e, form.Submission()); err != nil {
			return err
		}
		e.Status = next
		out = e
		return es.expertiseRepo.Save(dbc, e)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (es *expertiseService) Submit(ctx context.Context, id uuid.UUID, in ExpertiseInput) (*types.Expertise, error) {
	rd, err := requireRole(ctx, types.RoleExpert)
	if err != nil {
		return nil, err
	}
	var (
		out      *types.Expertise
		approved bool
	)
	err = inTx(es.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		e, err := es.owned(dbc, rd, id)
		if err != nil {
			return err
		}
		completed, err := expertise.Transition(e.Status, expertise.ActionSubmit)
		if err != nil {
			return err
		}
		form, err := es.fill(e, in)
		if err != nil {
			return err
		}
		sub := form.Submission()
		if sub.Conclusion == "" {
			return apierr.Validation([]apierr.FieldError{{Field: "conclusion", Message: "обязательное поле"}})
		}
		final, err := expertise.Transition(completed, expertise.ActionFor(expertise.VerdictOf(sub)))
		if err != nil {
			return err
		}
		if err := store(e, sub); err != nil {
			return err
		}
		now := es.now()
		e.Status = final
		e.SubmittedAt = &now
		e.CompletedAt = &now
		if err := es.expertiseRepo.Save(dbc, e); err != nil {
			return fmt.Errorf("save expertise: %w", err)
		}
		out = e
		approved, err = es.settleProgram(dbc, e.ProgramID)
		return err
	})
	if err != nil {
		return nil, err
	}
	es.log.Info("Expertise submitted", "expertise_id", id, "status", out.Status)
	if approved {
		es.archive(ctx, out.ProgramID)
	}
	return out, nil
}

// settleProgram moves the program once every review reached a verdict: any rejection rejects
// it, otherwise it is approved. It reports whether the program was approved.
func (es *expertiseService) settleProgram(dbc dbctx.Context, programID uuid.UUID) (bool, error) {
	list, err := es.expertiseRepo.ListByProgramIDs(dbc, []uuid.UUID{programID})
	if err != nil {
		return false, fmt.Errorf("load program expertises: %w", err)
	}
	rejected := false
	for _, e := range list {
		if !e.Final() {
			return false, nil
		}
		if e.Status == types.ExpertiseStatusRejected {
			rejected = true
		}
	}
	if len(list) == 0 {
		return false, nil
	}
	fields := map[string]any{"status": types.ProgramStatusApproved, "approved_at": es.now()}
	if rejected {
		fields = map[string]any{"status": types.ProgramStatusRejected}
	}
	if err := es.programRepo.UpdateStatus(dbc, programID, fields); err != nil {
		return false, fmt.Errorf("update program status: %w", err)
	}
	return !rejected, nil
}

func (es *expertiseService) archive(ctx context.Context, programID uuid.UUID) {
	if es.archiver == nil {
		return
	}
	key, err := es.archiver.ArchiveProgram(ctx, programID)
	if err != nil {
		es.log.Warn("Archiving approved program failed", "program_id", programID, "error", err)
		return
	}
	if err := es.programRepo.UpdateStatus(dbctx.New(ctx), programID, map[string]any{"archive_key": key}); err != nil {
		es.log.Warn("Storing archive key failed", "program_id", programID, "error", err)
	}
}

func (es *expertiseService) ReplaceExpert(ctx context.Context, id, expertID uuid.UUID) (*types.Expertise, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, err
	}
	err := inTx(es.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		e, err := es.load(dbc, id)
		if err != nil {
			return err
		}
		if e.Final() || e.Status == types.ExpertiseStatusCompleted {
			return apierr.Conflict("expertise_finished", "a finished expertise cannot be reassigned")
		}
		if e.ExpertID == expertID {
			return apierr.Invalid("same_expert", "expert is already assigned")
		}
		if err := es.activeExpert(dbc, expertID); err != nil {
			return err
		}
		e.ExpertID = expertID
		e.Expert = nil
		e.Status = types.ExpertiseStatusPending
		e.Criteria = nil
		e.AdditionalRecommendation, e.Conclusion, e.Feedback = "", "", ""
		return es.expertiseRepo.Save(dbc, e)
	})
	if err != nil {
		return nil, err
	}
	es.log.Info("Expert replaced", "expertise_id", id, "expert_id", expertID)
	return es.expertiseRepo.GetByID(dbctx.New(ctx), id)
}

// SendForRevision returns the program to its authors with the reviewer's comments.
func (es *expertiseService) SendForRevision(ctx context.Context, id uuid.UUID, comments string) (*types.Expertise, error) {
	rd, err := requireRole(ctx, types.RoleAdmin, types.RoleExpert)
	if err != nil {
		return nil, err
	}
	comments = strings.TrimSpace(comments)
	if comments == "" {
		return nil, apierr.Validation([]apierr.FieldError{{Field: "comments", Message: "обязательное поле"}})
	}
	var out *types.Expertise
	err = inTx(es.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		e, err := es.load(dbc, id)
		if err != nil {
			return err
		}
		if !isAdmin(rd) && e.ExpertID != rd.UserID {
			return apierr.Forbidden("expertise is assigned to another expert")
		}
		next, err := expertise.Transition(e.Status, expertise.ActionSendForRevision)
		if err != nil {
			return err
		}
		now := es.now()
		e.Status = next
		e.RevisionRound++
		e.RevisionComments = comments
		e.RevisionRequestedAt = &now
		if e.CompletedAt == nil {
			e.CompletedAt = &now
		}
		if err := es.expertiseRepo.Save(dbc, e); err != nil {
			return fmt.Errorf("save expertise: %w", err)
		}
		out = e
		return es.programRepo.UpdateStatus(dbc, e.ProgramID, map[string]any{"status": types.ProgramStatusNeedsRevision})
	})
	if err != nil {
		return nil, err
	}
	es.log.Info("Program sent for revision", "expertise_id", id, "round", out.RevisionRound)
	return out, nil
}

func (es *expertiseService) Statistics(ctx context.Context) (*ExpertiseStatistics, error) {
	rd, err := requireRole(ctx, types.RoleAdmin, types.RoleExpert)
	if err != nil {
		return nil, err
	}
	var expertID *uuid.UUID
	if !isAdmin(rd) {
		expertID = &rd.UserID
	}
	counts, err := es.expertiseRepo.CountByStatus(dbctx.New(ctx), expertID)
	if err != nil {
		return nil, fmt.Errorf("count expertises: %w", err)
	}
	out := &ExpertiseStatistics{ByStatus: counts}
	for _, n := range counts {
		out.Total += n
	}
	return out, nil
}
