package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/data/repos"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/platform/dbctx"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
	"github.com/dpp-pk/constructor-backend/internal/platform/validate"
)

type InviteInput struct {
	Email        string `json:"email" validate:"required,email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	MiddleName   string `json:"middle_name"`
	Organization string `json:"organization"`
	Position     string `json:"position"`
	Phone        string `json:"phone"`
	Role         string `json:"role" validate:"required,oneof=author expert"`
	Comment      string `json:"comment"`
}

type BulkFailure struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

type BulkInviteResult struct {
	Created []*types.Candidate `json:"created"`
	Failed  []BulkFailure      `json:"failed"`
}

type CandidateService interface {
	List(ctx context.Context, filter repos.CandidateListFilter) ([]*types.Candidate, int64, error)
	Invite(ctx context.Context, in InviteInput) (*types.Candidate, error)
	InviteBulk(ctx context.Context, in []InviteInput) (*BulkInviteResult, error)
	// Approve turns the candidate into a user. A temporary password is issued when the
	// candidate did not choose one at registration.
	Approve(ctx context.Context, id uuid.UUID) (*CreatedUser, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*types.Candidate, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type candidateService struct {
	db            *gorm.DB
	log           *logger.Logger
	candidateRepo repos.CandidateRepo
	userRepo      repos.UserRepo
	mailer        Mailer
	now           func() time.Time
}

func NewCandidateService(db *gorm.DB, log *logger.Logger, candidateRepo repos.CandidateRepo, userRepo repos.UserRepo, mailer Mailer) CandidateService {
	return &candidateService{
		db:            db,
		log:           log.With("service", "CandidateService"),
		candidateRepo: candidateRepo,
		userRepo:      userRepo,
		mailer:        mailer,
		now:           time.Now,
	}
}

func (cs *candidateService) List(ctx context.Context, filter repos.CandidateListFilter) ([]*types.Candidate, int64, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, 0, err
	}
	return cs.candidateRepo.List(dbctx.New(ctx), filter)
}

func (cs *candidateService) get(dbc dbctx.Context, id uuid.UUID) (*types.Candidate, error) {
	c, err := cs.candidateRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load candidate: %w", err)
	}
	if c == nil {
		return nil, apierr.NotFound("candidate")
	}
	return c, nil
}

func (cs *candidateService) Invite(ctx context.Context, in InviteInput) (*types.Candidate, error) {
	rd, err := requireRole(ctx, types.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return cs.invite(dbctx.New(ctx), rd.UserID, in)
}

func (cs *candidateService) invite(dbc dbctx.Context, adminID uuid.UUID, in InviteInput) (*types.Candidate, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validate.Check(in); err != nil {
		return nil, err
	}
	cand := &types.Candidate{
		Email:        in.Email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		MiddleName:   strings.TrimSpace(in.MiddleName),
		Organization: strings.TrimSpace(in.Organization),
		Position:     strings.TrimSpace(in.Position),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         in.Role,
		Status:       types.CandidateStatusInvited,
		Comment:      strings.TrimSpace(in.Comment),
		InvitedByID:  &adminID,
	}
	err := inTx(cs.db, dbc, func(dbc dbctx.Context) error {
		exists, err := cs.userRepo.EmailExists(dbc, cand.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return apierr.Conflict("email_taken", "email is already registered")
		}
		open, err := cs.candidateRepo.GetOpenByEmail(dbc, cand.Email)
		if err != nil {
			return fmt.Errorf("check open candidates: %w", err)
		}
		if open != nil {
			return apierr.Conflict("request_pending", "a request for this email is already open")
		}
		_, err = cs.candidateRepo.Create(dbc, []*types.Candidate{cand})
		return err
	})
	if err != nil {
		return nil, err
	}
	return cand, nil
}

// InviteBulk invites each entry independently; one failure does not stop the rest.
func (cs *candidateService) InviteBulk(ctx context.Context, in []InviteInput) (*BulkInviteResult, error) {
	rd, err := requireRole(ctx, types.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if len(in) == 0 {
		return nil, apierr.Invalid("empty_list", "no candidates to invite")
	}
	out := &BulkInviteResult{Created: []*types.Candidate{}, Failed: []BulkFailure{}}
	for _, item := range in {
		cand, err := cs.invite(dbctx.New(ctx), rd.UserID, item)
		if err != nil {
			out.Failed = append(out.Failed, BulkFailure{Email: item.Email, Error: err.Error()})
			continue
		}
		out.Created = append(out.Created, cand)
	}
	cs.log.Info("Bulk invitation processed", "created", len(out.Created), "failed", len(out.Failed))
	return out, nil
}

func (cs *candidateService) Approve(ctx context.Context, id uuid.UUID) (*CreatedUser, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, err
	}
	out := &CreatedUser{}
	err := inTx(cs.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		cand, err := cs.get(dbc, id)
		if err != nil {
			return err
		}
		if cand.Status != types.CandidateStatusPending && cand.Status != types.CandidateStatusInvited {
			return apierr.Conflict("candidate_decided", fmt.Sprintf("candidate is already %s", cand.Status))
		}
		exists, err := cs.userRepo.EmailExists(dbc, cand.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return apierr.Conflict("email_taken", "email is already registered")
		}
		hash := cand.PasswordHash
		if hash == "" {
			tmp, err := temporaryPassword(temporaryPasswordLength)
			if err != nil {
				return err
			}
			raw, err := bcrypt.GenerateFromPassword([]byte(tmp), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			hash, out.TemporaryPassword = string(raw), tmp
		}
		user := &types.User{
			Email:              cand.Email,
			Password:           hash,
			FirstName:          cand.FirstName,
			LastName:           cand.LastName,
			MiddleName:         cand.MiddleName,
			Organization:       cand.Organization,
			Position:           cand.Position,
			Phone:              cand.Phone,
			Role:               cand.Role,
			Status:             types.UserStatusActive,
			MustChangePassword: out.TemporaryPassword != "",
		}
		if _, err := cs.userRepo.Create(dbc, []*types.User{user}); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		now := cs.now()
		cand.Status = types.CandidateStatusApproved
		cand.UserID = &user.ID
		cand.DecidedAt = &now
		cand.PasswordHash = ""
		if err := cs.candidateRepo.Save(dbc, cand); err != nil {
			return fmt.Errorf("save candidate: %w", err)
		}
		out.User = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.log.Info("Candidate approved", "candidate_id", id, "user_id", out.User.ID)
	if out.TemporaryPassword != "" {
		if err := cs.mailer.Send(ctx, invitationEmail(out.User.Email, out.User.FullName(), out.TemporaryPassword)); err != nil {
			cs.log.Warn("Invitation email failed, password returned to administrator", "user_id", out.User.ID, "error", err)
		}
	}
	return out, nil
}

func (cs *candidateService) Reject(ctx context.Context, id uuid.UUID, reason string) (*types.Candidate, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, err
	}
	var cand *types.Candidate
	err := inTx(cs.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		c, err := cs.get(dbc, id)
		if err != nil {
			return err
		}
		if c.Status != types.CandidateStatusPending && c.Status != types.CandidateStatusInvited {
			return apierr.Conflict("candidate_decided", fmt.Sprintf("candidate is already %s", c.Status))
		}
		now := cs.now()
		c.Status = types.CandidateStatusRejected
		c.RejectReason = strings.TrimSpace(reason)
		c.DecidedAt = &now
		c.PasswordHash = ""
		cand = c
		return cs.candidateRepo.Save(dbc, c)
	})
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(cand.FirstName + " " + cand.LastName)
	if err := cs.mailer.Send(ctx, rejectionEmail(cand.Email, name, cand.RejectReason)); err != nil {
		cs.log.Warn("Rejection email failed", "candidate_id", id, "error", err)
	}
	return cand, nil
}

func (cs *candidateService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return err
	}
	return inTx(cs.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		if _, err := cs.get(dbc, id); err != nil {
			return err
		}
		return cs.candidateRepo.DeleteByID(dbc, id)
	})
}
