package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/data/repos"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/domain/recommendation"
	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/platform/ctxutil"
	"github.com/dpp-pk/constructor-backend/internal/platform/dbctx"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
	"github.com/dpp-pk/constructor-backend/internal/platform/validate"
)

type RecommendationInput struct {
	ProgramID   *uuid.UUID `json:"program_id"`
	RecipientID *uuid.UUID `json:"recipient_id"`
	Title       string     `json:"title" validate:"required,max=300"`
	Content     string     `json:"content" validate:"required"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type FeedbackInput struct {
	Feedback string `json:"feedback"`
	Rating   int    `json:"rating" validate:"min=1,max=5"`
}

type RecommendationListInput struct {
	Statuses []string
	// Sent lists recommendations written by the caller instead of received ones.
	Sent  bool
	Page  int
	Limit int
}

type RecommendationService interface {
	List(ctx context.Context, in RecommendationListInput) ([]*types.Recommendation, int64, error)
	Mine(ctx context.Context, in RecommendationListInput) ([]*types.Recommendation, int64, error)
	ByProgram(ctx context.Context, programID uuid.UUID) ([]*types.Recommendation, error)
	Create(ctx context.Context, in RecommendationInput) (*types.Recommendation, error)
	Update(ctx context.Context, id uuid.UUID, in RecommendationInput) (*types.Recommendation, error)
	Respond(ctx context.Context, id uuid.UUID, response string) (*types.Recommendation, error)
	Feedback(ctx context.Context, id uuid.UUID, in FeedbackInput) (*types.Recommendation, error)
	Archive(ctx context.Context, id uuid.UUID) (*types.Recommendation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type recommendationService struct {
	db                 *gorm.DB
	log                *logger.Logger
	recommendationRepo repos.RecommendationRepo
	programRepo        repos.ProgramRepo
	now                func() time.Time
}

func NewRecommendationService(db *gorm.DB, log *logger.Logger, recommendationRepo repos.RecommendationRepo, programRepo repos.ProgramRepo) RecommendationService {
	return &recommendationService{
		db:                 db,
		log:                log.With("service", "RecommendationService"),
		recommendationRepo: recommendationRepo,
		programRepo:        programRepo,
		now:                time.Now,
	}
}

func (in RecommendationListInput) filter() repos.RecommendationListFilter {
	f := repos.RecommendationListFilter{}
	f.Page.Page, f.Page.Limit = in.Page, in.Limit
	for _, s := range in.Statuses {
		if s = strings.TrimSpace(s); s != "" {
			f.Statuses = append(f.Statuses, s)
		}
	}
	return f
}

func (rs *recommendationService) List(ctx context.Context, in RecommendationListInput) ([]*types.Recommendation, int64, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, 0, err
	}
	return rs.recommendationRepo.List(dbctx.New(ctx), in.filter())
}

func (rs *recommendationService) Mine(ctx context.Context, in RecommendationListInput) ([]*types.Recommendation, int64, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, 0, err
	}
	f := in.filter()
	if in.Sent {
		f.AuthorID = &rd.UserID
	} else {
		f.RecipientID = &rd.UserID
	}
	return rs.recommendationRepo.List(dbctx.New(ctx), f)
}

func (rs *recommendationService) ByProgram(ctx context.Context, programID uuid.UUID) ([]*types.Recommendation, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	if !isAdmin(rd) && rd.Role != types.RoleExpert {
		member, err := rs.programRepo.IsMember(dbc, programID, rd.UserID)
		if err != nil {
			return nil, fmt.Errorf("check program membership: %w", err)
		}
		if !member {
			return nil, apierr.Forbidden("no access to this program")
		}
	}
	f := repos.RecommendationListFilter{ProgramID: &programID}
	f.Page.Limit = 200
	out, _, err := rs.recommendationRepo.List(dbc, f)
	return out, err
}

func (rs *recommendationService) Create(ctx context.Context, in RecommendationInput) (*types.Recommendation, error) {
	rd, err := requireRole(ctx, types.RoleAdmin, types.RoleExpert)
	if err != nil {
		return nil, err
	}
	in.Title, in.Content = strings.TrimSpace(in.Title), strings.TrimSpace(in.Content)
	if err := validate.Check(in); err != nil {
		return nil, err
	}
	rec := &types.Recommendation{
		ProgramID:   in.ProgramID,
		AuthorID:    rd.UserID,
		RecipientID: in.RecipientID,
		Title:       in.Title,
		Content:     in.Content,
		Priority:    in.Priority,
		Status:      types.RecommendationStatusActive,
	}
	err = inTx(rs.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		if in.ProgramID != nil {
			p, err := rs.programRepo.GetByID(dbc, *in.ProgramID)
			if err != nil {
				return fmt.Errorf("load program: %w", err)
			}
			if p == nil {
				return apierr.NotFound("program")
			}
			if rec.RecipientID == nil {
				author := p.AuthorID
				rec.RecipientID = &author
			}
		}
		if rec.RecipientID == nil {
			return apierr.Validation([]apierr.FieldError{{Field: "recipient_id", Message: "укажите получателя или программу"}})
		}
		return rs.recommendationRepo.Create(dbc, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (rs *recommendationService) load(dbc dbctx.Context, id uuid.UUID) (*types.Recommendation, error) {
	rec, err := rs.recommendationRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load recommendation: %w", err)
	}
	if rec == nil {
		return nil, apierr.NotFound("recommendation")
	}
	return rec, nil
}

func isRecipient(rd *ctxutil.RequestData, rec *types.Recommendation) bool {
	return rec.RecipientID != nil && *rec.RecipientID == rd.UserID
}

// mutate loads the recommendation, checks allowed(caller) and saves what fn changed.
func (rs *recommendationService) mutate(ctx context.Context, id uuid.UUID, allowed func(*ctxutil.RequestData, *types.Recommendation) error, fn func(*types.Recommendation) error) (*types.Recommendation, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	var out *types.Recommendation
	err = inTx(rs.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		rec, err := rs.load(dbc, id)
		if err != nil {
			return err
		}
		if err := allowed(rd, rec); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		rec.Author = nil
		out = rec
		return rs.recommendationRepo.Save(dbc, rec)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func byAuthor(rd *ctxutil.RequestData, rec *types.Recommendation) error {
	if isAdmin(rd) || rec.AuthorID == rd.UserID {
		return nil
	}
	return apierr.Forbidden("only the author can change this recommendation")
}

func byRecipient(rd *ctxutil.RequestData, rec *types.Recommendation) error {
	if isRecipient(rd, rec) {
		return nil
	}
	return apierr.Forbidden("only the recipient can answer this recommendation")
}

func (rs *recommendationService) Update(ctx context.Context, id uuid.UUID, in RecommendationInput) (*types.Recommendation, error) {
	in.Title, in.Content = strings.TrimSpace(in.Title), strings.TrimSpace(in.Content)
	if err := validate.Check(in); err != nil {
		return nil, err
	}
	return rs.mutate(ctx, id, byAuthor, func(rec *types.Recommendation) error {
		if rec.Status != types.RecommendationStatusActive {
			return apierr.Conflict("recommendation_closed", fmt.Sprintf("recommendation is %s", rec.Status))
		}
		rec.Title, rec.Content = in.Title, in.Content
		if in.Priority != "" {
			rec.Priority = in.Priority
		}
		return nil
	})
}

func (rs *recommendationService) Respond(ctx context.Context, id uuid.UUID, response string) (*types.Recommendation, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, apierr.Validation([]apierr.FieldError{{Field: "response", Message: "обязательное поле"}})
	}
	return rs.mutate(ctx, id, byRecipient, func(rec *types.Recommendation) error {
		if rec.Status != types.RecommendationStatusActive {
			return apierr.Conflict("recommendation_closed", fmt.Sprintf("recommendation is %s", rec.Status))
		}
		now := rs.now()
		rec.Response = response
		rec.RespondedAt = &now
		rec.Status = types.RecommendationStatusResponded
		return nil
	})
}

func (rs *recommendationService) Feedback(ctx context.Context, id uuid.UUID, in FeedbackInput) (*types.Recommendation, error) {
	if err := validate.Check(in); err != nil {
		return nil, err
	}
	return rs.mutate(ctx, id, byRecipient, func(rec *types.Recommendation) error {
		if rec.Status == types.RecommendationStatusArchived {
			return apierr.Conflict("recommendation_closed", "recommendation is archived")
		}
		rec.Feedback = strings.TrimSpace(in.Feedback)
		rec.FeedbackRating = in.Rating
		return nil
	})
}

func (rs *recommendationService) Archive(ctx context.Context, id uuid.UUID) (*types.Recommendation, error) {
	allowed := func(rd *ctxutil.RequestData, rec *types.Recommendation) error {
		if isRecipient(rd, rec) {
			return nil
		}
		return byAuthor(rd, rec)
	}
	return rs.mutate(ctx, id, allowed, func(rec *types.Recommendation) error {
		if rec.Status == recommendation.StatusArchived {
			return apierr.Conflict("already_archived", "recommendation is already archived")
		}
		rec.Status = recommendation.StatusArchived
		return nil
	})
}

func (rs *recommendationService) Delete(ctx context.Context, id uuid.UUID) error {
	rd, err := requestUser(ctx)
	if err != nil {
		return err
	}
	return inTx(rs.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		rec, err := rs.load(dbc, id)
		if err != nil {
			return err
		}
		if err := byAuthor(rd, rec); err != nil {
			return err
		}
		return rs.recommendationRepo.DeleteByID(dbc, id)
	})
}
