package candidate

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/data/repos/listing"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/platform/dbctx"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

type ListFilter struct {
	Status string
	Search string
	listing.Page
}

type CandidateRepo interface {
	Create(dbc dbctx.Context, candidates []*types.Candidate) ([]*types.Candidate, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Candidate, error)
	GetOpenByEmail(dbc dbctx.Context, email string) (*types.Candidate, error)
	List(dbc dbctx.Context, filter ListFilter) ([]*types.Candidate, int64, error)
	Save(dbc dbctx.Context, c *types.Candidate) error
	DeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type candidateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCandidateRepo(db *gorm.DB, baseLog *logger.Logger) CandidateRepo {
	return &candidateRepo{db: db, log: baseLog.With("repo", "CandidateRepo")}
}

func (r *candidateRepo) Create(dbc dbctx.Context, candidates []*types.Candidate) ([]*types.Candidate, error) {
	if len(candidates) == 0 {
		return []*types.Candidate{}, nil
	}
	if err := dbc.Conn(r.db).Create(&candidates).Error; err != nil {
		return nil, err
	}
	return candidates, nil
}

// GetByID returns nil without error when the row does not exist.
func (r *candidateRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Candidate, error) {
	var c types.Candidate
	err := dbc.Conn(r.db).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOpenByEmail finds a pending or invited candidate for email.
func (r *candidateRepo) GetOpenByEmail(dbc dbctx.Context, email string) (*types.Candidate, error) {
	var c types.Candidate
	err := dbc.Conn(r.db).
		Where("email = ? AND status IN ?", email, []string{types.CandidateStatusPending, types.CandidateStatusInvited}).
		Order("created_at desc").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *candidateRepo) List(dbc dbctx.Context, filter ListFilter) ([]*types.Candidate, int64, error) {
	q := dbc.Conn(r.db).Model(&types.Candidate{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := listing.Like(filter.Search)
		q = q.Where(
			listing.LikeExpr("email")+" OR "+listing.LikeExpr("last_name")+" OR "+listing.LikeExpr("organization"),
			pattern, pattern, pattern,
		)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var results []*types.Candidate
	if err := listing.Paginate(q.Order("created_at desc"), filter.Page).Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *candidateRepo) Save(dbc dbctx.Context, c *types.Candidate) error {
	return dbc.Conn(r.db).Save(c).Error
}

func (r *candidateRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.Conn(r.db).Where("id = ?", id).Delete(&types.Candidate{}).Error
}
