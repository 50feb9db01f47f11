package recommendation

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
	AuthorID    *uuid.UUID
	RecipientID *uuid.UUID
	ProgramID   *uuid.UUID
	Statuses    []string
	listing.Page
}

type RecommendationRepo interface {
	Create(dbc dbctx.Context, r *types.Recommendation) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Recommendation, error)
	List(dbc dbctx.Context, filter ListFilter) ([]*types.Recommendation, int64, error)
	Save(dbc dbctx.Context, r *types.Recommendation) error
	DeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return &recommendationRepo{db: db, log: baseLog.With("repo", "RecommendationRepo")}
}

func (r *recommendationRepo) Create(dbc dbctx.Context, rec *types.Recommendation) error {
	return dbc.Conn(r.db).Omit("Author").Create(rec).Error
}

func (r *recommendationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Recommendation, error) {
	var rec types.Recommendation
	err := dbc.Conn(r.db).Preload("Author").Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recommendationRepo) List(dbc dbctx.Context, filter ListFilter) ([]*types.Recommendation, int64, error) {
	q := dbc.Conn(r.db).Model(&types.Recommendation{})
	if filter.AuthorID != nil {
		q = q.Where("author_id = ?", *filter.AuthorID)
	}
	if filter.RecipientID != nil {
		q = q.Where("recipient_id = ?", *filter.RecipientID)
	}
	if filter.ProgramID != nil {
		q = q.Where("program_id = ?", *filter.ProgramID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var results []*types.Recommendation
	q = q.Preload("Author").Order("created_at desc")
	if err := listing.Paginate(q, filter.Page).Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *recommendationRepo) Save(dbc dbctx.Context, rec *types.Recommendation) error {
	return dbc.Conn(r.db).Omit("Author").Save(rec).Error
}

func (r *recommendationRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.Conn(r.db).Where("id = ?", id).Delete(&types.Recommendation{}).Error
}
