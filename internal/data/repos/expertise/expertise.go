package expertise

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
	ExpertID  *uuid.UUID
	ProgramID *uuid.UUID
	Statuses  []string
	listing.Page
}

type ExpertiseRepo interface {
	Create(dbc dbctx.Context, e *types.Expertise) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Expertise, error)
	List(dbc dbctx.Context, filter ListFilter) ([]*types.Expertise, int64, error)
	ListByProgramIDs(dbc dbctx.Context, programIDs []uuid.UUID) ([]*types.Expertise, error)
	// GetOpenByProgram returns the review that has not reached a verdict yet, if any.
	GetOpenByProgram(dbc dbctx.Context, programID uuid.UUID) (*types.Expertise, error)
	Save(dbc dbctx.Context, e *types.Expertise) error
	CountByStatus(dbc dbctx.Context, expertID *uuid.UUID) (map[string]int64, error)
}

type expertiseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExpertiseRepo(db *gorm.DB, baseLog *logger.Logger) ExpertiseRepo {
	return &expertiseRepo{db: db, log: baseLog.With("repo", "ExpertiseRepo")}
}

func (r *expertiseRepo) Create(dbc dbctx.Context, e *types.Expertise) error {
	return dbc.Conn(r.db).Omit("Program", "Expert").Create(e).Error
}

func (r *expertiseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Expertise, error) {
	var e types.Expertise
	err := dbc.Conn(r.db).
		Preload("Program").
		Preload("Expert").
		Where("id = ?", id).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *expertiseRepo) List(dbc dbctx.Context, filter ListFilter) ([]*types.Expertise, int64, error) {
	q := dbc.Conn(r.db).Model(&types.Expertise{})
	if filter.ExpertID != nil {
		q = q.Where("expert_id = ?", *filter.ExpertID)
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
	var results []*types.Expertise
	q = q.Preload("Program").Preload("Expert").Order("updated_at desc")
	if err := listing.Paginate(q, filter.Page).Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *expertiseRepo) ListByProgramIDs(dbc dbctx.Context, programIDs []uuid.UUID) ([]*types.Expertise, error) {
	var results []*types.Expertise
	if len(programIDs) == 0 {
		return results, nil
	}
	if err := dbc.Conn(r.db).
		Preload("Expert").
		Where("program_id IN ?", programIDs).
		Order("created_at asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *expertiseRepo) GetOpenByProgram(dbc dbctx.Context, programID uuid.UUID) (*types.Expertise, error) {
	var e types.Expertise
	err := dbc.Conn(r.db).
		Where("program_id = ? AND status NOT IN ?", programID, []string{types.ExpertiseStatusApproved, types.ExpertiseStatusRejected}).
		Order("created_at desc").
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *expertiseRepo) Save(dbc dbctx.Context, e *types.Expertise) error {
	return dbc.Conn(r.db).Omit("Program", "Expert").Save(e).Error
}

func (r *expertiseRepo) CountByStatus(dbc dbctx.Context, expertID *uuid.UUID) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	q := dbc.Conn(r.db).Model(&types.Expertise{})
	if expertID != nil {
		q = q.Where("expert_id = ?", *expertID)
	}
	var rows []row
	if err := q.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, rw := range rows {
		out[rw.Status] = rw.Count
	}
	return out, nil
}
