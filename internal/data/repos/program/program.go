package program

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
	// MemberID limits results to programs the user authors or co-authors.
	MemberID *uuid.UUID
	Statuses []string
	Search   string
	listing.Page
}

type ProgramRepo interface {
	Create(dbc dbctx.Context, p *types.Program) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Program, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Program, error)
	List(dbc dbctx.Context, filter ListFilter) ([]*types.Program, int64, error)
	Save(dbc dbctx.Context, p *types.Program) error
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error
	CountByStatus(dbc dbctx.Context, memberID *uuid.UUID) (map[string]int64, error)

	SetCoAuthors(dbc dbctx.Context, programID uuid.UUID, userIDs []uuid.UUID) error
	IsMember(dbc dbctx.Context, programID, userID uuid.UUID) (bool, error)

	CreateVersion(dbc dbctx.Context, v *types.ProgramVersion) error
	ListVersions(dbc dbctx.Context, programID uuid.UUID) ([]*types.ProgramVersion, error)
}

type programRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgramRepo(db *gorm.DB, baseLog *logger.Logger) ProgramRepo {
	return &programRepo{db: db, log: baseLog.With("repo", "ProgramRepo")}
}

func memberScope(userID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where(
			"author_id = ? OR id IN (SELECT program_id FROM program_co_author WHERE user_id = ?)",
			userID, userID,
		)
	}
}

func (r *programRepo) Create(dbc dbctx.Context, p *types.Program) error {
	return dbc.Conn(r.db).Omit("CoAuthors", "Author").Create(p).Error
}

func (r *programRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Program, error) {
	var p types.Program
	err := dbc.Conn(r.db).
		Preload("Author").
		Preload("CoAuthors.User").
		Where("id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *programRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Program, error) {
	var results []*types.Program
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.Conn(r.db).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *programRepo) List(dbc dbctx.Context, filter ListFilter) ([]*types.Program, int64, error) {
	q := dbc.Conn(r.db).Model(&types.Program{})
	if filter.MemberID != nil {
		q = q.Scopes(memberScope(*filter.MemberID))
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.Search != "" {
		q = q.Where(listing.LikeExpr("title"), listing.Like(filter.Search))
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var results []*types.Program
	q = q.Preload("Author").Order("updated_at desc")
	if err := listing.Paginate(q, filter.Page).Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *programRepo) Save(dbc dbctx.Context, p *types.Program) error {
	return dbc.Conn(r.db).Omit("CoAuthors", "Author").Save(p).Error
}

func (r *programRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	return dbc.Conn(r.db).
		Model(&types.Program{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *programRepo) CountByStatus(dbc dbctx.Context, memberID *uuid.UUID) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	q := dbc.Conn(r.db).Model(&types.Program{})
	if memberID != nil {
		q = q.Scopes(memberScope(*memberID))
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

func (r *programRepo) SetCoAuthors(dbc dbctx.Context, programID uuid.UUID, userIDs []uuid.UUID) error {
	conn := dbc.Conn(r.db)
	if err := conn.Where("program_id = ?", programID).Delete(&types.ProgramCoAuthor{}).Error; err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]bool, len(userIDs))
	rows := make([]*types.ProgramCoAuthor, 0, len(userIDs))
	for _, id := range userIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, &types.ProgramCoAuthor{ProgramID: programID, UserID: id})
	}
	return conn.Omit("User").Create(&rows).Error
}

func (r *programRepo) IsMember(dbc dbctx.Context, programID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := dbc.Conn(r.db).
		Model(&types.Program{}).
		Where("id = ?", programID).
		Scopes(memberScope(userID)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *programRepo) CreateVersion(dbc dbctx.Context, v *types.ProgramVersion) error {
	return dbc.Conn(r.db).Create(v).Error
}

func (r *programRepo) ListVersions(dbc dbctx.Context, programID uuid.UUID) ([]*types.ProgramVersion, error) {
	var results []*types.ProgramVersion
	if err := dbc.Conn(r.db).
		Where("program_id = ?", programID).
		Order("version desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
