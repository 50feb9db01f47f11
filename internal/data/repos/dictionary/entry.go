package dictionary

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dpp-pk/constructor-backend/internal/data/repos/listing"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/platform/dbctx"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

type EntryRepo interface {
	Create(dbc dbctx.Context, entries []*types.DictionaryEntry) ([]*types.DictionaryEntry, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.DictionaryEntry, error)
	List(dbc dbctx.Context, activeOnly bool) ([]*types.DictionaryEntry, error)
	ListByType(dbc dbctx.Context, entryType string, activeOnly bool) ([]*types.DictionaryEntry, error)
	Search(dbc dbctx.Context, query string, limit int) ([]*types.DictionaryEntry, error)
	Save(dbc dbctx.Context, e *types.DictionaryEntry) error
	DeleteByID(dbc dbctx.Context, id uuid.UUID) error
	// Upsert inserts entries or updates the existing (type, value) rows.
	Upsert(dbc dbctx.Context, entries []*types.DictionaryEntry) error
}

type entryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntryRepo(db *gorm.DB, baseLog *logger.Logger) EntryRepo {
	return &entryRepo{db: db, log: baseLog.With("repo", "DictionaryEntryRepo")}
}

const entryOrder = "type asc, sort_order asc, value asc"

func (r *entryRepo) Create(dbc dbctx.Context, entries []*types.DictionaryEntry) ([]*types.DictionaryEntry, error) {
	if len(entries) == 0 {
		return []*types.DictionaryEntry{}, nil
	}
	if err := dbc.Conn(r.db).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *entryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.DictionaryEntry, error) {
	var e types.DictionaryEntry
	err := dbc.Conn(r.db).Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *entryRepo) List(dbc dbctx.Context, activeOnly bool) ([]*types.DictionaryEntry, error) {
	q := dbc.Conn(r.db)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var results []*types.DictionaryEntry
	if err := q.Order(entryOrder).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *entryRepo) ListByType(dbc dbctx.Context, entryType string, activeOnly bool) ([]*types.DictionaryEntry, error) {
	q := dbc.Conn(r.db).Where("type = ?", entryType)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var results []*types.DictionaryEntry
	if err := q.Order(entryOrder).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *entryRepo) Search(dbc dbctx.Context, query string, limit int) ([]*types.DictionaryEntry, error) {
	if limit <= 0 {
		limit = listing.DefaultLimit
	}
	pattern := listing.Like(query)
	var results []*types.DictionaryEntry
	if err := dbc.Conn(r.db).
		Where(listing.LikeExpr("value")+" OR "+listing.LikeExpr("code"), pattern, pattern).
		Order(entryOrder).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *entryRepo) Save(dbc dbctx.Context, e *types.DictionaryEntry) error {
	return dbc.Conn(r.db).Save(e).Error
}

func (r *entryRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.Conn(r.db).Where("id = ?", id).Delete(&types.DictionaryEntry{}).Error
}

func (r *entryRepo) Upsert(dbc dbctx.Context, entries []*types.DictionaryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type"}, {Name: "value"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "description", "sort_order", "is_active", "updated_at"}),
		}).
		Create(&entries).Error
}
