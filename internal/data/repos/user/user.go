package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/data/repos/listing"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/platform/dbctx"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
)

type ListFilter struct {
	Role   string
	Status string
	Search string
	Sort   string
	Order  string
	listing.Page
}

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmails(dbc dbctx.Context, userEmails []string) ([]*types.User, error)
	EmailExists(dbc dbctx.Context, userEmail string) (bool, error)
	List(dbc dbctx.Context, filter ListFilter) ([]*types.User, int64, error)
	ListActiveByRole(dbc dbctx.Context, role string) ([]*types.User, error)
	Update(dbc dbctx.Context, userID uuid.UUID, fields map[string]any) error
	UpdatePassword(dbc dbctx.Context, userID uuid.UUID, passwordHash string, mustChange bool) error
	UpdateStatus(dbc dbctx.Context, userID uuid.UUID, status string) error
	TouchLastLogin(dbc dbctx.Context, userID uuid.UUID, at time.Time) error
	SoftDeleteByIDs(dbc dbctx.Context, userIDs []uuid.UUID) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

var userSortColumns = map[string]string{
	"email":      "email",
	"last_name":  "last_name",
	"role":       "role",
	"status":     "status",
	"created_at": "created_at",
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := dbc.Conn(ur.db).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error) {
	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := dbc.Conn(ur.db).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByEmails(dbc dbctx.Context, userEmails []string) ([]*types.User, error) {
	var results []*types.User
	if len(userEmails) == 0 {
		return results, nil
	}
	if err := dbc.Conn(ur.db).
		Where("email IN ?", userEmails).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, userEmail string) (bool, error) {
	var count int64
	if err := dbc.Conn(ur.db).
		Model(&types.User{}).
		Where("email = ?", userEmail).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) List(dbc dbctx.Context, filter ListFilter) ([]*types.User, int64, error) {
	q := dbc.Conn(ur.db).Model(&types.User{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := listing.Like(filter.Search)
		q = q.Where(
			listing.LikeExpr("email")+" OR "+listing.LikeExpr("first_name")+" OR "+listing.LikeExpr("last_name"),
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*types.User
	q = listing.Order(q, filter.Sort, filter.Order, userSortColumns, "created_at desc")
	if err := listing.Paginate(q, filter.Page).Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (ur *userRepo) ListActiveByRole(dbc dbctx.Context, role string) ([]*types.User, error) {
	var results []*types.User
	if err := dbc.Conn(ur.db).
		Where("role = ? AND status = ?", role, types.UserStatusActive).
		Order("last_name asc, first_name asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) Update(dbc dbctx.Context, userID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return dbc.Conn(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(fields).Error
}

func (ur *userRepo) UpdatePassword(dbc dbctx.Context, userID uuid.UUID, passwordHash string, mustChange bool) error {
	return dbc.Conn(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"password":             passwordHash,
			"must_change_password": mustChange,
		}).Error
}

func (ur *userRepo) UpdateStatus(dbc dbctx.Context, userID uuid.UUID, status string) error {
	return dbc.Conn(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("status", status).Error
}

func (ur *userRepo) TouchLastLogin(dbc dbctx.Context, userID uuid.UUID, at time.Time) error {
	return dbc.Conn(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}

func (ur *userRepo) SoftDeleteByIDs(dbc dbctx.Context, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	return dbc.Conn(ur.db).
		Where("id IN ?", userIDs).
		Delete(&types.User{}).Error
}
