package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

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

const temporaryPasswordLength = 12

type CreateUserInput struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"omitempty,min=8,max=72"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	MiddleName   string `json:"middle_name"`
	Organization string `json:"organization"`
	Position     string `json:"position"`
	Phone        string `json:"phone"`
	Role         string `json:"role" validate:"required,oneof=admin author expert"`
}

type UpdateUserInput struct {
	Email        *string `json:"email" validate:"omitempty,email"`
	FirstName    *string `json:"first_name" validate:"omitempty,min=1"`
	LastName     *string `json:"last_name" validate:"omitempty,min=1"`
	MiddleName   *string `json:"middle_name"`
	Organization *string `json:"organization"`
	Position     *string `json:"position"`
	Phone        *string `json:"phone"`
	Role         *string `json:"role" validate:"omitempty,oneof=admin author expert"`
}

// CreatedUser carries the temporary password exactly once.
type CreatedUser struct {
	User              *types.User `json:"user"`
	TemporaryPassword string      `json:"temporary_password,omitempty"`
}

type UserService interface {
	List(ctx context.Context, filter repos.UserListFilter) ([]*types.User, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*types.User, error)
	Create(ctx context.Context, in CreateUserInput) (*CreatedUser, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*types.User, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*types.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// SendInvitation resets the password to a temporary one and mails it.
	SendInvitation(ctx context.Context, id uuid.UUID) error
	ListByRole(ctx context.Context, role string) ([]*types.User, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	mailer        Mailer
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, userTokenRepo repos.UserTokenRepo, mailer Mailer) UserService {
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		mailer:        mailer,
	}
}

func (us *userService) List(ctx context.Context, filter repos.UserListFilter) ([]*types.User, int64, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, 0, err
	}
	return us.userRepo.List(dbctx.New(ctx), filter)
}

func (us *userService) Get(ctx context.Context, id uuid.UUID) (*types.User, error) {
	return us.get(dbctx.New(ctx), id)
}

func (us *userService) get(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	users, err := us.userRepo.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.NotFound("user")
	}
	return users[0], nil
}

func (us *userService) Create(ctx context.Context, in CreateUserInput) (*CreatedUser, error) {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return nil, err
	}
	in.Email = normalizeEmail(in.Email)
	if err := validate.Check(in); err != nil {
		return nil, err
	}
	out := &CreatedUser{}
	password := in.Password
	if password == "" {
		tmp, err := temporaryPassword(temporaryPasswordLength)
		if err != nil {
			return nil, err
		}
		password, out.TemporaryPassword = tmp, tmp
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &types.User{
		Email:              in.Email,
		Password:           string(hash),
		FirstName:          strings.TrimSpace(in.FirstName),
		LastName:           strings.TrimSpace(in.LastName),
		MiddleName:         strings.TrimSpace(in.MiddleName),
		Organization:       strings.TrimSpace(in.Organization),
		Position:           strings.TrimSpace(in.Position),
		Phone:              strings.TrimSpace(in.Phone),
		Role:               in.Role,
		Status:             types.UserStatusActive,
		MustChangePassword: out.TemporaryPassword != "",
	}
	err = inTx(us.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		exists, err := us.userRepo.EmailExists(dbc, user.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return apierr.Conflict("email_taken", "email is already registered")
		}
		_, err = us.userRepo.Create(dbc, []*types.User{user})
		return err
	})
	if err != nil {
		return nil, err
	}
	us.log.Info("User created", "user_id", user.ID, "role", user.Role)
	out.User = user
	return out, nil
}

func (us *userService) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*types.User, error) {
	rd, err := requireRole(ctx, types.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := validate.Check(in); err != nil {
		return nil, err
	}
	var updated *types.User
	err = inTx(us.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		user, err := us.get(dbc, id)
		if err != nil {
			return err
		}
		fields := map[string]any{}
		if in.Email != nil {
			email := normalizeEmail(*in.Email)
			if email != user.Email {
				exists, err := us.userRepo.EmailExists(dbc, email)
				if err != nil {
					return fmt.Errorf("check email: %w", err)
				}
				if exists {
					return apierr.Conflict("email_taken", "email is already registered")
				}
				fields["email"] = email
			}
		}
		set := func(col string, v *string) {
			if v != nil {
				fields[col] = strings.TrimSpace(*v)
			}
		}
		set("first_name", in.FirstName)
		set("last_name", in.LastName)
		set("middle_name", in.MiddleName)
		set("organization", in.Organization)
		set("position", in.Position)
		set("phone", in.Phone)
		if in.Role != nil && *in.Role != user.Role {
			if id == rd.UserID {
				return apierr.Invalid("own_role", "administrators cannot change their own role")
			}
			fields["role"] = *in.Role
		}
		if len(fields) > 0 {
			if err := us.userRepo.Update(dbc, id, fields); err != nil {
				return fmt.Errorf("update user: %w", err)
			}
		}
		if _, roleChanged := fields["role"]; roleChanged {
			if err := us.userTokenRepo.FullDeleteByUserIDs(dbc, []uuid.UUID{id}); err != nil {
				return fmt.Errorf("revoke sessions: %w", err)
			}
		}
		updated, err = us.get(dbc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (us *userService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*types.User, error) {
	rd, err := requireRole(ctx, types.RoleAdmin)
	if err != nil {
		return nil, err
	}
	switch status {
	case types.UserStatusActive, types.UserStatusBlocked, types.UserStatusArchived:
	default:
		return nil, apierr.Invalid("invalid_status", fmt.Sprintf("unknown user status %q", status))
	}
	if id == rd.UserID && status != types.UserStatusActive {
		return nil, apierr.Invalid("own_status", "administrators cannot deactivate themselves")
	}
	var updated *types.User
	err = inTx(us.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		if _, err := us.get(dbc, id); err != nil {
			return err
		}
		if err := us.userRepo.UpdateStatus(dbc, id, status); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if status != types.UserStatusActive {
			if err := us.userTokenRepo.FullDeleteByUserIDs(dbc, []uuid.UUID{id}); err != nil {
				return fmt.Errorf("revoke sessions: %w", err)
			}
		}
		updated, err = us.get(dbc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	us.log.Info("User status changed", "user_id", id, "status", status)
	return updated, nil
}

func (us *userService) Delete(ctx context.Context, id uuid.UUID) error {
	rd, err := requireRole(ctx, types.RoleAdmin)
	if err != nil {
		return err
	}
	if id == rd.UserID {
		return apierr.Invalid("own_account", "administrators cannot delete themselves")
	}
	return inTx(us.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		if _, err := us.get(dbc, id); err != nil {
			return err
		}
		if err := us.userTokenRepo.FullDeleteByUserIDs(dbc, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		return us.userRepo.SoftDeleteByIDs(dbc, []uuid.UUID{id})
	})
}

func (us *userService) SendInvitation(ctx context.Context, id uuid.UUID) error {
	if _, err := requireRole(ctx, types.RoleAdmin); err != nil {
		return err
	}
	tmp, err := temporaryPassword(temporaryPasswordLength)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tmp), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	var user *types.User
	err = inTx(us.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		u, err := us.get(dbc, id)
		if err != nil {
			return err
		}
		if u.Status != types.UserStatusActive {
			return apierr.New(http.StatusConflict, "user_inactive", fmt.Errorf("user is %s: %w", u.Status, apierr.ErrConflict))
		}
		user = u
		return us.userRepo.UpdatePassword(dbc, id, string(hash), true)
	})
	if err != nil {
		return err
	}
	return us.mailer.Send(ctx, invitationEmail(user.Email, user.FullName(), tmp))
}

func (us *userService) ListByRole(ctx context.Context, role string) ([]*types.User, error) {
	if _, err := requestUser(ctx); err != nil {
		return nil, err
	}
	if !types.IsValidRole(role) {
		return nil, apierr.Invalid("invalid_role", fmt.Sprintf("unknown role %q", role))
	}
	return us.userRepo.ListActiveByRole(dbctx.New(ctx), role)
}
