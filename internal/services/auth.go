package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dpp-pk/constructor-backend/internal/data/repos"
	types "github.com/dpp-pk/constructor-backend/internal/domain"
	"github.com/dpp-pk/constructor-backend/internal/platform/apierr"
	"github.com/dpp-pk/constructor-backend/internal/platform/ctxutil"
	"github.com/dpp-pk/constructor-backend/internal/platform/dbctx"
	"github.com/dpp-pk/constructor-backend/internal/platform/logger"
	"github.com/dpp-pk/constructor-backend/internal/platform/validate"
)

var errBadCredentials = apierr.New(http.StatusUnauthorized, "invalid_credentials", fmt.Errorf("invalid email or password: %w", apierr.ErrUnauthorized))

type JWTClaims struct {
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Session is the result of a login or refresh. The refresh token travels in a cookie only.
type Session struct {
	AccessToken      string      `json:"access_token"`
	ExpiresAt        time.Time   `json:"expires_at"`
	User             *types.User `json:"user"`
	RefreshToken     string      `json:"-"`
	RefreshExpiresAt time.Time   `json:"-"`
}

type RegisterInput struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	MiddleName   string `json:"middle_name"`
	Organization string `json:"organization"`
	Position     string `json:"position"`
	Phone        string `json:"phone"`
	Role         string `json:"role" validate:"omitempty,oneof=author expert"`
	Comment      string `json:"comment"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Register(ctx context.Context, in RegisterInput) (*types.Candidate, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context) (*types.User, error)
	ChangePassword(ctx context.Context, in ChangePasswordInput) error
	// Authenticate verifies a bearer token and returns the request data for it.
	Authenticate(ctx context.Context, tokenString string) (*ctxutil.RequestData, error)
	PurgeExpired(ctx context.Context) (int64, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	candidateRepo repos.CandidateRepo
	jwtSecretKey  []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	candidateRepo repos.CandidateRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		candidateRepo: candidateRepo,
		jwtSecretKey:  []byte(jwtSecretKey),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (as *authService) AccessTTL() time.Duration  { return as.accessTTL }
func (as *authService) RefreshTTL() time.Duration { return as.refreshTTL }

func (as *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, errBadCredentials
	}
	var session *Session
	err := inTx(as.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		users, err := as.userRepo.GetByEmails(dbc, []string{email})
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if len(users) == 0 {
			return errBadCredentials
		}
		user := users[0]
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
			return errBadCredentials
		}
		if user.Status != types.UserStatusActive {
			return apierr.New(http.StatusForbidden, "account_inactive", fmt.Errorf("account is %s: %w", user.Status, apierr.ErrForbidden))
		}
		s, err := as.openSession(dbc, user)
		if err != nil {
			return err
		}
		if err := as.userRepo.TouchLastLogin(dbc, user.ID, as.now()); err != nil {
			return fmt.Errorf("touch last login: %w", err)
		}
		session = s
		return nil
	})
	if err != nil {
		as.log.Info("Login rejected", "email", email, "error", err)
		return nil, err
	}
	return session, nil
}

func (as *authService) openSession(dbc dbctx.Context, user *types.User) (*Session, error) {
	now := as.now()
	tokenID := uuid.New()
	access, expiresAt, err := as.signAccessToken(user, tokenID, now)
	if err != nil {
		return nil, err
	}
	row := &types.UserToken{
		ID:           tokenID,
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    now.Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{row}); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &Session{
		AccessToken:      access,
		ExpiresAt:        expiresAt,
		User:             user,
		RefreshToken:     row.RefreshToken,
		RefreshExpiresAt: row.ExpiresAt,
	}, nil
}

func (as *authService) signAccessToken(user *types.User, sessionID uuid.UUID, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(as.accessTTL)
	claims := JWTClaims{
		Role:      user.Role,
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.Candidate, error) {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validate.Check(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = types.RoleAuthor
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	cand := &types.Candidate{
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		MiddleName:   strings.TrimSpace(in.MiddleName),
		Organization: strings.TrimSpace(in.Organization),
		Position:     strings.TrimSpace(in.Position),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         in.Role,
		Status:       types.CandidateStatusPending,
		Comment:      strings.TrimSpace(in.Comment),
		PasswordHash: string(hash),
	}
	err = inTx(as.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		exists, err := as.userRepo.EmailExists(dbc, in.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return apierr.Conflict("email_taken", "email is already registered")
		}
		open, err := as.candidateRepo.GetOpenByEmail(dbc, in.Email)
		if err != nil {
			return fmt.Errorf("check pending requests: %w", err)
		}
		if open != nil {
			return apierr.Conflict("request_pending", "a registration request for this email is already pending")
		}
		_, err = as.candidateRepo.Create(dbc, []*types.Candidate{cand})
		return err
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("Registration request created", "candidate_id", cand.ID)
	return cand, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apierr.New(http.StatusUnauthorized, "session_missing", fmt.Errorf("no session cookie: %w", apierr.ErrUnauthorized))
	}
	var session *Session
	err := inTx(as.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		found, err := as.userTokenRepo.GetByRefreshTokens(dbc, []string{refreshToken})
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if len(found) == 0 {
			return apierr.New(http.StatusUnauthorized, "session_expired", fmt.Errorf("unknown session: %w", apierr.ErrUnauthorized))
		}
		existing := found[0]
		if existing.ExpiresAt.Before(as.now()) {
			if err := as.userTokenRepo.FullDeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
				return fmt.Errorf("delete expired session: %w", err)
			}
			return apierr.New(http.StatusUnauthorized, "session_expired", fmt.Errorf("session expired: %w", apierr.ErrUnauthorized))
		}
		users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{existing.UserID})
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if len(users) == 0 || users[0].Status != types.UserStatusActive {
			return apierr.New(http.StatusUnauthorized, "session_expired", fmt.Errorf("account unavailable: %w", apierr.ErrUnauthorized))
		}
		if err := as.userTokenRepo.FullDeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
			return fmt.Errorf("rotate session: %w", err)
		}
		s, err := as.openSession(dbc, users[0])
		if err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (as *authService) Logout(ctx context.Context, refreshToken string) error {
	return inTx(as.db, dbctx.New(ctx), func(dbc dbctx.Context) error {
		var ids []uuid.UUID
		if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.SessionID != uuid.Nil {
			ids = append(ids, rd.SessionID)
		}
		if refreshToken != "" {
			found, err := as.userTokenRepo.GetByRefreshTokens(dbc, []string{refreshToken})
			if err != nil {
				return fmt.Errorf("load session: %w", err)
			}
			for _, t := range found {
				ids = append(ids, t.ID)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		return as.userTokenRepo.FullDeleteByIDs(dbc, ids)
	})
}

func (as *authService) Me(ctx context.Context) (*types.User, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	users, err := as.userRepo.GetByIDs(dbctx.New(ctx), []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.NotFound("user")
	}
	return users[0], nil
}

func (as *authService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if err := validate.Check(in); err != nil {
		return err
	}
	me, err := as.Me(ctx)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(me.Password), []byte(in.CurrentPassword)) != nil {
		return apierr.Invalid("wrong_password", "current password does not match")
	}
	if in.CurrentPassword == in.NewPassword {
		return apierr.Invalid("same_password", "new password must differ from the current one")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := as.userRepo.UpdatePassword(dbctx.New(ctx), me.ID, string(hash), false); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	as.log.Info("Password changed", "user_id", me.ID)
	return nil
}

func (as *authService) Authenticate(ctx context.Context, tokenString string) (*ctxutil.RequestData, error) {
	unauthorized := func(reason string) error {
		return apierr.New(http.StatusUnauthorized, "invalid_token", fmt.Errorf("%s: %w", reason, apierr.ErrUnauthorized))
	}
	if tokenString == "" {
		return nil, unauthorized("missing token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apierr.New(http.StatusUnauthorized, "token_expired", fmt.Errorf("token expired: %w", apierr.ErrUnauthorized))
		}
		return nil, unauthorized("invalid token")
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return nil, unauthorized("invalid token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, unauthorized("invalid subject")
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, unauthorized("invalid session")
	}
	sessions, err := as.userTokenRepo.GetByIDs(dbctx.New(ctx), []uuid.UUID{sessionID})
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(sessions) == 0 || sessions[0].UserID != userID {
		return nil, unauthorized("session revoked")
	}
	return &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        claims.Role,
		SessionID:   sessionID,
	}, nil
}

func (as *authService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := as.userTokenRepo.FullDeleteExpired(dbctx.New(ctx), as.now())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	if n > 0 {
		as.log.Info("Expired sessions purged", "count", n)
	}
	return n, nil
}
