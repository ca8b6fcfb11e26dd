package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mizanhq/mizan-backend/internal/data/repos"
	types "github.com/mizanhq/mizan-backend/internal/domain"
	"github.com/mizanhq/mizan-backend/internal/pkg/dbctx"
	pkgerrors "github.com/mizanhq/mizan-backend/internal/pkg/errors"
	"github.com/mizanhq/mizan-backend/internal/platform/ctxutil"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
)

type JWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	FirstName    string `json:"first_name" validate:"required,max=128"`
	LastName     string `json:"last_name" validate:"required,max=128"`
	Organization string `json:"organization" validate:"max=255"`
}

func (in *RegisterInput) normalize() {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Organization = strings.TrimSpace(in.Organization)
}

func normalizeEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if addr, err := mail.ParseAddress(email); err == nil {
		return addr.Address
	}
	return email
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*types.User, error)
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context, refreshToken string) (string, string, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type AuthConfig struct {
	JWTSecretKey string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	// AdminEmails get the admin role at registration and on every login.
	AdminEmails []string
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	adminEmails   map[string]bool
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	cfg AuthConfig,
) AuthService {
	admins := make(map[string]bool, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = true
		}
	}
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  []byte(cfg.JWTSecretKey),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		adminEmails:   admins,
		now:           time.Now,
	}
}

func (as *authService) roleFor(email string) string {
	if as.adminEmails[normalizeEmail(email)] {
		return types.RoleAdmin
	}
	return types.RoleMember
}

func (as *authService) RegisterUser(ctx context.Context, in RegisterInput) (*types.User, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &types.User{
		Email:        in.Email,
		Password:     string(hashed),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Organization: in.Organization,
		Role:         as.roleFor(in.Email),
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		exists, err := as.userRepo.EmailExists(dbc, user.Email)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("email already registered: %w", pkgerrors.ErrConflict)
		}
		if _, err := as.userRepo.Create(dbc, []*types.User{user}); err != nil {
			return classifyWriteErr(err, "user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

var errInvalidCredentials = fmt.Errorf("invalid email or password: %w", pkgerrors.ErrUnauthorized)

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", "", fmt.Errorf("%w: email and password are required", pkgerrors.ErrInvalidArgument)
	}

	var accessToken, refreshToken string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		users, err := as.userRepo.GetByEmails(dbc, []string{email})
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if len(users) == 0 {
			return errInvalidCredentials
		}
		user := users[0]
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
			return errInvalidCredentials
		}
		// ADMIN_EMAILS may change between deploys.
		if role := as.roleFor(user.Email); role != user.Role {
			if err := as.userRepo.UpdateRole(dbc, user.ID, role); err != nil {
				return err
			}
			user.Role = role
		}
		if _, err := as.userTokenRepo.FullDeleteExpired(dbc, as.now()); err != nil {
			as.log.Warn("expired token cleanup failed", "error", err)
		}
		accessToken, refreshToken, err = as.issueTokens(dbc, user)
		return err
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrUnauthorized) {
			as.log.Warn("login rejected", "email", email)
		}
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// RefreshUser rotates the refresh token. An empty refreshToken falls back to
// the one paired with the caller's current access token.
func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (string, string, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		if rd := ctxutil.GetRequestData(ctx); rd != nil {
			refreshToken = rd.RefreshToken
		}
	}
	if refreshToken == "" {
		return "", "", fmt.Errorf("refresh token missing: %w", pkgerrors.ErrUnauthorized)
	}

	var accessToken, newRefresh string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := as.userTokenRepo.GetByRefreshTokens(dbc, []string{refreshToken})
		if err != nil {
			return fmt.Errorf("load refresh token: %w", err)
		}
		if len(found) == 0 {
			return fmt.Errorf("refresh token not recognised: %w", pkgerrors.ErrUnauthorized)
		}
		existing := found[0]
		if existing.Expired(as.now()) {
			if err := as.userTokenRepo.SoftDeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
				return err
			}
			return fmt.Errorf("refresh token expired: %w", pkgerrors.ErrUnauthorized)
		}
		users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{existing.UserID})
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if len(users) == 0 {
			return fmt.Errorf("user for refresh token not found: %w", pkgerrors.ErrUnauthorized)
		}
		accessToken, newRefresh, err = as.issueTokens(dbc, users[0])
		if err != nil {
			return err
		}
		return as.userTokenRepo.SoftDeleteByIDs(dbc, []uuid.UUID{existing.ID})
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, newRefresh, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return fmt.Errorf("no session on request: %w", pkgerrors.ErrUnauthorized)
	}
	dbc := dbctx.Context{Ctx: ctx}
	found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{rd.TokenString})
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if len(found) == 0 {
		return nil
	}
	return as.userTokenRepo.SoftDeleteByIDs(dbc, []uuid.UUID{found[0].ID})
}

func (as *authService) issueTokens(dbc dbctx.Context, user *types.User) (string, string, error) {
	access, err := as.generateAccessToken(user)
	if err != nil {
		return "", "", fmt.Errorf("generate access token: %w", err)
	}
	refresh := uuid.New().String()
	token := &types.UserToken{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    as.now().Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{token}); err != nil {
		return "", "", fmt.Errorf("store user token: %w", err)
	}
	return access, refresh, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := as.now()
	claims := JWTClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.jwtSecretKey)
}

// SetContextFromToken verifies tokenString and attaches the caller's
// RequestData. Tokens revoked by logout or refresh are rejected.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("missing token: %w", pkgerrors.ErrUnauthorized)
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return ctx, fmt.Errorf("parse token: %v: %w", err, pkgerrors.ErrUnauthorized)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("invalid or expired token: %w", pkgerrors.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid subject in token: %w", pkgerrors.ErrUnauthorized)
	}

	found, err := as.userTokenRepo.GetByAccessTokens(dbctx.Context{Ctx: ctx}, []string{tokenString})
	if err != nil {
		return ctx, fmt.Errorf("load session: %w", err)
	}
	if len(found) == 0 {
		return ctx, fmt.Errorf("session revoked: %w", pkgerrors.ErrUnauthorized)
	}

	role := claims.Role
	if role == "" {
		role = types.RoleMember
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString:  tokenString,
		RefreshToken: found[0].RefreshToken,
		UserID:       userID,
		Role:         role,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
