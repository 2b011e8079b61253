package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/civicpulse-backend/internal/data/repos"
	types "github.com/yungbote/civicpulse-backend/internal/domain"
	"github.com/yungbote/civicpulse-backend/internal/platform/apierr"
	"github.com/yungbote/civicpulse-backend/internal/platform/ctxutil"
	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
)

const (
	BcryptCost        = 12
	MinPasswordLength = 6
)

var mobilePattern = regexp.MustCompile(`^\d{10}$`)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Mobile   string
}

type AuthResult struct {
	User         *types.User `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
}

type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	PromoteAdmin(ctx context.Context, email string) (*types.User, error)
	PurgeExpiredTokens(ctx context.Context) (int64, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
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
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  []byte(jwtSecretKey),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func validateRegistration(in RegisterInput) error {
	if in.Name == "" || in.Email == "" || in.Password == "" || in.Mobile == "" {
		return apierr.BadRequest("invalid_request", "name, email, password and mobile are required")
	}
	if len(in.Password) < MinPasswordLength {
		return apierr.BadRequest("invalid_request", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if !mobilePattern.MatchString(in.Mobile) {
		return apierr.BadRequest("invalid_request", "mobile must be exactly 10 digits")
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return apierr.BadRequest("invalid_request", "invalid email address")
	}
	return nil
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Mobile = strings.TrimSpace(in.Mobile)
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), BcryptCost)
	if err != nil {
		return nil, internalError(fmt.Errorf("hash password: %w", err))
	}

	var result *AuthResult
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := as.userRepo.GetByEmailOrMobile(ctx, tx, in.Email, in.Mobile)
		if err != nil {
			return fmt.Errorf("check existing user: %w", err)
		}
		if len(existing) > 0 {
			return errUserExists
		}
		created, err := as.userRepo.Create(ctx, tx, []*types.User{{
			Name:     in.Name,
			Email:    in.Email,
			Mobile:   in.Mobile,
			Password: string(hash),
			Role:     types.RoleCitizen,
		}})
		if err != nil {
			if isUniqueViolation(err) {
				return errUserExists
			}
			return fmt.Errorf("create user: %w", err)
		}
		result, err = as.issueTokens(ctx, tx, created[0])
		return err
	})
	if err != nil {
		return nil, as.wrap("register", err)
	}
	as.log.Info("User registered", "user_id", result.User.ID)
	return result, nil
}

var (
	errUserExists         = apierr.BadRequest("user_exists", "user with this email or mobile already exists")
	errInvalidCredentials = apierr.Unauthorized("invalid_credentials", "invalid email or password")
	errInvalidRefresh     = apierr.Unauthorized("invalid_refresh_token", "invalid or expired refresh token")
	errInvalidToken       = apierr.Unauthorized("unauthorized", "invalid or expired token")
)

func (as *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apierr.BadRequest("invalid_request", "email and password are required")
	}

	var result *AuthResult
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users, err := as.userRepo.GetByEmails(ctx, tx, []string{email})
		if err != nil {
			return fmt.Errorf("get user by email: %w", err)
		}
		if len(users) == 0 || users[0] == nil {
			return errInvalidCredentials
		}
		user := users[0]
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
			return errInvalidCredentials
		}
		result, err = as.issueTokens(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, as.wrap("login", err)
	}
	return result, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apierr.BadRequest("invalid_request", "refresh_token is required")
	}

	var result *AuthResult
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := as.userTokenRepo.GetByRefreshTokens(ctx, tx, []string{refreshToken})
		if err != nil {
			return fmt.Errorf("get refresh token: %w", err)
		}
		if len(found) == 0 || found[0] == nil {
			return errInvalidRefresh
		}
		existing := found[0]
		if !existing.ExpiresAt.After(as.now()) {
			if err := as.userTokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{existing.ID}); err != nil {
				return fmt.Errorf("delete expired token: %w", err)
			}
			return errInvalidRefresh
		}
		users, err := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{existing.UserID})
		if err != nil {
			return fmt.Errorf("load user for refresh: %w", err)
		}
		if len(users) == 0 || users[0] == nil {
			return errInvalidRefresh
		}
		if err := as.userTokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{existing.ID}); err != nil {
			return fmt.Errorf("remove old refresh token: %w", err)
		}
		result, err = as.issueTokens(ctx, tx, users[0])
		return err
	})
	if err != nil {
		return nil, as.wrap("refresh", err)
	}
	return result, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return errUnauthenticated
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := as.userTokenRepo.GetByAccessTokens(ctx, tx, []string{rd.TokenString})
		if err != nil {
			return internalError(fmt.Errorf("find user token: %w", err))
		}
		if len(found) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(found))
		for _, t := range found {
			ids = append(ids, t.ID)
		}
		if err := as.userTokenRepo.FullDeleteByIDs(ctx, tx, ids); err != nil {
			return internalError(fmt.Errorf("delete user token: %w", err))
		}
		return nil
	})
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, errInvalidToken
	}
	claims := &JWTClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil || !parsed.Valid {
		return ctx, errInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, errInvalidToken
	}

	found, err := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{tokenString})
	if err != nil {
		as.log.Warn("Error fetching user token by access token", "error", err)
		return ctx, internalError(fmt.Errorf("fetch user token: %w", err))
	}
	if len(found) == 0 || found[0] == nil || found[0].UserID != userID {
		return ctx, apierr.Unauthorized("unauthorized", "token has been revoked")
	}

	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		TokenID:     found[0].ID,
		UserID:      userID,
		Role:        claims.Role,
	}), nil
}

// PromoteAdmin grants the admin role and revokes existing sessions so new
// tokens carry the updated role.
func (as *authService) PromoteAdmin(ctx context.Context, email string) (*types.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apierr.BadRequest("invalid_request", "email is required")
	}
	var user *types.User
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users, err := as.userRepo.GetByEmails(ctx, tx, []string{email})
		if err != nil {
			return fmt.Errorf("get user by email: %w", err)
		}
		if len(users) == 0 || users[0] == nil {
			return apierr.NotFound("user_not_found", "no user with that email")
		}
		user = users[0]
		if err := as.userRepo.UpdateRole(ctx, tx, user.ID, types.RoleAdmin); err != nil {
			return fmt.Errorf("update role: %w", err)
		}
		if err := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{user.ID}); err != nil {
			return fmt.Errorf("revoke tokens: %w", err)
		}
		user.Role = types.RoleAdmin
		return nil
	})
	if err != nil {
		return nil, as.wrap("promote admin", err)
	}
	as.log.Info("User promoted to admin", "user_id", user.ID)
	return user, nil
}

func (as *authService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := as.userTokenRepo.FullDeleteExpired(ctx, nil, as.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	return n, nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) issueTokens(ctx context.Context, tx *gorm.DB, user *types.User) (*AuthResult, error) {
	now := as.now()
	access, err := as.generateAccessToken(user, now)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	userToken := &types.UserToken{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    now.Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{userToken}); err != nil {
		return nil, fmt.Errorf("create user token: %w", err)
	}
	return &AuthResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: userToken.RefreshToken,
		ExpiresIn:    int(as.accessTTL.Seconds()),
	}, nil
}

func (as *authService) generateAccessToken(user *types.User, now time.Time) (string, error) {
	claims := JWTClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.jwtSecretKey)
}

// wrap passes client-facing errors through and logs the rest as internal.
func (as *authService) wrap(op string, err error) error {
	if _, ok := apierr.As(err); ok {
		return err
	}
	as.log.Error("Auth operation failed", "op", op, "error", err)
	return apierr.New(http.StatusInternalServerError, "internal_error", errors.New(op+" failed"))
}
