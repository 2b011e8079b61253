package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/civicpulse-backend/internal/domain"
	"github.com/yungbote/civicpulse-backend/internal/platform/apierr"
	"github.com/yungbote/civicpulse-backend/internal/platform/ctxutil"
)

func requireAPIStatus(t *testing.T, err error, status int) *apierr.Error {
	t.Helper()
	require.Error(t, err)
	ae, ok := apierr.As(err)
	require.True(t, ok, "expected *apierr.Error, got %T: %v", err, err)
	require.Equal(t, status, ae.Status, "code=%s err=%v", ae.Code, ae.Err)
	return ae
}

func validRegistration() RegisterInput {
	return RegisterInput{Name: "Asha", Email: "Asha@Example.com ", Password: "secret1", Mobile: "9876543210"}
}

func TestRegisterIssuesTokens(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService(t)

	res, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", res.User.Email)
	assert.Equal(t, types.RoleCitizen, res.User.Role)
	assert.Equal(t, 0, res.User.Coins)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), res.ExpiresIn)

	claims := &JWTClaims{}
	_, err = jwt.ParseWithClaims(res.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.String(), claims.Subject)
	assert.Equal(t, types.RoleCitizen, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService(t)

	cases := map[string]func(in *RegisterInput){
		"missing name":    func(in *RegisterInput) { in.Name = " " },
		"short password":  func(in *RegisterInput) { in.Password = "12345" },
		"short mobile":    func(in *RegisterInput) { in.Mobile = "12345" },
		"alpha mobile":    func(in *RegisterInput) { in.Mobile = "98765x3210" },
		"bad email":       func(in *RegisterInput) { in.Email = "not-an-email" },
		"display address": func(in *RegisterInput) { in.Email = "Asha <asha@example.com>" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validRegistration()
			mutate(&in)
			_, err := svc.Register(context.Background(), in)
			requireAPIStatus(t, err, http.StatusBadRequest)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	sameEmail := validRegistration()
	sameEmail.Mobile = "1111111111"
	ae := requireAPIStatus(t, func() error { _, err := svc.Register(ctx, sameEmail); return err }(), http.StatusBadRequest)
	assert.Equal(t, "user_exists", ae.Code)

	sameMobile := validRegistration()
	sameMobile.Email = "other@example.com"
	_, err = svc.Register(ctx, sameMobile)
	requireAPIStatus(t, err, http.StatusBadRequest)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	res, err := svc.Login(ctx, "ASHA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", res.User.Email)

	_, err = svc.Login(ctx, "asha@example.com", "wrong-password")
	requireAPIStatus(t, err, http.StatusUnauthorized)

	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	requireAPIStatus(t, err, http.StatusUnauthorized)

	_, err = svc.Login(ctx, "", "")
	requireAPIStatus(t, err, http.StatusBadRequest)
}

func TestSetContextFromTokenAndLogout(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService(t)

	res, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	ctx, err := svc.SetContextFromToken(context.Background(), res.AccessToken)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(ctx)
	require.NotNil(t, rd)
	assert.Equal(t, res.User.ID, rd.UserID)
	assert.Equal(t, types.RoleCitizen, rd.Role)

	require.NoError(t, svc.Logout(ctx))

	_, err = svc.SetContextFromToken(context.Background(), res.AccessToken)
	requireAPIStatus(t, err, http.StatusUnauthorized)
}

func TestSetContextFromTokenRejectsForgedTokens(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService(t)

	res, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		Role: types.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   res.User.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := forged.SignedString([]byte("another-secret"))
	require.NoError(t, err)

	for _, tok := range []string{"", "garbage", signed} {
		_, err := svc.SetContextFromToken(context.Background(), tok)
		requireAPIStatus(t, err, http.StatusUnauthorized)
	}
}

func TestSetContextFromTokenRejectsExpired(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService(t)

	res, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	as := svc.(*authService)
	as.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	_, err = svc.SetContextFromToken(context.Background(), res.AccessToken)
	requireAPIStatus(t, err, http.StatusUnauthorized)
}

func TestRefreshRotatesTokens(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	requireAPIStatus(t, err, http.StatusUnauthorized)

	_, err = svc.SetContextFromToken(ctx, first.AccessToken)
	requireAPIStatus(t, err, http.StatusUnauthorized)

	_, err = svc.SetContextFromToken(ctx, second.AccessToken)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, "")
	requireAPIStatus(t, err, http.StatusBadRequest)
}

func TestPromoteAdminRevokesTokens(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	u, err := svc.PromoteAdmin(ctx, "ASHA@example.com")
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, u.Role)

	_, err = svc.SetContextFromToken(ctx, res.AccessToken)
	requireAPIStatus(t, err, http.StatusUnauthorized)

	again, err := svc.Login(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, again.User.Role)

	_, err = svc.PromoteAdmin(ctx, "ghost@example.com")
	requireAPIStatus(t, err, http.StatusNotFound)
}

func TestPurgeExpiredTokens(t *testing.T) {
	env := newTestEnv(t)
	svc := env.authService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	n, err := svc.PurgeExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	svc.(*authService).now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	n, err = svc.PurgeExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLogoutRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	err := env.authService(t).Logout(context.Background())
	requireAPIStatus(t, err, http.StatusUnauthorized)
}
