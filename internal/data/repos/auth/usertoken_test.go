package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/civicpulse-backend/internal/data/repos/testutil"
	types "github.com/yungbote/civicpulse-backend/internal/domain"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewUserTokenRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "usertokenrepo-"+uuid.NewString()+"@example.com", types.RoleCitizen)

	makeToken := func(expiresIn time.Duration) *types.UserToken {
		return &types.UserToken{
			UserID:       u.ID,
			AccessToken:  "access-" + uuid.NewString(),
			RefreshToken: "refresh-" + uuid.NewString(),
			ExpiresAt:    time.Now().Add(expiresIn),
		}
	}
	accessOf := func(toks ...*types.UserToken) []string {
		out := make([]string, 0, len(toks))
		for _, tok := range toks {
			out = append(out, tok.AccessToken)
		}
		return out
	}

	live, stale := makeToken(time.Hour), makeToken(-time.Hour)
	created, err := repo.Create(ctx, tx, []*types.UserToken{live, stale})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotEqual(t, uuid.Nil, created[0].ID)

	rows, err := repo.GetByAccessTokens(ctx, tx, accessOf(live, stale))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = repo.GetByRefreshTokens(ctx, tx, []string{live.RefreshToken})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, live.ID, rows[0].ID)

	rows, err = repo.GetByRefreshTokens(ctx, tx, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	n, err := repo.FullDeleteExpired(ctx, tx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.FullDeleteByIDs(ctx, tx, []uuid.UUID{live.ID}))
	rows, err = repo.GetByAccessTokens(ctx, tx, accessOf(live, stale))
	require.NoError(t, err)
	assert.Empty(t, rows)

	first, second := makeToken(time.Hour), makeToken(time.Hour)
	_, err = repo.Create(ctx, tx, []*types.UserToken{first, second})
	require.NoError(t, err)
	require.NoError(t, repo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{u.ID}))
	rows, err = repo.GetByAccessTokens(ctx, tx, accessOf(first, second))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
