package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/repository"
	"github.com/fastygo/dashboard/repository/memory"
)

const testSecret = "test-secret"

type countingSignals struct{ n int }

func (s *countingSignals) Dispatch() { s.n++ }

type brokenStore struct {
	*memory.TokenStore
}

func (brokenStore) Get(context.Context, string) (string, error) {
	return "", errors.New("backend down")
}

func newUseCase(media ...repository.TokenStore) (*UseCase, *countingSignals) {
	signals := &countingSignals{}
	uc := New(media, signals, Config{Secret: testSecret, Issuer: "dashboard-test"}, clockwork.NewFakeClockAt(time.Now()), nil)
	return uc, signals
}

func TestIsAuthenticated(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		cookie string
		local  string
		want   bool
	}{
		{name: "no token", want: false},
		{name: "cookie token", cookie: "abc", want: true},
		{name: "local token", local: "abc", want: true},
		{name: "both media", cookie: "abc", local: "def", want: true},
		{name: "blank token", cookie: "  ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookie := memory.NewTokenStore("cookie")
			local := memory.NewTokenStore("local")
			if tt.cookie != "" {
				require.NoError(t, cookie.Set(ctx, domain.TokenKey, tt.cookie))
			}
			if tt.local != "" {
				require.NoError(t, local.Set(ctx, domain.TokenKey, tt.local))
			}

			uc, _ := newUseCase(cookie, local)
			assert.Equal(t, tt.want, uc.IsAuthenticated(ctx))
		})
	}
}

func TestIsAuthenticated_ReadFailureCountsAsAbsent(t *testing.T) {
	ctx := context.Background()
	local := memory.NewTokenStore("local")

	uc, _ := newUseCase(brokenStore{memory.NewTokenStore("cookie")}, local)
	assert.False(t, uc.IsAuthenticated(ctx))

	require.NoError(t, local.Set(ctx, domain.TokenKey, "abc"))
	assert.True(t, uc.IsAuthenticated(ctx))
}

func TestRemoveAuthTokens(t *testing.T) {
	ctx := context.Background()
	cookie := memory.NewTokenStore("cookie")
	local := memory.NewTokenStore("local")
	require.NoError(t, cookie.Set(ctx, domain.TokenKey, "abc"))
	require.NoError(t, local.Set(ctx, domain.TokenKey, "abc"))

	uc, _ := newUseCase(cookie, local)
	uc.RemoveAuthTokens(ctx)

	assert.False(t, uc.IsAuthenticated(ctx))
	_, err := cookie.Get(ctx, domain.TokenKey)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestLogin_StoresSignedTokenEverywhere(t *testing.T) {
	ctx := context.Background()
	cookie := memory.NewTokenStore("cookie")
	local := memory.NewTokenStore("local")
	uc, _ := newUseCase(cookie, local)

	session, err := uc.Login(ctx, "user-1", 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, 30*time.Minute, session.ExpiresAt.Sub(session.CreatedAt))

	for _, store := range []*memory.TokenStore{cookie, local} {
		stored, err := store.Get(ctx, domain.TokenKey)
		require.NoError(t, err)
		assert.Equal(t, session.Token, stored)
	}

	parsed, err := jwt.Parse(session.Token, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "user-1", claims["user_id"])
	assert.Equal(t, session.ID, claims["jti"])
	assert.Equal(t, "dashboard-test", claims["iss"])
}

func TestLogin_Validation(t *testing.T) {
	uc, _ := newUseCase(memory.NewTokenStore("local"))
	_, err := uc.Login(context.Background(), "  ", time.Minute)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	noSecret := New([]repository.TokenStore{memory.NewTokenStore("local")}, nil, Config{}, nil, nil)
	_, err = noSecret.Login(context.Background(), "user-1", time.Minute)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	local := memory.NewTokenStore("local")
	uc, signals := newUseCase(local)

	_, err := uc.Login(ctx, "user-1", time.Minute)
	require.NoError(t, err)

	sub := local.Subscribe(ctx)
	defer sub.Close()

	require.NoError(t, uc.Logout(ctx))
	assert.False(t, uc.IsAuthenticated(ctx))
	assert.Equal(t, 1, signals.n)

	stamp, err := local.Get(ctx, domain.LogoutKey)
	require.NoError(t, err)
	assert.NotEmpty(t, stamp)

	var keys []string
	for len(keys) < 2 {
		ev := <-sub.C
		keys = append(keys, ev.Key)
	}
	assert.Equal(t, []string{domain.TokenKey, domain.LogoutKey}, keys)
}
