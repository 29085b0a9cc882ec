package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Leitan123/SmartScholarsPAF/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims Claims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unknown-to-client"))
	require.NoError(t, err)
	return token
}

func TestClaimsFromToken(t *testing.T) {
	exp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	token := signed(t, Claims{
		Email:            "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(exp)},
	})

	claims, err := ClaimsFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "u1", claims.Subject)
	assert.False(t, claims.Expired(exp.Add(-time.Second)))
	assert.True(t, claims.Expired(exp))

	_, err = ClaimsFromToken("not-a-jwt")
	assert.Error(t, err)

	var none *Claims
	assert.False(t, none.Expired(exp))
}

func TestResolveUser(t *testing.T) {
	users := []model.User{
		{Id: "u1", Username: "ada", Email: "ada@example.com"},
		{Id: "u2", Username: "bob", Email: "bob@example.com"},
	}

	u, err := ResolveUser(signed(t, Claims{Email: "BOB@example.com"}), users)
	require.NoError(t, err)
	assert.Equal(t, "u2", u.Id)

	u, err = ResolveUser(signed(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "ada@example.com"}}), users)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.Id)

	u, err = ResolveUser("u1", users)
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)

	_, err = ResolveUser("", users)
	assert.ErrorIs(t, err, ErrNoCredentials)
	_, err = ResolveUser("u3", users)
	assert.Error(t, err)
}

func TestSessionIsTokenSource(t *testing.T) {
	s := New(Credentials{Token: "t", User: model.User{Id: "u1", Email: "ada@example.com"}})
	assert.True(t, s.SignedIn())
	assert.Equal(t, "t", s.Token())
	assert.True(t, s.IsCurrentUser(model.User{Email: "ada@example.com"}))

	s.Clear()
	assert.False(t, s.SignedIn())
	assert.True(t, s.User().IsZero())

	s.SignIn(Credentials{Token: "t2"})
	assert.Equal(t, "t2", s.Token())
}

func TestFileTokenStore(t *testing.T) {
	ctx := context.Background()
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "nested", "token.json"))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoCredentials)

	c := Credentials{Token: "t", User: model.User{Id: "u1", Username: "ada"}}
	require.NoError(t, store.Save(ctx, c))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save(ctx, Credentials{Token: "t"}))
	c, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t", c.Token)
	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestRedisTokenKey(t *testing.T) {
	assert.Equal(t, "feedsync__token__work", RedisTokenKey("work"))
	assert.Equal(t, "feedsync__token__default", RedisTokenKey(""))
}

func TestRedisTokenStore(t *testing.T) {
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("REDIS_HOST is not set")
	}
	ctx := context.Background()
	store, err := GetRedisTokenStore(ctx, "test-"+time.Now().Format("150405.000000"))
	require.NoError(t, err)
	defer store.Clear(ctx)

	c := Credentials{Token: "t", User: model.User{Id: "u1"}}
	require.NoError(t, store.Save(ctx, c))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoCredentials)
}
