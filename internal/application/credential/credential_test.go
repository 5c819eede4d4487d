package credential

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropagate(t *testing.T) {
	t.Run("authorization wins over fallback", func(t *testing.T) {
		h := http.Header{}
		h.Set("authorization", "Bearer standard")
		h.Set("x-auth-token", "fallback")

		v, ok := Propagate(h)
		require.True(t, ok)
		assert.Equal(t, "Bearer standard", v)
	})

	t.Run("authorization passed through unchanged", func(t *testing.T) {
		h := http.Header{}
		h.Set("Authorization", "Basic dXNlcjpwYXNz")

		v, ok := Propagate(h)
		require.True(t, ok)
		assert.Equal(t, "Basic dXNlcjpwYXNz", v)
	})

	t.Run("fallback synthesised", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-AUTH-TOKEN", "abc.def.ghi")

		v, ok := Propagate(h)
		require.True(t, ok)
		assert.Equal(t, "Bearer abc.def.ghi", v)
	})

	t.Run("last write wins", func(t *testing.T) {
		h := http.Header{}
		h.Set("x-auth-token", "first")
		h.Set("X-Auth-Token", "second")

		v, _ := Propagate(h)
		assert.Equal(t, "Bearer second", v)
	})

	t.Run("repeated authorization resolves to last value", func(t *testing.T) {
		h := http.Header{}
		h.Add("Authorization", "Bearer first")
		h.Add("Authorization", "Bearer second")
		h.Add("Authorization", "")

		v, ok := Propagate(h)
		require.True(t, ok)
		assert.Equal(t, "Bearer second", v)
	})

	t.Run("repeated fallback resolves to last value", func(t *testing.T) {
		h := http.Header{}
		h.Add("X-Auth-Token", "one")
		h.Add("X-Auth-Token", "two")

		v, _ := Propagate(h)
		assert.Equal(t, "Bearer two", v)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, ok := Propagate(http.Header{})
		assert.False(t, ok)

		h := http.Header{}
		h.Set("X-Auth-Token", "   ")
		_, ok = Propagate(h)
		assert.False(t, ok)
	})
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	tok, ok = BearerToken("bearer  abc ")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-the-backend-key"))
	require.NoError(t, err)
	return tok
}

func TestSessionFromToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tok := signed(t, jwt.MapClaims{
		"sub":  "ada@example.com",
		"role": "ADMIN",
		"exp":  now.Add(time.Hour).Unix(),
	})

	s, err := SessionFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", s.Subject)
	assert.True(t, s.IsAdmin())
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Hour)))
	assert.True(t, s.Expired(now.Add(2*time.Hour)))

	noExp, err := SessionFromToken(signed(t, jwt.MapClaims{"sub": "x", "role": "CUSTOMER"}))
	require.NoError(t, err)
	assert.False(t, noExp.Expired(now))
	assert.False(t, noExp.IsAdmin())

	_, err = SessionFromToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrMalformedToken)

	var nilSession *Session
	assert.True(t, nilSession.Expired(now))
}

func TestDescribe(t *testing.T) {
	now := time.Now()
	live := signed(t, jwt.MapClaims{"sub": "a", "exp": now.Add(time.Minute).Unix()})
	stale := signed(t, jwt.MapClaims{"sub": "a", "exp": now.Add(-time.Minute).Unix()})

	assert.Equal(t, StateNone, Describe("", false, now))
	assert.Equal(t, StateBearer, Describe("Bearer "+live, true, now))
	assert.Equal(t, StateExpired, Describe("Bearer "+stale, true, now))
	assert.Equal(t, StateOpaque, Describe("Bearer opaque-token", true, now))
	assert.Equal(t, StateOpaque, Describe("Basic abc", true, now))
}
