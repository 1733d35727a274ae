package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenSourceFetch(t *testing.T) {
	var calls int
	srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sso/token", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "svc-user", user)
		assert.Equal(t, "svc-pass", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`))
	})

	src := &TokenSource{
		Endpoint: srv.URL + "/sso/token",
		Username: "svc-user",
		Password: "svc-pass",
	}

	token, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, 1, calls)

	// Within the expiry window the cached token is reused.
	token, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, 1, calls)
}

func TestTokenSourceRefreshAfterExpiry(t *testing.T) {
	var calls int
	srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"access_token":"tok","expires_in":300}`))
	})

	now := time.Now()
	src := &TokenSource{
		Endpoint: srv.URL,
		now:      func() time.Time { return now },
	}

	_, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// Jump past expires_in minus the margin.
	now = now.Add(300 * time.Second)
	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTokenSourceInvalidate(t *testing.T) {
	var calls int
	srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	})

	src := &TokenSource{Endpoint: srv.URL}
	_, err := src.Token(context.Background())
	require.NoError(t, err)

	src.Invalidate()
	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTokenSourceExpiryFromJWT(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour)
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"` + signed + `"}`))
	})

	src := &TokenSource{Endpoint: srv.URL}
	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.WithinDuration(t, exp.Add(-defaultMargin), src.expires, time.Second)
}

func TestTokenSourceFallbackTTL(t *testing.T) {
	srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		// Opaque token, no expires_in: the fallback TTL applies.
		w.Write([]byte(`{"access_token":"opaque"}`))
	})

	now := time.Now()
	src := &TokenSource{
		Endpoint: srv.URL,
		TTL:      10 * time.Minute,
		Margin:   time.Minute,
		now:      func() time.Time { return now },
	}
	_, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(9*time.Minute), src.expires)
}

func TestTokenSourceShortLivedTokenFloor(t *testing.T) {
	srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","expires_in":5}`))
	})

	now := time.Now()
	src := &TokenSource{
		Endpoint: srv.URL,
		now:      func() time.Time { return now },
	}
	_, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Minute), src.expires)
}

func TestTokenSourceErrors(t *testing.T) {
	t.Run("endpoint rejects credentials", func(t *testing.T) {
		srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
		})
		src := &TokenSource{Endpoint: srv.URL}
		_, err := src.Token(context.Background())
		var terr *TokenRequestError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, http.StatusUnauthorized, terr.Status)
		assert.Contains(t, terr.Body, "bad credentials")
		assert.False(t, terr.Temporary())
	})

	t.Run("endpoint unavailable is temporary", func(t *testing.T) {
		srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		})
		src := &TokenSource{Endpoint: srv.URL}
		_, err := src.Token(context.Background())
		var terr *TokenRequestError
		require.ErrorAs(t, err, &terr)
		assert.True(t, terr.Temporary())
	})

	t.Run("missing access_token", func(t *testing.T) {
		srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"token_type":"bearer"}`))
		})
		src := &TokenSource{Endpoint: srv.URL}
		_, err := src.Token(context.Background())
		assert.ErrorContains(t, err, "no access_token")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{`))
		})
		src := &TokenSource{Endpoint: srv.URL}
		_, err := src.Token(context.Background())
		assert.ErrorContains(t, err, "decoding token response")
	})

	t.Run("no endpoint", func(t *testing.T) {
		src := &TokenSource{}
		_, err := src.Token(context.Background())
		assert.ErrorContains(t, err, "token endpoint not configured")
	})

	t.Run("context canceled", func(t *testing.T) {
		srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access_token":"tok"}`))
		})
		src := &TokenSource{Endpoint: srv.URL}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := src.Token(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTokenSourceConcurrent(t *testing.T) {
	var mu sync.Mutex
	var calls int
	srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	})

	src := &TokenSource{Endpoint: srv.URL}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := src.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "tok", token)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}
