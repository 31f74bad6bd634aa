package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaqa/yaqa/internal/ctxkeys"
	"github.com/yaqa/yaqa/internal/db/dbtest"
	"github.com/yaqa/yaqa/internal/logger"
	"github.com/yaqa/yaqa/internal/model"
	"github.com/yaqa/yaqa/internal/repository"
	"github.com/yaqa/yaqa/internal/service"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("first"), mw("second"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func newAuth(t *testing.T) (*service.AuthService, *service.UserService) {
	t.Helper()
	store := repository.NewStore(dbtest.New(t))
	users := service.NewUserService(store, nil, true)
	auth := service.NewAuthService(users, "middleware-secret", time.Hour, false)

	_, err := users.Register(context.Background(), service.RegisterRequest{
		Username: "alice",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	return auth, users
}

func TestAuthMiddleware(t *testing.T) {
	auth, users := newAuth(t)
	alice, err := users.ByUsername(context.Background(), "alice")
	require.NoError(t, err)
	token, _, err := auth.GenerateJWT(alice)
	require.NoError(t, err)

	var seen string
	h := AuthMiddleware(auth, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ""
		if u := ctxkeys.User(r.Context()); u != nil {
			seen = u.Username
		}
	}))

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "alice", seen)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: service.CookieName, Value: token})
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "alice", seen)
	})

	t.Run("bad cookie is cleared", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: service.CookieName, Value: "garbage"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, seen)
		require.Len(t, rec.Result().Cookies(), 1)
		assert.Empty(t, rec.Result().Cookies()[0].Value)
	})

	t.Run("anonymous", func(t *testing.T) {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Empty(t, seen)
	})
}

func TestAuthMiddlewareUnknownUserContinuesAnonymously(t *testing.T) {
	auth, users := newAuth(t)
	token, _, err := auth.GenerateJWT(&model.User{ID: 99, Username: "ghost"})
	require.NoError(t, err)

	reached := false
	h := AuthMiddleware(auth, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		assert.Nil(t, ctxkeys.User(r.Context()))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: service.CookieName, Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, reached)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Empty(t, rec.Result().Cookies()[0].Value)
}

func TestAuthMiddlewareStoreFailureIs500(t *testing.T) {
	conn := dbtest.New(t)
	users := service.NewUserService(repository.NewStore(conn), nil, true)
	auth := service.NewAuthService(users, "middleware-secret", time.Hour, false)

	alice, err := users.Register(context.Background(), service.RegisterRequest{
		Username: "alice",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	token, _, err := auth.GenerateJWT(alice)
	require.NoError(t, err)

	require.NoError(t, conn.Close())

	reached := false
	h := AuthMiddleware(auth, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: service.CookieName, Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, reached)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, service.ErrUnauthenticated.Error(), body["error"])
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("1.2.3.4"))

	now = now.Add(2 * time.Minute)
	rl.Cleanup()
	assert.Empty(t, rl.visitors)
}

func TestRateLimitResponds429(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, time.Minute)
	h := rl.Limit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientIPIgnoresHeadersFromUntrustedPeers(t *testing.T) {
	var none TrustedProxies

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:8080"
	assert.Equal(t, "::1", none.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("X-Real-IP", "203.0.113.10")
	assert.Equal(t, "::1", none.ClientIP(req))
}

func TestClientIPBehindTrustedProxy(t *testing.T) {
	proxies, err := ParseTrustedProxies("10.0.0.0/8, 192.168.1.1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:443"

	// Right-most untrusted hop; a spoofed left-most entry is ignored
	req.Header.Set("X-Forwarded-For", "1.1.1.1, 203.0.113.9, 192.168.1.1")
	assert.Equal(t, "203.0.113.9", proxies.ClientIP(req))

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "203.0.113.10")
	assert.Equal(t, "203.0.113.10", proxies.ClientIP(req))

	req.Header.Del("X-Real-IP")
	assert.Equal(t, "10.0.0.5", proxies.ClientIP(req))

	_, err = ParseTrustedProxies("not-an-ip")
	assert.Error(t, err)
}

func TestRateLimitKeysOnPeerNotForwardedHeader(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, time.Minute)
	h := rl.Limit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "198.51.100.7:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code)
	}
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	base := logger.New(&buf, false, "")

	var requestID string
	h := RequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = ctxkeys.RequestID(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/questions", nil)
	req = req.WithContext(logger.WithContext(req.Context(), base))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, rec.Header().Get(RequestIDHeader))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "http request", line["msg"])
	assert.Equal(t, requestID, line["request_id"])
	assert.EqualValues(t, http.StatusCreated, line["status"])
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
