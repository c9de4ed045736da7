package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"counseling-records/auth"
	"counseling-records/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fixture struct {
	store   *auth.SessionStore
	tokens  *auth.SessionTokens
	gate    *auth.Gate
	handler http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		store:  auth.NewSessionStore(time.Hour),
		tokens: auth.NewSessionTokens("test-secret", time.Hour),
	}
	f.gate = auth.NewGate(config.NewResolverWith(nil, nil), zap.NewNop())

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetSession(r.Context()) == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusTeapot)
	})
	f.handler = Sessions(f.store, f.tokens, zap.NewNop())(RequireLogin(f.gate)(inner))
	return f
}

func TestRequireLogin_RedirectsLockedSession(t *testing.T) {
	f := newFixture()

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, SessionCookieName, rec.Result().Cookies()[0].Name)
	assert.True(t, rec.Result().Cookies()[0].HttpOnly)
}

func TestRequireLogin_PublicRoutes(t *testing.T) {
	f := newFixture()

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code, "served without a session")
}

func TestSessions_HealthWithoutCookieStartsNoSession(t *testing.T) {
	f := newFixture()

	for i := 0; i < 500; i++ {
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, rec.Result().Cookies())
	}
	assert.Equal(t, 0, f.store.Len())
}

func TestSessions_RenewsCookiePastHalfLife(t *testing.T) {
	f := newFixture()

	s := f.store.New()
	require.True(t, f.gate.AttemptLogin(s, "1234"))
	// same secret, issued with only 20 of the 60 minutes left
	aging, err := auth.NewSessionTokens("test-secret", 20*time.Minute).GenerateToken(s.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: aging})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, int(time.Hour.Seconds()), cookies[0].MaxAge)

	claims, err := f.tokens.ValidateToken(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, s.ID, claims.ID, "same session, fresh token")
	assert.False(t, f.tokens.ShouldRenew(claims, time.Now()))
	assert.Equal(t, 1, f.store.Len())
}

func TestSessions_ReusesCookieSession(t *testing.T) {
	f := newFixture()

	s := f.store.New()
	require.True(t, f.gate.AttemptLogin(s, "1234"))
	token, err := f.tokens.GenerateToken(s.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "existing session is kept")
	assert.Equal(t, 1, f.store.Len())
}

func TestSessions_InvalidCookieStartsNewSession(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "forged"})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, 1, f.store.Len())
}

func TestLogging_RecordsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/nope", fields["path"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
}

func TestIsPublicRoute(t *testing.T) {
	assert.True(t, IsPublicRoute("/login"))
	assert.True(t, IsPublicRoute("/health"))
	assert.False(t, IsPublicRoute("/"))
	assert.False(t, IsPublicRoute("/records"))
	assert.False(t, IsPublicRoute("/logout"))

	assert.True(t, IsStatelessRoute("/health"))
	assert.False(t, IsStatelessRoute("/login"), "login needs a session to unlock")
}
