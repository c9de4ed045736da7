package middleware

import (
	"context"
	"net/http"
	"time"

	"counseling-records/auth"

	"go.uber.org/zap"
)

const SessionCookieName = "counseling_session"

type contextKey string

const sessionKey contextKey = "session"

// SetSession adds the session to the context.
func SetSession(ctx context.Context, s *auth.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// GetSession extracts the session from the context.
func GetSession(ctx context.Context) *auth.Session {
	if s, ok := ctx.Value(sessionKey).(*auth.Session); ok {
		return s
	}
	return nil
}

// Sessions attaches the caller's session to every request, starting a new
// locked one when the cookie is missing, invalid or expired. Stateless routes
// never start a session. The cookie is re-issued once past half its lifetime
// so an active session is not cut off.
func Sessions(store *auth.SessionStore, tokens *auth.SessionTokens, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				session *auth.Session
				renew   bool
			)

			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				if claims, err := tokens.ValidateToken(cookie.Value); err == nil {
					var ok bool
					if session, ok = store.Get(claims.ID); ok {
						renew = tokens.ShouldRenew(claims, time.Now())
					}
				} else {
					logger.Debug("Ignoring invalid session cookie", zap.Error(err))
				}
			}

			if session == nil {
				if IsStatelessRoute(r.URL.Path) {
					next.ServeHTTP(w, r)
					return
				}
				session = store.New()
				renew = true
			}

			if renew {
				if err := setSessionCookie(w, r, store, tokens, session); err != nil {
					logger.Error("❌ Error generating session token", zap.Error(err))
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(SetSession(r.Context(), session)))
		})
	}
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, store *auth.SessionStore, tokens *auth.SessionTokens, session *auth.Session) error {
	token, err := tokens.GenerateToken(session.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(store.TTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// RequireLogin sends locked sessions to the login view. Only public routes
// are served without authentication.
func RequireLogin(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublicRoute(r.URL.Path) || gate.IsAuthenticated(GetSession(r.Context())) {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		})
	}
}
