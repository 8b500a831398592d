package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/lodgecrew/lodgecrew/modules/core/services"
	"github.com/lodgecrew/lodgecrew/pkg/application"
	"github.com/lodgecrew/lodgecrew/pkg/composables"
	"github.com/lodgecrew/lodgecrew/pkg/configuration"
)

// Authorize resolves the caller from the bearer token (or session cookie) and
// binds session, user, and tenant to the request context. Resolution is
// best-effort: requests without a valid credential continue anonymously and
// are rejected by the controllers that require a caller.
func Authorize(app application.Application) mux.MiddlewareFunc {
	conf := configuration.Use()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := credentialFromRequest(r, conf.SidCookieKey)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			sessionService := app.Service(services.SessionService{}).(*services.SessionService)
			sess, err := sessionService.GetByToken(ctx, token)
			if err != nil || sess.IsExpired() {
				next.ServeHTTP(w, r)
				return
			}

			ctx = composables.WithTenantID(ctx, sess.TenantID)
			userService := app.Service(services.UserService{}).(*services.UserService)
			u, err := userService.GetByID(ctx, sess.UserID)
			if err != nil || !u.IsActive() {
				logger := composables.UseLogger(ctx)
				logger.WithError(err).WithField("user_id", sess.UserID).Warn("session resolved but user unavailable")
				next.ServeHTTP(w, r)
				return
			}

			ctx = composables.WithSession(ctx, sess)
			ctx = composables.WithUser(ctx, u)
			if params, ok := composables.UseParams(ctx); ok {
				params.Authenticated = true
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthorization rejects requests that did not resolve to an active
// user with a 401 JSON envelope. Controllers mount it after Authorize.
func RequireAuthorization() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := composables.UseUser(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"authentication required","code":"UNAUTHORIZED"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func credentialFromRequest(r *http.Request, cookieKey string) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	if c, err := r.Cookie(cookieKey); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
