package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
)

// accessTokenParam carries the token of WebSocket upgrades, since browsers cannot set
// headers on them.
const accessTokenParam = "access_token"

// Auth validates the access token, loads the user and injects it into the context.
// Requests without a token continue as the anonymous user; an invalid token is a 401.
func (h *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, err := requestToken(r)
		if err != nil {
			errorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}
		if token == "" || h.auth == nil {
			next.ServeHTTP(w, r.WithContext(models.WithUser(ctx, models.AnonymousUser())))
			return
		}

		user, err := h.auth.Authenticate(ctx, token)
		if err != nil || user == nil {
			h.log.Warn(wrap.ErrorCtx(ctx, err), "failed to authenticate user", "error", fmt.Sprint(err))
			errorResponse(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		ctx = wrap.WithUserID(ctx, user.ID.String())
		next.ServeHTTP(w, r.WithContext(models.WithUser(ctx, user)))
	})
}

// RequireRoles wraps a handler and allows only users with one of the given roles.
// With no roles any authenticated user passes.
func (h *Middleware) RequireRoles(next http.HandlerFunc, allowedRoles ...types.UserRole) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := models.UserFromContext(r.Context())
		if user == nil || user.IsAnonymous() {
			errorResponse(w, http.StatusUnauthorized, "authorization required")
			return
		}
		if len(allowedRoles) > 0 && !user.HasRole(allowedRoles...) {
			errorResponse(w, http.StatusForbidden, "forbidden: insufficient role")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requestToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		return extractBearerToken(header)
	}
	return r.URL.Query().Get(accessTokenParam), nil
}

func extractBearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}
