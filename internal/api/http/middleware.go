package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/devoptimist/builder/internal/api/domain"
	"github.com/devoptimist/builder/internal/api/service"
	"github.com/devoptimist/builder/pkg/httpx"
	"github.com/devoptimist/builder/pkg/slogx"
)

// AuthnMiddleware resolves the bearer token on each request through the
// authorization gate. Authenticated requests carry an AuthContext and the
// account id in their context; everything else is rejected before the
// handler runs. An unreachable store or cache yields 503, never 401.
func AuthnMiddleware(gate *service.AuthorizationGate) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				httpx.WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
					Error:       "invalid_request",
					Description: "Missing or malformed Authorization header.",
				})
				return
			}

			session, err := gate.Authorize(ctx, token)
			if err != nil {
				log.Info("request not authorized", "path", r.URL.Path, "err", err)
				writeError(w, err)
				return
			}

			ctx = withAuthContext(ctx, domain.AuthContext{
				AccountID: session.AccountID,
				Flags:     session.Flags,
			})
			ctx = context.WithValue(ctx, httpx.CtxKeyAccountID, session.AccountID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
