package middleware

import (
	"net/http"

	"github.com/angelmondragon/membercards/api/responses"
	"github.com/angelmondragon/membercards/api/validators"
	pkgAuth "github.com/angelmondragon/membercards/pkg/auth"
	"github.com/angelmondragon/membercards/pkg/config"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/logger"
)

// Auth admits requests carrying a valid admin bearer token and records the
// admin as the request actor. Anything else gets 401 with a Bearer challenge.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reject := func(err error) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="membercards"`)
				responses.WriteError(r.Context(), logg, w, err)
			}

			token, ok := validators.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				reject(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				reject(pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			admin := claims.Username()
			ctx := WithActor(r.Context(), admin, claims.Role)
			if logg != nil {
				ctx = logg.WithActor(ctx, admin)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
