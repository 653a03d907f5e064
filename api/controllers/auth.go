package controllers

import (
	"net/http"

	"github.com/angelmondragon/membercards/api/responses"
	"github.com/angelmondragon/membercards/api/validators"
	"github.com/angelmondragon/membercards/internal/auth"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/logger"
)

// AdminLogin exchanges the admin credentials for a bearer token.
func AdminLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		responses.WriteSuccess(w, result)
	}
}
