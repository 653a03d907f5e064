package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/angelmondragon/membercards/api/responses"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/logger"
)

// Recoverer turns a handler panic into a 500 INTERNAL_ERROR envelope.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer recoverPanic(logg, w, r)
			next.ServeHTTP(w, r)
		})
	}
}

func recoverPanic(logg *logger.Logger, w http.ResponseWriter, r *http.Request) {
	v := recover()
	if v == nil {
		return
	}
	if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
		panic(v)
	}

	cause := fmt.Errorf("handler panic: %v", v)
	ctx := r.Context()
	if logg != nil {
		logg.Error(logg.WithField(ctx, "panic", fmt.Sprint(v)), "panic.recovered", cause)
	}
	responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeInternal, cause, "panic"))
}
