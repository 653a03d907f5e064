package validators

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/membercards/pkg/enums"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
)

// ParseQueryBool reads "true"/"false"; an absent or empty parameter yields nil.
func ParseQueryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key)))
	switch raw {
	case "":
		return nil, nil
	case "true":
		v := true
		return &v, nil
	case "false":
		v := false
		return &v, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be true or false").WithDetails(map[string]any{"field": key})
}

// ParseQueryCategory reads a member category, ignoring case; absent yields nil.
func ParseQueryCategory(r *http.Request, key string) (*enums.MemberCategory, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	c, err := enums.ParseMemberCategory(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid categoria").WithDetails(map[string]any{"field": key, "allowed": enums.MemberCategories()})
	}
	return &c, nil
}
