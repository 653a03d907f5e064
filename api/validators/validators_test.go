package validators

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/angelmondragon/membercards/pkg/enums"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/types"
	"github.com/stretchr/testify/require"
)

type memberForm struct {
	Nome      string             `json:"nome" validate:"required,max=10"`
	Email     *string            `json:"email"`
	Ativo     types.OptionalBool `json:"ativo"`
	Categoria string             `json:"categoria"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"nome":"Ana","ativo":"true"}`))
	var dest memberForm
	require.NoError(t, DecodeJSONBody(req, &dest))
	require.Equal(t, "Ana", dest.Nome)
	require.True(t, dest.Ativo.Valid && dest.Ativo.Value)
	require.Nil(t, dest.Email)

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"nome":"Ana","extra":1}`))
	err := DecodeJSONBody(req, &memberForm{})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"nome":""}`))
	err = DecodeJSONBody(req, &memberForm{})
	typed := pkgerrors.As(err)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	require.Equal(t, map[string]string{"nome": "is required"}, typed.Details())
}

func TestDecodeFormValues(t *testing.T) {
	var dest memberForm
	err := DecodeFormValues(url.Values{
		"nome":    {"Ana"},
		"email":   {""},
		"ativo":   {"false"},
		"unknown": {"ignored"},
	}, &dest)
	require.NoError(t, err)
	require.Equal(t, "Ana", dest.Nome)
	require.NotNil(t, dest.Email)
	require.Equal(t, "", *dest.Email)
	require.True(t, dest.Ativo.Valid)
	require.False(t, dest.Ativo.Value)
	require.Equal(t, "", dest.Categoria)

	var active memberForm
	require.NoError(t, DecodeFormValues(url.Values{"nome": {"Bia"}, "ativo": {"true"}}, &active))
	require.True(t, active.Ativo.Valid && active.Ativo.Value)
	require.Nil(t, active.Email)

	err = DecodeFormValues(url.Values{"nome": {"much too long a name"}}, &memberForm{})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = DecodeFormValues(nil, memberForm{})
	require.Equal(t, pkgerrors.CodeInternal, pkgerrors.As(err).Code())
}

func TestParseQueryBool(t *testing.T) {
	v, err := ParseQueryBool(httptest.NewRequest("GET", "/?ativo=TRUE", nil), "ativo")
	require.NoError(t, err)
	require.True(t, *v)

	v, err = ParseQueryBool(httptest.NewRequest("GET", "/", nil), "ativo")
	require.NoError(t, err)
	require.Nil(t, v)

	_, err = ParseQueryBool(httptest.NewRequest("GET", "/?ativo=maybe", nil), "ativo")
	require.Error(t, err)
}

func TestParseQueryCategory(t *testing.T) {
	c, err := ParseQueryCategory(httptest.NewRequest("GET", "/?categoria=estudante", nil), "categoria")
	require.NoError(t, err)
	require.Equal(t, enums.MemberCategoryEstudante, *c)

	_, err = ParseQueryCategory(httptest.NewRequest("GET", "/?categoria=gold", nil), "categoria")
	require.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	require.Equal(t, "São", SanitizeString("  São Paulo ", 3))
	require.Equal(t, "abc", SanitizeString(" abc ", 0))
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc.def")
	require.True(t, ok)
	require.Equal(t, "abc.def", tok)

	tok, ok = BearerToken("bearer   xyz ")
	require.True(t, ok)
	require.Equal(t, "xyz", tok)

	for _, bad := range []string{"", "Bearer", "Bearer ", "Basic abc", "abc"} {
		_, ok := BearerToken(bad)
		require.False(t, ok, bad)
	}
}
