package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/types"
	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
)

var (
	validate    = newValidator()
	formDecoder = newFormDecoder()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func newFormDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.SetTagName("json")
	d.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		var ob types.OptionalBool
		if len(vals) > 0 {
			err := ob.UnmarshalText([]byte(vals[0]))
			return ob, err
		}
		return ob, nil
	}, types.OptionalBool{})
	return d
}

func DecodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
	}
	return ValidateStruct(dest)
}

// DecodeFormValues fills dest from already parsed form values, matching
// fields by their json tag. Keys without a matching field are ignored.
func DecodeFormValues(values url.Values, dest any) error {
	if err := formDecoder.Decode(dest, values); err != nil {
		var invalid *form.InvalidDecoderError
		if errors.As(err, &invalid) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "form destination must be a struct pointer")
		}
		details := map[string]string{}
		var decodeErrs form.DecodeErrors
		if errors.As(err, &decodeErrs) {
			for field := range decodeErrs {
				details[field] = "is invalid"
			}
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form field").WithDetails(details)
	}
	return ValidateStruct(dest)
}

// ValidateStruct runs the validate tags on dest.
func ValidateStruct(dest any) error {
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}
