package validators

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/angelmondragon/addonhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/addonhub-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 8 << 20 // data:image payloads can be large

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	must(v.RegisterValidation("addonimage", func(fl validator.FieldLevel) bool {
		return IsAddonImage(fl.Field().String())
	}))
	must(v.RegisterValidation("urlorempty", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		return raw == "" || IsAbsoluteURL(raw)
	}))
	must(v.RegisterValidation("addoncategory", func(fl validator.FieldLevel) bool {
		return enums.AddonCategory(fl.Field().String()).IsValid()
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// IsAddonImage accepts http(s) URLs and inline data:image URIs.
func IsAddonImage(raw string) bool {
	switch {
	case strings.HasPrefix(raw, "data:image/"):
		return true
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return IsAbsoluteURL(raw)
	}
	return false
}

// IsAbsoluteURL reports whether raw parses with a scheme and host.
func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Normalizer is implemented by request bodies that canonicalise their fields
// (trimming, case folding) before the struct tags run.
type Normalizer interface {
	Normalize()
}

// DecodeJSONBody strictly decodes the request body into dest, rejects
// top-level nulls, normalizes and validates it. Only the first failing field
// is reported.
func DecodeJSONBody(r *http.Request, dest any) error {
	raw, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return decodeError(err)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return decodeError(err)
	}
	if decoder.More() {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body must contain a single JSON object")
	}
	if err := rejectNulls(raw); err != nil {
		return err
	}
	if n, ok := dest.(Normalizer); ok {
		n.Normalize()
	}
	return ValidateStruct(dest)
}

// rejectNulls fails on any top-level key set to null. Absent keys are fine.
func rejectNulls(raw []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	var nulls []string
	for key, value := range fields {
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			nulls = append(nulls, key)
		}
	}
	if len(nulls) == 0 {
		return nil
	}
	slices.Sort(nulls)
	return pkgerrors.New(pkgerrors.CodeValidation, nulls[0]+" must not be null").
		WithDetails(map[string]any{"field": nulls[0], "reason": "must not be null"})
}

// ValidateStruct runs the struct tags on v and returns the first failure as
// a VALIDATION_ERROR.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		fe := errs[0]
		field := fieldPath(fe)
		reason := validationMessage(fe)
		return pkgerrors.New(pkgerrors.CodeValidation, field+" "+reason).
			WithDetails(map[string]any{"field": field, "reason": reason})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func decodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return pkgerrors.New(pkgerrors.CodeValidation, "request body is required")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body is not valid JSON")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("%s must be of type %s", field, typeErr.Type)).
			WithDetails(map[string]any{"field": field})
	case errors.As(err, &maxErr):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body is too large")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("%s is not allowed", field)).
			WithDetails(map[string]any{"field": field})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
}

// fieldPath drops the root struct name from the namespace:
// "createAddonRequest.downloadLinks[0].url" -> "downloadLinks[0].url".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isList {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		if fe.Param() == "1" {
			return "must not be empty"
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if isList {
			return fmt.Sprintf("must contain at most %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email"
	case "url", "uri":
		return "must be a valid URL"
	case "alphanum":
		return "must contain only letters and numbers"
	case "addonimage":
		return "must be an http(s) URL or data:image URI"
	case "urlorempty":
		return "must be a valid URL or empty"
	case "addoncategory":
		return "must be one of: " + categoryList()
	}
	return "is invalid"
}

func categoryList() string {
	cats := enums.AddonCategories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}
