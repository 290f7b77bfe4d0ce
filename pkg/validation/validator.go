package validation

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "userboard-api/pkg/errors"
)

// BodyField is the field reported when the request body itself cannot be decoded.
const BodyField = "body"

// Validator validates request contracts and reports violations by their json names.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator that names fields after their json tags.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	return &Validator{validate: v}
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

// Bind decodes a JSON object into the struct pointed to by dst and validates it.
// Fields are decoded one at a time, so a wrongly typed field is reported
// together with every other violation in the body. Unknown keys are ignored.
func (v *Validator) Bind(data []byte, dst any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return FromDecodeError(io.EOF)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return FromDecodeError(err)
	}
	if raw == nil {
		return apperrors.NewValidationError(apperrors.FieldViolation{
			Field:   BodyField,
			Message: "request body must be a JSON object",
		})
	}

	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()

	rejected := make(map[string]bool)
	byField := make(map[string][]string)
	var order []string
	report := func(field, msg string) {
		if _, seen := byField[field]; !seen {
			order = append(order, field)
		}
		byField[field] = append(byField[field], msg)
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		name := jsonName(sf)
		if !sf.IsExported() || name == "" {
			continue
		}
		msg, ok := raw[name]
		if !ok {
			continue
		}
		if err := decodeField(msg, rv.Field(i)); err != nil {
			report(name, fmt.Sprintf("%s must be of type %s", name, jsonType(sf.Type)))
			rejected[name] = true
		}
	}

	if err := v.Struct(dst); err != nil {
		var fieldErr *apperrors.ValidationError
		if !stderrors.As(err, &fieldErr) {
			return err
		}
		for _, fv := range fieldErr.Violations {
			// A field that failed to decode is left zero; its type violation is enough
			if rejected[fv.Field] {
				continue
			}
			report(fv.Field, fv.Message)
		}
	}

	if len(order) == 0 {
		return nil
	}
	verr := apperrors.NewValidationError()
	for _, field := range order {
		for _, msg := range byField[field] {
			verr.Add(field, msg)
		}
	}
	return verr
}

// decodeField decodes msg into field. Integer fields also accept JSON numbers
// with no fractional part, such as 30.0.
func decodeField(msg json.RawMessage, field reflect.Value) error {
	target := reflect.New(field.Type())
	err := json.Unmarshal(msg, target.Interface())
	if err != nil {
		whole, ok := wholeNumber(msg, field.Type())
		if !ok {
			return err
		}
		target.Elem().Set(whole)
	}
	field.Set(target.Elem())
	return nil
}

// wholeNumber converts an integral JSON number literal to a value of type t,
// which must be a signed integer kind or a pointer to one.
func wholeNumber(msg json.RawMessage, t reflect.Type) (reflect.Value, bool) {
	elem := t
	for elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	switch elem.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	default:
		return reflect.Value{}, false
	}

	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || trimmed[0] == '"' {
		return reflect.Value{}, false
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return reflect.Value{}, false
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return reflect.Value{}, false
	}

	val := reflect.New(elem).Elem()
	if val.OverflowInt(int64(f)) {
		return reflect.Value{}, false
	}
	val.SetInt(int64(f))

	for t.Kind() == reflect.Pointer {
		ptr := reflect.New(val.Type())
		ptr.Elem().Set(val)
		val = ptr
		t = t.Elem()
	}
	return val, true
}

// Struct validates s and returns a *errors.ValidationError listing every violated field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return err
	}

	verr := apperrors.NewValidationError()
	for _, e := range fieldErrs {
		verr.Add(e.Field(), message(e))
	}
	return verr
}

// message converts a single validator.FieldError into a human-readable message.
func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
		}
		return fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
		}
		return fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", e.Field(), e.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a valid date (YYYY-MM-DD)", e.Field())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}

// FromDecodeError converts a JSON decoding failure into a *errors.ValidationError.
func FromDecodeError(err error) *apperrors.ValidationError {
	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)

	switch {
	case stderrors.As(err, &typeErr) && typeErr.Field != "":
		return apperrors.NewValidationError(apperrors.FieldViolation{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s must be of type %s", typeErr.Field, jsonType(typeErr.Type)),
		})
	case stderrors.As(err, &typeErr):
		return apperrors.NewValidationError(apperrors.FieldViolation{
			Field:   BodyField,
			Message: "request body must be a JSON object",
		})
	case stderrors.Is(err, io.EOF):
		return apperrors.NewValidationError(apperrors.FieldViolation{
			Field:   BodyField,
			Message: "request body is required",
		})
	case stderrors.As(err, &syntaxErr), stderrors.Is(err, io.ErrUnexpectedEOF):
		return apperrors.NewValidationError(apperrors.FieldViolation{
			Field:   BodyField,
			Message: "request body must be valid JSON",
		})
	default:
		return apperrors.NewValidationError(apperrors.FieldViolation{
			Field:   BodyField,
			Message: err.Error(),
		})
	}
}

func jsonType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}
