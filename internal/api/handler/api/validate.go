// internal/api/handler/api/validate.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/newthinker/finadict/internal/api/response"
)

const maxBodyBytes = 1 << 16

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// readRequest decodes the JSON body into req, applies defaults and validates
// it. A nil result means the request is usable. An empty body is accepted so
// every field falls back to its default.
func readRequest(r *http.Request, req any) []response.FieldError {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil && !errors.Is(err, io.EOF) {
		return []response.FieldError{{Rule: "json", Message: err.Error()}}
	}

	if err := defaults.Set(req); err != nil {
		return []response.FieldError{{Rule: "default", Message: err.Error()}}
	}

	if err := validate.StructCtx(r.Context(), req); err != nil {
		return fieldErrors(err)
	}
	return nil
}

func fieldErrors(err error) []response.FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []response.FieldError{{Rule: "unknown", Message: err.Error()}}
	}

	errs := make([]response.FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		errs = append(errs, response.FieldError{
			Field:   e.Field(),
			Rule:    e.Tag(),
			Message: errorMessage(e),
		})
	}
	return errs
}

func errorMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "len":
		return fmt.Sprintf("%s must be %s characters", field, fe.Param())
	case "alpha":
		return fmt.Sprintf("%s must contain letters only", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
