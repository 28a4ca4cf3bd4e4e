package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report JSON names so error locations match the wire format.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateNewItem checks the creation payload and returns a *ValidationError
// listing every rejected field.
func ValidateNewItem(in *NewItem) error {
	if in == nil {
		return NewFieldError([]string{"body"}, "Field required", "missing")
	}
	err := validatorInstance().Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate item: %w", err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, toFieldError(fe))
	}
	return &ValidationError{Fields: fields}
}

func toFieldError(fe validator.FieldError) FieldError {
	loc := []string{"body", fe.Field()}
	switch fe.Tag() {
	case "required":
		return FieldError{Loc: loc, Msg: "Field required", Type: "missing"}
	case "min":
		return FieldError{
			Loc:  loc,
			Msg:  fmt.Sprintf("String should have at least %s character(s)", fe.Param()),
			Type: "string_too_short",
		}
	case "max":
		return FieldError{
			Loc:  loc,
			Msg:  fmt.Sprintf("String should have at most %s characters", fe.Param()),
			Type: "string_too_long",
		}
	default:
		return FieldError{Loc: loc, Msg: fmt.Sprintf("failed on %q", fe.Tag()), Type: fe.Tag()}
	}
}
