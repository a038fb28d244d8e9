package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report yaml names where a struct has them, so tuning errors point at
	// the key the operator wrote.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	if err := validate.RegisterValidation("increasing", increasing); err != nil {
		panic(err)
	}
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	return e.Field + ": " + e.Message
}

// Validate runs the struct's validate tags and lists every failing field.
func Validate(data interface{}) []ValidationError {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Message: err.Error()}}
	}

	var out []ValidationError
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Namespace(),
			Message: message(fe),
		})
	}
	return out
}

// Check is Validate folded into a VALIDATION_ERROR AppError.
func Check(what string, data interface{}) error {
	errs := Validate(data)
	if len(errs) == 0 {
		return nil
	}
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.String()
	}
	return apperrors.Validation("invalid "+what, strings.Join(parts, "; "))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "increasing":
		return "must be positive and strictly increasing"
	case "gtefield":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	}
	if fe.Param() != "" {
		return fmt.Sprintf("must satisfy %s=%s (got %v)", fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("field must satisfy %s constraint", fe.Tag())
}

// increasing accepts an array or slice of numbers that are all positive and
// strictly increasing.
func increasing(fl validator.FieldLevel) bool {
	v := fl.Field()
	if v.Kind() != reflect.Array && v.Kind() != reflect.Slice {
		return false
	}
	prev := 0.0
	for i := 0; i < v.Len(); i++ {
		var cur float64
		switch e := v.Index(i); e.Kind() {
		case reflect.Float32, reflect.Float64:
			cur = e.Float()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			cur = float64(e.Int())
		default:
			return false
		}
		if cur <= prev {
			return false
		}
		prev = cur
	}
	return true
}
