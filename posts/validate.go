package posts

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// check validates in and converts rule failures into a ValidationError.
func check(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	valErr := &ValidationError{}
	for _, fe := range fieldErrs {
		valErr.Violations = append(valErr.Violations, Violation{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return valErr
}

func message(fe validator.FieldError) string {
	label := strings.ToUpper(fe.Field()[:1]) + fe.Field()[1:]

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "max":
		return fmt.Sprintf("%s must be less than %s characters", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}
