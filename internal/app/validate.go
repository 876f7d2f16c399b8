package app

import (
	"errors"
	"reflect"
	"strings"

	"classroom-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &domain.ValidationError{
		Code:    domain.CodeInvalid,
		Message: "invalid input",
		Fields:  make(map[string]string, len(fieldErrs)),
	}
	for _, fe := range fieldErrs {
		verr.Fields[fe.Field()] = fieldMessage(fe)
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return "The two password fields didn't match."
	case "alphanum":
		return "Use letters and digits only."
	case "min":
		return "Must be at least " + fe.Param() + " long."
	case "max":
		return "Must be at most " + fe.Param() + " long."
	case "gt":
		return "Must be greater than " + fe.Param() + "."
	default:
		return "Invalid value."
	}
}
