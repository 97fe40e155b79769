package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs tag validation and reports the first failure with its
// JSON path, e.g. "socialsLinks[0].link_type must be one of VK TELEGRAM WHATS_APP".
func validateStruct(s interface{}) error {
	err := structValidator.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx != -1 {
		field = field[idx+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "oneof":
		return fmt.Errorf("%s must be one of %s", field, fe.Param())
	case "max":
		return fmt.Errorf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return fmt.Errorf("%s must be a valid email", field)
	case "datetime":
		return fmt.Errorf("%s must be in HH:MM format", field)
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}
