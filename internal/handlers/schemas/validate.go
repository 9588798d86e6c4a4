package schemas

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Bessima/orderflow/internal/customerror"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В сообщениях об ошибках используются имена полей из JSON
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate проверяет тело запроса по тегам validate.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		return customerror.NewValidationError(humanizeValidationErrors(errs))
	}
	return customerror.NewValidationError(fmt.Sprintf("validation error: %s", err.Error()))
}

func humanizeValidationErrors(errs validator.ValidationErrors) string {
	var b strings.Builder
	for _, fe := range errs {
		field := fe.Field()
		if fe.Param() != "" {
			fmt.Fprintf(&b, "%s: %s=%s; ", field, fe.Tag(), fe.Param())
		} else {
			fmt.Fprintf(&b, "%s: %s; ", field, fe.Tag())
		}
	}
	s := b.String()
	if len(s) > 2 {
		s = s[:len(s)-2]
	}
	return s
}
