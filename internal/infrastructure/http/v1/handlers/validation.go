package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"erpcore/internal/core/apperror"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

// initValidator builds the request validator. Field names in errors use
// the json tag so they match the request body.
func initValidator() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())
	vld.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	decimals := map[string]func(decimal.Decimal) bool{
		"positive_decimal": decimal.Decimal.IsPositive,
		"nonneg_decimal":   func(d decimal.Decimal) bool { return !d.IsNegative() },
	}
	for tag, ok := range decimals {
		if err := vld.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			d, isDecimal := fl.Field().Interface().(decimal.Decimal)
			return isDecimal && ok(d)
		}); err != nil {
			return nil, fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return vld, nil
}

// Validate checks v against its validate tags and returns a VALIDATION_ERROR
// naming the first offending field.
func Validate(v any) error {
	validateOnce.Do(func() {
		validate, errValidate = initValidator()
	})
	if errValidate != nil {
		return apperror.NewInternal(errValidate)
	}

	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		appErr := apperror.NewValidation(fmt.Sprintf("field '%s' failed '%s' check", fe.Namespace(), fe.Tag())).
			WithDetail("field", fe.Namespace()).
			WithDetail("rule", fe.Tag())
		if fe.Param() != "" {
			appErr.WithDetail("param", fe.Param())
		}
		return appErr
	}
	return apperror.NewValidation("invalid request").WithCause(err)
}
