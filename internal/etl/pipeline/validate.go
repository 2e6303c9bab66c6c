package pipeline

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"finance_etl/internal/etl/domain"
)

var (
	validate = validator.New(validator.WithRequiredStructEnabled())

	periodPattern = regexp.MustCompile(`^[1-9][0-9]*[DWMY]$`)
)

func init() {
	// "period" accepts a look-back window such as 30D, 6M or 2Y.
	_ = validate.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		return periodPattern.MatchString(fl.Field().String())
	})
}

// Validate は params を `validate` タグで検証し、失敗をすべて *domain.ValidationError にまとめます。
// 呼び出し側が見つけた問題は extra で追加できます。
func Validate(pipeline string, params any, extra ...string) error {
	return collect(pipeline, validate.Struct(params), extra)
}

// ValidateExcept は fields を除いたフィールドだけを検証します。
// 銘柄のように解決に I/O が必要な値より先に、設定の誤りを検出するために使います。
func ValidateExcept(pipeline string, params any, fields ...string) error {
	return collect(pipeline, validate.StructExcept(params, fields...), nil)
}

func collect(pipeline string, err error, extra []string) error {
	problems := append([]string(nil), extra...)
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return &domain.ValidationError{Pipeline: pipeline, Problems: append(problems, err.Error())}
		}
		for _, fe := range fieldErrs {
			problems = append(problems, fieldMessage(fe))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return &domain.ValidationError{Pipeline: pipeline, Problems: problems}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gtefield":
		return fmt.Sprintf("%s cannot be before %s", field, fe.Param())
	case "period":
		return fmt.Sprintf("%s must look like 30D, 6W, 3M or 2Y, got %q", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
