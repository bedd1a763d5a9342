package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"merkado/internal/usecase"

	"github.com/go-playground/validator/v10"
)

// Validator はecho.Validatorとして登録する。エラーはusecase.ErrValidationで包む
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: newValidate()}
}

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	//フィールド名はjsonタグで出す
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

func (cv *Validator) Validate(i interface{}) error {
	return validateStruct(cv.v, i)
}

func validateStruct(v *validator.Validate, i interface{}) error {
	err := v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %s", usecase.ErrValidation, err.Error())
	}
	return fmt.Errorf("%w: %s", usecase.ErrValidation, Message(verrs))
}

// FormatValidationError はフィールドごとのメッセージにする
func FormatValidationError(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()

		switch fe.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "email":
			out[field] = fmt.Sprintf("%s must be a valid email", field)
		case "min":
			out[field] = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case "gte":
			out[field] = fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
		case "lte":
			out[field] = fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
		case "oneof":
			out[field] = fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return out
}

// Message はFormatValidationErrorをフィールド名順に1行へまとめる
func Message(verrs validator.ValidationErrors) string {
	m := FormatValidationError(verrs)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, m[k])
	}
	return strings.Join(msgs, "; ")
}
