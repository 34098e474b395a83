// Package validation проверяет входные данные запросов по тегам validate.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mmeshcher/carsharing-system/internal/model"
)

// Validator проверяет структуры запросов.
type Validator struct {
	v *validator.Validate
}

// New создаёт Validator с правилами vehicletype и paymentkind.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	mustRegister(v, "vehicletype", func(fl validator.FieldLevel) bool {
		_, err := model.ParseVehicleType(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "paymentkind", func(fl validator.FieldLevel) bool {
		_, err := model.ParsePaymentKind(fl.Field().String())
		return err == nil
	})

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// Struct проверяет структуру. Нарушения возвращаются одной ошибкой, обёрнутой в model.ErrValidation.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := fe.Field() + ": " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%w: %s", model.ErrValidation, strings.Join(msgs, "; "))
}
