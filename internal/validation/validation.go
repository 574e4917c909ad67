// Package validation istek gövdeleri ve sorgu parametreleri için ortak doğrulayıcıyı tutar.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

// Mesajlarda alan adı olarak json etiketi kullanılır.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct v'yi doğrular. Hata varsa alan bazlı mesajla 400 döner.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, message(fe))
	}
	return fiber.NewError(fiber.StatusBadRequest, strings.Join(msgs, "; "))
}

// Var tek bir değeri etikete göre doğrular (ör. "omitempty,datetime=2006-01-02").
func Var(v any, tag string) error {
	return validate.Var(v, tag)
}

func message(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s zorunlu", field)
	case "email":
		return fmt.Sprintf("%s geçerli bir email olmalı", field)
	case "min":
		return fmt.Sprintf("%s en az %s olmalı", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s en fazla %s olmalı", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s en az %s olmalı", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s en fazla %s olmalı", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s şunlardan biri olmalı: %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s %s biçiminde olmalı", field, fe.Param())
	}
	return fmt.Sprintf("%s geçersiz", field)
}
