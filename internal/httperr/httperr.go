// Package httperr fiber uygulamasının merkezi hata işleyicisini tutar.
package httperr

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Handler *fiber.Error'ı kendi koduyla, diğer hataları 500 olarak JSON döner.
func Handler(c *fiber.Ctx, err error) error {
	var e *fiber.Error
	if errors.As(err, &e) {
		return c.Status(e.Code).JSON(fiber.Map{
			"error": e.Message,
		})
	}
	slog.Error("beklenmeyen hata", "path", c.Path(), "method", c.Method(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Beklenmeyen sunucu hatası",
	})
}

// NewApp test ve sunucu için ortak ayarlarla fiber uygulaması oluşturur.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: Handler,
	})
}
