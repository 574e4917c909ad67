// Package dashboard analitik görünümleri JSON olarak sunan fiber handler'larını içerir.
package dashboard

import (
	"context"
	"errors"

	"restoran-analytics/internal/aggregate"
	"restoran-analytics/internal/fetch"
	"restoran-analytics/internal/pipeline"

	"github.com/gofiber/fiber/v2"
)

// engineError motor hatalarını HTTP hatalarına çevirir.
func engineError(err error) error {
	var fe *fetch.FetchError
	switch {
	case errors.Is(err, pipeline.ErrSuperseded):
		return fiber.NewError(fiber.StatusConflict, "Daha yeni bir istek geldi, bu sonuç atıldı")
	case errors.Is(err, pipeline.ErrInvalidCompare):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, pipeline.ErrUnknownView):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, "Veri kaynağı zamanında yanıt vermedi")
	case errors.As(err, &fe):
		return fiber.NewError(fiber.StatusServiceUnavailable, "Veri kaynağına ulaşılamadı")
	}
	return err
}

// view tek bir görünümü hesaplayıp JSON döner.
func view[T any](compute func(ctx context.Context, r pipeline.Request) (T, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, _, err := requestFrom(c)
		if err != nil {
			return err
		}
		v, err := compute(c.UserContext(), r)
		if err != nil {
			return engineError(err)
		}
		return c.JSON(v)
	}
}

// GET /api/dashboard/overview
func OverviewHandler(e *pipeline.Engine) fiber.Handler {
	return view(e.Overview)
}

// GET /api/dashboard/revenue-trend
func RevenueTrendHandler(e *pipeline.Engine) fiber.Handler {
	return view(e.RevenueTrend)
}

// GET /api/dashboard/waste
func WasteHandler(e *pipeline.Engine) fiber.Handler {
	return view(e.Waste)
}

// GET /api/dashboard/scorecard
func ScorecardHandler(e *pipeline.Engine) fiber.Handler {
	return view(e.Scorecard)
}

// GET /api/dashboard/anomalies
func AnomaliesHandler(e *pipeline.Engine) fiber.Handler {
	return view(e.Anomalies)
}

// GET /api/dashboard/order-mix?metric=orders
func OrderMixHandler(e *pipeline.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, _, err := requestFrom(c)
		if err != nil {
			return err
		}
		v, err := e.OrderMix(c.UserContext(), r, aggregate.Field(c.Query("metric", string(aggregate.Revenue))))
		if err != nil {
			return engineError(err)
		}
		return c.JSON(v)
	}
}

// GET /api/dashboard/compare?ids=1,2,3&metric=waste_cost&split=category
func CompareHandler(e *pipeline.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, scope, err := requestFrom(c)
		if err != nil {
			return err
		}

		var q CompareQuery
		if err := c.QueryParser(&q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sorgu parametreleri")
		}
		req, err := q.Request(scope)
		if err != nil {
			return err
		}

		v, err := e.Compare(c.UserContext(), r, req)
		if err != nil {
			return engineError(err)
		}
		return c.JSON(v)
	}
}

// GET /api/dashboard/export/:view
func ExportHandler(e *pipeline.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, _, err := requestFrom(c)
		if err != nil {
			return err
		}
		rows, err := e.Export(c.UserContext(), r, c.Params("view"))
		if err != nil {
			return engineError(err)
		}
		if rows == nil {
			rows = []pipeline.Record{}
		}
		return c.JSON(rows)
	}
}

// GET /api/dashboard/export
func ExportViewsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"views": pipeline.ExportViews()})
	}
}
