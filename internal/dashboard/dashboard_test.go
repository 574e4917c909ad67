package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"restoran-analytics/internal/auth"
	"restoran-analytics/internal/config"
	"restoran-analytics/internal/domain"
	"restoran-analytics/internal/fetch"
	"restoran-analytics/internal/httperr"
	"restoran-analytics/internal/models"
	"restoran-analytics/internal/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher sorgudaki şube kısıtını uygulayan sabit veri kaynağı
type stubFetcher struct {
	rows map[string][]fetch.Row
	err  error
}

func (f *stubFetcher) Fetch(_ context.Context, q fetch.Query) ([]fetch.Row, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(q.LocationIDs) == 0 {
		return f.rows[q.Table], nil
	}
	key := "location_id"
	if q.Table == fetch.TableLocations {
		key = "id"
	}
	var out []fetch.Row
	for _, r := range f.rows[q.Table] {
		for _, id := range q.LocationIDs {
			if r[key] == int(id) {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func chain() *stubFetcher {
	return &stubFetcher{rows: map[string][]fetch.Row{
		fetch.TableLocations: {
			{"id": 1, "name": "Kadıköy", "seats": 40, "active": true},
			{"id": 2, "name": "Beşiktaş", "seats": 20, "active": true},
		},
		fetch.TableSales: {
			{"location_id": 1, "date": "2024-01-01", "order_type": "dine_in", "revenue": 1000, "orders": 40},
			{"location_id": 1, "date": "2024-01-02", "order_type": "delivery", "revenue": 500, "orders": 20},
			{"location_id": 2, "date": "2024-01-01", "order_type": "takeout", "revenue": 300, "orders": 15},
		},
		fetch.TableInventory: {
			{"location_id": 1, "date": "2024-01-01", "category": "produce", "received": 100, "wasted": 10, "waste_cost": 50},
			{"location_id": 2, "date": "2024-01-02", "category": "dairy", "received": 40, "wasted": 8, "waste_cost": 24},
		},
		fetch.TableReviews: {
			{"location_id": 1, "date": "2024-01-01", "rating": 4.6},
			{"location_id": 2, "date": "2024-01-02", "rating": 3.1},
		},
	}}
}

func as(userID uint, role models.UserRole, locationID *uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, userID)
		c.Locals(auth.CtxUserRoleKey, role)
		c.Locals(auth.CtxLocationIDKey, locationID)
		return c.Next()
	}
}

func newApp(f fetch.Fetcher, who fiber.Handler) *fiber.App {
	e := pipeline.NewEngine(f, config.DefaultAnalytics(), pipeline.NewSessions(time.Hour, nil), nil)
	app := httperr.NewApp()
	api := app.Group("/api/dashboard", who)
	api.Get("/overview", OverviewHandler(e))
	api.Get("/revenue-trend", RevenueTrendHandler(e))
	api.Get("/order-mix", OrderMixHandler(e))
	api.Get("/waste", WasteHandler(e))
	api.Get("/scorecard", ScorecardHandler(e))
	api.Get("/compare", CompareHandler(e))
	api.Get("/anomalies", AnomaliesHandler(e))
	api.Get("/export", ExportViewsHandler())
	api.Get("/export/:view", ExportHandler(e))
	return app
}

func get(t *testing.T, app *fiber.App, path string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	if out != nil && resp.StatusCode == fiber.StatusOK {
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}

func TestScorecardForSuperAdmin(t *testing.T) {
	app := newApp(chain(), as(1, models.RoleSuperAdmin, nil))

	var v pipeline.ScorecardView
	require.Equal(t, fiber.StatusOK, get(t, app, "/api/dashboard/scorecard", &v))
	require.Len(t, v.Rows, 2)
	assert.Equal(t, "Kadıköy", v.Rows[0].Name)
	assert.Equal(t, 1500.0, v.Rows[0].Revenue)
	assert.Equal(t, domain.StatusTop, v.Rows[0].Status)
	assert.Equal(t, domain.StatusAttention, v.Rows[1].Status)
}

func TestLocationAdminIsScoped(t *testing.T) {
	own := uint(2)
	app := newApp(chain(), as(5, models.RoleLocationAdmin, &own))

	var v pipeline.ScorecardView
	require.Equal(t, fiber.StatusOK, get(t, app, "/api/dashboard/scorecard", &v))
	require.Len(t, v.Rows, 1)
	assert.Equal(t, uint(2), v.Rows[0].LocationID)

	assert.Equal(t, fiber.StatusForbidden, get(t, app, "/api/dashboard/overview?locations=1", nil))
	assert.Equal(t, fiber.StatusOK, get(t, app, "/api/dashboard/overview?locations=2", nil))
	assert.Equal(t, fiber.StatusForbidden, get(t, app, "/api/dashboard/compare?ids=1,2", nil))
}

func TestFilterParams(t *testing.T) {
	app := newApp(chain(), as(1, models.RoleSuperAdmin, nil))

	var trend []pipeline.TrendPoint
	require.Equal(t, fiber.StatusOK, get(t, app, "/api/dashboard/revenue-trend?start=2024-01-02&end=2024-01-02", &trend))
	require.Len(t, trend, 1)
	assert.Equal(t, "2024-01-02", trend[0].Key)
	assert.Equal(t, 500.0, trend[0].Revenue)

	var mix pipeline.PivotView
	require.Equal(t, fiber.StatusOK, get(t, app, "/api/dashboard/order-mix?order_types=Take-Out&metric=orders", &mix))
	require.Len(t, mix.Records, 1)
	assert.Equal(t, 15.0, mix.Records[0]["takeout"])

	var waste pipeline.WasteView
	require.Equal(t, fiber.StatusOK, get(t, app, "/api/dashboard/waste?categories=vegetables", &waste))
	assert.Equal(t, 50.0, waste.Total.WasteCost)

	assert.Equal(t, fiber.StatusBadRequest, get(t, app, "/api/dashboard/overview?start=dün", nil))
	assert.Equal(t, fiber.StatusBadRequest, get(t, app, "/api/dashboard/overview?locations=a,b", nil))
	assert.Equal(t, fiber.StatusBadRequest, get(t, app, "/api/dashboard/overview?categories=electronics", nil))
	assert.Equal(t, fiber.StatusBadRequest, get(t, app, "/api/dashboard/overview?order_types=drone", nil))
	assert.Equal(t, fiber.StatusBadRequest, get(t, app, "/api/dashboard/order-mix?metric=rating", nil))
}

func TestCompare(t *testing.T) {
	app := newApp(chain(), as(1, models.RoleSuperAdmin, nil))

	var v pipeline.PivotView
	require.Equal(t, fiber.StatusOK, get(t, app, "/api/dashboard/compare?ids=1,2&metric=waste_cost&split=category&categories=dairy,produce", &v))
	assert.Equal(t, []string{"Kadıköy|produce", "Kadıköy|dairy", "Beşiktaş|produce", "Beşiktaş|dairy"}, v.Columns)
	require.Len(t, v.Records, 2)
	assert.Equal(t, 50.0, v.Records[0]["Kadıköy|produce"])
	assert.Equal(t, 24.0, v.Records[1]["Beşiktaş|dairy"])

	assert.Equal(t, fiber.StatusBadRequest, get(t, app, "/api/dashboard/compare", nil))
	assert.Equal(t, fiber.StatusBadRequest, get(t, app, "/api/dashboard/compare?ids=1,2,3,4", nil))
	assert.Equal(t, fiber.StatusBadRequest, get(t, app, "/api/dashboard/compare?ids=1&metric=profit", nil))
	assert.Equal(t, fiber.StatusBadRequest, get(t, app, "/api/dashboard/compare?ids=1&metric=revenue&split=category", nil))
	assert.Equal(t, fiber.StatusBadRequest, get(t, app, "/api/dashboard/compare?ids=2&locations=1", nil), "compared location outside the location filter")
}

func TestExport(t *testing.T) {
	app := newApp(chain(), as(1, models.RoleSuperAdmin, nil))

	var views map[string][]string
	require.Equal(t, fiber.StatusOK, get(t, app, "/api/dashboard/export", &views))
	assert.Contains(t, views["views"], pipeline.ExportScorecard)

	var rows []map[string]any
	require.Equal(t, fiber.StatusOK, get(t, app, "/api/dashboard/export/sales?locations=1", &rows))
	assert.Len(t, rows, 2)

	assert.Equal(t, fiber.StatusNotFound, get(t, app, "/api/dashboard/export/pdf", nil))
}

func TestFetchErrorIsUnavailable(t *testing.T) {
	app := newApp(&stubFetcher{err: errors.New("bağlantı reddedildi")}, as(1, models.RoleSuperAdmin, nil))
	assert.Equal(t, fiber.StatusServiceUnavailable, get(t, app, "/api/dashboard/anomalies", nil))
}

func TestEngineErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{pipeline.ErrSuperseded, fiber.StatusConflict},
		{&fetch.FetchError{Table: fetch.TableSales, Err: errors.New("x")}, fiber.StatusServiceUnavailable},
		{pipeline.ErrInvalidCompare, fiber.StatusBadRequest},
		{pipeline.ErrUnknownView, fiber.StatusNotFound},
		{&fetch.FetchError{Table: fetch.TableSales, Err: context.DeadlineExceeded}, fiber.StatusGatewayTimeout},
	}
	for _, tc := range cases {
		var fe *fiber.Error
		require.ErrorAs(t, engineError(tc.err), &fe, tc.err.Error())
		assert.Equal(t, tc.code, fe.Code, tc.err.Error())
	}

	plain := errors.New("başka")
	assert.Same(t, plain, engineError(plain))
}

func TestMissingRole(t *testing.T) {
	app := newApp(chain(), func(c *fiber.Ctx) error { return c.Next() })
	assert.Equal(t, fiber.StatusForbidden, get(t, app, "/api/dashboard/overview", nil))
}
