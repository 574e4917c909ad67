package ingest

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"restoran-analytics/internal/auth"
	"restoran-analytics/internal/database/dbtest"
	"restoran-analytics/internal/fetch"
	"restoran-analytics/internal/httperr"
	"restoran-analytics/internal/models"
	"restoran-analytics/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func as(role models.UserRole, locationID *uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(1))
		c.Locals(auth.CtxUserRoleKey, role)
		c.Locals(auth.CtxLocationIDKey, locationID)
		return c.Next()
	}
}

func seedLocations(t *testing.T, db *gorm.DB) (uint, uint) {
	t.Helper()
	a := models.Location{Name: "Kadıköy", Seats: 40, Active: true}
	b := models.Location{Name: "Beşiktaş", Seats: 30, Active: true}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)
	return a.ID, b.ID
}

func post(t *testing.T, app *fiber.App, path, body string) (int, Result) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var res Result
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &res)
	return resp.StatusCode, res
}

func TestSalesIngestPartialFailure(t *testing.T) {
	db := dbtest.Use(t)
	a, _ := seedLocations(t, db)
	m := telemetry.New()
	inv := &countingInvalidator{}

	app := httperr.NewApp()
	app.Post("/api/facts/sales", as(models.RoleSuperAdmin, nil), SalesHandler(m, inv))

	status, res := post(t, app, "/api/facts/sales", `[
		{"location_id": 1, "date": "2024-01-01", "order_type": "Dine-In", "revenue": "1,250.50", "orders": 40},
		{"locationId": "1", "date": 19724, "channel": "delivery", "revenue": 300, "orders": "12"},
		{"location_id": 1, "date": "yarın", "order_type": "takeout", "revenue": 10},
		{"location_id": 1, "date": "2024-01-02", "order_type": "drive_thru", "revenue": 10},
		{"location_id": 99, "date": "2024-01-02", "order_type": "takeout", "revenue": 10}
	]`)

	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, 5, res.Received)
	assert.Equal(t, 2, res.Accepted)
	require.Len(t, res.Rejected, 3)
	assert.Equal(t, 2, res.Rejected[0].Index)
	assert.Contains(t, res.Rejected[0].Reason, "tarih")
	assert.Equal(t, 3, res.Rejected[1].Index)
	assert.Contains(t, res.Rejected[1].Reason, "order_type")
	assert.Equal(t, 4, res.Rejected[2].Index)
	assert.Contains(t, res.Rejected[2].Reason, "şube bulunamadı")

	var rows []models.SalesEntry
	require.NoError(t, db.Order("id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, a, rows[0].LocationID)
	assert.Equal(t, "dine_in", rows[0].OrderType)
	assert.Equal(t, 1250.5, rows[0].Revenue)
	assert.Equal(t, "2024-01-02", rows[1].Date.Format("2006-01-02"))
	assert.Equal(t, "delivery", rows[1].OrderType)
	assert.Equal(t, 12, rows[1].Orders)

	assert.Equal(t, 1, inv.n)

	var logs []models.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionIngest, logs[0].Action)
	assert.Equal(t, fetch.TableSales, logs[0].EntityType)
	assert.Equal(t, "2 satır kabul edildi, 3 satır reddedildi", logs[0].Description)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.IngestRows.WithLabelValues(fetch.TableSales, "accepted")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IngestRows.WithLabelValues(fetch.TableSales, "rejected")))
}

func TestInventoryAndReviewsIngest(t *testing.T) {
	db := dbtest.Use(t)
	a, _ := seedLocations(t, db)

	app := httperr.NewApp()
	app.Post("/inventory", as(models.RoleSuperAdmin, nil), InventoryHandler(nil, nil))
	app.Post("/reviews", as(models.RoleSuperAdmin, nil), ReviewsHandler(nil, nil))

	status, res := post(t, app, "/inventory", `{"rows": [
		{"location_id": 1, "date": "01/05/2024", "category": "Meat", "received": 20, "used": 15, "wasted": 25, "waste_cost": 80, "note": "soğutucu arızası"},
		{"location_id": 1, "date": "2024-01-05", "category": "electronics"}
	]}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, 1, res.Accepted)
	require.Len(t, res.Rejected, 1)

	var inv models.InventoryEntry
	require.NoError(t, db.First(&inv).Error)
	assert.Equal(t, a, inv.LocationID)
	assert.Equal(t, "protein", inv.Category)
	assert.Equal(t, 25.0, inv.Wasted, "waste above received is kept")
	assert.Equal(t, "soğutucu arızası", inv.Note)

	status, res = post(t, app, "/reviews", `[
		{"location_id": 1, "date": "2024-01-05T18:30:00Z", "stars": "4.5", "comment": "harika"},
		{"location_id": 1, "date": "2024-01-05", "stars": 7}
	]`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, 1, res.Accepted)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 1, res.Rejected[0].Index)
	assert.Contains(t, res.Rejected[0].Reason, "rating en fazla 5")

	var rev models.ReviewEntry
	require.NoError(t, db.First(&rev).Error)
	assert.Equal(t, 4.5, rev.Rating)
	assert.Equal(t, "harika", rev.Text)
}

func TestIngestRejectsOutOfRangeValues(t *testing.T) {
	db := dbtest.Use(t)
	seedLocations(t, db)

	app := httperr.NewApp()
	app.Post("/sales", as(models.RoleSuperAdmin, nil), SalesHandler(nil, nil))
	app.Post("/inventory", as(models.RoleSuperAdmin, nil), InventoryHandler(nil, nil))
	app.Post("/reviews", as(models.RoleSuperAdmin, nil), ReviewsHandler(nil, nil))

	status, res := post(t, app, "/sales", `[
		{"location_id": 1, "date": "2024-01-01", "order_type": "takeout", "revenue": -50, "orders": 3},
		{"location_id": 1, "date": "2024-01-01", "order_type": "takeout", "revenue": 50, "orders": -3}
	]`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.Len(t, res.Rejected, 2)
	assert.Contains(t, res.Rejected[0].Reason, "revenue en az 0")
	assert.Contains(t, res.Rejected[1].Reason, "orders en az 0")

	status, res = post(t, app, "/inventory", `[
		{"location_id": 1, "date": "2024-01-01", "category": "dairy", "received": 10, "units_wasted": -2}
	]`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.Len(t, res.Rejected, 1)
	assert.Contains(t, res.Rejected[0].Reason, "wasted en az 0")

	status, res = post(t, app, "/reviews", `[{"location_id": 1, "date": "2024-01-01", "rating": 9}]`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.Len(t, res.Rejected, 1)
	assert.Contains(t, res.Rejected[0].Reason, "rating en fazla 5")

	for _, m := range []any{&models.SalesEntry{}, &models.InventoryEntry{}, &models.ReviewEntry{}} {
		var count int64
		require.NoError(t, db.Model(m).Count(&count).Error)
		assert.Zero(t, count)
	}
}

func TestIngestRespectsLocationScope(t *testing.T) {
	db := dbtest.Use(t)
	a, b := seedLocations(t, db)

	app := httperr.NewApp()
	app.Post("/sales", as(models.RoleLocationAdmin, &a), SalesHandler(nil, nil))

	status, res := post(t, app, "/sales", `[
		{"location_id": `+itoa(b)+`, "date": "2024-01-01", "order_type": "takeout", "revenue": 10}
	]`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, 0, res.Accepted)
	require.Len(t, res.Rejected, 1)
	assert.Contains(t, res.Rejected[0].Reason, "yetkiniz yok")

	var count int64
	db.Model(&models.SalesEntry{}).Count(&count)
	assert.Zero(t, count)
}

func TestIngestRejectsBadBodies(t *testing.T) {
	dbtest.Use(t)
	app := httperr.NewApp()
	app.Post("/sales", as(models.RoleSuperAdmin, nil), SalesHandler(nil, nil))

	for _, body := range []string{``, `{}`, `[]`, `"satır"`, `[1, 2`} {
		status, _ := post(t, app, "/sales", body)
		assert.Equal(t, fiber.StatusBadRequest, status, body)
	}
}

func TestDecodeRowsKeepsNumbers(t *testing.T) {
	rows, err := decodeRows([]byte(`[{"revenue": 12.5}]`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, json.Number("12.5"), rows[0]["revenue"])
}

func itoa(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
