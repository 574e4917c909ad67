package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"restoran-analytics/internal/database/dbtest"
	"restoran-analytics/internal/httperr"
	"restoran-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp() *fiber.App {
	app := httperr.NewApp()
	g := app.Group("/api/admin")
	g.Post("/locations", CreateLocationHandler())
	g.Get("/locations", ListLocationsHandler())
	g.Get("/locations/:id", GetLocationHandler())
	g.Put("/locations/:id", UpdateLocationHandler())
	g.Delete("/locations/:id", DeleteLocationHandler())
	g.Post("/locations/:id/admins", CreateLocationAdminHandler())
	g.Get("/locations/:id/admins", ListLocationAdminsHandler())
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body any, out any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	if out != nil {
		raw, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp
}

func TestLocationCRUD(t *testing.T) {
	db := dbtest.Use(t)
	app := testApp()

	var created LocationResponse
	resp := call(t, app, "POST", "/api/admin/locations", fiber.Map{
		"name": " Kadıköy ", "city": "İstanbul", "state": "34", "seats": 48, "open_date": "2021-05-01",
	}, &created)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Kadıköy", created.Name)
	assert.True(t, created.Active)
	require.NotNil(t, created.OpenDate)
	assert.Equal(t, "2021-05-01", *created.OpenDate)

	resp = call(t, app, "POST", "/api/admin/locations", fiber.Map{"name": "Kadıköy"}, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var errBody map[string]string
	resp = call(t, app, "POST", "/api/admin/locations", fiber.Map{"name": "Moda", "seats": -3, "open_date": "01.05.2021"}, &errBody)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errBody["error"], "seats")
	assert.Contains(t, errBody["error"], "open_date")

	path := fmt.Sprintf("/api/admin/locations/%d", created.ID)
	var updated LocationResponse
	resp = call(t, app, "PUT", path, fiber.Map{"seats": 60, "active": false}, &updated)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 60, updated.Seats)
	assert.False(t, updated.Active)
	assert.Equal(t, "Kadıköy", updated.Name)

	resp = call(t, app, "PUT", path, fiber.Map{"name": "   "}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var list []LocationResponse
	call(t, app, "GET", "/api/admin/locations", nil, &list)
	assert.Len(t, list, 1)
	call(t, app, "GET", "/api/admin/locations?active=true", nil, &list)
	assert.Empty(t, list)

	resp = call(t, app, "GET", "/api/admin/locations/999", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = call(t, app, "DELETE", path, nil, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp = call(t, app, "GET", path, nil, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var logs []models.AuditLog
	require.NoError(t, db.Where("entity_type = ?", "location").Order("id").Find(&logs).Error)
	require.Len(t, logs, 3)
	assert.Equal(t, models.AuditActionCreate, logs[0].Action)
	assert.Equal(t, models.AuditActionUpdate, logs[1].Action)
	assert.Contains(t, logs[1].BeforeData, `"seats":48`)
	assert.Contains(t, logs[1].AfterData, `"seats":60`)
	assert.Equal(t, models.AuditActionDelete, logs[2].Action)
}

func TestDeleteLocationWithFacts(t *testing.T) {
	db := dbtest.Use(t)
	app := testApp()

	loc := models.Location{Name: "Üsküdar", Seats: 20, Active: true}
	require.NoError(t, db.Create(&loc).Error)
	require.NoError(t, db.Create(&models.SalesEntry{
		LocationID: loc.ID, Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		OrderType: "dine_in", Revenue: 100, Orders: 4,
	}).Error)

	resp := call(t, app, "DELETE", fmt.Sprintf("/api/admin/locations/%d", loc.ID), nil, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestLocationAdmins(t *testing.T) {
	db := dbtest.Use(t)
	app := testApp()

	loc := models.Location{Name: "Beşiktaş", Seats: 30, Active: true}
	require.NoError(t, db.Create(&loc).Error)
	path := fmt.Sprintf("/api/admin/locations/%d/admins", loc.ID)

	var created LocationAdminResponse
	resp := call(t, app, "POST", path, fiber.Map{
		"name": "Zeynep", "email": "Zeynep@Example.com", "password": "sifre1234",
	}, &created)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "zeynep@example.com", created.Email)
	assert.Equal(t, string(models.RoleLocationAdmin), created.Role)
	require.NotNil(t, created.LocationID)
	assert.Equal(t, loc.ID, *created.LocationID)

	resp = call(t, app, "POST", path, fiber.Map{
		"name": "Zeynep", "email": "zeynep@example.com", "password": "sifre1234",
	}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = call(t, app, "POST", "/api/admin/locations/999/admins", fiber.Map{
		"name": "X", "email": "x@example.com", "password": "sifre1234",
	}, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var admins []LocationAdminResponse
	call(t, app, "GET", path, nil, &admins)
	require.Len(t, admins, 1)
	assert.Equal(t, "Zeynep", admins[0].Name)
}
