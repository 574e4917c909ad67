// Package ingest ham satış, stok ve yorum satırlarını alır, normalize edip doğrular
// ve veritabanına yazar. Hatalı satırlar tek tek reddedilir; toplu işlem devam eder.
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"restoran-analytics/internal/audit"
	"restoran-analytics/internal/auth"
	"restoran-analytics/internal/database"
	"restoran-analytics/internal/domain"
	"restoran-analytics/internal/fetch"
	"restoran-analytics/internal/models"
	"restoran-analytics/internal/normalize"
	"restoran-analytics/internal/telemetry"
	"restoran-analytics/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// MaxRows tek istekte kabul edilen en fazla satır
const MaxRows = 5000

const batchSize = 200

// Invalidator yeni veri yazıldığında önbelleğe alınmış anlık görüntüleri düşürür.
type Invalidator interface {
	Invalidate()
}

type Rejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type Result struct {
	Table    string      `json:"table"`
	Received int         `json:"received"`
	Accepted int         `json:"accepted"`
	Rejected []Rejection `json:"rejected"`
}

// convert tek ham satırı modele çevirir; şube kimliğini kapsam kontrolü için ayrıca döner.
type convert[T any] func(r domain.RawRow) (T, uint, error)

func SalesHandler(m *telemetry.Metrics, inv Invalidator) fiber.Handler {
	return handle[models.SalesEntry](fetch.TableSales, salesEntry, m, inv)
}

func InventoryHandler(m *telemetry.Metrics, inv Invalidator) fiber.Handler {
	return handle[models.InventoryEntry](fetch.TableInventory, inventoryEntry, m, inv)
}

func ReviewsHandler(m *telemetry.Metrics, inv Invalidator) fiber.Handler {
	return handle[models.ReviewEntry](fetch.TableReviews, reviewEntry, m, inv)
}

func handle[T any](table string, conv convert[T], m *telemetry.Metrics, inv Invalidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scope, err := auth.ScopeFromContext(c)
		if err != nil {
			return err
		}

		rows, err := decodeRows(c.Body())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Gövde satır dizisi ya da {\"rows\": [...]} olmalı")
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir satır gönderilmeli")
		}
		if len(rows) > MaxRows {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, fmt.Sprintf("Tek istekte en fazla %d satır gönderilebilir", MaxRows))
		}

		known, err := knownLocations()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şubeler okunamadı")
		}

		res := Result{Table: table, Received: len(rows), Rejected: []Rejection{}}
		accepted := make([]T, 0, len(rows))
		for i, r := range rows {
			rec, locationID, err := conv(r)
			switch {
			case err != nil:
			case !known[locationID]:
				err = fmt.Errorf("şube bulunamadı: %d", locationID)
			case !scope.Allows(locationID):
				err = errors.New("bu şubeye veri girme yetkiniz yok")
			}
			if err != nil {
				res.Rejected = append(res.Rejected, Rejection{Index: i, Reason: reason(err)})
				continue
			}
			accepted = append(accepted, rec)
		}

		if len(accepted) > 0 {
			if err := database.DB.CreateInBatches(accepted, batchSize).Error; err != nil {
				slog.Error("ham veri yazılamadı", "table", table, "rows", len(accepted), "error", err)
				return fiber.NewError(fiber.StatusInternalServerError, "Kayıtlar yazılamadı")
			}
			if inv != nil {
				inv.Invalidate()
			}
		}
		res.Accepted = len(accepted)
		m.Ingested(table, res.Accepted, len(res.Rejected))
		if res.Accepted > 0 {
			opts := audit.LogOptions{
				UserID:      scope.UserID,
				EntityType:  table,
				Action:      models.AuditActionIngest,
				Description: fmt.Sprintf("%d satır kabul edildi, %d satır reddedildi", res.Accepted, len(res.Rejected)),
			}
			if !scope.All() {
				opts.LocationID = &scope.LocationID
			}
			audit.Record(c, opts)
		}
		slog.Info("ham veri alındı",
			"table", table, "user_id", scope.UserID,
			"accepted", res.Accepted, "rejected", len(res.Rejected))

		status := fiber.StatusCreated
		if res.Accepted == 0 {
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(res)
	}
}

// decodeRows düz dizi ya da {"rows": [...]} kabul eder. Sayılar json.Number olarak kalır.
func decodeRows(body []byte) ([]domain.RawRow, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("boş gövde")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if body[0] == '[' {
		var rows []domain.RawRow
		if err := dec.Decode(&rows); err != nil {
			return nil, err
		}
		return rows, nil
	}

	var wrapped struct {
		Rows []domain.RawRow `json:"rows"`
	}
	if err := dec.Decode(&wrapped); err != nil {
		return nil, err
	}
	if wrapped.Rows == nil {
		return nil, errors.New("rows alanı eksik")
	}
	return wrapped.Rows, nil
}

func knownLocations() (map[uint]bool, error) {
	var ids []uint
	if err := database.DB.Model(&models.Location{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	known := make(map[uint]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	return known, nil
}

func reason(err error) string {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return err.Error()
}

func parseDate(r domain.RawRow, date string) (time.Time, error) {
	if date == "" {
		return time.Time{}, fmt.Errorf("tarih çözülemedi: %v", rawDate(r))
	}
	return time.Parse(normalize.DateLayout, date)
}

func rawDate(r domain.RawRow) any {
	for _, k := range []string{"date", "Date", "day", "created_at"} {
		if v, ok := r[k]; ok {
			return v
		}
	}
	return nil
}

type salesRow struct {
	LocationID uint    `json:"location_id" validate:"required"`
	OrderType  string  `json:"order_type" validate:"required,oneof=dine_in takeout delivery catering"`
	Revenue    float64 `json:"revenue" validate:"gte=0"`
	Orders     float64 `json:"orders" validate:"gte=0"`
}

func salesEntry(r domain.RawRow) (models.SalesEntry, uint, error) {
	facts, _ := normalize.Sales([]domain.RawRow{r})
	f := facts[0]

	date, err := parseDate(r, f.Date)
	if err != nil {
		return models.SalesEntry{}, 0, err
	}
	if err := validation.Struct(salesRow{
		LocationID: f.LocationID,
		OrderType:  string(f.OrderType),
		Revenue:    normalize.RawNumber(r, "revenue"),
		Orders:     normalize.RawNumber(r, "orders"),
	}); err != nil {
		return models.SalesEntry{}, 0, err
	}

	return models.SalesEntry{
		LocationID: f.LocationID,
		Date:       date,
		OrderType:  string(f.OrderType),
		Revenue:    f.Revenue,
		Orders:     f.Orders,
	}, f.LocationID, nil
}

type inventoryRow struct {
	LocationID uint    `json:"location_id" validate:"required"`
	Category   string  `json:"category" validate:"required,oneof=produce protein dairy bakery dry_goods beverages"`
	Received   float64 `json:"received" validate:"gte=0"`
	Used       float64 `json:"used" validate:"gte=0"`
	Wasted     float64 `json:"wasted" validate:"gte=0"`
	WasteCost  float64 `json:"waste_cost" validate:"gte=0"`
	Note       string  `json:"note" validate:"max=500"`
}

func inventoryEntry(r domain.RawRow) (models.InventoryEntry, uint, error) {
	facts, _ := normalize.Inventory([]domain.RawRow{r})
	f := facts[0]

	date, err := parseDate(r, f.Date)
	if err != nil {
		return models.InventoryEntry{}, 0, err
	}
	note, _ := r["note"].(string)
	if err := validation.Struct(inventoryRow{
		LocationID: f.LocationID,
		Category:   string(f.Category),
		Received:   normalize.RawNumber(r, "received"),
		Used:       normalize.RawNumber(r, "used"),
		Wasted:     normalize.RawNumber(r, "wasted"),
		WasteCost:  normalize.RawNumber(r, "waste_cost"),
		Note:       note,
	}); err != nil {
		return models.InventoryEntry{}, 0, err
	}

	return models.InventoryEntry{
		LocationID: f.LocationID,
		Date:       date,
		Category:   string(f.Category),
		Received:   f.Received,
		Used:       f.Used,
		Wasted:     f.Wasted,
		WasteCost:  f.WasteCost,
		Note:       note,
	}, f.LocationID, nil
}

type reviewRow struct {
	LocationID uint    `json:"location_id" validate:"required"`
	Rating     float64 `json:"rating" validate:"gte=0,lte=5"`
}

func reviewEntry(r domain.RawRow) (models.ReviewEntry, uint, error) {
	facts, _ := normalize.Reviews([]domain.RawRow{r})
	f := facts[0]

	date, err := parseDate(r, f.Date)
	if err != nil {
		return models.ReviewEntry{}, 0, err
	}
	if err := validation.Struct(reviewRow{LocationID: f.LocationID, Rating: normalize.RawNumber(r, "rating")}); err != nil {
		return models.ReviewEntry{}, 0, err
	}

	return models.ReviewEntry{
		LocationID: f.LocationID,
		Date:       date,
		Rating:     f.Rating,
		Text:       f.Text,
	}, f.LocationID, nil
}
