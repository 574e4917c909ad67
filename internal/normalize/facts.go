package normalize

import (
	"fmt"

	"restoran-analytics/internal/domain"
)

// Stats: bir normalizasyon turunun özeti
type Stats struct {
	Rows          int
	UndatedRows   int // tarihi çözülemeyen satırlar (tarih kovalarına girmez)
	UnknownLabels int // kanal/kategori eşlenemeyen satırlar
}

// field: aynı alanın farklı yazımlarından ilk bulunanı döner
func field(row domain.RawRow, names ...string) any {
	for _, n := range names {
		if v, ok := row[n]; ok && v != nil {
			return v
		}
	}
	return nil
}

var (
	locationKeys = []string{"location_id", "locationId", "LocationID", "loc", "branch_id"}
	dateKeys     = []string{"date", "Date", "day", "created_at"}

	// sayısal alanların kabul edilen yazımları
	numericKeys = map[string][]string{
		"revenue":    {"revenue", "Revenue", "rev", "amount"},
		"orders":     {"orders", "order_count", "orderCount", "Orders"},
		"received":   {"received", "units_received", "unitsReceived"},
		"used":       {"used", "units_used", "unitsUsed"},
		"wasted":     {"wasted", "units_wasted", "unitsWasted"},
		"waste_cost": {"waste_cost", "wasteCost", "WasteCost"},
		"rating":     {"rating", "Rating", "stars"},
	}
)

// RawNumber alanın kırpılmamış sayısal değeri; alan yoksa 0. Kırpmadan önce aralık
// denetimi yapmak isteyen yazma yolları için.
func RawNumber(row domain.RawRow, name string) float64 {
	return Number(field(row, numericKeys[name]...))
}

// Sales ham satış satırlarını normalize eder. Hiçbir satır toplu işlemi durdurmaz.
func Sales(rows []domain.RawRow) ([]domain.SalesFact, Stats) {
	out := make([]domain.SalesFact, 0, len(rows))
	st := Stats{Rows: len(rows)}
	for _, r := range rows {
		f := domain.SalesFact{
			LocationID: ID(field(r, locationKeys...)),
			Date:       Date(field(r, dateKeys...)),
			OrderType:  OrderType(field(r, "order_type", "orderType", "OrderType", "channel")),
			Revenue:    NonNegative(field(r, numericKeys["revenue"]...)),
			Orders:     Count(field(r, numericKeys["orders"]...)),
		}
		if f.Date == "" {
			st.UndatedRows++
		}
		if f.OrderType == "" {
			st.UnknownLabels++
		}
		out = append(out, f)
	}
	return out, st
}

// Inventory ham stok satırlarını normalize eder. Wasted > Received olduğu gibi bırakılır.
func Inventory(rows []domain.RawRow) ([]domain.InventoryFact, Stats) {
	out := make([]domain.InventoryFact, 0, len(rows))
	st := Stats{Rows: len(rows)}
	for _, r := range rows {
		f := domain.InventoryFact{
			LocationID: ID(field(r, locationKeys...)),
			Date:       Date(field(r, dateKeys...)),
			Category:   Category(field(r, "category", "Category", "cat")),
			Received:   NonNegative(field(r, numericKeys["received"]...)),
			Used:       NonNegative(field(r, numericKeys["used"]...)),
			Wasted:     NonNegative(field(r, numericKeys["wasted"]...)),
			WasteCost:  NonNegative(field(r, numericKeys["waste_cost"]...)),
		}
		if f.Date == "" {
			st.UndatedRows++
		}
		if f.Category == "" {
			st.UnknownLabels++
		}
		out = append(out, f)
	}
	return out, st
}

// Reviews ham yorum satırlarını normalize eder.
func Reviews(rows []domain.RawRow) ([]domain.ReviewFact, Stats) {
	out := make([]domain.ReviewFact, 0, len(rows))
	st := Stats{Rows: len(rows)}
	for _, r := range rows {
		f := domain.ReviewFact{
			LocationID: ID(field(r, locationKeys...)),
			Date:       Date(field(r, dateKeys...)),
			Rating:     Rating(field(r, numericKeys["rating"]...)),
			Text:       text(field(r, "text", "Text", "comment", "body")),
		}
		if f.Date == "" {
			st.UndatedRows++
		}
		out = append(out, f)
	}
	return out, st
}

// Locations ham şube satırlarını referans veriye çevirir.
func Locations(rows []domain.RawRow) []domain.Location {
	out := make([]domain.Location, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Location{
			ID:       ID(field(r, "id", "ID", "location_id")),
			Name:     text(field(r, "name", "Name")),
			City:     text(field(r, "city", "City")),
			State:    text(field(r, "state", "State")),
			Manager:  text(field(r, "manager", "Manager")),
			Seats:    Count(field(r, "seats", "seating_capacity", "seatingCapacity")),
			OpenDate: Date(field(r, "open_date", "openDate", "opened_at")),
			Active:   boolean(field(r, "active", "is_active", "Active")),
		})
	}
	return out
}

func text(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}
	return fmt.Sprint(raw)
}

func boolean(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		switch token(v) {
		case "true", "t", "yes", "y", "1":
			return true
		}
		return false
	}
	return Number(raw) != 0
}
