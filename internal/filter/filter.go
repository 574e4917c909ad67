// Package filter, normalize edilmiş olguları tarih aralığı ve boyut seçicilerine göre süzer.
package filter

import "restoran-analytics/internal/domain"

// Range: uygulanan (kırpılmış) tarih aralığı. Empty ise hiçbir satır seçilmez.
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Empty bool   `json:"empty"`
}

// Contains kapalı aralık kontrolü; YYYY-MM-DD metinleri sözlük sırasıyla karşılaştırılabilir.
func (r Range) Contains(date string) bool {
	if r.Empty || date == "" {
		return false
	}
	return date >= r.Start && date <= r.End
}

// Bounds verideki en küçük ve en büyük tarihi döner. Tarihsiz satırlar sayılmaz.
func Bounds(dates []string) (min, max string, ok bool) {
	for _, d := range dates {
		if d == "" {
			continue
		}
		if !ok {
			min, max, ok = d, d, true
			continue
		}
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return min, max, ok
}

// Clamp istenen aralığı gözlenen veri sınırlarına kırpar.
// Başlangıç en erken tarihten önceyse en erken tarih, bitiş en geç tarihten sonraysa en geç tarih kullanılır.
// Boş uçlar sınırları alır; ters verilmiş aralık düzeltilir.
func Clamp(start, end, min, max string) Range {
	if min == "" || max == "" {
		return Range{Start: start, End: start, Empty: true}
	}
	if start != "" && end != "" && start > end {
		start, end = end, start
	}
	if start == "" || start < min {
		start = min
	}
	if end == "" || end > max {
		end = max
	}
	if start > end {
		// istek tamamen veri dışında
		return Range{Start: start, End: start, Empty: true}
	}
	return Range{Start: start, End: end}
}

func dates[F any](facts []F, date func(F) string) []string {
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		out = append(out, date(f))
	}
	return out
}

func rangeFor[F any](facts []F, st domain.FilterState, date func(F) string) Range {
	min, max, _ := Bounds(dates(facts, date))
	return Clamp(st.Start, st.End, min, max)
}

func keep[F any](facts []F, pred func(F) bool) []F {
	out := make([]F, 0, len(facts))
	for _, f := range facts {
		if pred(f) {
			out = append(out, f)
		}
	}
	return out
}

// Sales satış olgularını süzer.
func Sales(facts []domain.SalesFact, st domain.FilterState) ([]domain.SalesFact, Range) {
	r := rangeFor(facts, st, func(f domain.SalesFact) string { return f.Date })
	return keep(facts, func(f domain.SalesFact) bool {
		return r.Contains(f.Date) && st.Locations.Contains(f.LocationID) && st.OrderTypes.Contains(f.OrderType)
	}), r
}

// Inventory stok olgularını süzer.
func Inventory(facts []domain.InventoryFact, st domain.FilterState) ([]domain.InventoryFact, Range) {
	r := rangeFor(facts, st, func(f domain.InventoryFact) string { return f.Date })
	return keep(facts, func(f domain.InventoryFact) bool {
		return r.Contains(f.Date) && st.Locations.Contains(f.LocationID) && st.Categories.Contains(f.Category)
	}), r
}

// Reviews yorum olgularını süzer.
func Reviews(facts []domain.ReviewFact, st domain.FilterState) ([]domain.ReviewFact, Range) {
	r := rangeFor(facts, st, func(f domain.ReviewFact) string { return f.Date })
	return keep(facts, func(f domain.ReviewFact) bool {
		return r.Contains(f.Date) && st.Locations.Contains(f.LocationID)
	}), r
}

// Locations kohortu oluşturur: seçicide olan şubeler.
func Locations(locs []domain.Location, st domain.FilterState) []domain.Location {
	return keep(locs, func(l domain.Location) bool {
		return st.Locations.Contains(l.ID)
	})
}
