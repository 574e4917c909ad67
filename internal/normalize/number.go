package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"restoran-analytics/internal/domain"
)

// Number ham değeri float64'e çevirir. nil, NaN, ±Inf ve çözülemeyen her şey 0 olur.
func Number(raw any) float64 {
	var f float64
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		f = numberFromString(v.String())
	case string:
		f = numberFromString(v)
	case []byte:
		f = numberFromString(string(v))
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// "$1,234.50", " 12 ", "₺99" gibi metinleri kabul eder.
func numberFromString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '$', '€', '£', '₺', '_':
			return -1
		}
		return r
	}, s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Count sipariş/adet gibi tamsayı alanlar için; negatifler 0 olur.
func Count(raw any) int {
	f := Number(raw)
	if f <= 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

// NonNegative negatif değerleri 0'a çeker (tutar ve miktar alanları için).
func NonNegative(raw any) float64 {
	f := Number(raw)
	if f < 0 {
		return 0
	}
	return f
}

// ID şube kimliği gibi pozitif tamsayı alanlar için; geçersizse 0.
func ID(raw any) uint {
	f := Number(raw)
	if f <= 0 || f != math.Trunc(f) || f > math.MaxUint32 {
		return 0
	}
	return uint(f)
}

// Rating 0-5 aralığına sıkıştırılmış puan.
func Rating(raw any) float64 {
	f := Number(raw)
	switch {
	case f < 0:
		return 0
	case f > 5:
		return 5
	}
	return f
}

var orderTypeAliases = map[string]domain.OrderType{
	"dine_in":  domain.OrderDineIn,
	"dinein":   domain.OrderDineIn,
	"dine":     domain.OrderDineIn,
	"eat_in":   domain.OrderDineIn,
	"takeout":  domain.OrderTakeout,
	"take_out": domain.OrderTakeout,
	"takeaway": domain.OrderTakeout,
	"to_go":    domain.OrderTakeout,
	"pickup":   domain.OrderTakeout,
	"delivery": domain.OrderDelivery,
	"deliver":  domain.OrderDelivery,
	"catering": domain.OrderCatering,
	"event":    domain.OrderCatering,
}

var categoryAliases = map[string]domain.Category{
	"produce":    domain.CategoryProduce,
	"vegetables": domain.CategoryProduce,
	"fruit":      domain.CategoryProduce,
	"protein":    domain.CategoryProtein,
	"meat":       domain.CategoryProtein,
	"seafood":    domain.CategoryProtein,
	"dairy":      domain.CategoryDairy,
	"bakery":     domain.CategoryBakery,
	"bread":      domain.CategoryBakery,
	"dry_goods":  domain.CategoryDryGoods,
	"dry":        domain.CategoryDryGoods,
	"pantry":     domain.CategoryDryGoods,
	"beverages":  domain.CategoryBeverages,
	"beverage":   domain.CategoryBeverages,
	"drinks":     domain.CategoryBeverages,
}

func token(raw any) string {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case domain.OrderType:
		s = string(v)
	case domain.Category:
		s = string(v)
	default:
		return ""
	}
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// OrderType sabit kümeye eşler; bilinmeyenler "" olur.
func OrderType(raw any) domain.OrderType {
	return orderTypeAliases[token(raw)]
}

// Category sabit kümeye eşler; bilinmeyenler "" olur.
func Category(raw any) domain.Category {
	return categoryAliases[token(raw)]
}
