package aggregate

import "restoran-analytics/internal/domain"

// Olgu tiplerini Fact arayüzüne bağlayan sarmalayıcılar.

type Sales domain.SalesFact

func (s Sales) FactKey() Key {
	return Key{Date: s.Date, LocationID: s.LocationID, OrderType: s.OrderType}
}

func (s Sales) Value(f Field) float64 {
	switch f {
	case Revenue:
		return s.Revenue
	case Orders:
		return float64(s.Orders)
	}
	return 0
}

type Inventory domain.InventoryFact

func (i Inventory) FactKey() Key {
	return Key{Date: i.Date, LocationID: i.LocationID, Category: i.Category}
}

func (i Inventory) Value(f Field) float64 {
	switch f {
	case Received:
		return i.Received
	case Used:
		return i.Used
	case Wasted:
		return i.Wasted
	case WasteCost:
		return i.WasteCost
	}
	return 0
}

type Review domain.ReviewFact

func (r Review) FactKey() Key {
	return Key{Date: r.Date, LocationID: r.LocationID}
}

func (r Review) Value(f Field) float64 {
	if f == Rating {
		return r.Rating
	}
	return 0
}

// SalesFacts domain satırlarını gruplanabilir tipe çevirir.
func SalesFacts(in []domain.SalesFact) []Sales {
	out := make([]Sales, len(in))
	for i, f := range in {
		out[i] = Sales(f)
	}
	return out
}

func InventoryFacts(in []domain.InventoryFact) []Inventory {
	out := make([]Inventory, len(in))
	for i, f := range in {
		out[i] = Inventory(f)
	}
	return out
}

func ReviewFacts(in []domain.ReviewFact) []Review {
	out := make([]Review, len(in))
	for i, f := range in {
		out[i] = Review(f)
	}
	return out
}
