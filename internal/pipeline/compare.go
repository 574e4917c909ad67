package pipeline

import (
	"errors"
	"fmt"
	"strconv"

	"restoran-analytics/internal/aggregate"
	"restoran-analytics/internal/compare"
	"restoran-analytics/internal/domain"
	"restoran-analytics/internal/fetch"
	"restoran-analytics/internal/filter"
)

// Karşılaştırmada alt kırılım
const (
	SplitNone      = ""
	SplitCategory  = "category"
	SplitOrderType = "order_type"
)

var ErrInvalidCompare = errors.New("geçersiz karşılaştırma isteği")

// CompareRequest: en fazla max şubenin bir metrik üzerinden günlük karşılaştırması
type CompareRequest struct {
	IDs    []uint
	Metric aggregate.Field
	Split  string
}

func metricSource(f aggregate.Field) string {
	switch f {
	case aggregate.Revenue, aggregate.Orders:
		return fetch.TableSales
	case aggregate.Received, aggregate.Used, aggregate.Wasted, aggregate.WasteCost:
		return fetch.TableInventory
	case aggregate.Rating:
		return fetch.TableReviews
	}
	return ""
}

// Validate isteği kontrol eder; hatalar ErrInvalidCompare sarar.
func (r CompareRequest) Validate(max int) error {
	if len(r.IDs) == 0 {
		return fmt.Errorf("%w: en az bir şube seçilmeli", ErrInvalidCompare)
	}
	if len(compare.Limit(r.IDs, len(r.IDs))) > max {
		return fmt.Errorf("%w: en fazla %d şube karşılaştırılabilir", ErrInvalidCompare, max)
	}
	src := metricSource(r.Metric)
	if src == "" {
		return fmt.Errorf("%w: bilinmeyen metrik %q", ErrInvalidCompare, r.Metric)
	}
	switch r.Split {
	case SplitNone:
	case SplitCategory:
		if src != fetch.TableInventory {
			return fmt.Errorf("%w: kategori kırılımı yalnızca stok metriklerinde kullanılabilir", ErrInvalidCompare)
		}
	case SplitOrderType:
		if src != fetch.TableSales {
			return fmt.Errorf("%w: kanal kırılımı yalnızca satış metriklerinde kullanılabilir", ErrInvalidCompare)
		}
	default:
		return fmt.Errorf("%w: bilinmeyen kırılım %q", ErrInvalidCompare, r.Split)
	}
	return nil
}

// BuildCompare seçili şubelerin günlük serilerini pivotlar. Sütunlar "Şube" ya da "Şube|alt kırılım".
// Puan metriğinde günlük değer o günün ortalama puanıdır.
func BuildCompare(snap *fetch.Snapshot, st domain.FilterState, req CompareRequest, max int) (PivotView, error) {
	if err := req.Validate(max); err != nil {
		return PivotView{}, err
	}
	ids := compare.Limit(req.IDs, max)

	names := make(map[uint]string, len(ids))
	for _, id := range ids {
		// anlık görüntü yalnızca konum filtresindeki şubeleri içerir
		if !st.Locations.Contains(id) {
			return PivotView{}, fmt.Errorf("%w: şube %d konum filtresinde seçili değil", ErrInvalidCompare, id)
		}
		loc, ok := snap.Location(id)
		if !ok {
			return PivotView{}, fmt.Errorf("%w: şube bulunamadı (%d)", ErrInvalidCompare, id)
		}
		names[id] = loc.Name
	}

	cst := st
	cst.Locations = domain.Only(ids...)

	var rows []aggregate.Row
	dims := aggregate.ByDate | aggregate.ByLocation
	switch metricSource(req.Metric) {
	case fetch.TableSales:
		if req.Split == SplitOrderType {
			dims |= aggregate.ByOrderType
		}
		sales, _ := filter.Sales(snap.Sales, cst)
		rows = aggregate.Group(aggregate.SalesFacts(sales), dims, req.Metric)
	case fetch.TableInventory:
		if req.Split == SplitCategory {
			dims |= aggregate.ByCategory
		}
		inv, _ := filter.Inventory(snap.Inventory, cst)
		rows = aggregate.Group(aggregate.InventoryFacts(inv), dims, req.Metric)
	case fetch.TableReviews:
		reviews, _ := filter.Reviews(snap.Reviews, cst)
		rows = aggregate.Group(aggregate.ReviewFacts(reviews), dims, req.Metric)
		for i := range rows {
			rows[i].Values[aggregate.Rating] /= float64(rows[i].Count)
		}
	}

	declared := make([]compare.SeriesKey, 0, len(ids))
	for _, id := range ids {
		switch req.Split {
		case SplitCategory:
			for _, c := range selectedCategories(st) {
				declared = append(declared, compare.SeriesKey{Entity: names[id], Sub: string(c)})
			}
		case SplitOrderType:
			for _, o := range selectedOrderTypes(st) {
				declared = append(declared, compare.SeriesKey{Entity: names[id], Sub: string(o)})
			}
		default:
			declared = append(declared, compare.SeriesKey{Entity: names[id]})
		}
	}

	series := compare.FromRows(rows, req.Metric, declared, func(r aggregate.Row) (compare.SeriesKey, bool) {
		k := compare.SeriesKey{Entity: names[r.Key.LocationID]}
		switch req.Split {
		case SplitCategory:
			k.Sub = string(r.Key.Category)
		case SplitOrderType:
			k.Sub = string(r.Key.OrderType)
		}
		if req.Split != SplitNone && k.Sub == "" {
			return k, false
		}
		return k, true
	})
	return pivotView(compare.Pivot(series)), nil
}

func (r CompareRequest) key(k *keyBuilder) *keyBuilder {
	k.str(string(r.Metric)).str(r.Split)
	for _, id := range r.IDs {
		k.str(strconv.FormatUint(uint64(id), 10))
	}
	return k
}
