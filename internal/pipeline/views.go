package pipeline

import (
	"restoran-analytics/internal/aggregate"
	"restoran-analytics/internal/compare"
	"restoran-analytics/internal/config"
	"restoran-analytics/internal/derive"
	"restoran-analytics/internal/domain"
	"restoran-analytics/internal/fetch"
	"restoran-analytics/internal/filter"
)

// Bu dosyadaki Build* fonksiyonları saftır: yalnızca anlık görüntüye, filtreye ve eşiklere bakar.

// scope: filtre uygulanmış olgular
type scope struct {
	sales     []domain.SalesFact
	inventory []domain.InventoryFact
	reviews   []domain.ReviewFact

	salesRange filter.Range
	invRange   filter.Range
	revRange   filter.Range
}

func apply(snap *fetch.Snapshot, st domain.FilterState) scope {
	var sc scope
	sc.sales, sc.salesRange = filter.Sales(snap.Sales, st)
	sc.inventory, sc.invRange = filter.Inventory(snap.Inventory, st)
	sc.reviews, sc.revRange = filter.Reviews(snap.Reviews, st)
	return sc
}

// KPI: dönem değeri ve önceki eşit uzunluktaki döneme göre değişim
type KPI struct {
	Value    float64  `json:"value"`
	Previous float64  `json:"previous"`
	DeltaPct *float64 `json:"delta_pct"` // önceki dönem yoksa null
	Delta    string   `json:"delta"`     // "+12.3%" / "n/a"
}

func newKPI(cur, prev float64, hasPrev bool) KPI {
	k := KPI{Value: derive.Round2(cur), Previous: derive.Round2(prev), Delta: "n/a"}
	if !hasPrev {
		return k
	}
	pct, ok := derive.PercentChange(cur, prev)
	k.Delta = derive.FormatDelta(pct, ok)
	if ok {
		r := derive.Round2(pct)
		k.DeltaPct = &r
	}
	return k
}

type Overview struct {
	Range         filter.Range  `json:"range"`
	PreviousRange *filter.Range `json:"previous_range"`
	Revenue       KPI           `json:"revenue"`
	Orders        KPI           `json:"orders"`
	AverageTicket KPI           `json:"average_ticket"`
	Rating        KPI           `json:"rating"`
	WasteCost     KPI           `json:"waste_cost"`
	WasteRate     KPI           `json:"waste_rate"`
	Reviews       int           `json:"reviews"`
	Locations     int           `json:"locations"`
}

type totals struct {
	revenue, orders  float64
	ratingSum        float64
	reviews          int
	wasted, received float64
	wasteCost        float64
}

func totalsOf(sc scope) totals {
	var t totals
	for _, f := range sc.sales {
		t.revenue += f.Revenue
		t.orders += float64(f.Orders)
	}
	for _, f := range sc.reviews {
		t.ratingSum += f.Rating
		t.reviews++
	}
	for _, f := range sc.inventory {
		t.wasted += f.Wasted
		t.received += f.Received
		t.wasteCost += f.WasteCost
	}
	return t
}

func (t totals) rating() float64 {
	return derive.SafeDiv(t.ratingSum, float64(t.reviews))
}

// BuildOverview KPI kartları. Önceki dönem, satış aralığından hemen önceki eşit uzunluktaki penceredir.
func BuildOverview(snap *fetch.Snapshot, st domain.FilterState) Overview {
	sc := apply(snap, st)
	cur := totalsOf(sc)

	ov := Overview{
		Range:     sc.salesRange,
		Reviews:   cur.reviews,
		Locations: len(filter.Locations(snap.Locations, st)),
	}

	var prev totals
	hasPrev := false
	if !sc.salesRange.Empty {
		if ps, pe, ok := derive.PreviousPeriod(sc.salesRange.Start, sc.salesRange.End); ok {
			pst := st
			pst.Start, pst.End = ps, pe
			psc := apply(snap, pst)
			prev = totalsOf(psc)
			hasPrev = true
			ov.PreviousRange = &filter.Range{Start: ps, End: pe, Empty: psc.salesRange.Empty}
		}
	}

	ov.Revenue = newKPI(cur.revenue, prev.revenue, hasPrev)
	ov.Orders = newKPI(cur.orders, prev.orders, hasPrev)
	ov.AverageTicket = newKPI(
		derive.AverageTicket(cur.revenue, int(cur.orders)),
		derive.AverageTicket(prev.revenue, int(prev.orders)),
		hasPrev,
	)
	ov.Rating = newKPI(cur.rating(), prev.rating(), hasPrev)
	ov.WasteCost = newKPI(cur.wasteCost, prev.wasteCost, hasPrev)
	ov.WasteRate = newKPI(
		derive.WasteRate(cur.wasted, cur.received),
		derive.WasteRate(prev.wasted, prev.received),
		hasPrev,
	)
	return ov
}

// TrendPoint: günlük ciro grafiği noktası
type TrendPoint struct {
	Key       string  `json:"key"`
	Revenue   float64 `json:"revenue"`
	Orders    float64 `json:"orders"`
	RevenueMA float64 `json:"revenue_ma"`
}

// BuildRevenueTrend günlük ciro ve hareketli ortalaması, tarihe göre artan.
func BuildRevenueTrend(snap *fetch.Snapshot, st domain.FilterState, cfg config.AnalyticsConfig) []TrendPoint {
	sales, _ := filter.Sales(snap.Sales, st)
	rows := aggregate.Group(aggregate.SalesFacts(sales), aggregate.ByDate, aggregate.Revenue, aggregate.Orders)
	ma := derive.MovingAverage(aggregate.Values(rows, aggregate.Revenue), cfg.MovingAverageWindow)

	out := make([]TrendPoint, 0, len(rows))
	for i, r := range rows {
		out = append(out, TrendPoint{
			Key:       r.Key.Date,
			Revenue:   derive.Round2(r.Get(aggregate.Revenue)),
			Orders:    r.Get(aggregate.Orders),
			RevenueMA: derive.Round2(ma[i]),
		})
	}
	return out
}

// PivotView: grafik bileşenlerine giden pivot tablo
type PivotView struct {
	Columns []string         `json:"columns"`
	Records []map[string]any `json:"records"`
}

func pivotView(t compare.Table) PivotView {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		cols = append(cols, c.String())
	}
	return PivotView{Columns: cols, Records: t.Records()}
}

func selectedOrderTypes(st domain.FilterState) []domain.OrderType {
	out := make([]domain.OrderType, 0, len(domain.OrderTypes()))
	for _, o := range domain.OrderTypes() {
		if st.OrderTypes.Contains(o) {
			out = append(out, o)
		}
	}
	return out
}

func selectedCategories(st domain.FilterState) []domain.Category {
	out := make([]domain.Category, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		if st.Categories.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

// BuildOrderMix günlük kanal dağılımı: {key, dine_in, takeout, delivery, catering}.
// Kanalı çözülemeyen satışlar dağılıma girmez.
func BuildOrderMix(snap *fetch.Snapshot, st domain.FilterState, field aggregate.Field) PivotView {
	sales, _ := filter.Sales(snap.Sales, st)
	rows := aggregate.Group(aggregate.SalesFacts(sales), aggregate.ByDate|aggregate.ByOrderType, field)

	declared := make([]compare.SeriesKey, 0, 4)
	for _, o := range selectedOrderTypes(st) {
		declared = append(declared, compare.SeriesKey{Entity: string(o)})
	}
	series := compare.FromRows(rows, field, declared, func(r aggregate.Row) (compare.SeriesKey, bool) {
		if r.Key.OrderType == "" {
			return compare.SeriesKey{}, false
		}
		return compare.SeriesKey{Entity: string(r.Key.OrderType)}, true
	})
	return pivotView(compare.Pivot(series))
}

// WasteCategory: kategori bazlı zayiat satırı
type WasteCategory struct {
	Category  domain.Category `json:"category"`
	Received  float64         `json:"received"`
	Used      float64         `json:"used"`
	Wasted    float64         `json:"wasted"`
	WasteCost float64         `json:"waste_cost"`
	WasteRate float64         `json:"waste_rate"`
}

// WastePoint: günlük zayiat oranı noktası
type WastePoint struct {
	Key       string  `json:"key"`
	Received  float64 `json:"received"`
	Wasted    float64 `json:"wasted"`
	WasteCost float64 `json:"waste_cost"`
	WasteRate float64 `json:"waste_rate"`
}

type WasteView struct {
	Range      filter.Range    `json:"range"`
	Categories []WasteCategory `json:"categories"`
	Daily      []WastePoint    `json:"daily"`
	Total      WasteCategory   `json:"total"`
}

var wasteFields = []aggregate.Field{aggregate.Received, aggregate.Used, aggregate.Wasted, aggregate.WasteCost}

func wasteCategory(c domain.Category, r aggregate.Row) WasteCategory {
	return WasteCategory{
		Category:  c,
		Received:  r.Get(aggregate.Received),
		Used:      r.Get(aggregate.Used),
		Wasted:    r.Get(aggregate.Wasted),
		WasteCost: derive.Round2(r.Get(aggregate.WasteCost)),
		WasteRate: derive.Round2(derive.WasteRate(r.Get(aggregate.Wasted), r.Get(aggregate.Received))),
	}
}

// BuildWaste kategori tablosu (kanonik sırada, seçili her kategori için bir satır) ve günlük oran grafiği.
func BuildWaste(snap *fetch.Snapshot, st domain.FilterState) WasteView {
	inv, rng := filter.Inventory(snap.Inventory, st)
	facts := aggregate.InventoryFacts(inv)

	byCat := make(map[domain.Category]aggregate.Row)
	catRows := aggregate.Group(facts, aggregate.ByCategory, wasteFields...)
	for _, r := range catRows {
		byCat[r.Key.Category] = r
	}

	view := WasteView{Range: rng, Categories: make([]WasteCategory, 0, len(catRows))}
	seen := make(map[domain.Category]bool)
	for _, c := range selectedCategories(st) {
		view.Categories = append(view.Categories, wasteCategory(c, byCat[c]))
		seen[c] = true
	}
	// bilinmeyen kategoriler kanonik olanlardan sonra
	for _, r := range catRows {
		if !seen[r.Key.Category] {
			view.Categories = append(view.Categories, wasteCategory(r.Key.Category, r))
		}
	}

	daily := aggregate.Group(facts, aggregate.ByDate, wasteFields...)
	view.Daily = make([]WastePoint, 0, len(daily))
	for _, r := range daily {
		view.Daily = append(view.Daily, WastePoint{
			Key:       r.Key.Date,
			Received:  r.Get(aggregate.Received),
			Wasted:    r.Get(aggregate.Wasted),
			WasteCost: derive.Round2(r.Get(aggregate.WasteCost)),
			WasteRate: derive.Round2(derive.WasteRate(r.Get(aggregate.Wasted), r.Get(aggregate.Received))),
		})
	}

	all := aggregate.Group(facts, 0, wasteFields...)
	if len(all) == 1 {
		view.Total = wasteCategory("", all[0])
	}
	return view
}
