package pipeline

import (
	"strconv"

	"restoran-analytics/internal/aggregate"
	"restoran-analytics/internal/compare"
	"restoran-analytics/internal/config"
	"restoran-analytics/internal/derive"
	"restoran-analytics/internal/domain"
	"restoran-analytics/internal/fetch"
	"restoran-analytics/internal/filter"
	"restoran-analytics/internal/trend"
)

// AnomalyRow: tek bir günlük ciro serisinin düşüş ve yön sonucu
type AnomalyRow struct {
	LocationID uint             `json:"location_id,omitempty"`
	Name       string           `json:"name"`
	Direction  domain.Direction `json:"direction"`
	trend.Anomaly
}

type AnomalyView struct {
	Range     filter.Range `json:"range"`
	Metric    string       `json:"metric"`
	Chain     AnomalyRow   `json:"chain"`
	Locations []AnomalyRow `json:"locations"`
}

// BuildAnomalies zincir toplamı ve her şube için günlük ciroda ani düşüş arar.
// Seriler uygulanan aralığın her takvim gününü içerir; satış olmayan gün 0 sayılır.
func BuildAnomalies(snap *fetch.Snapshot, st domain.FilterState, cfg config.AnalyticsConfig) AnomalyView {
	sales, rng := filter.Sales(snap.Sales, st)
	facts := aggregate.SalesFacts(sales)

	var days []string
	if !rng.Empty {
		days = derive.Days(rng.Start, rng.End)
	}

	detect := func(series []float64) (trend.Anomaly, domain.Direction) {
		return trend.Detect(series, cfg.AnomalyWindow, cfg.AnomalyDropPct),
			trend.Series(series, cfg.AnomalyWindow, cfg.TrendUp, cfg.TrendDown)
	}

	chainKey := compare.SeriesKey{Entity: "chain"}
	byDate := aggregate.Group(facts, aggregate.ByDate, aggregate.Revenue)
	chain := compare.Pivot(compare.FromRows(byDate, aggregate.Revenue, []compare.SeriesKey{chainKey},
		func(aggregate.Row) (compare.SeriesKey, bool) { return chainKey, true })).Fill(days)

	view := AnomalyView{Range: rng, Metric: string(aggregate.Revenue)}
	view.Chain.Name = "chain"
	view.Chain.Anomaly, view.Chain.Direction = detect(chain.Column(chainKey))

	cohort := filter.Locations(snap.Locations, st)
	declared := make([]compare.SeriesKey, 0, len(cohort))
	for _, l := range cohort {
		declared = append(declared, locationKey(l.ID))
	}
	known := make(map[compare.SeriesKey]bool, len(declared))
	for _, k := range declared {
		known[k] = true
	}

	perLoc := aggregate.Group(facts, aggregate.ByDate|aggregate.ByLocation, aggregate.Revenue)
	series := compare.FromRows(perLoc, aggregate.Revenue, declared, func(r aggregate.Row) (compare.SeriesKey, bool) {
		k := locationKey(r.Key.LocationID)
		return k, known[k]
	})
	table := compare.Pivot(series).Fill(days)

	view.Locations = make([]AnomalyRow, 0, len(cohort))
	for _, l := range cohort {
		row := AnomalyRow{LocationID: l.ID, Name: l.Name}
		row.Anomaly, row.Direction = detect(table.Column(locationKey(l.ID)))
		view.Locations = append(view.Locations, row)
	}
	return view
}

func locationKey(id uint) compare.SeriesKey {
	return compare.SeriesKey{Entity: strconv.FormatUint(uint64(id), 10)}
}
