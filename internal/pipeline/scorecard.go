package pipeline

import (
	"restoran-analytics/internal/aggregate"
	"restoran-analytics/internal/classify"
	"restoran-analytics/internal/config"
	"restoran-analytics/internal/derive"
	"restoran-analytics/internal/domain"
	"restoran-analytics/internal/fetch"
	"restoran-analytics/internal/filter"
	"restoran-analytics/internal/trend"
)

type ScorecardView struct {
	Range             filter.Range          `json:"range"`
	Thresholds        classify.Thresholds   `json:"thresholds"`
	CohortMeanRevenue float64               `json:"cohort_mean_revenue"`
	Rows              []domain.ScorecardRow `json:"rows"`
}

// BuildScorecard seçili şubeleri (kohort) sınıflar. Satırlar şube sırasını korur.
// Yorumu olmayan şubenin puanı 0 kabul edilir.
func BuildScorecard(snap *fetch.Snapshot, st domain.FilterState, cfg config.AnalyticsConfig) ScorecardView {
	sc := apply(snap, st)
	cohort := filter.Locations(snap.Locations, st)

	sales := aggregate.ByLocationID(aggregate.Group(aggregate.SalesFacts(sc.sales), aggregate.ByLocation,
		aggregate.Revenue, aggregate.Orders))
	reviews := aggregate.ByLocationID(aggregate.Group(aggregate.ReviewFacts(sc.reviews), aggregate.ByLocation,
		aggregate.Rating))
	waste := aggregate.ByLocationID(aggregate.Group(aggregate.InventoryFacts(sc.inventory), aggregate.ByLocation,
		aggregate.Received, aggregate.Wasted, aggregate.WasteCost))

	rows := make([]domain.ScorecardRow, 0, len(cohort))
	entities := make([]classify.Entity, 0, len(cohort))
	revenues := make([]float64, 0, len(cohort))
	for _, l := range cohort {
		s, r, w := sales[l.ID], reviews[l.ID], waste[l.ID]
		revenue := s.Get(aggregate.Revenue)
		rating := derive.SafeDiv(r.Get(aggregate.Rating), float64(r.Count))
		wasteCost := w.Get(aggregate.WasteCost)

		rows = append(rows, domain.ScorecardRow{
			LocationID:     l.ID,
			Name:           l.Name,
			Revenue:        derive.Round2(revenue),
			Orders:         int(s.Get(aggregate.Orders)),
			Rating:         derive.Round2(rating),
			ReviewCount:    r.Count,
			WasteTotal:     derive.Round2(wasteCost),
			WasteUnits:     w.Get(aggregate.Wasted),
			WasteRate:      derive.Round2(derive.WasteRate(w.Get(aggregate.Wasted), w.Get(aggregate.Received))),
			RevenuePerSeat: derive.Round2(derive.RevenuePerSeat(revenue, l.Seats)),
		})
		entities = append(entities, classify.Entity{
			ID:      l.ID,
			Name:    l.Name,
			Revenue: revenue,
			Rating:  rating,
			Waste:   wasteCost,
		})
		revenues = append(revenues, revenue)
	}

	results, th := classify.Classify(entities, classify.Rules{
		TopRating:       cfg.TopRating,
		AttentionRating: cfg.AttentionRating,
	})
	mean := derive.Mean(revenues)
	for i := range rows {
		rows[i].Status = results[i].Status
		rows[i].Reasons = results[i].Reasons
		rows[i].Trend = trend.Cohort(entities[i].Revenue, mean, cfg.TrendUp, cfg.TrendDown)
	}

	return ScorecardView{
		Range:             sc.salesRange,
		Thresholds:        th,
		CohortMeanRevenue: derive.Round2(mean),
		Rows:              rows,
	}
}
