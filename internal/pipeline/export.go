package pipeline

import (
	"errors"
	"strings"

	"restoran-analytics/internal/domain"
	"restoran-analytics/internal/fetch"
	"restoran-analytics/internal/filter"
)

var ErrUnknownView = errors.New("bilinmeyen görünüm")

// Dışa aktarılabilen görünümler
const (
	ExportScorecard    = "scorecard"
	ExportRevenueTrend = "revenue-trend"
	ExportOrderMix     = "order-mix"
	ExportWaste        = "waste"
	ExportAnomalies    = "anomalies"
	ExportSales        = "sales"
	ExportInventory    = "inventory"
	ExportReviews      = "reviews"
)

func ExportViews() []string {
	return []string{
		ExportScorecard, ExportRevenueTrend, ExportOrderMix, ExportWaste,
		ExportAnomalies, ExportSales, ExportInventory, ExportReviews,
	}
}

// Record: dışa aktarım bileşenlerine giden düz satır
type Record = map[string]any

func scorecardRecords(v ScorecardView) []Record {
	out := make([]Record, 0, len(v.Rows))
	for _, r := range v.Rows {
		out = append(out, Record{
			"location_id":      r.LocationID,
			"name":             r.Name,
			"revenue":          r.Revenue,
			"orders":           r.Orders,
			"rating":           r.Rating,
			"review_count":     r.ReviewCount,
			"waste_total":      r.WasteTotal,
			"waste_units":      r.WasteUnits,
			"waste_rate":       r.WasteRate,
			"revenue_per_seat": r.RevenuePerSeat,
			"status":           string(r.Status),
			"reasons":          strings.Join(r.Reasons, "; "),
			"trend":            string(r.Trend),
		})
	}
	return out
}

func trendRecords(points []TrendPoint) []Record {
	out := make([]Record, 0, len(points))
	for _, p := range points {
		out = append(out, Record{"key": p.Key, "revenue": p.Revenue, "orders": p.Orders, "revenue_ma": p.RevenueMA})
	}
	return out
}

func wasteRecords(v WasteView) []Record {
	out := make([]Record, 0, len(v.Categories))
	for _, c := range v.Categories {
		out = append(out, Record{
			"category":   string(c.Category),
			"received":   c.Received,
			"used":       c.Used,
			"wasted":     c.Wasted,
			"waste_cost": c.WasteCost,
			"waste_rate": c.WasteRate,
		})
	}
	return out
}

func anomalyRecords(v AnomalyView) []Record {
	rows := append([]AnomalyRow{v.Chain}, v.Locations...)
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{
			"location_id": r.LocationID,
			"name":        r.Name,
			"determined":  r.Determined,
			"anomaly":     r.Detected,
			"drop_pct":    r.DropPct,
			"recent_avg":  r.RecentAvg,
			"prior_avg":   r.PriorAvg,
			"direction":   string(r.Direction),
		})
	}
	return out
}

// factRecords süzülmüş ham olguları düz satırlara çevirir.
func factRecords(snap *fetch.Snapshot, st domain.FilterState, view string) []Record {
	switch view {
	case ExportSales:
		facts, _ := filter.Sales(snap.Sales, st)
		out := make([]Record, 0, len(facts))
		for _, f := range facts {
			out = append(out, Record{"location_id": f.LocationID, "date": f.Date, "order_type": string(f.OrderType), "revenue": f.Revenue, "orders": f.Orders})
		}
		return out
	case ExportInventory:
		facts, _ := filter.Inventory(snap.Inventory, st)
		out := make([]Record, 0, len(facts))
		for _, f := range facts {
			out = append(out, Record{
				"location_id": f.LocationID, "date": f.Date, "category": string(f.Category),
				"received": f.Received, "used": f.Used, "wasted": f.Wasted, "waste_cost": f.WasteCost,
			})
		}
		return out
	case ExportReviews:
		facts, _ := filter.Reviews(snap.Reviews, st)
		out := make([]Record, 0, len(facts))
		for _, f := range facts {
			out = append(out, Record{"location_id": f.LocationID, "date": f.Date, "rating": f.Rating, "text": f.Text})
		}
		return out
	}
	return nil
}
