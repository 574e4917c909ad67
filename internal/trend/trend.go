// Package trend kohort eğilimini ve tek seri üzerindeki ani düşüşleri (anomali) tespit eder.
package trend

import (
	"math"

	"restoran-analytics/internal/derive"
	"restoran-analytics/internal/domain"
)

const (
	DefaultUpRatio   = 1.15
	DefaultDownRatio = 0.85
	DefaultWindow    = 7
	DefaultDropPct   = 30.0
)

// Cohort değeri kohort ortalamasıyla kıyaslar: r = v/m; r > up ise up, r < down ise down.
// Sınır değerler (tam up ya da tam down) flat'tir. Ortalama pozitif değilse flat.
func Cohort(v, mean, up, down float64) domain.Direction {
	if mean <= 0 {
		return domain.DirectionFlat
	}
	r := v / mean
	switch {
	case r > up:
		return domain.DirectionUp
	case r < down:
		return domain.DirectionDown
	}
	return domain.DirectionFlat
}

// Anomaly: son pencere ile önceki pencere karşılaştırması
type Anomaly struct {
	Determined bool    `json:"determined"` // yeterli geçmiş var mı
	Detected   bool    `json:"detected"`
	DropPct    int     `json:"drop_pct"` // yuvarlanmış düşüş yüzdesi
	RecentAvg  float64 `json:"recent_avg"`
	PriorAvg   float64 `json:"prior_avg"`
	Window     int     `json:"window"`
}

// Detect en az 2*window nokta ister; yoksa Determined=false döner (hata değil).
// Son window noktanın ortalaması önceki window ortalamasına göre dropPct veya daha fazla düştüyse anomali.
func Detect(series []float64, window int, dropPct float64) Anomaly {
	if window < 1 {
		window = DefaultWindow
	}
	res := Anomaly{Window: window}
	n := len(series)
	if n < 2*window {
		return res
	}
	res.Determined = true
	res.RecentAvg = derive.Mean(series[n-window:])
	res.PriorAvg = derive.Mean(series[n-2*window : n-window])
	if res.PriorAvg <= 0 {
		return res
	}
	// çarpma önce: 100 → 70 tam olarak %30 verir
	drop := (res.PriorAvg - res.RecentAvg) * 100 / res.PriorAvg
	if drop >= dropPct {
		res.Detected = true
		res.DropPct = int(math.Round(drop))
	}
	return res
}

// Series serinin genel yönü: son pencere ortalaması / önceki pencere ortalaması, Cohort kurallarıyla.
// 2*window noktadan kısa seriler flat.
func Series(series []float64, window int, up, down float64) domain.Direction {
	if window < 1 {
		window = DefaultWindow
	}
	n := len(series)
	if n < 2*window {
		return domain.DirectionFlat
	}
	recent := derive.Mean(series[n-window:])
	prior := derive.Mean(series[n-2*window : n-window])
	return Cohort(recent, prior, up, down)
}
