// Package derive toplamlardan oran, birim başı değer, dönem farkı ve hareketli ortalama türetir.
// Hiçbir fonksiyon hata dönmez; hesaplanamayan değerler 0 ya da ok=false olur.
package derive

import (
	"fmt"
	"math"
	"time"
)

// WasteRate zayiat oranı (%). Teslim alınan 0 ise 0.
func WasteRate(wasted, received float64) float64 {
	if received > 0 {
		return wasted / received * 100
	}
	return 0
}

// RevenuePerSeat koltuk başı ciro; koltuk sayısı en az 1 kabul edilir.
func RevenuePerSeat(revenue float64, seats int) float64 {
	if seats < 1 {
		seats = 1
	}
	return revenue / float64(seats)
}

// PercentChange önceki döneme göre değişim yüzdesi. previous <= 0 ise hesaplanamaz (ok=false).
func PercentChange(current, previous float64) (float64, bool) {
	if previous > 0 {
		return (current - previous) / previous * 100, true
	}
	return 0, false
}

// PercentChangePtr JSON çıktıları için; hesaplanamıyorsa nil (null).
func PercentChangePtr(current, previous float64) *float64 {
	pct, ok := PercentChange(current, previous)
	if !ok {
		return nil
	}
	return &pct
}

// MovingAverage her i için series[max(0,i-k+1)..i] ortalaması. İlk indekslerde pencere kısalır,
// sıfırla doldurulmaz. Çıktı girdiyle aynı uzunluktadır.
func MovingAverage(series []float64, k int) []float64 {
	if k < 1 {
		k = 1
	}
	out := make([]float64, len(series))
	var sum float64
	for i, v := range series {
		sum += v
		if i >= k {
			sum -= series[i-k]
		}
		n := k
		if i+1 < k {
			n = i + 1
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Mean aritmetik ortalama; boş girdi için 0.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SafeDiv payda 0 ise 0 döner.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// AverageTicket sipariş başı ortalama tutar.
func AverageTicket(revenue float64, orders int) float64 {
	return SafeDiv(revenue, float64(orders))
}

// FormatDelta KPI kartları için "+12.3%" / "-4.0%" / "n/a".
func FormatDelta(pct float64, ok bool) string {
	if !ok || math.IsNaN(pct) || math.IsInf(pct, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", pct)
}

// PreviousPeriod [start,end] ile aynı uzunlukta, start'tan hemen önce biten aralığı verir.
// Tarihler YYYY-MM-DD; çözülemezse ok=false.
func PreviousPeriod(start, end string) (string, string, bool) {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return "", "", false
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil || e.Before(s) {
		return "", "", false
	}
	days := int(e.Sub(s).Hours()/24) + 1
	prevEnd := s.AddDate(0, 0, -1)
	prevStart := prevEnd.AddDate(0, 0, -(days - 1))
	return prevStart.Format("2006-01-02"), prevEnd.Format("2006-01-02"), true
}

// Days [start,end] aralığındaki her takvim gününü sırayla verir; aralık geçersizse nil.
func Days(start, end string) []string {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil || e.Before(s) {
		return nil
	}
	var out []string
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format("2006-01-02"))
	}
	return out
}

// Round2 iki ondalığa yuvarlar (sunum için).
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
