// Package classify şubeleri kohort yüzdeliklerine göre top / attention / ok olarak sınıflar.
package classify

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"restoran-analytics/internal/domain"
)

// Entity: sınıflanacak şubenin kohort düzeyindeki toplamları
type Entity struct {
	ID      uint
	Name    string
	Revenue float64
	Rating  float64
	Waste   float64 // zayiat maliyeti toplamı
}

// Rules: puan eşikleri. Yüzdelik eşikler kohorttan hesaplanır.
type Rules struct {
	TopRating       float64 // top için en düşük puan
	AttentionRating float64 // bunun altı attention
}

// DefaultRules seçilen eşik seti: 4.0 / 3.5
func DefaultRules() Rules {
	return Rules{TopRating: 4.0, AttentionRating: 3.5}
}

// Thresholds kohorttan hesaplanan yüzdelik değerleri
type Thresholds struct {
	P25Revenue   float64 `json:"p25_revenue"`
	P75Revenue   float64 `json:"p75_revenue"`
	P75Waste     float64 `json:"p75_waste"`
	MedianRating float64 `json:"median_rating"`
}

// Result: tek şubenin sınıfı ve sıralı gerekçeleri
type Result struct {
	ID      uint
	Status  domain.Status
	Reasons []string
}

// Percentile artan sıralı listede floor(n*q) indeksindeki değer. Küçük kohortlarda
// p25 ve p75 aynı indekse düşebilir; bu davranış bilinçli olarak korunur.
func Percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(float64(n) * q))
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func sortedBy(entities []Entity, get func(Entity) float64) []float64 {
	out := make([]float64, 0, len(entities))
	for _, e := range entities {
		out = append(out, get(e))
	}
	sort.Float64s(out)
	return out
}

// ComputeThresholds kohort yüzdeliklerini hesaplar; boş kohort için sıfırlar.
func ComputeThresholds(entities []Entity) Thresholds {
	rev := sortedBy(entities, func(e Entity) float64 { return e.Revenue })
	waste := sortedBy(entities, func(e Entity) float64 { return e.Waste })
	rating := sortedBy(entities, func(e Entity) float64 { return e.Rating })
	return Thresholds{
		P25Revenue:   Percentile(rev, 0.25),
		P75Revenue:   Percentile(rev, 0.75),
		P75Waste:     Percentile(waste, 0.75),
		MedianRating: Percentile(rating, 0.5),
	}
}

// Classify kohorttaki her şubeyi sınıflar. Çıktı girdi sırasını korur.
func Classify(entities []Entity, rules Rules) ([]Result, Thresholds) {
	th := ComputeThresholds(entities)
	out := make([]Result, 0, len(entities))
	for _, e := range entities {
		status, reasons := Evaluate(e, th, rules)
		out = append(out, Result{ID: e.ID, Status: status, Reasons: reasons})
	}
	return out, th
}

// Evaluate kuralları sırayla uygular, ilk eşleşen kazanır: top > attention > ok.
// Hem top hem attention koşulunu sağlayan şube her zaman top'tur.
func Evaluate(e Entity, th Thresholds, rules Rules) (domain.Status, []string) {
	if e.Revenue >= th.P75Revenue && e.Rating >= rules.TopRating {
		return domain.StatusTop, []string{
			fmt.Sprintf("top 25%% revenue (≥ %s)", Money(th.P75Revenue)),
			fmt.Sprintf("strong rating (%s★)", stars(e.Rating)),
		}
	}

	var attention []string
	if e.Revenue <= th.P25Revenue {
		attention = append(attention, fmt.Sprintf("bottom 25%% revenue (≤ %s)", Money(th.P25Revenue)))
	}
	if e.Rating < rules.AttentionRating {
		attention = append(attention, fmt.Sprintf("low rating (%s★ < %s★)", stars(e.Rating), stars(rules.AttentionRating)))
	}
	if e.Waste >= th.P75Waste {
		attention = append(attention, fmt.Sprintf("high waste (≥ %s)", Money(th.P75Waste)))
	}
	if len(attention) > 0 {
		return domain.StatusAttention, attention
	}

	var ok []string
	if e.Revenue > th.P25Revenue && e.Revenue < th.P75Revenue {
		ok = append(ok, fmt.Sprintf("revenue in middle 50%% (%s–%s)", Money(th.P25Revenue), Money(th.P75Revenue)))
	}
	if e.Rating >= th.MedianRating {
		ok = append(ok, fmt.Sprintf("rating at or above median (≥ %s★)", stars(th.MedianRating)))
	}
	if e.Waste < th.P75Waste {
		ok = append(ok, fmt.Sprintf("waste below 75th percentile (< %s)", Money(th.P75Waste)))
	}
	if len(ok) == 0 {
		ok = append(ok, "all metrics within normal range")
	}
	return domain.StatusOK, ok
}

func stars(r float64) string {
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// Money "$12,345.60" biçimi; tam sayılarda kuruş yazılmaz.
func Money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimSuffix(s, ".00")
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + "$" + b.String()
}
