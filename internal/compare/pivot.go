// Package compare şube bazlı tarih serilerini yan yana karşılaştırma tablosuna çevirir.
package compare

import (
	"sort"

	"restoran-analytics/internal/aggregate"
)

// MaxEntities: karşılaştırmada aynı anda seçilebilecek şube sayısı
const MaxEntities = 3

// SeriesKey: pivot sütun anahtarı. Metin biçimi "Entity" ya da alt boyut varsa "Entity|Sub".
type SeriesKey struct {
	Entity string
	Sub    string
}

func (k SeriesKey) String() string {
	if k.Sub == "" {
		return k.Entity
	}
	return k.Entity + "|" + k.Sub
}

// Point: serideki tek tarih değeri
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Series: tek sütunun tarih-değer listesi
type Series struct {
	Key    SeriesKey
	Points []Point
}

// Row: pivot tablosunda bir tarih satırı; Values sütunlarla aynı sıradadır.
type Row struct {
	Date   string
	Values []float64
}

// Table: tarih indeksli karşılaştırma tablosu
type Table struct {
	Columns []SeriesKey
	Rows    []Row
}

// Pivot serileri tarih birleşimine göre hizalar. Eksik değerler 0 olur, satırlar tarihe göre artan.
// Aynı anahtarlı seriler ve aynı tarihli noktalar toplanır. Tarihsiz noktalar atlanır.
func Pivot(series []Series) Table {
	colIdx := make(map[SeriesKey]int)
	var cols []SeriesKey
	for _, s := range series {
		if _, ok := colIdx[s.Key]; !ok {
			colIdx[s.Key] = len(cols)
			cols = append(cols, s.Key)
		}
	}

	byDate := make(map[string][]float64)
	for _, s := range series {
		c := colIdx[s.Key]
		for _, p := range s.Points {
			if p.Date == "" {
				continue
			}
			vals, ok := byDate[p.Date]
			if !ok {
				vals = make([]float64, len(cols))
				byDate[p.Date] = vals
			}
			vals[c] += p.Value
		}
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	rows := make([]Row, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, Row{Date: d, Values: byDate[d]})
	}
	if cols == nil {
		cols = []SeriesKey{}
	}
	return Table{Columns: cols, Rows: rows}
}

// Fill tabloyu verilen tarihlere hizalar; tabloda olmayan tarihler 0 değerli satır olur,
// listede olmayan tarihler atılır.
func (t Table) Fill(dates []string) Table {
	byDate := make(map[string][]float64, len(t.Rows))
	for _, r := range t.Rows {
		byDate[r.Date] = r.Values
	}
	rows := make([]Row, 0, len(dates))
	for _, d := range dates {
		vals, ok := byDate[d]
		if !ok {
			vals = make([]float64, len(t.Columns))
		}
		rows = append(rows, Row{Date: d, Values: vals})
	}
	return Table{Columns: t.Columns, Rows: rows}
}

// Records grafik/dışa aktarım bileşenleri için düz nesne listesi: {"key": tarih, "<sütun>": değer}.
func (t Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := make(map[string]any, len(t.Columns)+1)
		rec["key"] = r.Date
		for i, c := range t.Columns {
			rec[c.String()] = r.Values[i]
		}
		out = append(out, rec)
	}
	return out
}

// Column tek sütunun değerlerini satır sırasıyla döner; sütun yoksa nil.
func (t Table) Column(k SeriesKey) []float64 {
	idx := -1
	for i, c := range t.Columns {
		if c == k {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r.Values[idx])
	}
	return out
}

// Limit seçilen kimlikleri tekilleştirir ve en fazla max tanesini sırayı koruyarak döner.
func Limit(ids []uint, max int) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, max)
	for _, id := range ids {
		if len(out) == max {
			break
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// FromRows tarih ile gruplanmış toplam satırlarından seriler üretir.
// key her satır için sütun anahtarını belirler; ok=false dönen satırlar atlanır.
// declared sıralaması boş olmayan serilerin sütun sırasını sabitler (veri gelmese bile sütun oluşur).
func FromRows(rows []aggregate.Row, field aggregate.Field, declared []SeriesKey, key func(aggregate.Row) (SeriesKey, bool)) []Series {
	idx := make(map[SeriesKey]int, len(declared))
	out := make([]Series, 0, len(declared))
	for _, k := range declared {
		idx[k] = len(out)
		out = append(out, Series{Key: k})
	}
	for _, r := range rows {
		k, ok := key(r)
		if !ok {
			continue
		}
		i, exists := idx[k]
		if !exists {
			i = len(out)
			idx[k] = i
			out = append(out, Series{Key: k})
		}
		out[i].Points = append(out[i].Points, Point{Date: r.Key.Date, Value: r.Get(field)})
	}
	return out
}
