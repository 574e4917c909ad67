// Package aggregate süzülmüş olguları bileşik anahtarlara göre gruplayıp toplar.
package aggregate

import (
	"sort"

	"restoran-analytics/internal/domain"
)

// Dim: gruplama boyutları, birlikte kullanılabilir (ByDate|ByLocation gibi)
type Dim uint8

const (
	ByDate Dim = 1 << iota
	ByLocation
	ByCategory
	ByOrderType
)

// Field: toplanabilir ölçü adı
type Field string

const (
	Revenue   Field = "revenue"
	Orders    Field = "orders"
	Received  Field = "received"
	Used      Field = "used"
	Wasted    Field = "wasted"
	WasteCost Field = "waste_cost"
	Rating    Field = "rating"
)

// Key: bileşik grup anahtarı. Seçilmeyen boyutlar sıfır değerde kalır.
type Key struct {
	Date       string           `json:"date,omitempty"`
	LocationID uint             `json:"location_id,omitempty"`
	Category   domain.Category  `json:"category,omitempty"`
	OrderType  domain.OrderType `json:"order_type,omitempty"`
}

// Fact: gruplanabilen her olgu tipi bunu sağlar.
type Fact interface {
	FactKey() Key
	Value(Field) float64
}

// Row: bir grubun toplamları
type Row struct {
	Key    Key               `json:"key"`
	Count  int               `json:"count"`
	Values map[Field]float64 `json:"values"`
}

// Get ölçü değerini döner; istenmemiş alanlar için 0.
func (r Row) Get(f Field) float64 {
	return r.Values[f]
}

func project(k Key, dims Dim) Key {
	var out Key
	if dims&ByDate != 0 {
		out.Date = k.Date
	}
	if dims&ByLocation != 0 {
		out.LocationID = k.LocationID
	}
	if dims&ByCategory != 0 {
		out.Category = k.Category
	}
	if dims&ByOrderType != 0 {
		out.OrderType = k.OrderType
	}
	return out
}

// Group olguları dims boyutlarına göre gruplar ve istenen alanları toplar.
// Girdi sırası sonucu etkilemez. ByDate istendiğinde tarihsiz olgular atlanır.
func Group[F Fact](facts []F, dims Dim, fields ...Field) []Row {
	buckets := make(map[Key]*Row)
	for _, f := range facts {
		k := f.FactKey()
		if dims&ByDate != 0 && k.Date == "" {
			continue
		}
		k = project(k, dims)
		row, ok := buckets[k]
		if !ok {
			row = &Row{Key: k, Values: make(map[Field]float64, len(fields))}
			for _, fl := range fields {
				row.Values[fl] = 0
			}
			buckets[k] = row
		}
		row.Count++
		for _, fl := range fields {
			row.Values[fl] += f.Value(fl)
		}
	}

	rows := make([]Row, 0, len(buckets))
	for _, r := range buckets {
		rows = append(rows, *r)
	}
	Sort(rows)
	return rows
}

// Sort satırları tarih, şube, kanonik kategori ve kanonik kanal sırasına göre dizer.
func Sort(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		return Less(rows[i].Key, rows[j].Key)
	})
}

// Less anahtar sıralaması; bilinmeyen kategori/kanallar bilinenlerden sonra alfabetik gelir.
func Less(a, b Key) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	if a.LocationID != b.LocationID {
		return a.LocationID < b.LocationID
	}
	if a.Category != b.Category {
		ra, rb := domain.CategoryRank(a.Category), domain.CategoryRank(b.Category)
		if ra != rb {
			return ra < rb
		}
		return a.Category < b.Category
	}
	ra, rb := domain.OrderTypeRank(a.OrderType), domain.OrderTypeRank(b.OrderType)
	if ra != rb {
		return ra < rb
	}
	return a.OrderType < b.OrderType
}

// Total tüm satırlardaki alan toplamı.
func Total(rows []Row, f Field) float64 {
	var sum float64
	for _, r := range rows {
		sum += r.Values[f]
	}
	return sum
}

// Values satır sırasıyla alan değerleri; grafik serileri için.
func Values(rows []Row, f Field) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Values[f])
	}
	return out
}

// Dates satır sırasıyla tarih anahtarları.
func Dates(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Key.Date)
	}
	return out
}

// ByLocationID satırları şube kimliğine göre indeksler (ByLocation ile gruplanmış satırlar için).
func ByLocationID(rows []Row) map[uint]Row {
	out := make(map[uint]Row, len(rows))
	for _, r := range rows {
		out[r.Key.LocationID] = r
	}
	return out
}
