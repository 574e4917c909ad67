package domain

// OrderType: satışın kanalı (sabit küme)
type OrderType string

const (
	OrderDineIn   OrderType = "dine_in"  // salon
	OrderTakeout  OrderType = "takeout"  // gel-al
	OrderDelivery OrderType = "delivery" // paket servis
	OrderCatering OrderType = "catering" // toplu sipariş
)

// OrderTypes kanonik sırayla döner; grafiklerde ve tablolarda bu sıra kullanılır.
func OrderTypes() []OrderType {
	return []OrderType{OrderDineIn, OrderTakeout, OrderDelivery, OrderCatering}
}

// Category: stok/zayiat kategorisi (sabit küme)
type Category string

const (
	CategoryProduce   Category = "produce"
	CategoryProtein   Category = "protein"
	CategoryDairy     Category = "dairy"
	CategoryBakery    Category = "bakery"
	CategoryDryGoods  Category = "dry_goods"
	CategoryBeverages Category = "beverages"
)

// Categories kanonik sırayla döner.
func Categories() []Category {
	return []Category{CategoryProduce, CategoryProtein, CategoryDairy, CategoryBakery, CategoryDryGoods, CategoryBeverages}
}

// OrderTypeRank kanonik sıradaki indeksi verir, bilinmeyenler için len(OrderTypes()).
func OrderTypeRank(o OrderType) int {
	for i, v := range OrderTypes() {
		if v == o {
			return i
		}
	}
	return len(OrderTypes())
}

// CategoryRank kanonik sıradaki indeksi verir, bilinmeyenler için len(Categories()).
func CategoryRank(c Category) int {
	for i, v := range Categories() {
		if v == c {
			return i
		}
	}
	return len(Categories())
}

// Location: şube referans verisi (motor içinde değişmez)
type Location struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	City     string `json:"city"`
	State    string `json:"state"`
	Manager  string `json:"manager"`
	Seats    int    `json:"seats"`
	OpenDate string `json:"open_date"`
	Active   bool   `json:"active"`
}

// SalesFact: şube/gün/kanal başına tek satır
type SalesFact struct {
	LocationID uint      `json:"location_id"`
	Date       string    `json:"date"` // YYYY-MM-DD, çözülemezse ""
	OrderType  OrderType `json:"order_type"`
	Revenue    float64   `json:"revenue"`
	Orders     int       `json:"orders"`
}

// InventoryFact: günlük stok hareketi. Wasted, Received'ı aşabilir; kırpılmaz.
type InventoryFact struct {
	LocationID uint     `json:"location_id"`
	Date       string   `json:"date"`
	Category   Category `json:"category"`
	Received   float64  `json:"received"`
	Used       float64  `json:"used"`
	Wasted     float64  `json:"wasted"`
	WasteCost  float64  `json:"waste_cost"`
}

// ReviewFact: müşteri yorumu, puan 0-5
type ReviewFact struct {
	LocationID uint    `json:"location_id"`
	Date       string  `json:"date"`
	Rating     float64 `json:"rating"`
	Text       string  `json:"text"`
}

// RawRow: fetch katmanından gelen ham satır; alanların tipi belirsizdir.
type RawRow map[string]any
