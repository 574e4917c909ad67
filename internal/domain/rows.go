package domain

// Status: skor kartı sınıfı
type Status string

const (
	StatusTop       Status = "top"
	StatusAttention Status = "attention"
	StatusOK        Status = "ok"
)

// Direction: dönemsel/kohort eğilimi
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// ScorecardRow: şube bazlı türetilmiş satır
type ScorecardRow struct {
	LocationID     uint      `json:"location_id"`
	Name           string    `json:"name"`
	Revenue        float64   `json:"revenue"`
	Orders         int       `json:"orders"`
	Rating         float64   `json:"rating"`
	ReviewCount    int       `json:"review_count"`
	WasteTotal     float64   `json:"waste_total"` // zayiat maliyeti
	WasteUnits     float64   `json:"waste_units"`
	WasteRate      float64   `json:"waste_rate"`
	RevenuePerSeat float64   `json:"revenue_per_seat"`
	Status         Status    `json:"status"`
	Reasons        []string  `json:"reasons"`
	Trend          Direction `json:"trend"`
}
