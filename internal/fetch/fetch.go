// Package fetch ham olgu satırlarını dış kaynaktan okur ve normalize edilmiş bir anlık görüntüye çevirir.
package fetch

import (
	"context"
	"fmt"
	"time"

	"restoran-analytics/internal/domain"
	"restoran-analytics/internal/normalize"
	"restoran-analytics/internal/telemetry"

	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Okunan tablolar
const (
	TableLocations = "locations"
	TableSales     = "sales_entries"
	TableInventory = "inventory_entries"
	TableReviews   = "review_entries"
)

type Row = domain.RawRow

// Query: tablo adı ve koşul. Boş LocationIDs tüm şubeler, boş Since/Until açık uç demektir.
type Query struct {
	Table       string
	LocationIDs []uint
	Since       string // YYYY-MM-DD, dahil
	Until       string // YYYY-MM-DD, dahil
}

// Fetcher: ham satır kaynağı. Zaman aşımı ve yeniden deneme uygulamanın değil, kaynağın işidir.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]Row, error)
}

// FetchError: bir tablonun okunamaması. Yeniden denenebilir.
type FetchError struct {
	Table string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s okunamadı: %v", e.Table, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// GormFetcher tabloları gorm üzerinden map olarak okur.
type GormFetcher struct {
	db      *gorm.DB
	limiter *rate.Limiter
	timeout time.Duration
	metrics *telemetry.Metrics
}

// NewGormFetcher rps <= 0 ise sınırsız okur; timeout <= 0 ise sorgu süresi sınırlanmaz.
func NewGormFetcher(db *gorm.DB, rps float64, burst int, timeout time.Duration, m *telemetry.Metrics) *GormFetcher {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &GormFetcher{
		db:      db,
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
		metrics: m,
	}
}

func (f *GormFetcher) Fetch(ctx context.Context, q Query) (rows []Row, err error) {
	start := time.Now()
	defer func() {
		f.metrics.ObserveFetch(q.Table, start, len(rows), err)
	}()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Table: q.Table, Err: err}
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	tx := f.db.WithContext(ctx).Table(q.Table)
	if q.Table == TableLocations {
		if len(q.LocationIDs) > 0 {
			tx = tx.Where("id IN ?", q.LocationIDs)
		}
	} else {
		if len(q.LocationIDs) > 0 {
			tx = tx.Where("location_id IN ?", q.LocationIDs)
		}
		if t, err := time.Parse(normalize.DateLayout, q.Since); err == nil {
			tx = tx.Where("date >= ?", t)
		}
		if t, err := time.Parse(normalize.DateLayout, q.Until); err == nil {
			tx = tx.Where("date < ?", t.AddDate(0, 0, 1))
		}
	}

	var out []map[string]any
	if err := tx.Order("id").Find(&out).Error; err != nil {
		return nil, &FetchError{Table: q.Table, Err: err}
	}

	rows = make([]Row, len(out))
	for i, r := range out {
		rows[i] = Row(r)
	}
	return rows, nil
}
