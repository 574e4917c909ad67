package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"restoran-analytics/internal/database/dbtest"
	"restoran-analytics/internal/domain"
	"restoran-analytics/internal/models"
	"restoran-analytics/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	locs := []models.Location{
		{Name: "Kadıköy", City: "İstanbul", Seats: 40, Active: true},
		{Name: "Çankaya", City: "Ankara", Seats: 25, Active: true},
	}
	require.NoError(t, db.Create(&locs).Error)

	for _, l := range locs {
		for _, d := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
			require.NoError(t, db.Create(&models.SalesEntry{
				LocationID: l.ID, Date: day(d), OrderType: "dine_in", Revenue: 100, Orders: 10,
			}).Error)
		}
		require.NoError(t, db.Create(&models.InventoryEntry{
			LocationID: l.ID, Date: day("2024-01-02"), Category: "produce", Received: 20, Wasted: 2, WasteCost: 15,
		}).Error)
		require.NoError(t, db.Create(&models.ReviewEntry{
			LocationID: l.ID, Date: day("2024-01-03"), Rating: 4.5, Text: "güzel",
		}).Error)
	}
}

func TestGormFetcherAppliesPredicate(t *testing.T) {
	db := dbtest.Open(t)
	seed(t, db)
	m := telemetry.New()
	f := NewGormFetcher(db, 0, 1, time.Second, m)

	rows, err := f.Fetch(context.Background(), Query{
		Table:       TableSales,
		LocationIDs: []uint{1},
		Since:       "2024-01-02",
		Until:       "2024-01-03",
	})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	all, err := f.Fetch(context.Background(), Query{Table: TableSales})
	require.NoError(t, err)
	assert.Len(t, all, 6)

	assert.Equal(t, 8.0, testutil.ToFloat64(m.FetchRows.WithLabelValues(TableSales)))
}

func TestGormFetcherUnknownTable(t *testing.T) {
	db := dbtest.Open(t)
	f := NewGormFetcher(db, 0, 1, 0, nil)

	_, err := f.Fetch(context.Background(), Query{Table: "yok_boyle_tablo"})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "yok_boyle_tablo", fe.Table)
}

func TestGormFetcherCanceledContext(t *testing.T) {
	db := dbtest.Open(t)
	f := NewGormFetcher(db, 0.001, 1, 0, nil)
	// ilk jeton harcanır, ikinci istek beklemek zorunda kalır
	_, err := f.Fetch(context.Background(), Query{Table: TableLocations})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fetch(ctx, Query{Table: TableLocations})

	var fe *FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestLoadNormalizesSnapshot(t *testing.T) {
	db := dbtest.Open(t)
	seed(t, db)
	f := NewGormFetcher(db, 0, 1, time.Second, nil)

	snap, err := Load(context.Background(), f, Query{})
	require.NoError(t, err)

	require.Len(t, snap.Locations, 2)
	assert.Equal(t, "Kadıköy", snap.Locations[0].Name)
	assert.Equal(t, 40, snap.Locations[0].Seats)
	assert.True(t, snap.Locations[0].Active)

	require.Len(t, snap.Sales, 6)
	assert.Equal(t, "2024-01-01", snap.Sales[0].Date)
	assert.Equal(t, domain.OrderDineIn, snap.Sales[0].OrderType)
	assert.Equal(t, 100.0, snap.Sales[0].Revenue)

	require.Len(t, snap.Inventory, 2)
	assert.Equal(t, domain.CategoryProduce, snap.Inventory[0].Category)
	require.Len(t, snap.Reviews, 2)
	assert.Equal(t, 4.5, snap.Reviews[0].Rating)

	loc, ok := snap.Location(2)
	require.True(t, ok)
	assert.Equal(t, "Çankaya", loc.Name)
	_, ok = snap.Location(99)
	assert.False(t, ok)
}

func TestLoadHashTracksContent(t *testing.T) {
	db := dbtest.Open(t)
	seed(t, db)
	f := NewGormFetcher(db, 0, 1, time.Second, nil)

	a, err := Load(context.Background(), f, Query{})
	require.NoError(t, err)
	b, err := Load(context.Background(), f, Query{})
	require.NoError(t, err)
	assert.Equal(t, a.Hash, b.Hash)

	require.NoError(t, db.Create(&models.SalesEntry{
		LocationID: 1, Date: day("2024-01-04"), OrderType: "takeout", Revenue: 5, Orders: 1,
	}).Error)
	c, err := Load(context.Background(), f, Query{})
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash, c.Hash)
}

// stubFetcher tablo başına sabit satır ya da hata döner.
type stubFetcher struct {
	mu      sync.Mutex
	rows    map[string][]Row
	errs    map[string]error
	queries []Query
}

func (s *stubFetcher) Fetch(ctx context.Context, q Query) ([]Row, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	if err := s.errs[q.Table]; err != nil {
		return nil, err
	}
	return s.rows[q.Table], nil
}

func TestLoadWrapsErrors(t *testing.T) {
	boom := errors.New("warehouse down")
	f := &stubFetcher{errs: map[string]error{TableReviews: boom}}

	_, err := Load(context.Background(), f, Query{})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, TableReviews, fe.Table)
	assert.ErrorIs(t, err, boom)
}

func TestLoadDropsDateRangeForLocations(t *testing.T) {
	f := &stubFetcher{rows: map[string][]Row{
		TableSales: {{"location_id": "1", "date": "01/05/2024", "order_type": "Dine-In", "revenue": "$1,200.50", "orders": "12"}},
	}}

	snap, err := Load(context.Background(), f, Query{Since: "2024-01-01", Until: "2024-01-31"})
	require.NoError(t, err)

	require.Len(t, snap.Sales, 1)
	assert.Equal(t, "2024-01-05", snap.Sales[0].Date)
	assert.Equal(t, 1200.50, snap.Sales[0].Revenue)

	for _, q := range f.queries {
		if q.Table == TableLocations {
			assert.Empty(t, q.Since)
			assert.Empty(t, q.Until)
		} else {
			assert.Equal(t, "2024-01-01", q.Since)
		}
	}
}
