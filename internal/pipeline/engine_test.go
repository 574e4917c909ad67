package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restoran-analytics/internal/config"
	"restoran-analytics/internal/domain"
	"restoran-analytics/internal/fetch"
	"restoran-analytics/internal/telemetry"
)

// fakeFetcher tablo başına sabit ham satır döner. block doluysa o Since değeriyle gelen
// satış sorgusu bağlam iptal edilene kadar bekler ve ardından yine de veri döner (geç gelen yanıt).
type fakeFetcher struct {
	mu      sync.Mutex
	rows    map[string][]fetch.Row
	block   string
	started chan struct{}
	calls   atomic.Int32
	delay   time.Duration
	err     error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{rows: map[string][]fetch.Row{
		fetch.TableLocations: {
			{"id": 1, "name": "A", "seats": 10, "active": true},
			{"id": 2, "name": "B", "seats": 20, "active": true},
		},
		fetch.TableSales: {
			{"location_id": 1, "date": "2024-01-01", "order_type": "dine_in", "revenue": 100, "orders": 10},
			{"location_id": 2, "date": "2024-01-01", "order_type": "takeout", "revenue": 300, "orders": 20},
		},
		fetch.TableReviews: {
			{"location_id": 1, "date": "2024-01-01", "rating": 4.5},
		},
	}}
}

func (f *fakeFetcher) Fetch(ctx context.Context, q fetch.Query) ([]fetch.Row, error) {
	if q.Table == fetch.TableSales {
		f.calls.Add(1)
		if f.block != "" && q.Since == f.block {
			close(f.started)
			<-ctx.Done()
		}
		if f.delay > 0 {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[q.Table], nil
}

func (f *fakeFetcher) setSales(rows []fetch.Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[fetch.TableSales] = rows
}

func newTestEngine(f fetch.Fetcher, m *telemetry.Metrics) *Engine {
	return NewEngine(f, config.DefaultAnalytics(), NewSessions(time.Hour, m), m)
}

func TestLatestApplyOnlyNewest(t *testing.T) {
	var l Latest
	t1 := l.Begin(context.Background())
	t2 := l.Begin(context.Background())
	defer t1.Done()
	defer t2.Done()

	assert.ErrorIs(t, t1.Context().Err(), context.Canceled, "older fetch is cancelled")
	assert.False(t, l.Current(t1))
	assert.True(t, l.Current(t2))
	assert.NotEqual(t, t1.ID, t2.ID)

	applied := false
	assert.ErrorIs(t, l.Apply(t1, func() { applied = true }), ErrSuperseded)
	assert.False(t, applied)
	assert.NoError(t, l.Apply(t2, func() { applied = true }))
	assert.True(t, applied)
}

func TestEngineDiscardsSupersededFetch(t *testing.T) {
	f := newFakeFetcher()
	f.block = "2023-12-25"
	f.started = make(chan struct{})
	m := telemetry.New()
	e := newTestEngine(f, m)

	old := Request{UserID: 1, Filter: domain.FilterState{Start: "2024-01-01", End: "2024-01-07"}}
	errc := make(chan error, 1)
	go func() {
		_, err := e.Overview(context.Background(), old)
		errc <- err
	}()
	<-f.started

	newer := Request{UserID: 1, Filter: domain.FilterState{Start: "2024-01-01", End: "2024-01-01"}}
	ov, err := e.Overview(context.Background(), newer)
	require.NoError(t, err)
	assert.Equal(t, 400.0, ov.Revenue.Value)

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrSuperseded)
		assert.True(t, IsSuperseded(err))
	case <-time.After(5 * time.Second):
		t.Fatal("superseded fetch never returned")
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Superseded))
	snap := e.sessions.Get(1).Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, "2024-01-01", e.sessions.Get(1).query.Until, "session keeps the newest query")
}

func TestEngineMemoizesBySnapshotAndFilter(t *testing.T) {
	f := newFakeFetcher()
	m := telemetry.New()
	e := newTestEngine(f, m)
	ctx := context.Background()
	req := Request{UserID: 7}

	first, err := e.Scorecard(ctx, req)
	require.NoError(t, err)
	_, err = e.Scorecard(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, int32(1), f.calls.Load(), "unchanged filter reuses the snapshot")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MemoLookups.WithLabelValues("scorecard", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MemoLookups.WithLabelValues("scorecard", "miss")))

	// aynı veriyle yeniden çekme: özet değişmez, türetme tekrarlanmaz
	req.Refresh = true
	_, err = e.Scorecard(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MemoLookups.WithLabelValues("scorecard", "hit")))

	f.setSales([]fetch.Row{
		{"location_id": 1, "date": "2024-01-01", "order_type": "dine_in", "revenue": 900, "orders": 10},
	})
	changed, err := e.Scorecard(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MemoLookups.WithLabelValues("scorecard", "miss")))
	assert.NotEqual(t, first.Rows[0].Revenue, changed.Rows[0].Revenue)
	assert.Equal(t, 900.0, changed.Rows[0].Revenue)

	// filtre değişince düğüm yeniden hesaplanır
	req.Refresh = false
	req.Filter.Categories = domain.Only(domain.CategoryDairy)
	_, err = e.Scorecard(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.MemoLookups.WithLabelValues("scorecard", "miss")))
}

func TestEngineSessionsAreIsolated(t *testing.T) {
	f := newFakeFetcher()
	e := newTestEngine(f, nil)
	ctx := context.Background()

	_, err := e.Waste(ctx, Request{UserID: 1})
	require.NoError(t, err)
	_, err = e.Waste(ctx, Request{UserID: 2})
	require.NoError(t, err)

	assert.Equal(t, int32(2), f.calls.Load())
	assert.Equal(t, 2, e.sessions.Len())
}

func TestEngineFetchError(t *testing.T) {
	f := newFakeFetcher()
	f.err = errors.New("bağlantı reddedildi")
	e := newTestEngine(f, nil)

	_, err := e.Overview(context.Background(), Request{UserID: 1})

	var fe *fetch.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Nil(t, e.sessions.Get(1).Snapshot(), "failed fetch leaves the session untouched")
}

func TestEngineCompareAndExport(t *testing.T) {
	e := newTestEngine(newFakeFetcher(), nil)
	ctx := context.Background()
	req := Request{UserID: 3}

	v, err := e.Compare(ctx, req, CompareRequest{IDs: []uint{1, 2}, Metric: "revenue"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, v.Columns)

	_, err = e.Compare(ctx, req, CompareRequest{IDs: []uint{1, 2, 3, 4}, Metric: "revenue"})
	assert.ErrorIs(t, err, ErrInvalidCompare)

	_, err = e.Compare(ctx, req, CompareRequest{IDs: []uint{9}, Metric: "revenue"})
	assert.ErrorIs(t, err, ErrInvalidCompare)

	for _, view := range ExportViews() {
		_, err := e.Export(ctx, req, view)
		assert.NoError(t, err, view)
	}
	rows, err := e.Export(ctx, req, ExportScorecard)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = e.Export(ctx, req, "pdf")
	assert.ErrorIs(t, err, ErrUnknownView)

	_, err = e.OrderMix(ctx, req, "rating")
	assert.ErrorIs(t, err, ErrInvalidCompare)
}

func TestSessionsExpire(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ss := NewSessions(30*time.Minute, nil)
	ss.now = func() time.Time { return now }

	a := ss.Get(1)
	ss.Get(2)
	assert.Same(t, a, ss.Get(1))

	now = now.Add(20 * time.Minute)
	ss.Get(1)
	now = now.Add(20 * time.Minute)

	assert.Equal(t, 1, ss.Sweep(), "user 2 idle for 40 minutes")
	assert.Equal(t, 1, ss.Len())
	assert.Same(t, a, ss.Get(1))
}

func TestMemoResetAndKeys(t *testing.T) {
	m := NewMemo[int]("x", nil)
	calls := 0
	compute := func() int { calls++; return calls }

	assert.Equal(t, 1, m.Get(1, compute))
	assert.Equal(t, 1, m.Get(1, compute))
	assert.Equal(t, 2, m.Get(2, compute))
	m.Reset()
	assert.Equal(t, 3, m.Get(2, compute))

	all := newKey("n").filter(domain.FilterState{}).sum()
	explicit := newKey("n").filter(domain.FilterState{Locations: domain.Only[uint](1)}).sum()
	reordered := newKey("n").filter(domain.FilterState{Locations: domain.Only[uint](2, 1)}).sum()
	same := newKey("n").filter(domain.FilterState{Locations: domain.Only[uint](1, 2)}).sum()
	assert.NotEqual(t, all, explicit)
	assert.Equal(t, reordered, same)
}

func TestSessionsInvalidateForcesRefetch(t *testing.T) {
	f := newFakeFetcher()
	e := newTestEngine(f, nil)
	ctx := context.Background()

	_, err := e.Overview(ctx, Request{UserID: 1})
	require.NoError(t, err)
	_, err = e.Overview(ctx, Request{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.calls.Load())

	e.sessions.Invalidate()
	assert.Nil(t, e.sessions.Get(1).Snapshot())

	_, err = e.Overview(ctx, Request{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestEngineParallelViewsShareOneFetch(t *testing.T) {
	f := newFakeFetcher()
	f.delay = 50 * time.Millisecond
	m := telemetry.New()
	e := newTestEngine(f, m)
	ctx := context.Background()
	req := Request{UserID: 1, Filter: domain.FilterState{Start: "2024-01-01", End: "2024-01-01"}}

	views := []func() error{
		func() error { _, err := e.Overview(ctx, req); return err },
		func() error { _, err := e.Scorecard(ctx, req); return err },
		func() error { _, err := e.Waste(ctx, req); return err },
		func() error { _, err := e.RevenueTrend(ctx, req); return err },
	}
	errs := make([]error, len(views))
	var wg sync.WaitGroup
	for i, view := range views {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = view()
		}()
		time.Sleep(5 * time.Millisecond)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "view %d", i)
	}
	assert.Equal(t, int32(1), f.calls.Load(), "same query is fetched once")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Superseded))
}

func TestSessionsInvalidateSupersedesInflightFetch(t *testing.T) {
	f := newFakeFetcher()
	f.block = "2023-12-31"
	f.started = make(chan struct{})
	e := newTestEngine(f, nil)
	req := Request{UserID: 1, Filter: domain.FilterState{Start: "2024-01-01", End: "2024-01-01"}}

	errc := make(chan error, 1)
	go func() {
		_, err := e.Overview(context.Background(), req)
		errc <- err
	}()
	<-f.started

	f.setSales([]fetch.Row{
		{"location_id": 1, "date": "2024-01-01", "order_type": "dine_in", "revenue": 50, "orders": 5},
	})
	e.sessions.Invalidate()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight fetch never returned")
	}
	assert.Nil(t, e.sessions.Get(1).Snapshot(), "stale fetch is not applied")

	f.block = ""
	ov, err := e.Overview(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 50.0, ov.Revenue.Value)
}
