// Package pipeline dashboard görünümlerini, veri çekme ve türetme aşamalarını birbirine bağlar.
// Her görünüm oturum başına bir Memo düğümüdür; anahtar anlık görüntü özeti, filtre ve parametrelerden oluşur.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"restoran-analytics/internal/aggregate"
	"restoran-analytics/internal/config"
	"restoran-analytics/internal/derive"
	"restoran-analytics/internal/domain"
	"restoran-analytics/internal/fetch"
	"restoran-analytics/internal/telemetry"
)

type Engine struct {
	fetcher  fetch.Fetcher
	cfg      config.AnalyticsConfig
	sessions *Sessions
	metrics  *telemetry.Metrics
}

func NewEngine(f fetch.Fetcher, cfg config.AnalyticsConfig, sessions *Sessions, m *telemetry.Metrics) *Engine {
	return &Engine{fetcher: f, cfg: cfg, sessions: sessions, metrics: m}
}

// Request: tek bir dashboard isteği
type Request struct {
	UserID  uint
	Filter  domain.FilterState
	Refresh bool // aynı filtre için bile yeniden çek
}

// QueryFor filtre için okunacak veri aralığı. Karşılaştırma KPI'ları için önceki eşit
// uzunluktaki dönem de okunur.
func QueryFor(st domain.FilterState) fetch.Query {
	start, end := st.Start, st.End
	if start != "" && end != "" && start > end {
		start, end = end, start
	}
	q := fetch.Query{Since: start, Until: end}
	if ps, _, ok := derive.PreviousPeriod(start, end); ok {
		q.Since = ps
	}
	if ids := st.Locations.Values(); ids != nil {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		q.LocationIDs = ids
	}
	return q
}

// load oturumun anlık görüntüsünü döner; filtre değiştiyse ya da Refresh istendiyse yeniden çeker.
// Aynı sorgu için eşzamanlı istekler tek fetch'i paylaşır. Farklı sorguyla daha yeni bir
// çekme başlarsa eski sorgunun sonucu atılır ve bekleyenlerine ErrSuperseded döner.
func (e *Engine) load(ctx context.Context, r Request) (*Session, *fetch.Snapshot, error) {
	s := e.sessions.Get(r.UserID)
	q := QueryFor(r.Filter)

	if !r.Refresh {
		if snap := s.current(q); snap != nil {
			return s, snap, nil
		}
	}

	key := queryKey(q)
	v, err, shared := s.flight.Do(key, func() (any, error) {
		s.setInflight(key)
		defer s.clearInflight(key)
		// paylaşılan fetch ilk isteğin iptaline bağlı kalmaz; süre sınırı fetcher'dadır
		return e.fetch(context.WithoutCancel(ctx), s, r.UserID, q)
	})
	if err != nil {
		return nil, nil, err
	}
	if shared {
		slog.Debug("fetch paylaşıldı", "user_id", r.UserID)
	}
	return s, v.(*fetch.Snapshot), nil
}

func (e *Engine) fetch(ctx context.Context, s *Session, userID uint, q fetch.Query) (*fetch.Snapshot, error) {
	t := s.latest.Begin(ctx)
	defer t.Done()

	log := slog.With("user_id", userID, "fetch_id", t.ID)
	log.Debug("fetch başladı", "since", q.Since, "until", q.Until, "locations", q.LocationIDs)

	snap, err := fetch.Load(t.Context(), e.fetcher, q)
	if applyErr := s.latest.Apply(t, func() {
		if err == nil {
			s.set(q, snap)
		}
	}); applyErr != nil {
		e.metrics.FetchSuperseded()
		log.Info("fetch sonucu atıldı, daha yeni istek var")
		return nil, applyErr
	}
	if err != nil {
		log.Error("fetch başarısız", "error", err)
		return nil, err
	}

	log.Debug("fetch tamamlandı", "sales", len(snap.Sales), "inventory", len(snap.Inventory), "reviews", len(snap.Reviews))
	return snap, nil
}

func (e *Engine) key(node string, snap *fetch.Snapshot, st domain.FilterState) *keyBuilder {
	return newKey(node).u64(snap.Hash).filter(st)
}

func (e *Engine) Overview(ctx context.Context, r Request) (Overview, error) {
	s, snap, err := e.load(ctx, r)
	if err != nil {
		return Overview{}, err
	}
	return s.overview.Get(e.key("overview", snap, r.Filter).sum(), func() Overview {
		return BuildOverview(snap, r.Filter)
	}), nil
}

func (e *Engine) RevenueTrend(ctx context.Context, r Request) ([]TrendPoint, error) {
	s, snap, err := e.load(ctx, r)
	if err != nil {
		return nil, err
	}
	return s.trend.Get(e.key("revenue_trend", snap, r.Filter).sum(), func() []TrendPoint {
		return BuildRevenueTrend(snap, r.Filter, e.cfg)
	}), nil
}

// OrderMix field ciro ya da sipariş adedi olabilir.
func (e *Engine) OrderMix(ctx context.Context, r Request, field aggregate.Field) (PivotView, error) {
	if field != aggregate.Revenue && field != aggregate.Orders {
		return PivotView{}, fmt.Errorf("%w: bilinmeyen metrik %q", ErrInvalidCompare, field)
	}
	s, snap, err := e.load(ctx, r)
	if err != nil {
		return PivotView{}, err
	}
	return s.orderMix.Get(e.key("order_mix", snap, r.Filter).str(string(field)).sum(), func() PivotView {
		return BuildOrderMix(snap, r.Filter, field)
	}), nil
}

func (e *Engine) Waste(ctx context.Context, r Request) (WasteView, error) {
	s, snap, err := e.load(ctx, r)
	if err != nil {
		return WasteView{}, err
	}
	return s.waste.Get(e.key("waste", snap, r.Filter).sum(), func() WasteView {
		return BuildWaste(snap, r.Filter)
	}), nil
}

func (e *Engine) Scorecard(ctx context.Context, r Request) (ScorecardView, error) {
	s, snap, err := e.load(ctx, r)
	if err != nil {
		return ScorecardView{}, err
	}
	return s.scorecard.Get(e.key("scorecard", snap, r.Filter).sum(), func() ScorecardView {
		return BuildScorecard(snap, r.Filter, e.cfg)
	}), nil
}

func (e *Engine) Compare(ctx context.Context, r Request, req CompareRequest) (PivotView, error) {
	if err := req.Validate(e.cfg.MaxCompare); err != nil {
		return PivotView{}, err
	}
	s, snap, err := e.load(ctx, r)
	if err != nil {
		return PivotView{}, err
	}

	var buildErr error
	k := req.key(e.key("compare", snap, r.Filter)).sum()
	view := s.compare.Get(k, func() PivotView {
		v, err := BuildCompare(snap, r.Filter, req, e.cfg.MaxCompare)
		buildErr = err
		return v
	})
	if buildErr != nil {
		s.compare.Reset()
		return PivotView{}, buildErr
	}
	return view, nil
}

func (e *Engine) Anomalies(ctx context.Context, r Request) (AnomalyView, error) {
	s, snap, err := e.load(ctx, r)
	if err != nil {
		return AnomalyView{}, err
	}
	return s.anomalies.Get(e.key("anomalies", snap, r.Filter).sum(), func() AnomalyView {
		return BuildAnomalies(snap, r.Filter, e.cfg)
	}), nil
}

// Export görünümü dışa aktarım bileşenleri için düz satırlara çevirir.
func (e *Engine) Export(ctx context.Context, r Request, view string) ([]Record, error) {
	switch view {
	case ExportScorecard:
		v, err := e.Scorecard(ctx, r)
		return scorecardRecords(v), err
	case ExportRevenueTrend:
		v, err := e.RevenueTrend(ctx, r)
		return trendRecords(v), err
	case ExportOrderMix:
		v, err := e.OrderMix(ctx, r, aggregate.Revenue)
		return v.Records, err
	case ExportWaste:
		v, err := e.Waste(ctx, r)
		return wasteRecords(v), err
	case ExportAnomalies:
		v, err := e.Anomalies(ctx, r)
		return anomalyRecords(v), err
	case ExportSales, ExportInventory, ExportReviews:
		_, snap, err := e.load(ctx, r)
		if err != nil {
			return nil, err
		}
		return factRecords(snap, r.Filter, view), nil
	}
	return nil, ErrUnknownView
}

// IsSuperseded err bir ErrSuperseded mi
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}
