package pipeline

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"restoran-analytics/internal/fetch"
	"restoran-analytics/internal/telemetry"
)

// Session: tek kullanıcının dashboard durumu. Son uygulanan anlık görüntüyü ve
// türetme düğümlerini tutar.
type Session struct {
	UserID uint

	latest Latest
	flight singleflight.Group

	mu       sync.Mutex
	snap     *fetch.Snapshot
	query    fetch.Query
	inflight string // uçuştaki fetch'in anahtarı
	touched  time.Time

	overview  *Memo[Overview]
	trend     *Memo[[]TrendPoint]
	orderMix  *Memo[PivotView]
	waste     *Memo[WasteView]
	scorecard *Memo[ScorecardView]
	compare   *Memo[PivotView]
	anomalies *Memo[AnomalyView]
}

func newSession(userID uint, m *telemetry.Metrics) *Session {
	return &Session{
		UserID:    userID,
		overview:  NewMemo[Overview]("overview", m),
		trend:     NewMemo[[]TrendPoint]("revenue_trend", m),
		orderMix:  NewMemo[PivotView]("order_mix", m),
		waste:     NewMemo[WasteView]("waste", m),
		scorecard: NewMemo[ScorecardView]("scorecard", m),
		compare:   NewMemo[PivotView]("compare", m),
		anomalies: NewMemo[AnomalyView]("anomalies", m),
	}
}

// current q için uygulanmış anlık görüntü; yoksa nil.
func (s *Session) current(q fetch.Query) *fetch.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil || !sameQuery(s.query, q) {
		return nil
	}
	return s.snap
}

func (s *Session) set(q fetch.Query, snap *fetch.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap, s.query = snap, q
}

// Snapshot son uygulanan anlık görüntü
func (s *Session) Snapshot() *fetch.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *Session) setInflight(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = key
}

func (s *Session) clearInflight(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight == key {
		s.inflight = ""
	}
}

// queryKey aynı sorguyu bekleyen istekleri tek fetch'te birleştirmek için kullanılır.
func queryKey(q fetch.Query) string {
	return fmt.Sprintf("%s|%s|%s|%v", q.Table, q.Since, q.Until, q.LocationIDs)
}

func sameQuery(a, b fetch.Query) bool {
	return a.Table == b.Table && a.Since == b.Since && a.Until == b.Until &&
		slices.Equal(a.LocationIDs, b.LocationIDs)
}

// Sessions kullanıcı başına tek oturum tutar; ttl boyunca kullanılmayan oturumlar atılır.
type Sessions struct {
	ttl     time.Duration
	metrics *telemetry.Metrics
	now     func() time.Time

	mu     sync.Mutex
	byUser map[uint]*Session
}

func NewSessions(ttl time.Duration, m *telemetry.Metrics) *Sessions {
	return &Sessions{
		ttl:     ttl,
		metrics: m,
		now:     time.Now,
		byUser:  make(map[uint]*Session),
	}
}

// Get kullanıcının oturumunu döner, yoksa oluşturur.
func (ss *Sessions) Get(userID uint) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	now := ss.now()
	ss.sweepLocked(now)

	s, ok := ss.byUser[userID]
	if !ok {
		s = newSession(userID, ss.metrics)
		ss.byUser[userID] = s
	}
	s.touched = now
	ss.metrics.SetSessions(len(ss.byUser))
	return s
}

// Sweep süresi dolan oturumları atar ve atılan sayıyı döner.
func (ss *Sessions) Sweep() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	n := ss.sweepLocked(ss.now())
	ss.metrics.SetSessions(len(ss.byUser))
	return n
}

func (ss *Sessions) sweepLocked(now time.Time) int {
	if ss.ttl <= 0 {
		return 0
	}
	var n int
	for id, s := range ss.byUser {
		if now.Sub(s.touched) > ss.ttl {
			delete(ss.byUser, id)
			n++
		}
	}
	return n
}

// Invalidate tüm oturumların anlık görüntüsünü düşürür; sonraki istek veriyi yeniden çeker.
// Uçuştaki fetch'ler eski veriyi okumuş olabilir, onlar da geçersiz sayılır.
func (ss *Sessions) Invalidate() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	for _, s := range ss.byUser {
		s.latest.Begin(context.Background()).Done()
		s.mu.Lock()
		s.snap = nil
		if s.inflight != "" {
			s.flight.Forget(s.inflight)
		}
		s.mu.Unlock()
	}
}

func (ss *Sessions) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.byUser)
}
