package pipeline

import (
	"sync"

	"restoran-analytics/internal/telemetry"
)

// Memo tek değerlik türetme düğümü: aynı anahtar için hesaplama tekrarlanmaz,
// anahtar değiştiğinde değer baştan üretilir.
type Memo[T any] struct {
	name    string
	metrics *telemetry.Metrics

	mu    sync.Mutex
	key   uint64
	valid bool
	val   T
}

func NewMemo[T any](name string, m *telemetry.Metrics) *Memo[T] {
	return &Memo[T]{name: name, metrics: m}
}

// Get key önceki çağrıyla aynıysa saklanan değeri, değilse compute sonucunu döner.
func (m *Memo[T]) Get(key uint64, compute func() T) T {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && m.key == key {
		m.metrics.MemoHit(m.name)
		return m.val
	}
	m.metrics.MemoMiss(m.name)
	m.val = compute()
	m.key = key
	m.valid = true
	return m.val
}

// Reset saklanan değeri geçersiz kılar.
func (m *Memo[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	m.val, m.valid = zero, false
}
