package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSuperseded: fetch sonucu, daha sonra başlatılmış bir fetch yüzünden atıldı.
var ErrSuperseded = errors.New("istek daha yeni bir istek tarafından geçersiz kılındı")

// Ticket: başlatılmış tek bir fetch
type Ticket struct {
	ID     string
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Context fetch'in kullanacağı bağlam; ticket geçersiz kalınca iptal edilir.
func (t *Ticket) Context() context.Context {
	return t.ctx
}

// Done ticket'ın kaynaklarını bırakır.
func (t *Ticket) Done() {
	t.cancel()
}

// Latest yalnızca en son başlatılan fetch'in sonucunun uygulanmasını garanti eder.
type Latest struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Begin yeni bir fetch başlatır. Önceki (hala uçuştaki) fetch'in bağlamı iptal edilir
// ve sonucu artık uygulanamaz.
func (l *Latest) Begin(parent context.Context) *Ticket {
	ctx, cancel := context.WithCancel(parent)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	l.cancel = cancel
	return &Ticket{ID: uuid.NewString(), gen: l.gen, ctx: ctx, cancel: cancel}
}

// Current t hala en son başlatılan fetch mi
func (l *Latest) Current(t *Ticket) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return t.gen == l.gen
}

// Apply t en son fetch ise apply'ı kilit altında çalıştırır; değilse ErrSuperseded döner.
func (l *Latest) Apply(t *Ticket, apply func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.gen != l.gen {
		return ErrSuperseded
	}
	apply()
	return nil
}
