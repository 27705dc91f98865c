package memory

import (
	"context"
	"sync"

	"dog-registry/internal/ports/audit"
)

// AuditSink acumula entradas en memoria. Sirve para dev y para que los
// tests verifiquen que las mutaciones emiten auditoría.
type AuditSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func NewAuditSink() *AuditSink {
	return &AuditSink{}
}

func (s *AuditSink) Record(ctx context.Context, e audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

// Entries devuelve una copia de lo registrado.
func (s *AuditSink) Entries() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
