package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"dog-registry/internal/ports/audit"
)

// AuditSink persiste entradas de auditoría en system_logs. Escribe
// fuera de la transacción de la mutación: un insert fallido acá no
// revierte nada (fire-and-forget; el service loguea el error).
type AuditSink struct {
	db *sql.DB
}

func NewAuditSink(db *sql.DB) *AuditSink {
	return &AuditSink{db: db}
}

func (s *AuditSink) Record(ctx context.Context, e audit.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO system_logs (
			id, action, entity_type, entity_id, actor_id,
			prev_state, new_state, note, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		uuid.NewString(),
		e.Action,
		e.EntityType,
		e.EntityID,
		e.ActorID,
		e.PrevState,
		e.NewState,
		e.Note,
		e.At,
	)
	return err
}
