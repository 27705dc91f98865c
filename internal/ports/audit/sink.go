package audit

import (
	"context"
	"time"
)

// Action clasifica la mutación registrada.
type Action string

const (
	ActionCreate           Action = "CREATE"
	ActionUpdate           Action = "UPDATE"
	ActionStatusTransition Action = "STATUS_TRANSITION"
	ActionLink             Action = "LINK"
	ActionDelete           Action = "DELETE"
)

// Entry es un registro de auditoría con estado antes/después serializado.
// PrevState/NewState son JSON; vacío significa "no aplica" (p.ej. en CREATE
// no hay estado previo).
type Entry struct {
	Action     Action
	EntityType string
	EntityID   string
	ActorID    string
	PrevState  string
	NewState   string
	Note       string
	At         time.Time
}

// Sink recibe entradas de auditoría después de cada mutación exitosa.
// El engine lo trata como canal de escritura fire-and-forget: un error
// del sink se loguea pero nunca revierte la transacción principal.
type Sink interface {
	Record(ctx context.Context, e Entry) error
}
