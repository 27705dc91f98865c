package visibility

import (
	"context"

	"dog-registry/internal/ports/auth"
)

// Policy decide si un caller puede ver perros no aprobados dentro
// de un árbol de pedigree. Es un predicado inyectado por la capa de
// borde: el traversal no conoce roles, solo consulta la policy.
type Policy interface {
	CanViewUnapproved(ctx context.Context, claims auth.Claims) bool
}

// RolePolicy es la implementación por defecto: solo admin ve
// ancestros pending/rejected.
type RolePolicy struct{}

func (RolePolicy) CanViewUnapproved(_ context.Context, claims auth.Claims) bool {
	return claims.IsAdmin()
}
