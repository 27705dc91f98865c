package auth

// Role define los roles conocidos por el registro.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleBreeder Role = "breeder"
	RoleOwner   Role = "owner"
)

// Claims representa la información extraída del token.
// Role se usa para atribución en auditoría y para el filtro
// de visibilidad de perros no aprobados en el pedigree.
type Claims struct {
	UserID string
	Email  string
	Role   Role
}

// IsAdmin indica si el caller tiene privilegios elevados.
func (c Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
