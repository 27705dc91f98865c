package dogs

import "time"

// Sex define el sexo del perro. A diferencia del perfil genérico de
// mascotas, acá no hay "unknown": el rol sire/dam exige sexo conocido.
// @Enum male, female
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ApprovalStatus define el estado de aprobación del registro.
// Los perros no aprobados se ocultan en árboles de pedigree
// salvo para callers con privilegio elevado.
// @Enum pending, approved, rejected
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Dog representa un perro de raza registrado en el sistema.
// SireID/DamID son nullables y apuntan a otros perros del registro;
// la relación forma un DAG bajo el supuesto de que ningún perro es
// su propio ancestro.
type Dog struct {
	ID          string
	OwnerUserID string

	Name               string
	Breed              string
	Color              string
	RegistrationNumber string
	Titles             []string

	Sex       Sex
	BirthDate *time.Time

	SireID *string
	DamID  *string

	ApprovalStatus ApprovalStatus
	Notes          string

	CreatedAt time.Time
	UpdatedAt time.Time
}
