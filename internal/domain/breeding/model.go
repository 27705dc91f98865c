package breeding

import "time"

// Program agrupa la actividad de cría de un breeder.
// EndDate, si viene, debe ser posterior a StartDate.
type Program struct {
	ID            string
	BreederUserID string

	Name        string
	Description string
	Status      ProgramStatus

	StartDate *time.Time
	EndDate   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Pair es una cruza propuesta o realizada entre un sire y una dam
// dentro de exactamente un programa. La tripleta (programa, sire, dam)
// es única dentro del programa. Nunca se borra de forma independiente:
// solo por cascada del programa.
type Pair struct {
	ID        string
	ProgramID string

	SireID string
	DamID  string

	PlannedDate        *time.Time
	CompatibilityNotes string
	GeneticScore       *float64

	Status      PairStatus
	StatusNotes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Record representa una cruza realizada (una camada). Se crea de forma
// independiente del tracking de pares; el link a un Pair es opcional y,
// una vez puesto, no se re-asigna a otro par sin deslinkear antes.
type Record struct {
	ID string

	SireID string
	DamID  string

	BreedingDate time.Time
	LitterSize   int

	BreedingPairID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
