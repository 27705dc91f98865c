package breeding

// ProgramStatus define el ciclo de vida de un programa de cría.
// @Enum PLANNING, ACTIVE, PAUSED, COMPLETED, CANCELLED
type ProgramStatus string

const (
	ProgramPlanning  ProgramStatus = "PLANNING"
	ProgramActive    ProgramStatus = "ACTIVE"
	ProgramPaused    ProgramStatus = "PAUSED"
	ProgramCompleted ProgramStatus = "COMPLETED"
	ProgramCancelled ProgramStatus = "CANCELLED"
)

// ValidProgramStatus valida el valor crudo del caller.
func ValidProgramStatus(s ProgramStatus) bool {
	switch s {
	case ProgramPlanning, ProgramActive, ProgramPaused, ProgramCompleted, ProgramCancelled:
		return true
	}
	return false
}

// PairStatus define el ciclo de vida de un par de cría.
// @Enum PLANNED, PENDING_TESTING, APPROVED, BREEDING_SCHEDULED, BRED, UNSUCCESSFUL, CANCELLED
type PairStatus string

const (
	PairPlanned           PairStatus = "PLANNED"
	PairPendingTesting    PairStatus = "PENDING_TESTING"
	PairApproved          PairStatus = "APPROVED"
	PairBreedingScheduled PairStatus = "BREEDING_SCHEDULED"
	PairBred              PairStatus = "BRED"
	PairUnsuccessful      PairStatus = "UNSUCCESSFUL"
	PairCancelled         PairStatus = "CANCELLED"
)

// pairTransitions es la máquina de estados del par. UNSUCCESSFUL y
// CANCELLED son terminales (set vacío).
var pairTransitions = map[PairStatus][]PairStatus{
	PairPlanned:           {PairApproved, PairCancelled},
	PairApproved:          {PairBreedingScheduled, PairCancelled},
	PairBreedingScheduled: {PairBred, PairCancelled},
	PairPendingTesting:    {PairApproved, PairCancelled},
	PairBred:              {PairUnsuccessful, PairCancelled},
	PairUnsuccessful:      {},
	PairCancelled:         {},
}

// ValidPairStatus indica si el valor es un estado conocido.
func ValidPairStatus(s PairStatus) bool {
	_, ok := pairTransitions[s]
	return ok
}

// CanTransition acepta la transición si el target está en el set
// permitido del estado actual, o si target == current (update
// idempotente no-op).
func CanTransition(from, to PairStatus) bool {
	if from == to {
		return true
	}
	for _, allowed := range pairTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// RecordRole filtra breeding records por el rol del perro.
// @Enum sire, dam, both
type RecordRole string

const (
	RoleSire RecordRole = "sire"
	RoleDam  RecordRole = "dam"
	RoleBoth RecordRole = "both"
)
