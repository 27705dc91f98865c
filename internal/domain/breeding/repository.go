package breeding

import "context"

// Repository es el acceso a datos del módulo. RunInTx delimita el
// scope transaccional de las mutaciones: las validaciones de lectura y
// la escritura final ejecutan dentro del mismo fn, y o commitea todo o
// nada. La implementación postgres envuelve un sql.Tx; la in-memory,
// un lock grueso.
type Repository interface {
	RunInTx(ctx context.Context, fn func(r Repository) error) error

	CreateProgram(ctx context.Context, p Program) error
	UpdateProgram(ctx context.Context, p Program) error
	GetProgramByID(ctx context.Context, id string) (Program, error)
	ListProgramsByBreeder(ctx context.Context, breederUserID string) ([]Program, error)
	// DeleteProgram borra el programa y cascadea a sus pares.
	DeleteProgram(ctx context.Context, id string) error

	CreatePair(ctx context.Context, p Pair) error
	GetPairByID(ctx context.Context, id string) (Pair, error)
	// FindPair busca por la tripleta única (programa, sire, dam).
	FindPair(ctx context.Context, programID, sireID, damID string) (Pair, error)
	UpdatePairStatus(ctx context.Context, id string, status PairStatus, notes string) (Pair, error)
	ListPairsByProgram(ctx context.Context, programID string) ([]Pair, error)

	CreateRecord(ctx context.Context, rec Record) error
	GetRecordByID(ctx context.Context, id string) (Record, error)
	LinkRecordToPair(ctx context.Context, recordID, pairID string) (Record, error)
	ListRecordsByDog(ctx context.Context, dogID string, role RecordRole) ([]Record, error)
}
