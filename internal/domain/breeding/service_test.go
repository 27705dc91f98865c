package breeding_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mem "dog-registry/internal/adapters/storage/memory"
	"dog-registry/internal/domain/breeding"
	"dog-registry/internal/domain/dogs"
	"dog-registry/internal/ports/audit"
)

type stubFinder struct {
	byID map[string]dogs.Dog
}

func (f stubFinder) GetByID(ctx context.Context, id string) (dogs.Dog, error) {
	d, ok := f.byID[id]
	if !ok {
		return dogs.Dog{}, dogs.ErrNotFound
	}
	return d, nil
}

// newTestService arma el servicio con el repo en memoria y un finder con
// un sire, dos dams y un perro de sexo cruzado para validaciones.
func newTestService() (*breeding.Service, *mem.AuditSink) {
	finder := stubFinder{byID: map[string]dogs.Dog{
		"sire-1": {ID: "sire-1", Name: "Rex", Sex: dogs.SexMale, ApprovalStatus: dogs.ApprovalApproved},
		"dam-1":  {ID: "dam-1", Name: "Luna", Sex: dogs.SexFemale, ApprovalStatus: dogs.ApprovalApproved},
		"dam-2":  {ID: "dam-2", Name: "Nala", Sex: dogs.SexFemale, ApprovalStatus: dogs.ApprovalApproved},
	}}
	sink := mem.NewAuditSink()
	svc := breeding.NewService(mem.NewBreedingRepo(), finder, sink, nil, nil)
	return svc, sink
}

func mustProgram(t *testing.T, svc *breeding.Service) breeding.Program {
	t.Helper()
	p, err := svc.CreateProgram(context.Background(), "breeder-1", breeding.CreateProgramInput{
		Name: "Línea Campeones 2026",
	})
	require.NoError(t, err)
	return p
}

func mustPair(t *testing.T, svc *breeding.Service, programID, sireID, damID string) breeding.Pair {
	t.Helper()
	p, err := svc.AddPair(context.Background(), "breeder-1", breeding.AddPairInput{
		ProgramID: programID,
		SireID:    sireID,
		DamID:     damID,
	})
	require.NoError(t, err)
	return p
}

// ---------- Programas ----------

func TestCreateProgram(t *testing.T) {
	svc, sink := newTestService()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	p, err := svc.CreateProgram(context.Background(), "breeder-1", breeding.CreateProgramInput{
		Name:      "  Línea Campeones  ",
		StartDate: &start,
		EndDate:   &end,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Línea Campeones", p.Name)
	assert.Equal(t, breeding.ProgramPlanning, p.Status)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionCreate, entries[0].Action)
	assert.Equal(t, "breeding_program", entries[0].EntityType)
	assert.Equal(t, p.ID, entries[0].EntityID)
}

func TestCreateProgram_Validation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateProgram(context.Background(), "breeder-1", breeding.CreateProgramInput{Name: "  "})
	require.ErrorIs(t, err, breeding.ErrInvalidInput)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.CreateProgram(context.Background(), "breeder-1", breeding.CreateProgramInput{
		Name:      "Fechas al revés",
		StartDate: &start,
		EndDate:   &end,
	})
	require.ErrorIs(t, err, breeding.ErrInvalidInput)
}

func TestUpdateProgram(t *testing.T) {
	svc, _ := newTestService()
	p := mustProgram(t, svc)

	name := "Renombrado"
	status := "ACTIVE"
	updated, err := svc.UpdateProgram(context.Background(), "breeder-1", p.ID, breeding.UpdateProgramInput{
		Name:   &name,
		Status: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renombrado", updated.Name)
	assert.Equal(t, breeding.ProgramActive, updated.Status)

	bad := "WHATEVER"
	_, err = svc.UpdateProgram(context.Background(), "breeder-1", p.ID, breeding.UpdateProgramInput{Status: &bad})
	require.ErrorIs(t, err, breeding.ErrInvalidInput)

	_, err = svc.UpdateProgram(context.Background(), "breeder-1", "missing", breeding.UpdateProgramInput{Name: &name})
	require.ErrorIs(t, err, breeding.ErrNotFound)
}

func TestDeleteProgram_CascadesPairs(t *testing.T) {
	svc, _ := newTestService()
	p := mustProgram(t, svc)
	pair := mustPair(t, svc, p.ID, "sire-1", "dam-1")

	require.NoError(t, svc.DeleteProgram(context.Background(), "breeder-1", p.ID))

	_, err := svc.GetProgram(context.Background(), p.ID)
	require.ErrorIs(t, err, breeding.ErrNotFound)
	_, err = svc.GetPair(context.Background(), pair.ID)
	require.ErrorIs(t, err, breeding.ErrNotFound)
}

// ---------- Pares ----------

func TestAddPair(t *testing.T) {
	svc, sink := newTestService()
	p := mustProgram(t, svc)

	pair := mustPair(t, svc, p.ID, "sire-1", "dam-1")
	assert.Equal(t, breeding.PairPlanned, pair.Status)

	// La misma tripleta programa/sire/dam se rechaza.
	_, err := svc.AddPair(context.Background(), "breeder-1", breeding.AddPairInput{
		ProgramID: p.ID, SireID: "sire-1", DamID: "dam-1",
	})
	require.ErrorIs(t, err, breeding.ErrDuplicatePair)

	// Otra dam en el mismo programa sí se permite.
	_, err = svc.AddPair(context.Background(), "breeder-1", breeding.AddPairInput{
		ProgramID: p.ID, SireID: "sire-1", DamID: "dam-2",
	})
	require.NoError(t, err)

	actions := make([]audit.Action, 0)
	for _, e := range sink.Entries() {
		if e.EntityType == "breeding_pair" {
			actions = append(actions, e.Action)
		}
	}
	assert.Equal(t, []audit.Action{audit.ActionCreate, audit.ActionCreate}, actions)
}

func TestAddPair_Validation(t *testing.T) {
	svc, _ := newTestService()
	p := mustProgram(t, svc)

	// Sexos invertidos.
	_, err := svc.AddPair(context.Background(), "breeder-1", breeding.AddPairInput{
		ProgramID: p.ID, SireID: "dam-1", DamID: "sire-1",
	})
	require.ErrorIs(t, err, breeding.ErrInvalidInput)

	// Perro inexistente.
	_, err = svc.AddPair(context.Background(), "breeder-1", breeding.AddPairInput{
		ProgramID: p.ID, SireID: "ghost", DamID: "dam-1",
	})
	require.ErrorIs(t, err, breeding.ErrNotFound)

	// Programa inexistente.
	_, err = svc.AddPair(context.Background(), "breeder-1", breeding.AddPairInput{
		ProgramID: "missing", SireID: "sire-1", DamID: "dam-1",
	})
	require.ErrorIs(t, err, breeding.ErrNotFound)

	// Estado inicial desconocido.
	_, err = svc.AddPair(context.Background(), "breeder-1", breeding.AddPairInput{
		ProgramID: p.ID, SireID: "sire-1", DamID: "dam-1", InitialStatus: "MAYBE",
	})
	require.ErrorIs(t, err, breeding.ErrInvalidInput)
}

func TestUpdatePairStatus_HappyPath(t *testing.T) {
	svc, sink := newTestService()
	p := mustProgram(t, svc)
	pair := mustPair(t, svc, p.ID, "sire-1", "dam-1")

	ctx := context.Background()
	for _, target := range []breeding.PairStatus{
		breeding.PairApproved,
		breeding.PairBreedingScheduled,
		breeding.PairBred,
		breeding.PairUnsuccessful,
	} {
		updated, err := svc.UpdatePairStatus(ctx, "breeder-1", pair.ID, target, "")
		require.NoError(t, err, "transición a %s", target)
		assert.Equal(t, target, updated.Status)
	}

	transitions := 0
	for _, e := range sink.Entries() {
		if e.Action == audit.ActionStatusTransition {
			transitions++
			assert.NotEmpty(t, e.PrevState)
			assert.NotEmpty(t, e.NewState)
		}
	}
	assert.Equal(t, 4, transitions)
}

func TestUpdatePairStatus_RejectsInvalidTransition(t *testing.T) {
	svc, _ := newTestService()
	p := mustProgram(t, svc)
	pair := mustPair(t, svc, p.ID, "sire-1", "dam-1")
	ctx := context.Background()

	// PLANNED no puede saltar directo a BRED.
	_, err := svc.UpdatePairStatus(ctx, "breeder-1", pair.ID, breeding.PairBred, "")
	require.ErrorIs(t, err, breeding.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "from PLANNED to BRED")

	// El rechazo no tocó el estado persistido.
	got, err := svc.GetPair(ctx, pair.ID)
	require.NoError(t, err)
	assert.Equal(t, breeding.PairPlanned, got.Status)
}

func TestUpdatePairStatus_IdempotentNoOp(t *testing.T) {
	svc, _ := newTestService()
	p := mustProgram(t, svc)
	pair := mustPair(t, svc, p.ID, "sire-1", "dam-1")

	updated, err := svc.UpdatePairStatus(context.Background(), "breeder-1", pair.ID, breeding.PairPlanned, "")
	require.NoError(t, err)
	assert.Equal(t, breeding.PairPlanned, updated.Status)
}

func TestUpdatePairStatus_CancellationRequiresNotes(t *testing.T) {
	svc, _ := newTestService()
	p := mustProgram(t, svc)
	pair := mustPair(t, svc, p.ID, "sire-1", "dam-1")
	ctx := context.Background()

	_, err := svc.UpdatePairStatus(ctx, "breeder-1", pair.ID, breeding.PairCancelled, "   ")
	require.ErrorIs(t, err, breeding.ErrInvalidInput)

	updated, err := svc.UpdatePairStatus(ctx, "breeder-1", pair.ID, breeding.PairCancelled, "dam retirada del programa")
	require.NoError(t, err)
	assert.Equal(t, breeding.PairCancelled, updated.Status)
	assert.Equal(t, "dam retirada del programa", updated.StatusNotes)

	// CANCELLED es terminal.
	_, err = svc.UpdatePairStatus(ctx, "breeder-1", pair.ID, breeding.PairApproved, "")
	require.ErrorIs(t, err, breeding.ErrInvalidTransition)
}

// Dos transiciones concurrentes hacia estados terminales mutuamente
// excluyentes: exactamente una gana y la otra rebota contra el estado
// recién persistido.
func TestUpdatePairStatus_ConcurrentTransitions(t *testing.T) {
	svc, _ := newTestService()
	p := mustProgram(t, svc)
	pair := mustPair(t, svc, p.ID, "sire-1", "dam-1")
	ctx := context.Background()

	for _, target := range []breeding.PairStatus{
		breeding.PairApproved, breeding.PairBreedingScheduled, breeding.PairBred,
	} {
		_, err := svc.UpdatePairStatus(ctx, "breeder-1", pair.ID, target, "")
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.UpdatePairStatus(ctx, "a", pair.ID, breeding.PairUnsuccessful, "")
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = svc.UpdatePairStatus(ctx, "b", pair.ID, breeding.PairCancelled, "camada no confirmada")
	}()
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, breeding.ErrInvalidTransition)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactamente una de las dos transiciones debe perder")

	got, err := svc.GetPair(ctx, pair.ID)
	require.NoError(t, err)
	assert.Contains(t, []breeding.PairStatus{breeding.PairUnsuccessful, breeding.PairCancelled}, got.Status)
}

// ---------- Records ----------

func TestCreateRecordAndListByDog(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec1, err := svc.CreateRecord(ctx, "breeder-1", breeding.CreateRecordInput{
		SireID:       "sire-1",
		DamID:        "dam-1",
		BreedingDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		LitterSize:   5,
	})
	require.NoError(t, err)

	_, err = svc.CreateRecord(ctx, "breeder-1", breeding.CreateRecordInput{
		SireID:       "sire-1",
		DamID:        "dam-2",
		BreedingDate: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		LitterSize:   3,
	})
	require.NoError(t, err)

	asSire, err := svc.ListRecordsByDog(ctx, "sire-1", breeding.RoleSire)
	require.NoError(t, err)
	assert.Len(t, asSire, 2)

	asDam, err := svc.ListRecordsByDog(ctx, "dam-1", breeding.RoleDam)
	require.NoError(t, err)
	require.Len(t, asDam, 1)
	assert.Equal(t, rec1.ID, asDam[0].ID)

	// Rol vacío = both.
	both, err := svc.ListRecordsByDog(ctx, "dam-2", "")
	require.NoError(t, err)
	assert.Len(t, both, 1)

	_, err = svc.ListRecordsByDog(ctx, "sire-1", "uncle")
	require.ErrorIs(t, err, breeding.ErrInvalidInput)
}

func TestCreateRecord_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateRecord(ctx, "breeder-1", breeding.CreateRecordInput{
		SireID: "sire-1", DamID: "dam-1",
	})
	require.ErrorIs(t, err, breeding.ErrInvalidInput)

	_, err = svc.CreateRecord(ctx, "breeder-1", breeding.CreateRecordInput{
		SireID:       "dam-1",
		DamID:        "dam-2",
		BreedingDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, breeding.ErrInvalidInput)
}

func TestLinkLitter(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	p := mustProgram(t, svc)
	pair1 := mustPair(t, svc, p.ID, "sire-1", "dam-1")
	pair2 := mustPair(t, svc, p.ID, "sire-1", "dam-2")

	rec, err := svc.CreateRecord(ctx, "breeder-1", breeding.CreateRecordInput{
		SireID:       "sire-1",
		DamID:        "dam-1",
		BreedingDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		LitterSize:   5,
	})
	require.NoError(t, err)

	linked, err := svc.LinkLitter(ctx, "breeder-1", pair1.ID, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.BreedingPairID)
	assert.Equal(t, pair1.ID, *linked.BreedingPairID)

	// Re-link al mismo par es idempotente.
	_, err = svc.LinkLitter(ctx, "breeder-1", pair1.ID, rec.ID)
	require.NoError(t, err)

	// Link a otro par se rechaza mientras siga linkeado.
	_, err = svc.LinkLitter(ctx, "breeder-1", pair2.ID, rec.ID)
	require.ErrorIs(t, err, breeding.ErrAlreadyLinked)

	_, err = svc.LinkLitter(ctx, "breeder-1", "missing", rec.ID)
	require.ErrorIs(t, err, breeding.ErrNotFound)
	_, err = svc.LinkLitter(ctx, "breeder-1", pair1.ID, "missing")
	require.ErrorIs(t, err, breeding.ErrNotFound)
}

// flakyRepo delega en el repo real pero hace fallar FindPair con un
// error de store, incluso dentro de RunInTx.
type flakyRepo struct {
	breeding.Repository
	findPairErr error
}

func (f *flakyRepo) FindPair(ctx context.Context, programID, sireID, damID string) (breeding.Pair, error) {
	return breeding.Pair{}, f.findPairErr
}

func (f *flakyRepo) RunInTx(ctx context.Context, fn func(r breeding.Repository) error) error {
	return f.Repository.RunInTx(ctx, func(tx breeding.Repository) error {
		return fn(&flakyRepo{Repository: tx, findPairErr: f.findPairErr})
	})
}

func testFinder() stubFinder {
	return stubFinder{byID: map[string]dogs.Dog{
		"sire-1": {ID: "sire-1", Name: "Rex", Sex: dogs.SexMale, ApprovalStatus: dogs.ApprovalApproved},
		"dam-1":  {ID: "dam-1", Name: "Luna", Sex: dogs.SexFemale, ApprovalStatus: dogs.ApprovalApproved},
	}}
}

func TestAddPair_DuplicateCheckFailureAborts(t *testing.T) {
	storeErr := errors.New("pq: connection reset by peer")
	repo := &flakyRepo{Repository: mem.NewBreedingRepo(), findPairErr: storeErr}
	svc := breeding.NewService(repo, testFinder(), mem.NewAuditSink(), nil, nil)
	prog := mustProgram(t, svc)

	// Si no se puede verificar la tripleta, el insert no procede.
	_, err := svc.AddPair(context.Background(), "breeder-1", breeding.AddPairInput{
		ProgramID: prog.ID,
		SireID:    "sire-1",
		DamID:     "dam-1",
	})
	require.ErrorIs(t, err, storeErr)

	pairs, err := svc.ListPairsByProgram(context.Background(), prog.ID)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

// erringFinder simula un backend de perros caído.
type erringFinder struct{ err error }

func (f erringFinder) GetByID(ctx context.Context, id string) (dogs.Dog, error) {
	return dogs.Dog{}, f.err
}

func TestAddPair_DogStoreFailureIsNotNotFound(t *testing.T) {
	storeErr := errors.New("pq: connection reset by peer")
	svc := breeding.NewService(mem.NewBreedingRepo(), erringFinder{err: storeErr}, mem.NewAuditSink(), nil, nil)

	_, err := svc.AddPair(context.Background(), "breeder-1", breeding.AddPairInput{
		ProgramID: "prog-1",
		SireID:    "sire-1",
		DamID:     "dam-1",
	})
	require.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, breeding.ErrNotFound)
}
