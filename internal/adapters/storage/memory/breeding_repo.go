package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"dog-registry/internal/domain/breeding"
)

// breedingRepo guarda programas, pares y records en mapas con un lock
// grueso. RunInTx mantiene el lock durante todo el fn y hace snapshot
// del estado: si fn falla, se restaura (rollback in-memory). Eso le da
// a dos transiciones concurrentes sobre el mismo par la misma
// serialización que la versión postgres.
type breedingRepo struct {
	mu sync.Mutex
	st *breedingState
}

type breedingState struct {
	programs map[string]breeding.Program
	pairs    map[string]breeding.Pair
	records  map[string]breeding.Record

	// now inyectable, como en los services.
	now func() time.Time
}

func NewBreedingRepo() breeding.Repository {
	return &breedingRepo{
		st: &breedingState{
			programs: make(map[string]breeding.Program),
			pairs:    make(map[string]breeding.Pair),
			records:  make(map[string]breeding.Record),
			now:      time.Now,
		},
	}
}

func (r *breedingRepo) RunInTx(ctx context.Context, fn func(tx breeding.Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.st.clone()
	if err := fn(&txBreedingRepo{st: r.st}); err != nil {
		// rollback
		r.st.programs = snapshot.programs
		r.st.pairs = snapshot.pairs
		r.st.records = snapshot.records
		return err
	}
	return nil
}

func (r *breedingRepo) CreateProgram(ctx context.Context, p breeding.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.createProgram(p)
}

func (r *breedingRepo) UpdateProgram(ctx context.Context, p breeding.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.updateProgram(p)
}

func (r *breedingRepo) GetProgramByID(ctx context.Context, id string) (breeding.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.getProgram(id)
}

func (r *breedingRepo) ListProgramsByBreeder(ctx context.Context, breederUserID string) ([]breeding.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.listProgramsByBreeder(breederUserID)
}

func (r *breedingRepo) DeleteProgram(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.deleteProgram(id)
}

func (r *breedingRepo) CreatePair(ctx context.Context, p breeding.Pair) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.createPair(p)
}

func (r *breedingRepo) GetPairByID(ctx context.Context, id string) (breeding.Pair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.getPair(id)
}

func (r *breedingRepo) FindPair(ctx context.Context, programID, sireID, damID string) (breeding.Pair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.findPair(programID, sireID, damID)
}

func (r *breedingRepo) UpdatePairStatus(ctx context.Context, id string, status breeding.PairStatus, notes string) (breeding.Pair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.updatePairStatus(id, status, notes)
}

func (r *breedingRepo) ListPairsByProgram(ctx context.Context, programID string) ([]breeding.Pair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.listPairsByProgram(programID)
}

func (r *breedingRepo) CreateRecord(ctx context.Context, rec breeding.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.createRecord(rec)
}

func (r *breedingRepo) GetRecordByID(ctx context.Context, id string) (breeding.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.getRecord(id)
}

func (r *breedingRepo) LinkRecordToPair(ctx context.Context, recordID, pairID string) (breeding.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.linkRecordToPair(recordID, pairID)
}

func (r *breedingRepo) ListRecordsByDog(ctx context.Context, dogID string, role breeding.RecordRole) ([]breeding.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.listRecordsByDog(dogID, role)
}

// txBreedingRepo opera sobre el estado ya lockeado por RunInTx.
type txBreedingRepo struct {
	st *breedingState
}

func (t *txBreedingRepo) RunInTx(ctx context.Context, fn func(tx breeding.Repository) error) error {
	// Ya estamos dentro de la tx: mismo scope.
	return fn(t)
}

func (t *txBreedingRepo) CreateProgram(ctx context.Context, p breeding.Program) error {
	return t.st.createProgram(p)
}
func (t *txBreedingRepo) UpdateProgram(ctx context.Context, p breeding.Program) error {
	return t.st.updateProgram(p)
}
func (t *txBreedingRepo) GetProgramByID(ctx context.Context, id string) (breeding.Program, error) {
	return t.st.getProgram(id)
}
func (t *txBreedingRepo) ListProgramsByBreeder(ctx context.Context, breederUserID string) ([]breeding.Program, error) {
	return t.st.listProgramsByBreeder(breederUserID)
}
func (t *txBreedingRepo) DeleteProgram(ctx context.Context, id string) error {
	return t.st.deleteProgram(id)
}
func (t *txBreedingRepo) CreatePair(ctx context.Context, p breeding.Pair) error {
	return t.st.createPair(p)
}
func (t *txBreedingRepo) GetPairByID(ctx context.Context, id string) (breeding.Pair, error) {
	return t.st.getPair(id)
}
func (t *txBreedingRepo) FindPair(ctx context.Context, programID, sireID, damID string) (breeding.Pair, error) {
	return t.st.findPair(programID, sireID, damID)
}
func (t *txBreedingRepo) UpdatePairStatus(ctx context.Context, id string, status breeding.PairStatus, notes string) (breeding.Pair, error) {
	return t.st.updatePairStatus(id, status, notes)
}
func (t *txBreedingRepo) ListPairsByProgram(ctx context.Context, programID string) ([]breeding.Pair, error) {
	return t.st.listPairsByProgram(programID)
}
func (t *txBreedingRepo) CreateRecord(ctx context.Context, rec breeding.Record) error {
	return t.st.createRecord(rec)
}
func (t *txBreedingRepo) GetRecordByID(ctx context.Context, id string) (breeding.Record, error) {
	return t.st.getRecord(id)
}
func (t *txBreedingRepo) LinkRecordToPair(ctx context.Context, recordID, pairID string) (breeding.Record, error) {
	return t.st.linkRecordToPair(recordID, pairID)
}
func (t *txBreedingRepo) ListRecordsByDog(ctx context.Context, dogID string, role breeding.RecordRole) ([]breeding.Record, error) {
	return t.st.listRecordsByDog(dogID, role)
}

// ---------- Estado (sin locks) ----------

func (s *breedingState) clone() *breedingState {
	out := &breedingState{
		programs: make(map[string]breeding.Program, len(s.programs)),
		pairs:    make(map[string]breeding.Pair, len(s.pairs)),
		records:  make(map[string]breeding.Record, len(s.records)),
		now:      s.now,
	}
	for k, v := range s.programs {
		out.programs[k] = v
	}
	for k, v := range s.pairs {
		out.pairs[k] = v
	}
	for k, v := range s.records {
		out.records[k] = v
	}
	return out
}

func (s *breedingState) createProgram(p breeding.Program) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("program id required")
	}
	if _, exists := s.programs[p.ID]; exists {
		return errors.New("program already exists")
	}
	s.programs[p.ID] = p
	return nil
}

func (s *breedingState) updateProgram(p breeding.Program) error {
	if _, exists := s.programs[p.ID]; !exists {
		return breeding.ErrNotFound
	}
	s.programs[p.ID] = p
	return nil
}

func (s *breedingState) getProgram(id string) (breeding.Program, error) {
	p, ok := s.programs[id]
	if !ok {
		return breeding.Program{}, breeding.ErrNotFound
	}
	return p, nil
}

func (s *breedingState) listProgramsByBreeder(breederUserID string) ([]breeding.Program, error) {
	out := make([]breeding.Program, 0)
	for _, p := range s.programs {
		if p.BreederUserID == breederUserID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *breedingState) deleteProgram(id string) error {
	if _, exists := s.programs[id]; !exists {
		return breeding.ErrNotFound
	}
	delete(s.programs, id)
	// Cascada: los pares viven solo dentro de su programa.
	for pairID, p := range s.pairs {
		if p.ProgramID == id {
			delete(s.pairs, pairID)
		}
	}
	return nil
}

func (s *breedingState) createPair(p breeding.Pair) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pair id required")
	}
	if _, exists := s.pairs[p.ID]; exists {
		return errors.New("pair already exists")
	}
	s.pairs[p.ID] = p
	return nil
}

func (s *breedingState) getPair(id string) (breeding.Pair, error) {
	p, ok := s.pairs[id]
	if !ok {
		return breeding.Pair{}, breeding.ErrNotFound
	}
	return p, nil
}

func (s *breedingState) findPair(programID, sireID, damID string) (breeding.Pair, error) {
	for _, p := range s.pairs {
		if p.ProgramID == programID && p.SireID == sireID && p.DamID == damID {
			return p, nil
		}
	}
	return breeding.Pair{}, breeding.ErrNotFound
}

func (s *breedingState) updatePairStatus(id string, status breeding.PairStatus, notes string) (breeding.Pair, error) {
	p, ok := s.pairs[id]
	if !ok {
		return breeding.Pair{}, breeding.ErrNotFound
	}
	p.Status = status
	if notes != "" {
		p.StatusNotes = notes
	}
	p.UpdatedAt = s.now()
	s.pairs[id] = p
	return p, nil
}

func (s *breedingState) listPairsByProgram(programID string) ([]breeding.Pair, error) {
	out := make([]breeding.Pair, 0)
	for _, p := range s.pairs {
		if p.ProgramID == programID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *breedingState) createRecord(rec breeding.Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("record id required")
	}
	if _, exists := s.records[rec.ID]; exists {
		return errors.New("record already exists")
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *breedingState) getRecord(id string) (breeding.Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return breeding.Record{}, breeding.ErrNotFound
	}
	return rec, nil
}

func (s *breedingState) linkRecordToPair(recordID, pairID string) (breeding.Record, error) {
	rec, ok := s.records[recordID]
	if !ok {
		return breeding.Record{}, breeding.ErrNotFound
	}
	rec.BreedingPairID = &pairID
	rec.UpdatedAt = s.now()
	s.records[recordID] = rec
	return rec, nil
}

func (s *breedingState) listRecordsByDog(dogID string, role breeding.RecordRole) ([]breeding.Record, error) {
	out := make([]breeding.Record, 0)
	for _, rec := range s.records {
		switch role {
		case breeding.RoleSire:
			if rec.SireID == dogID {
				out = append(out, rec)
			}
		case breeding.RoleDam:
			if rec.DamID == dogID {
				out = append(out, rec)
			}
		default:
			if rec.SireID == dogID || rec.DamID == dogID {
				out = append(out, rec)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].BreedingDate.Before(out[j].BreedingDate)
	})
	return out, nil
}
