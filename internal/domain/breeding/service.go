package breeding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dog-registry/internal/domain/dogs"
	"dog-registry/internal/platform/logger"
	"dog-registry/internal/platform/metrics"
	"dog-registry/internal/ports/audit"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicatePair     = errors.New("breeding pair already exists for this program")
	ErrAlreadyLinked     = errors.New("breeding record is already linked to a different pair")
)

// DogFinder es el accessor de solo lectura sobre el registro de perros,
// usado para validar existencia y sexo de sire/dam.
type DogFinder interface {
	GetByID(ctx context.Context, id string) (dogs.Dog, error)
}

type Service struct {
	repo    Repository
	dogs    DogFinder
	sink    audit.Sink
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo Repository, finder DogFinder, sink audit.Sink, log logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		dogs:    finder,
		sink:    sink,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// ---------- Programas ----------

type CreateProgramInput struct {
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
}

func (s *Service) CreateProgram(ctx context.Context, breederUserID string, in CreateProgramInput) (Program, error) {
	if strings.TrimSpace(breederUserID) == "" {
		return Program{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Program{}, fmt.Errorf("%w: program name is required", ErrInvalidInput)
	}
	if err := validateProgramDates(in.StartDate, in.EndDate); err != nil {
		return Program{}, err
	}

	now := s.now()
	p := Program{
		ID:            uuid.NewString(),
		BreederUserID: breederUserID,
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		Status:        ProgramPlanning,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreateProgram(ctx, p); err != nil {
		return Program{}, err
	}

	s.recordAudit(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: "breeding_program",
		EntityID:   p.ID,
		ActorID:    breederUserID,
		NewState:   marshalState(p),
		Note:       "breeding program created",
	})
	return p, nil
}

type UpdateProgramInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name        *string
	Description *string
	Status      *string
	StartDate   *time.Time
	EndDate     *time.Time
}

func (s *Service) UpdateProgram(ctx context.Context, actorID, programID string, in UpdateProgramInput) (Program, error) {
	var updated Program

	err := s.repo.RunInTx(ctx, func(r Repository) error {
		current, err := r.GetProgramByID(ctx, programID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: breeding program with ID %s", ErrNotFound, programID)
			}
			return err
		}
		prev := current

		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return fmt.Errorf("%w: program name cannot be empty", ErrInvalidInput)
			}
			current.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			current.Description = strings.TrimSpace(*in.Description)
		}
		if in.Status != nil {
			st := ProgramStatus(strings.ToUpper(strings.TrimSpace(*in.Status)))
			if !ValidProgramStatus(st) {
				return fmt.Errorf("%w: program status %q", ErrInvalidInput, *in.Status)
			}
			current.Status = st
		}
		if in.StartDate != nil {
			current.StartDate = in.StartDate
		}
		if in.EndDate != nil {
			current.EndDate = in.EndDate
		}
		if err := validateProgramDates(current.StartDate, current.EndDate); err != nil {
			return err
		}

		current.UpdatedAt = s.now()
		if err := r.UpdateProgram(ctx, current); err != nil {
			return err
		}
		updated = current

		s.recordAudit(ctx, audit.Entry{
			Action:     audit.ActionUpdate,
			EntityType: "breeding_program",
			EntityID:   current.ID,
			ActorID:    actorID,
			PrevState:  marshalState(prev),
			NewState:   marshalState(current),
			Note:       "breeding program updated",
		})
		return nil
	})
	if err != nil {
		return Program{}, err
	}
	return updated, nil
}

func (s *Service) GetProgram(ctx context.Context, id string) (Program, error) {
	p, err := s.repo.GetProgramByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Program{}, fmt.Errorf("%w: breeding program with ID %s", ErrNotFound, id)
		}
		return Program{}, err
	}
	return p, nil
}

func (s *Service) ListProgramsByBreeder(ctx context.Context, breederUserID string) ([]Program, error) {
	return s.repo.ListProgramsByBreeder(ctx, breederUserID)
}

// DeleteProgram borra el programa y sus pares por cascada. Es el único
// camino por el que un par desaparece.
func (s *Service) DeleteProgram(ctx context.Context, actorID, programID string) error {
	return s.repo.RunInTx(ctx, func(r Repository) error {
		prev, err := r.GetProgramByID(ctx, programID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: breeding program with ID %s", ErrNotFound, programID)
			}
			return err
		}
		if err := r.DeleteProgram(ctx, programID); err != nil {
			return err
		}

		s.recordAudit(ctx, audit.Entry{
			Action:     audit.ActionDelete,
			EntityType: "breeding_program",
			EntityID:   programID,
			ActorID:    actorID,
			PrevState:  marshalState(prev),
			Note:       "breeding program deleted (pairs cascaded)",
		})
		return nil
	})
}

// ---------- Pares ----------

type AddPairInput struct {
	ProgramID          string
	SireID             string
	DamID              string
	PlannedDate        *time.Time
	CompatibilityNotes string
	GeneticScore       *float64
	// InitialStatus opcional; vacío = PLANNED.
	InitialStatus string
}

// AddPair crea un par dentro de un programa. Todas las validaciones de
// lectura (programa/sire/dam existen, sexos, tripleta única) y el
// insert corren dentro de la misma transacción para que dos propuestas
// concurrentes no dupliquen la tripleta.
func (s *Service) AddPair(ctx context.Context, actorID string, in AddPairInput) (Pair, error) {
	if strings.TrimSpace(in.ProgramID) == "" || strings.TrimSpace(in.SireID) == "" || strings.TrimSpace(in.DamID) == "" {
		return Pair{}, fmt.Errorf("%w: program_id, sire_id and dam_id are required", ErrInvalidInput)
	}

	status := PairPlanned
	if strings.TrimSpace(in.InitialStatus) != "" {
		status = PairStatus(strings.ToUpper(strings.TrimSpace(in.InitialStatus)))
		if !ValidPairStatus(status) {
			return Pair{}, fmt.Errorf("%w: pair status %q", ErrInvalidInput, in.InitialStatus)
		}
	}

	sire, err := s.dogs.GetByID(ctx, in.SireID)
	if err != nil {
		if errors.Is(err, dogs.ErrNotFound) {
			return Pair{}, fmt.Errorf("%w: sire with ID %s", ErrNotFound, in.SireID)
		}
		return Pair{}, err
	}
	if sire.Sex != dogs.SexMale {
		return Pair{}, fmt.Errorf("%w: sire with ID %s must be male", ErrInvalidInput, in.SireID)
	}
	dam, err := s.dogs.GetByID(ctx, in.DamID)
	if err != nil {
		if errors.Is(err, dogs.ErrNotFound) {
			return Pair{}, fmt.Errorf("%w: dam with ID %s", ErrNotFound, in.DamID)
		}
		return Pair{}, err
	}
	if dam.Sex != dogs.SexFemale {
		return Pair{}, fmt.Errorf("%w: dam with ID %s must be female", ErrInvalidInput, in.DamID)
	}

	var created Pair
	err = s.repo.RunInTx(ctx, func(r Repository) error {
		if _, err := r.GetProgramByID(ctx, in.ProgramID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: breeding program with ID %s", ErrNotFound, in.ProgramID)
			}
			return err
		}

		// Chequeo de unicidad dentro de la misma tx que el insert.
		// Solo la ausencia habilita el insert: cualquier otra falla
		// del store aborta en vez de arriesgar un duplicado.
		if _, err := r.FindPair(ctx, in.ProgramID, in.SireID, in.DamID); err == nil {
			return ErrDuplicatePair
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		now := s.now()
		p := Pair{
			ID:                 uuid.NewString(),
			ProgramID:          in.ProgramID,
			SireID:             in.SireID,
			DamID:              in.DamID,
			PlannedDate:        in.PlannedDate,
			CompatibilityNotes: strings.TrimSpace(in.CompatibilityNotes),
			GeneticScore:       in.GeneticScore,
			Status:             status,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := r.CreatePair(ctx, p); err != nil {
			return err
		}
		created = p

		s.recordAudit(ctx, audit.Entry{
			Action:     audit.ActionCreate,
			EntityType: "breeding_pair",
			EntityID:   p.ID,
			ActorID:    actorID,
			NewState:   marshalState(p),
			Note:       "breeding pair proposed",
		})
		return nil
	})
	if err != nil {
		return Pair{}, err
	}
	return created, nil
}

func (s *Service) GetPair(ctx context.Context, id string) (Pair, error) {
	p, err := s.repo.GetPairByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Pair{}, fmt.Errorf("%w: breeding pair with ID %s", ErrNotFound, id)
		}
		return Pair{}, err
	}
	return p, nil
}

func (s *Service) ListPairsByProgram(ctx context.Context, programID string) ([]Pair, error) {
	if strings.TrimSpace(programID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListPairsByProgram(ctx, programID)
}

// UpdatePairStatus aplica una transición validada de la máquina de
// estados. Lee y escribe dentro de la misma transacción para que dos
// requests concurrentes no observen ambos el estado previo y terminen
// los dos en estados mutuamente excluyentes.
func (s *Service) UpdatePairStatus(ctx context.Context, actorID, pairID string, target PairStatus, notes string) (Pair, error) {
	if !ValidPairStatus(target) {
		return Pair{}, fmt.Errorf("%w: pair status %q", ErrInvalidInput, target)
	}
	notes = strings.TrimSpace(notes)
	if target == PairCancelled && notes == "" {
		return Pair{}, fmt.Errorf("%w: cancellation requires notes", ErrInvalidInput)
	}

	var updated Pair
	err := s.repo.RunInTx(ctx, func(r Repository) error {
		current, err := r.GetPairByID(ctx, pairID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: breeding pair with ID %s", ErrNotFound, pairID)
			}
			return err
		}

		if !CanTransition(current.Status, target) {
			return fmt.Errorf("%w from %s to %s", ErrInvalidTransition, current.Status, target)
		}

		after, err := r.UpdatePairStatus(ctx, pairID, target, notes)
		if err != nil {
			return err
		}
		updated = after

		s.recordAudit(ctx, audit.Entry{
			Action:     audit.ActionStatusTransition,
			EntityType: "breeding_pair",
			EntityID:   pairID,
			ActorID:    actorID,
			PrevState:  marshalState(current),
			NewState:   marshalState(after),
			Note:       fmt.Sprintf("status %s -> %s", current.Status, target),
		})
		return nil
	})
	if err != nil {
		return Pair{}, err
	}
	if s.metrics != nil {
		s.metrics.PairTransitions.Inc()
	}
	return updated, nil
}

// ---------- Records ----------

type CreateRecordInput struct {
	SireID       string
	DamID        string
	BreedingDate time.Time
	LitterSize   int
}

// CreateRecord registra una cruza realizada. Es independiente del
// tracking de pares: se puede registrar una camada que nunca fue un
// par formal y linkearla después.
func (s *Service) CreateRecord(ctx context.Context, actorID string, in CreateRecordInput) (Record, error) {
	if in.BreedingDate.IsZero() {
		return Record{}, fmt.Errorf("%w: breeding_date is required", ErrInvalidInput)
	}
	if in.LitterSize < 0 {
		return Record{}, fmt.Errorf("%w: litter_size cannot be negative", ErrInvalidInput)
	}

	sire, err := s.dogs.GetByID(ctx, in.SireID)
	if err != nil {
		if errors.Is(err, dogs.ErrNotFound) {
			return Record{}, fmt.Errorf("%w: sire with ID %s", ErrNotFound, in.SireID)
		}
		return Record{}, err
	}
	if sire.Sex != dogs.SexMale {
		return Record{}, fmt.Errorf("%w: sire with ID %s must be male", ErrInvalidInput, in.SireID)
	}
	dam, err := s.dogs.GetByID(ctx, in.DamID)
	if err != nil {
		if errors.Is(err, dogs.ErrNotFound) {
			return Record{}, fmt.Errorf("%w: dam with ID %s", ErrNotFound, in.DamID)
		}
		return Record{}, err
	}
	if dam.Sex != dogs.SexFemale {
		return Record{}, fmt.Errorf("%w: dam with ID %s must be female", ErrInvalidInput, in.DamID)
	}

	now := s.now()
	rec := Record{
		ID:           uuid.NewString(),
		SireID:       in.SireID,
		DamID:        in.DamID,
		BreedingDate: in.BreedingDate,
		LitterSize:   in.LitterSize,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		return Record{}, err
	}

	s.recordAudit(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: "breeding_record",
		EntityID:   rec.ID,
		ActorID:    actorID,
		NewState:   marshalState(rec),
		Note:       "breeding record created",
	})
	return rec, nil
}

// LinkLitter asocia un record (camada) a un par. Invariante
// cross-entity, no una transición de estado: se permite con el par en
// cualquier estado del ciclo de vida, pero un record ya linkeado a
// OTRO par se rechaza hasta que se deslinkee.
func (s *Service) LinkLitter(ctx context.Context, actorID, pairID, recordID string) (Record, error) {
	var linked Record

	err := s.repo.RunInTx(ctx, func(r Repository) error {
		if _, err := r.GetPairByID(ctx, pairID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: breeding pair with ID %s", ErrNotFound, pairID)
			}
			return err
		}

		rec, err := r.GetRecordByID(ctx, recordID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: breeding record with ID %s", ErrNotFound, recordID)
			}
			return err
		}
		if rec.BreedingPairID != nil && *rec.BreedingPairID != pairID {
			return fmt.Errorf("%w (record %s, pair %s)", ErrAlreadyLinked, recordID, *rec.BreedingPairID)
		}
		prev := rec

		after, err := r.LinkRecordToPair(ctx, recordID, pairID)
		if err != nil {
			return err
		}
		linked = after

		s.recordAudit(ctx, audit.Entry{
			Action:     audit.ActionLink,
			EntityType: "breeding_record",
			EntityID:   recordID,
			ActorID:    actorID,
			PrevState:  marshalState(prev),
			NewState:   marshalState(after),
			Note:       fmt.Sprintf("litter linked to pair %s", pairID),
		})
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return linked, nil
}

func (s *Service) ListRecordsByDog(ctx context.Context, dogID string, role RecordRole) ([]Record, error) {
	if strings.TrimSpace(dogID) == "" {
		return nil, ErrInvalidInput
	}
	if role == "" {
		role = RoleBoth
	}
	switch role {
	case RoleSire, RoleDam, RoleBoth:
	default:
		return nil, fmt.Errorf("%w: role must be sire, dam or both", ErrInvalidInput)
	}
	return s.repo.ListRecordsByDog(ctx, dogID, role)
}

// recordAudit escribe al sink fuera del camino crítico: un error acá
// se loguea y no revierte la mutación.
func (s *Service) recordAudit(ctx context.Context, e audit.Entry) {
	if s.sink == nil {
		return
	}
	e.At = s.now()
	if err := s.sink.Record(ctx, e); err != nil && s.log != nil {
		s.log.Warn("audit sink write failed", map[string]any{
			"action":      string(e.Action),
			"entity_type": e.EntityType,
			"entity_id":   e.EntityID,
			"error":       err.Error(),
		})
	}
}

func marshalState(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func validateProgramDates(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return fmt.Errorf("%w: end_date must be after start_date", ErrInvalidInput)
	}
	return nil
}
