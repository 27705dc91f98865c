package dogs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name               string
	Breed              string
	Color              string
	RegistrationNumber string
	Titles             []string
	Sex                string
	BirthDate          *time.Time
	SireID             *string
	DamID              *string
	Notes              string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Dog, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Dog{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Dog{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	sex := Sex(strings.ToLower(strings.TrimSpace(in.Sex)))
	if sex != SexMale && sex != SexFemale {
		return Dog{}, fmt.Errorf("%w: sex must be male or female", ErrInvalidInput)
	}

	// Sire macho, dam hembra, y ambos existentes en el registro.
	sireID, err := s.validateParent(ctx, in.SireID, SexMale, "sire")
	if err != nil {
		return Dog{}, err
	}
	damID, err := s.validateParent(ctx, in.DamID, SexFemale, "dam")
	if err != nil {
		return Dog{}, err
	}

	now := s.now()
	d := Dog{
		ID:                 uuid.NewString(),
		OwnerUserID:        ownerUserID,
		Name:               strings.TrimSpace(in.Name),
		Breed:              strings.TrimSpace(in.Breed),
		Color:              strings.TrimSpace(in.Color),
		RegistrationNumber: strings.TrimSpace(in.RegistrationNumber),
		Titles:             normalizeTitles(in.Titles),
		Sex:                sex,
		BirthDate:          in.BirthDate,
		SireID:             sireID,
		DamID:              damID,
		ApprovalStatus:     ApprovalPending,
		Notes:              strings.TrimSpace(in.Notes),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return Dog{}, err
	}
	return d, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Dog, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Dog{}, ErrInvalidInput
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Dog{}, fmt.Errorf("%w: dog with ID %s", ErrNotFound, id)
		}
		// Falla del store, no ausencia: se propaga tal cual.
		return Dog{}, err
	}
	return d, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Dog, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

type UpdateProfileInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name               *string
	Breed              *string
	Color              *string
	RegistrationNumber *string
	Titles             *[]string
	Notes              *string
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (Dog, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Dog{}, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Dog{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		current.Name = strings.TrimSpace(*in.Name)
	}
	if in.Breed != nil {
		current.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Color != nil {
		current.Color = strings.TrimSpace(*in.Color)
	}
	if in.RegistrationNumber != nil {
		current.RegistrationNumber = strings.TrimSpace(*in.RegistrationNumber)
	}
	if in.Titles != nil {
		current.Titles = normalizeTitles(*in.Titles)
	}
	if in.Notes != nil {
		current.Notes = strings.TrimSpace(*in.Notes)
	}

	current.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, current); err != nil {
		return Dog{}, err
	}
	return current, nil
}

// SetApproval cambia el estado de aprobación (solo admin; el handler
// aplica el gate de rol, el service solo valida el valor).
func (s *Service) SetApproval(ctx context.Context, id string, status string) (Dog, error) {
	st := ApprovalStatus(strings.ToLower(strings.TrimSpace(status)))
	switch st {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
	default:
		return Dog{}, fmt.Errorf("%w: approval status %q", ErrInvalidInput, status)
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Dog{}, err
	}

	current.ApprovalStatus = st
	current.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, current); err != nil {
		return Dog{}, err
	}
	return current, nil
}

func (s *Service) validateParent(ctx context.Context, id *string, wantSex Sex, role string) (*string, error) {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil, nil
	}

	pid := strings.TrimSpace(*id)
	parent, err := s.repo.GetByID(ctx, pid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s with ID %s", ErrNotFound, role, pid)
		}
		return nil, err
	}
	if parent.Sex != wantSex {
		return nil, fmt.Errorf("%w: %s must be %s", ErrInvalidInput, role, wantSex)
	}
	return &pid, nil
}

func normalizeTitles(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
